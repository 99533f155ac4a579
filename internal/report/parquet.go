package report

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"audit/database"
	"audit/internal/revenue"
)

const parquetBatchSize = 1000

// ExportRevenueParquet écrit le détail des revenus reconnus au format
// Parquet, par batches pour ne pas tout garder en mémoire
func ExportRevenueParquet(res *revenue.Result, path string) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("creating parquet file: %w", err)
	}
	defer fw.Close()

	// np=1 : le moteur d'analyse est mono-thread
	pw, err := writer.NewParquetWriter(fw, new(database.RevenueRowParquet), 1)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	written := 0
	for _, row := range res.Rows {
		rec := database.RevenueRowParquet{
			InvoiceDate:   row.InvoiceDate.Format("2006-01-02"),
			InvoiceID:     row.InvoiceID,
			SalesOrderID:  row.SalesOrderID,
			CustomerName:  row.CustomerName,
			TerritoryName: row.TerritoryName,
			Amount:        row.Amount,
			PaymentState:  row.Payment.String(),
		}
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("writing parquet row: %w", err)
		}
		written++
		if written%parquetBatchSize == 0 {
			if err := pw.Flush(true); err != nil {
				return fmt.Errorf("flushing parquet batch: %w", err)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalizing parquet file: %w", err)
	}
	return nil
}
