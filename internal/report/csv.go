package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"audit/internal/aging"
	"audit/internal/analysis"
	"audit/internal/anomaly"
	"audit/internal/credit"
	"audit/internal/receivables"
	"audit/internal/revenue"
	"audit/internal/threewaymatch"
)

// ExportRevenueCSV produit le détail des revenus reconnus
func ExportRevenueCSV(res *revenue.Result) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(1024 * 1024)
	writer := csv.NewWriter(&buf)

	writer.Write([]string{"InvoiceDate", "InvoiceID", "SalesOrderID", "Customer", "Territory", "Amount", "Payment"})
	for _, row := range res.Rows {
		writer.Write([]string{
			row.InvoiceDate.Format("2006-01-02"),
			strconv.FormatInt(row.InvoiceID, 10),
			strconv.FormatInt(row.SalesOrderID, 10),
			row.CustomerName,
			row.TerritoryName,
			fmt.Sprintf("%.2f", row.Amount),
			row.Payment.String(),
		})
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

// ExportReceivablesCSV produit le détail de l'encours clients à la clôture
func ExportReceivablesCSV(res *receivables.Result) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(512 * 1024)
	writer := csv.NewWriter(&buf)

	writer.Write([]string{"InvoiceDate", "InvoiceID", "SalesOrderID", "Customer", "Amount", "Classification"})
	for _, row := range res.Rows {
		writer.Write([]string{
			row.InvoiceDate.Format("2006-01-02"),
			strconv.FormatInt(row.InvoiceID, 10),
			strconv.FormatInt(row.SalesOrderID, 10),
			row.CustomerName,
			fmt.Sprintf("%.2f", row.Amount),
			string(row.Classification),
		})
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

// ExportThreeWayCSV produit la liste des exceptions de concordance,
// triées par catégorie puis montant décroissant
func ExportThreeWayCSV(res *threewaymatch.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	writer.Write([]string{"Category", "SalesOrderID", "Customer", "OrderDate", "Amount", "InvoiceID", "InvoiceDate", "Payment", "ShipID", "ShipDate"})
	for _, e := range res.Exceptions {
		invoiceID, invoiceDate := "", ""
		if e.InvoiceID != nil {
			invoiceID = strconv.FormatInt(*e.InvoiceID, 10)
			invoiceDate = e.InvoiceDate.Format("2006-01-02")
		}
		shipID, shipDate := "", ""
		if e.ShipID != nil {
			shipID = strconv.FormatInt(*e.ShipID, 10)
			shipDate = e.ShipDate.Format("2006-01-02")
		}
		writer.Write([]string{
			string(e.Category),
			strconv.FormatInt(e.SalesOrderID, 10),
			e.CustomerName,
			e.OrderDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", e.Amount),
			invoiceID,
			invoiceDate,
			e.PaymentState,
			shipID,
			shipDate,
		})
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

// ExportCreditCSV produit la liste des dépassements de limite et la
// watchlist
func ExportCreditCSV(res *credit.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	writer.Write([]string{"EXCEPTIONS"})
	writer.Write([]string{"CustID", "Customer", "CredLimit", "Balance", "Excess", "Utilization", "OpenInvoices", "SnapshotOnly"})
	for _, e := range res.Exceptions {
		writer.Write([]string{
			strconv.FormatInt(e.CustID, 10),
			e.CustomerName,
			fmt.Sprintf("%.2f", e.CredLimit),
			fmt.Sprintf("%.2f", e.Balance),
			fmt.Sprintf("%.2f", e.Excess),
			fmt.Sprintf("%.4f", e.Utilization),
			strconv.Itoa(e.OpenInvoices),
			strconv.FormatBool(e.SnapshotOnly),
		})
	}
	writer.Write([]string{})

	writer.Write([]string{"WATCHLIST (>80% UTILIZATION)"})
	writer.Write([]string{"CustID", "Customer", "CredLimit", "Balance", "Utilization"})
	for _, w := range res.Watchlist {
		writer.Write([]string{
			strconv.FormatInt(w.CustID, 10),
			w.CustomerName,
			fmt.Sprintf("%.2f", w.CredLimit),
			fmt.Sprintf("%.2f", w.Balance),
			fmt.Sprintf("%.4f", w.Utilization),
		})
	}

	if len(res.NoLimitApproved) > 0 {
		writer.Write([]string{})
		writer.Write([]string{"CREDIT-APPROVED WITHOUT LIMIT"})
		writer.Write([]string{"SalesOrderID", "CustID", "Customer", "Amount"})
		for _, n := range res.NoLimitApproved {
			writer.Write([]string{
				strconv.FormatInt(n.SalesOrderID, 10),
				strconv.FormatInt(n.CustID, 10),
				n.CustomerName,
				fmt.Sprintf("%.2f", n.Amount),
			})
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

// ExportAgingCSV produit la balance âgée par client et, si disponible, la
// comparaison avec le listing 90+ du client
func ExportAgingCSV(res *aging.Result, diff *aging.ReferenceDiff) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(512 * 1024)
	writer := csv.NewWriter(&buf)

	writer.Write([]string{"AGING BY CUSTOMER"})
	writer.Write([]string{"CustID", "Customer", "0-30", "31-60", "61-90", "90+", "Total"})
	for _, c := range res.Customers {
		writer.Write(agingRow(strconv.FormatInt(c.CustID, 10), c))
	}
	writer.Write(agingRow("TOTAL", res.Totals))
	writer.Write([]string{})

	writer.Write([]string{"ALLOWANCE"})
	writer.Write([]string{"Recommended", "Recorded", "VariancePct", "Verdict"})
	writer.Write([]string{
		fmt.Sprintf("%.2f", res.Allowance.Recommended),
		fmt.Sprintf("%.2f", res.Allowance.Current),
		fmt.Sprintf("%.2f", res.Allowance.VariancePct),
		string(res.Allowance.Verdict),
	})

	if diff != nil {
		writer.Write([]string{})
		writer.Write([]string{"CLIENT 90+ LISTING COMPARISON"})
		writer.Write([]string{"Customer", "Ours", "Theirs", "Diff"})
		for _, d := range diff.AmountDiffs {
			writer.Write([]string{d.CustomerName, fmt.Sprintf("%.2f", d.Ours), fmt.Sprintf("%.2f", d.Theirs), fmt.Sprintf("%.2f", d.Diff)})
		}
		for _, o := range diff.OnlyOurs {
			writer.Write([]string{o.CustomerName, fmt.Sprintf("%.2f", o.B90Plus), "", ""})
		}
		for _, t := range diff.OnlyTheirs {
			writer.Write([]string{t.CustomerName, "", fmt.Sprintf("%.2f", t.Amount), ""})
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func agingRow(label string, c aging.CustomerAging) []string {
	return []string{
		label,
		c.CustomerName,
		fmt.Sprintf("%.2f", c.B0to30),
		fmt.Sprintf("%.2f", c.B31to60),
		fmt.Sprintf("%.2f", c.B61to90),
		fmt.Sprintf("%.2f", c.B90Plus),
		fmt.Sprintf("%.2f", c.Total),
	}
}

// ExportAnomalyCSV produit les signaux d'anomalie : profil trimestriel,
// concentrations et fiches clients modifiées au T4
func ExportAnomalyCSV(res *anomaly.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	writer.Write([]string{"QUARTERLY REVENUE"})
	writer.Write([]string{"Quarter", "Invoices", "Amount"})
	for _, q := range res.Quarters {
		writer.Write([]string{fmt.Sprintf("Q%d", q.Quarter), strconv.Itoa(q.Count), fmt.Sprintf("%.2f", q.Amount)})
	}
	writer.Write([]string{})

	writer.Write([]string{"TOP CUSTOMERS"})
	writer.Write([]string{"Customer", "Amount", "SharePct"})
	for _, c := range res.TopCustomers {
		writer.Write([]string{c.Name, fmt.Sprintf("%.2f", c.Amount), fmt.Sprintf("%.2f", c.SharePct)})
	}
	writer.Write([]string{})

	writer.Write([]string{"Q4 CUSTOMER RECORD CHANGES"})
	writer.Write([]string{"CustID", "Customer", "CredLimit", "ModifiedDate"})
	for _, ch := range res.Q4LimitChanges {
		writer.Write([]string{
			strconv.FormatInt(ch.CustID, 10),
			ch.CustomerName,
			fmt.Sprintf("%.2f", ch.CredLimit),
			ch.ModifiedDate.Format("2006-01-02"),
		})
	}

	if len(res.Patterns) > 0 {
		writer.Write([]string{})
		writer.Write([]string{"DETECTED PATTERNS"})
		writer.Write([]string{"Kind", "Detail"})
		for _, p := range res.Patterns {
			writer.Write([]string{p.Kind, p.Detail})
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

// ExportSummaryCSV produit la feuille de synthèse sectionnée du rapport
func ExportSummaryCSV(rep *analysis.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	writer.Write([]string{"RECONCILIATIONS"})
	writer.Write([]string{"Metric", "Value"})
	writer.Write([]string{"Fiscal year", strconv.Itoa(rep.FiscalYear)})
	writer.Write([]string{"Recognized revenue", fmt.Sprintf("%.2f", rep.Revenue.RecognizedRevenue)})
	writer.Write([]string{"Revenue trial balance", fmt.Sprintf("%.2f", rep.Revenue.TrialBalance)})
	writer.Write([]string{"Revenue status", string(rep.Revenue.Status)})
	writer.Write([]string{"Gross receivables", fmt.Sprintf("%.2f", rep.Receivables.GrossReceivables)})
	writer.Write([]string{"Receivables trial balance", fmt.Sprintf("%.2f", rep.Receivables.TrialBalance)})
	writer.Write([]string{"Receivables status", string(rep.Receivables.Status)})
	writer.Write([]string{})

	writer.Write([]string{"THREE-WAY MATCH"})
	writer.Write([]string{"Category", "Count", "Amount", "SharePct"})
	for _, s := range rep.ThreeWay.Summaries {
		writer.Write([]string{string(s.Category), strconv.Itoa(s.Count), fmt.Sprintf("%.2f", s.Amount), fmt.Sprintf("%.2f", s.Share)})
	}
	writer.Write([]string{})

	writer.Write([]string{"RISK ASSESSMENT"})
	writer.Write([]string{"Area", "Score", "Weight", "Detail"})
	for _, f := range rep.Risk.Factors {
		writer.Write([]string{f.Area, fmt.Sprintf("%.2f", f.Score), fmt.Sprintf("%.2f", f.Weight), f.Detail})
	}
	writer.Write([]string{"Weighted score", fmt.Sprintf("%.2f", rep.Risk.WeightedScore)})
	writer.Write([]string{"Level", rep.Risk.Level})

	writer.Flush()
	return buf.Bytes(), writer.Error()
}
