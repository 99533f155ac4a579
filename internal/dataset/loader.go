package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"audit/database"
	shareddomain "audit/internal/shared/domain"
)

// Noms de fichiers par défaut de l'extraction CSV (un fichier par table)
const (
	FileSalesOrders   = "SalesOrders.csv"
	FileShipments     = "Shipments.csv"
	FileInvoices      = "Invoices.csv"
	FileTerritories   = "Territories.csv"
	FileCustomers     = "Customers.csv"
	FileProducts      = "Products.csv"
	FileCreditHistory = "CreditLimitHistory.csv" // optionnel
)

// Tolérance d'arrondi par ligne sur les montants recomposés
const amountTolerance = 0.01

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
}

// Loader charge l'extraction CSV en Dataset validé. Tout est lu en chaînes
// puis converti explicitement : aucune inférence de type, aucune réparation.
type Loader struct {
	dir string
}

// NewLoader crée un chargeur pour le répertoire d'extraction donné
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load lit les six tables, construit les index et valide l'intégrité
// référentielle. Une rupture d'intégrité interrompt le chargement, les
// observations de qualité sont collectées dans le rapport.
func (l *Loader) Load() (*Dataset, error) {
	ds := &Dataset{}

	if err := l.loadOrders(ds); err != nil {
		return nil, err
	}
	if err := l.loadShipments(ds); err != nil {
		return nil, err
	}
	if err := l.loadInvoices(ds); err != nil {
		return nil, err
	}
	if err := l.loadTerritories(ds); err != nil {
		return nil, err
	}
	if err := l.loadCustomers(ds); err != nil {
		return nil, err
	}
	if err := l.loadProducts(ds); err != nil {
		return nil, err
	}
	if err := l.loadCreditHistory(ds); err != nil {
		return nil, err
	}

	return finalize(ds)
}

// finalize construit les index, valide l'intégrité et arrête les volumes
func finalize(ds *Dataset) (*Dataset, error) {
	if err := ds.BuildIndexes(); err != nil {
		return nil, err
	}
	if err := Validate(ds); err != nil {
		return nil, err
	}

	ds.Report.Counts = []TableCount{
		{Table: "sales_orders", RowsRead: len(ds.Orders)},
		{Table: "shipments", RowsRead: len(ds.Shipments)},
		{Table: "invoices", RowsRead: len(ds.Invoices)},
		{Table: "territories", RowsRead: len(ds.Territories)},
		{Table: "customers", RowsRead: len(ds.Customers)},
		{Table: "products", RowsRead: len(ds.Products)},
	}
	for i := range ds.Report.Counts {
		c := &ds.Report.Counts[i]
		for _, f := range ds.Report.Findings {
			if f.Table == c.Table {
				c.RowsFlagged++
			}
		}
	}

	return ds, nil
}

// FromTables construit un Dataset validé à partir de tables déjà en
// mémoire (rechargement depuis la base, fixtures de test). Mêmes index et
// mêmes contrôles que le chemin CSV.
func FromTables(t *database.Tables) (*Dataset, error) {
	ds := &Dataset{
		Orders:        t.Orders,
		Shipments:     t.Shipments,
		Invoices:      t.Invoices,
		Territories:   t.Territories,
		Customers:     t.Customers,
		Products:      t.Products,
		CreditHistory: t.History,
	}
	return finalize(ds)
}

func (l *Loader) loadOrders(ds *Dataset) error {
	return l.readTable(FileSalesOrders, "sales_orders", func(r row) error {
		id, err := r.int64Field("SalesOrderID")
		if err != nil {
			return err
		}
		orderDate, err := r.dateField("OrderDate")
		if err != nil {
			return err
		}
		prodID, err := r.int64Field("ProdID")
		if err != nil {
			return err
		}
		custID, err := r.int64Field("CustID")
		if err != nil {
			return err
		}
		territoryID, err := r.int64Field("TerritoryID")
		if err != nil {
			return err
		}
		qty, err := r.intField("Quantity")
		if err != nil {
			return err
		}
		unitPrice, err := r.floatField("UnitPrice")
		if err != nil {
			return err
		}
		subTotal, err := r.floatField("SubTotal")
		if err != nil {
			return err
		}
		taxAmt, err := r.floatField("TaxAmt")
		if err != nil {
			return err
		}
		freight, err := r.floatField("Freight")
		if err != nil {
			return err
		}
		totalDue, err := r.floatField("TotalDue")
		if err != nil {
			return err
		}
		credApr, err := r.boolField("CredApr")
		if err != nil {
			return err
		}
		shipID, err := r.optInt64Field("ShipID")
		if err != nil {
			return err
		}
		invoiceID, err := r.optInt64Field("InvoiceID")
		if err != nil {
			return err
		}
		modified, err := r.dateField("ModifiedDate")
		if err != nil {
			return err
		}

		ds.Orders = append(ds.Orders, database.SalesOrder{
			SalesOrderID: id,
			OrderDate:    orderDate,
			ProdID:       prodID,
			CustID:       custID,
			TerritoryID:  territoryID,
			Quantity:     qty,
			UnitPrice:    unitPrice,
			SubTotal:     subTotal,
			TaxAmt:       taxAmt,
			Freight:      freight,
			TotalDue:     totalDue,
			CredApr:      credApr,
			ShipID:       shipID,
			InvoiceID:    invoiceID,
			ModifiedDate: modified,
		})
		return nil
	})
}

func (l *Loader) loadShipments(ds *Dataset) error {
	return l.readTable(FileShipments, "shipments", func(r row) error {
		id, err := r.int64Field("ShipID")
		if err != nil {
			return err
		}
		orderID, err := r.int64Field("SalesOrderID")
		if err != nil {
			return err
		}
		shipDate, err := r.dateField("ShipDate")
		if err != nil {
			return err
		}
		weight, err := r.floatField("ShipWeight")
		if err != nil {
			return err
		}
		carrier := r.optField("Carrier")
		modified, err := r.dateField("ModifiedDate")
		if err != nil {
			return err
		}

		ds.Shipments = append(ds.Shipments, database.Shipment{
			ShipID:       id,
			SalesOrderID: orderID,
			ShipDate:     shipDate,
			ShipWeight:   weight,
			Carrier:      carrier,
			ModifiedDate: modified,
		})
		return nil
	})
}

func (l *Loader) loadInvoices(ds *Dataset) error {
	return l.readTable(FileInvoices, "invoices", func(r row) error {
		id, err := r.int64Field("InvoiceID")
		if err != nil {
			return err
		}
		custID, err := r.int64Field("CustID")
		if err != nil {
			return err
		}
		invoiceDate, err := r.dateField("InvoiceDate")
		if err != nil {
			return err
		}
		orderID, err := r.int64Field("SalesOrderID")
		if err != nil {
			return err
		}
		rawPaid, err := r.get("PaidDate")
		if err != nil {
			return err
		}
		// Le test de la sentinelle se fait sur la chaîne brute, avant
		// toute conversion en date.
		payment, err := shareddomain.NewPaymentStatus(rawPaid, ParseDate)
		if err != nil {
			return &DataIntegrityError{Table: r.table, Row: strconv.Itoa(r.num), Field: "PaidDate", Reason: "unparseable date", Err: err}
		}
		modified, err := r.dateField("ModifiedDate")
		if err != nil {
			return err
		}

		ds.Invoices = append(ds.Invoices, database.Invoice{
			InvoiceID:    id,
			CustID:       custID,
			InvoiceDate:  invoiceDate,
			SalesOrderID: orderID,
			Payment:      payment,
			ModifiedDate: modified,
		})
		return nil
	})
}

func (l *Loader) loadTerritories(ds *Dataset) error {
	return l.readTable(FileTerritories, "territories", func(r row) error {
		id, err := r.int64Field("TerritoryID")
		if err != nil {
			return err
		}
		name, err := r.get("TerritoryName")
		if err != nil {
			return err
		}
		goal, err := r.floatField("SalesGoalQTR")
		if err != nil {
			return err
		}
		modified, err := r.dateField("ModifiedDate")
		if err != nil {
			return err
		}

		ds.Territories = append(ds.Territories, database.Territory{
			TerritoryID:   id,
			TerritoryName: strings.TrimSpace(name),
			SalesPerson:   r.optField("SalesPerson"),
			SalesGoalQTR:  goal,
			ModifiedDate:  modified,
		})
		return nil
	})
}

func (l *Loader) loadCustomers(ds *Dataset) error {
	return l.readTable(FileCustomers, "customers", func(r row) error {
		id, err := r.int64Field("CustID")
		if err != nil {
			return err
		}
		territoryID, err := r.int64Field("TerritoryID")
		if err != nil {
			return err
		}
		name, err := r.get("CustName")
		if err != nil {
			return err
		}
		credLimit, err := r.floatField("CredLimit")
		if err != nil {
			return err
		}
		modified, err := r.dateField("ModifiedDate")
		if err != nil {
			return err
		}

		ds.Customers = append(ds.Customers, database.Customer{
			CustID:       id,
			TerritoryID:  territoryID,
			CustName:     strings.TrimSpace(name),
			Addr1:        r.optField("Addr1"),
			Addr2:        r.optField("Addr2"),
			City:         r.optField("City"),
			Zip:          r.optField("Zip"),
			CredLimit:    credLimit,
			ModifiedDate: modified,
		})
		return nil
	})
}

func (l *Loader) loadProducts(ds *Dataset) error {
	return l.readTable(FileProducts, "products", func(r row) error {
		id, err := r.int64Field("ProdID")
		if err != nil {
			return err
		}
		name, err := r.get("ProdName")
		if err != nil {
			return err
		}
		safetyStock, err := r.intField("SafetyStockLevel")
		if err != nil {
			return err
		}
		reManPoint, err := r.intField("ReManPoint")
		if err != nil {
			return err
		}
		stdCost, err := r.floatField("StandardCost")
		if err != nil {
			return err
		}
		unitPrice, err := r.floatField("UnitPrice")
		if err != nil {
			return err
		}
		weight, err := r.floatField("Weight")
		if err != nil {
			return err
		}
		daysToMan, err := r.intField("DaysToMan")
		if err != nil {
			return err
		}
		sellStart, err := r.dateField("SellStartDate")
		if err != nil {
			return err
		}
		modified, err := r.dateField("ModifiedDate")
		if err != nil {
			return err
		}

		ds.Products = append(ds.Products, database.Product{
			ProdID:           id,
			ProdName:         strings.TrimSpace(name),
			SafetyStockLevel: safetyStock,
			ReManPoint:       reManPoint,
			StandardCost:     stdCost,
			UnitPrice:        unitPrice,
			Weight:           weight,
			DaysToMan:        daysToMan,
			SellStartDate:    sellStart,
			ModifiedDate:     modified,
		})
		return nil
	})
}

// loadCreditHistory charge le journal des limites de crédit s'il est
// présent dans l'extraction. Son absence n'est pas une erreur : le contrôle
// de crédit retombe alors sur le snapshot courant.
func (l *Loader) loadCreditHistory(ds *Dataset) error {
	path := filepath.Join(l.dir, FileCreditHistory)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return l.readTable(FileCreditHistory, "credit_limit_history", func(r row) error {
		custID, err := r.int64Field("CustID")
		if err != nil {
			return err
		}
		limit, err := r.floatField("CredLimit")
		if err != nil {
			return err
		}
		effective, err := r.dateField("EffectiveDate")
		if err != nil {
			return err
		}

		ds.CreditHistory = append(ds.CreditHistory, database.CreditLimitChange{
			CustID:      custID,
			Limit:       limit,
			EffectiveAt: effective,
		})
		return nil
	})
}

// Validate contrôle l'intégrité référentielle et collecte les observations
// de qualité. Clé orpheline = fatal ; montant incohérent = observation.
func Validate(ds *Dataset) error {
	for i := range ds.Orders {
		o := &ds.Orders[i]
		if _, ok := ds.CustomersByID[o.CustID]; !ok {
			return orphan("sales_orders", o.SalesOrderID, "CustID", o.CustID)
		}
		if _, ok := ds.ProductsByID[o.ProdID]; !ok {
			return orphan("sales_orders", o.SalesOrderID, "ProdID", o.ProdID)
		}
		if _, ok := ds.TerritoriesByID[o.TerritoryID]; !ok {
			return orphan("sales_orders", o.SalesOrderID, "TerritoryID", o.TerritoryID)
		}
		if o.ShipID != nil {
			if _, ok := ds.ShipmentsByID[*o.ShipID]; !ok {
				return orphan("sales_orders", o.SalesOrderID, "ShipID", *o.ShipID)
			}
		}
		if o.InvoiceID != nil {
			inv, ok := ds.InvoicesByID[*o.InvoiceID]
			if !ok {
				return orphan("sales_orders", o.SalesOrderID, "InvoiceID", *o.InvoiceID)
			}
			if inv.SalesOrderID != o.SalesOrderID {
				ds.AddFinding(FindingLinkageConflict, "sales_orders", o.SalesOrderID,
					fmt.Sprintf("order references invoice %d which belongs to order %d", inv.InvoiceID, inv.SalesOrderID))
			}
		}

		if o.TotalDue < 0 || o.SubTotal < 0 {
			ds.AddFinding(FindingPossibleReversal, "sales_orders", o.SalesOrderID,
				fmt.Sprintf("negative amount (SubTotal=%.2f, TotalDue=%.2f), possible credit memo", o.SubTotal, o.TotalDue))
		} else if o.TotalDue == 0 {
			ds.AddFinding(FindingNonPositiveAmount, "sales_orders", o.SalesOrderID, "TotalDue is zero")
		}

		qtyTol := amountTolerance * math.Max(1, float64(o.Quantity))
		if math.Abs(o.SubTotal-float64(o.Quantity)*o.UnitPrice) > qtyTol {
			ds.AddFinding(FindingNonAdditiveAmounts, "sales_orders", o.SalesOrderID,
				fmt.Sprintf("SubTotal %.2f != Quantity %d x UnitPrice %.2f", o.SubTotal, o.Quantity, o.UnitPrice))
		}
		if math.Abs(o.TotalDue-(o.SubTotal+o.TaxAmt+o.Freight)) > amountTolerance {
			ds.AddFinding(FindingNonAdditiveAmounts, "sales_orders", o.SalesOrderID,
				fmt.Sprintf("TotalDue %.2f != SubTotal %.2f + TaxAmt %.2f + Freight %.2f", o.TotalDue, o.SubTotal, o.TaxAmt, o.Freight))
		}
	}

	for i := range ds.Invoices {
		inv := &ds.Invoices[i]
		if _, ok := ds.CustomersByID[inv.CustID]; !ok {
			return orphan("invoices", inv.InvoiceID, "CustID", inv.CustID)
		}
		o, ok := ds.OrdersByID[inv.SalesOrderID]
		if !ok {
			return orphan("invoices", inv.InvoiceID, "SalesOrderID", inv.SalesOrderID)
		}
		if o.InvoiceID == nil || *o.InvoiceID != inv.InvoiceID {
			ds.AddFinding(FindingLinkageConflict, "invoices", inv.InvoiceID,
				fmt.Sprintf("invoice claims order %d but the order does not reference it back", inv.SalesOrderID))
		}
		if paidDate, paid := inv.Payment.PaidDate(); paid && paidDate.Before(inv.InvoiceDate) {
			ds.AddFinding(FindingPaidBeforeInvoice, "invoices", inv.InvoiceID,
				fmt.Sprintf("paid %s before invoice date %s", paidDate.Format("2006-01-02"), inv.InvoiceDate.Format("2006-01-02")))
		}
	}

	for i := range ds.Shipments {
		s := &ds.Shipments[i]
		if _, ok := ds.OrdersByID[s.SalesOrderID]; !ok {
			return orphan("shipments", s.ShipID, "SalesOrderID", s.SalesOrderID)
		}
	}

	for _, ch := range ds.CreditHistory {
		if _, ok := ds.CustomersByID[ch.CustID]; !ok {
			return orphan("credit_limit_history", ch.CustID, "CustID", ch.CustID)
		}
	}

	return nil
}

func orphan(table string, rowID int64, field string, ref int64) error {
	return &DataIntegrityError{
		Table:  table,
		Row:    itoa(rowID),
		Field:  field,
		Reason: fmt.Sprintf("references missing %s %d", field, ref),
	}
}

// ============================================================================
// LECTURE CSV - tout en chaînes, conversion explicite ensuite
// ============================================================================

type row struct {
	table  string
	num    int
	header map[string]int
	fields []string
}

func (l *Loader) readTable(filename, table string, each func(row) error) error {
	path := filepath.Join(l.dir, filename)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filename, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("reading %s: empty file", filename)
	}

	header := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		header[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for i, fields := range records[1:] {
		r := row{table: table, num: i + 2, header: header, fields: fields}
		if err := each(r); err != nil {
			return err
		}
	}
	return nil
}

func (r row) get(col string) (string, error) {
	idx, ok := r.header[strings.ToLower(col)]
	if !ok || idx >= len(r.fields) {
		return "", &DataIntegrityError{Table: r.table, Row: strconv.Itoa(r.num), Field: col, Reason: "missing column"}
	}
	return strings.TrimSpace(r.fields[idx]), nil
}

// optField retourne la valeur d'une colonne facultative, vide si absente
func (r row) optField(col string) string {
	idx, ok := r.header[strings.ToLower(col)]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

func (r row) int64Field(col string) (int64, error) {
	raw, err := r.get(col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &DataIntegrityError{Table: r.table, Row: strconv.Itoa(r.num), Field: col, Reason: fmt.Sprintf("not an integer: %q", raw), Err: err}
	}
	return v, nil
}

func (r row) intField(col string) (int, error) {
	v, err := r.int64Field(col)
	return int(v), err
}

// optInt64Field traite vide / NULL / NaN comme absence de référence
func (r row) optInt64Field(col string) (*int64, error) {
	raw, err := r.get(col)
	if err != nil {
		return nil, err
	}
	switch strings.ToUpper(raw) {
	case "", "NULL", "NA", "NAN", "NONE":
		return nil, nil
	}
	// Les identifiants exportés depuis le classeur arrivent parfois en "1234.0"
	raw = strings.TrimSuffix(raw, ".0")
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &DataIntegrityError{Table: r.table, Row: strconv.Itoa(r.num), Field: col, Reason: fmt.Sprintf("not an integer: %q", raw), Err: err}
	}
	return &v, nil
}

func (r row) floatField(col string) (float64, error) {
	raw, err := r.get(col)
	if err != nil {
		return 0, err
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, &DataIntegrityError{Table: r.table, Row: strconv.Itoa(r.num), Field: col, Reason: fmt.Sprintf("not a number: %q", raw), Err: err}
	}
	return v, nil
}

func (r row) boolField(col string) (bool, error) {
	raw, err := r.get(col)
	if err != nil {
		return false, err
	}
	switch strings.ToUpper(raw) {
	case "Y", "YES", "TRUE", "1":
		return true, nil
	case "N", "NO", "FALSE", "0", "":
		return false, nil
	}
	return false, &DataIntegrityError{Table: r.table, Row: strconv.Itoa(r.num), Field: col, Reason: fmt.Sprintf("not a flag: %q", raw)}
}

func (r row) dateField(col string) (time.Time, error) {
	raw, err := r.get(col)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, &DataIntegrityError{Table: r.table, Row: strconv.Itoa(r.num), Field: col, Reason: fmt.Sprintf("unparseable date: %q", raw), Err: err}
	}
	return t, nil
}

// ParseDate essaie les formats de date rencontrés dans les extractions
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("no known date layout matches %q", raw)
}
