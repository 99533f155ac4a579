package dataset

import (
	"audit/database"
)

// TableCount résume le chargement d'une table
type TableCount struct {
	Table        string `json:"table"`
	RowsRead     int    `json:"rows_read"`
	RowsFlagged  int    `json:"rows_flagged"`
}

// LoadReport récapitule le chargement : volumes par table et observations
type LoadReport struct {
	Counts   []TableCount `json:"counts"`
	Findings []Finding    `json:"findings"`
}

// FindingsOf retourne les observations d'un type donné
func (r *LoadReport) FindingsOf(kind FindingKind) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Dataset est l'extraction validée et indexée sur laquelle tournent tous
// les moteurs d'analyse. Les index sont construits une fois au chargement,
// les moteurs ne refont jamais de jointure par balayage.
type Dataset struct {
	Orders      []database.SalesOrder
	Shipments   []database.Shipment
	Invoices    []database.Invoice
	Territories []database.Territory
	Customers   []database.Customer
	Products    []database.Product

	// Journal append-only des limites de crédit (optionnel dans l'extraction)
	CreditHistory []database.CreditLimitChange

	OrdersByID       map[int64]*database.SalesOrder
	OrdersByInvoice  map[int64]*database.SalesOrder
	OrdersByShipment map[int64]*database.SalesOrder
	InvoicesByID     map[int64]*database.Invoice
	InvoicesByOrder  map[int64]*database.Invoice
	ShipmentsByID    map[int64]*database.Shipment
	CustomersByID    map[int64]*database.Customer
	ProductsByID     map[int64]*database.Product
	TerritoriesByID  map[int64]*database.Territory

	Report LoadReport
}

// BuildIndexes construit les index de jointure. Un identifiant dupliqué est
// une rupture d'intégrité, pas une observation.
func (d *Dataset) BuildIndexes() error {
	d.OrdersByID = make(map[int64]*database.SalesOrder, len(d.Orders))
	d.OrdersByInvoice = make(map[int64]*database.SalesOrder)
	d.OrdersByShipment = make(map[int64]*database.SalesOrder)
	for i := range d.Orders {
		o := &d.Orders[i]
		if _, exists := d.OrdersByID[o.SalesOrderID]; exists {
			return &DataIntegrityError{Table: "sales_orders", Row: itoa(o.SalesOrderID), Field: "SalesOrderID", Reason: "duplicate identifier"}
		}
		d.OrdersByID[o.SalesOrderID] = o
		if o.InvoiceID != nil {
			d.OrdersByInvoice[*o.InvoiceID] = o
		}
		if o.ShipID != nil {
			d.OrdersByShipment[*o.ShipID] = o
		}
	}

	d.InvoicesByID = make(map[int64]*database.Invoice, len(d.Invoices))
	d.InvoicesByOrder = make(map[int64]*database.Invoice, len(d.Invoices))
	for i := range d.Invoices {
		inv := &d.Invoices[i]
		if _, exists := d.InvoicesByID[inv.InvoiceID]; exists {
			return &DataIntegrityError{Table: "invoices", Row: itoa(inv.InvoiceID), Field: "InvoiceID", Reason: "duplicate identifier"}
		}
		d.InvoicesByID[inv.InvoiceID] = inv
		d.InvoicesByOrder[inv.SalesOrderID] = inv
	}

	d.ShipmentsByID = make(map[int64]*database.Shipment, len(d.Shipments))
	for i := range d.Shipments {
		s := &d.Shipments[i]
		if _, exists := d.ShipmentsByID[s.ShipID]; exists {
			return &DataIntegrityError{Table: "shipments", Row: itoa(s.ShipID), Field: "ShipID", Reason: "duplicate identifier"}
		}
		d.ShipmentsByID[s.ShipID] = s
	}

	d.CustomersByID = make(map[int64]*database.Customer, len(d.Customers))
	for i := range d.Customers {
		c := &d.Customers[i]
		if _, exists := d.CustomersByID[c.CustID]; exists {
			return &DataIntegrityError{Table: "customers", Row: itoa(c.CustID), Field: "CustID", Reason: "duplicate identifier"}
		}
		d.CustomersByID[c.CustID] = c
	}

	d.ProductsByID = make(map[int64]*database.Product, len(d.Products))
	for i := range d.Products {
		p := &d.Products[i]
		if _, exists := d.ProductsByID[p.ProdID]; exists {
			return &DataIntegrityError{Table: "products", Row: itoa(p.ProdID), Field: "ProdID", Reason: "duplicate identifier"}
		}
		d.ProductsByID[p.ProdID] = p
	}

	d.TerritoriesByID = make(map[int64]*database.Territory, len(d.Territories))
	for i := range d.Territories {
		t := &d.Territories[i]
		if _, exists := d.TerritoriesByID[t.TerritoryID]; exists {
			return &DataIntegrityError{Table: "territories", Row: itoa(t.TerritoryID), Field: "TerritoryID", Reason: "duplicate identifier"}
		}
		d.TerritoriesByID[t.TerritoryID] = t
	}

	return nil
}

// CustomerName retourne le nom du client, ou un libellé de repli
func (d *Dataset) CustomerName(custID int64) string {
	if c, ok := d.CustomersByID[custID]; ok {
		return c.CustName
	}
	return "UNKNOWN"
}

// TerritoryName retourne le nom du territoire, ou un libellé de repli
func (d *Dataset) TerritoryName(territoryID int64) string {
	if t, ok := d.TerritoriesByID[territoryID]; ok {
		return t.TerritoryName
	}
	return "UNKNOWN"
}

// AddFinding enregistre une observation de qualité de données
func (d *Dataset) AddFinding(kind FindingKind, table string, rowID int64, detail string) {
	d.Report.Findings = append(d.Report.Findings, Finding{Kind: kind, Table: table, RowID: rowID, Detail: detail})
}
