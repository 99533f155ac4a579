package testhelpers

import (
	"testing"
	"time"

	"audit/database"
	"audit/internal/dataset"
	shareddomain "audit/internal/shared/domain"
)

// Fixture construit une petite extraction en mémoire pour les tests des
// moteurs. Un territoire et un produit de référence sont pré-créés, le
// reste s'ajoute à la demande.
type Fixture struct {
	tables database.Tables
}

// Date construit une date UTC à minuit, le format de toutes les dates de
// l'extraction
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewFixture crée une extraction minimale valide
func NewFixture() *Fixture {
	f := &Fixture{}
	f.tables.Territories = append(f.tables.Territories, database.Territory{
		TerritoryID:   1,
		TerritoryName: "Northeast",
		SalesPerson:   "J. Whitfield",
		SalesGoalQTR:  1_000_000,
		ModifiedDate:  Date(2017, time.January, 1),
	})
	f.tables.Products = append(f.tables.Products, database.Product{
		ProdID:        1,
		ProdName:      "Cardiac Monitor X200",
		StandardCost:  1200,
		UnitPrice:     2500,
		SellStartDate: Date(2015, time.June, 1),
		ModifiedDate:  Date(2017, time.January, 1),
	})
	return f
}

// AddCustomer ajoute un client rattaché au territoire de référence
func (f *Fixture) AddCustomer(id int64, name string, credLimit float64) {
	f.AddCustomerModified(id, name, credLimit, Date(2017, time.January, 1))
}

// AddCustomerModified ajoute un client avec une date de modification
// explicite (utile pour les signaux T4)
func (f *Fixture) AddCustomerModified(id int64, name string, credLimit float64, modified time.Time) {
	f.tables.Customers = append(f.tables.Customers, database.Customer{
		CustID:       id,
		TerritoryID:  1,
		CustName:     name,
		City:         "Boston",
		CredLimit:    credLimit,
		ModifiedDate: modified,
	})
}

// AddOrder ajoute une commande d'une ligne : quantité 1, SubTotal = prix
// unitaire, sans taxe ni port (TotalDue = SubTotal)
func (f *Fixture) AddOrder(id, custID int64, orderDate time.Time, amount float64) {
	f.tables.Orders = append(f.tables.Orders, database.SalesOrder{
		SalesOrderID: id,
		OrderDate:    orderDate,
		ProdID:       1,
		CustID:       custID,
		TerritoryID:  1,
		Quantity:     1,
		UnitPrice:    amount,
		SubTotal:     amount,
		TotalDue:     amount,
		CredApr:      true,
		ModifiedDate: orderDate,
	})
}

// AddShipment expédie une commande et pose la référence croisée
func (f *Fixture) AddShipment(shipID, orderID int64, shipDate time.Time) {
	f.tables.Shipments = append(f.tables.Shipments, database.Shipment{
		ShipID:       shipID,
		SalesOrderID: orderID,
		ShipDate:     shipDate,
		ShipWeight:   12.5,
		Carrier:      "MedFreight",
		ModifiedDate: shipDate,
	})
	for i := range f.tables.Orders {
		if f.tables.Orders[i].SalesOrderID == orderID {
			id := shipID
			f.tables.Orders[i].ShipID = &id
			return
		}
	}
}

// AddInvoice facture une commande et pose la référence croisée. Le client
// est repris de la commande.
func (f *Fixture) AddInvoice(invoiceID, orderID int64, invoiceDate time.Time, payment shareddomain.PaymentStatus) {
	var custID int64
	for i := range f.tables.Orders {
		if f.tables.Orders[i].SalesOrderID == orderID {
			custID = f.tables.Orders[i].CustID
			id := invoiceID
			f.tables.Orders[i].InvoiceID = &id
			break
		}
	}
	f.tables.Invoices = append(f.tables.Invoices, database.Invoice{
		InvoiceID:    invoiceID,
		CustID:       custID,
		InvoiceDate:  invoiceDate,
		SalesOrderID: orderID,
		Payment:      payment,
		ModifiedDate: invoiceDate,
	})
}

// AddLimitChange ajoute une entrée au journal des limites de crédit
func (f *Fixture) AddLimitChange(custID int64, limit float64, effective time.Time) {
	f.tables.History = append(f.tables.History, database.CreditLimitChange{
		CustID:      custID,
		Limit:       limit,
		EffectiveAt: effective,
	})
}

// Orders expose les commandes pour les ajustements fins de test
func (f *Fixture) Orders() []database.SalesOrder {
	return f.tables.Orders
}

// SetOrderInvoiceRef force la référence facture d'une commande (pour
// fabriquer des conflits de références croisées)
func (f *Fixture) SetOrderInvoiceRef(orderID int64, invoiceID *int64) {
	for i := range f.tables.Orders {
		if f.tables.Orders[i].SalesOrderID == orderID {
			f.tables.Orders[i].InvoiceID = invoiceID
			return
		}
	}
}

// Build valide l'extraction et retourne le Dataset indexé
func (f *Fixture) Build(tb testing.TB) *dataset.Dataset {
	tb.Helper()
	ds, err := dataset.FromTables(&f.tables)
	if err != nil {
		tb.Fatalf("building fixture dataset: %v", err)
	}
	return ds
}

// BuildErr valide l'extraction et retourne l'erreur éventuelle (pour les
// tests de rupture d'intégrité)
func (f *Fixture) BuildErr() (*dataset.Dataset, error) {
	return dataset.FromTables(&f.tables)
}
