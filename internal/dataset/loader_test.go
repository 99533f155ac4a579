package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Une petite extraction cohérente : deux clients, deux commandes, une
// expédition, deux factures dont une impayée (sentinelle)
func writeBaseFixture(t *testing.T, dir string) {
	t.Helper()

	writeCSV(t, dir, FileTerritories,
		"TerritoryID,TerritoryName,SalesPerson,SalesGoalQTR,ModifiedDate\n"+
			"1,Northeast,J. Whitfield,1000000,2017-01-01\n")

	writeCSV(t, dir, FileCustomers,
		"CustID,TerritoryID,CustName,Addr1,Addr2,City,Zip,CredLimit,ModifiedDate\n"+
			"1,1,Mercy General,12 Main St,,Boston,02110,100000,2017-01-01\n"+
			"2,1,St. Anne Clinic,9 Elm St,,Providence,02901,50000,2017-01-01\n")

	writeCSV(t, dir, FileProducts,
		"ProdID,ProdName,SafetyStockLevel,ReManPoint,StandardCost,UnitPrice,Weight,DaysToMan,SellStartDate,ModifiedDate\n"+
			"1,Cardiac Monitor X200,10,5,1200,2500,8.5,12,2015-06-01,2017-01-01\n")

	writeCSV(t, dir, FileSalesOrders,
		"SalesOrderID,OrderDate,ProdID,CustID,TerritoryID,Quantity,UnitPrice,SubTotal,TaxAmt,Freight,TotalDue,CredApr,ShipID,InvoiceID,ModifiedDate\n"+
			"100,2017-06-01,1,1,1,2,2500,5000,400,100,5500,Y,10,1000,2017-06-01\n"+
			"101,2017-11-20,1,2,1,1,2500,2500,200,50,2750,Y,,1001,2017-11-20\n")

	writeCSV(t, dir, FileShipments,
		"ShipID,SalesOrderID,ShipDate,ShipWeight,Carrier,ModifiedDate\n"+
			"10,100,2017-06-05,17.0,MedFreight,2017-06-05\n")

	writeCSV(t, dir, FileInvoices,
		"InvoiceID,CustID,InvoiceDate,SalesOrderID,PaidDate,ModifiedDate\n"+
			"1000,1,2017-06-10,100,2017-06-25,2017-06-10\n"+
			"1001,2,2017-11-25,101,9999-09-09,2017-11-25\n")
}

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestLoadHappyPath(t *testing.T) {
	dir := t.TempDir()
	writeBaseFixture(t, dir)

	ds, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(ds.Orders) != 2 || len(ds.Invoices) != 2 || len(ds.Shipments) != 1 {
		t.Errorf("Expected 2 orders, 2 invoices, 1 shipment; got %d/%d/%d",
			len(ds.Orders), len(ds.Invoices), len(ds.Shipments))
	}
	if len(ds.Report.Findings) != 0 {
		t.Errorf("Expected no findings on a clean extraction, got %v", ds.Report.Findings)
	}

	order, ok := ds.OrdersByID[100]
	if !ok {
		t.Fatal("Order 100 missing from index")
	}
	if order.InvoiceID == nil || *order.InvoiceID != 1000 {
		t.Error("Order 100 must reference invoice 1000")
	}
	if _, ok := ds.OrdersByInvoice[1001]; !ok {
		t.Error("Invoice 1001 must resolve to its order through the index")
	}
}

// Régression : la sentinelle d'impayé doit rester un impayé. Si la date
// est convertie avant le test, 9999-09-09 devient une vraie date et la
// facture passe pour payée.
func TestLoadSentinelStaysUnpaid(t *testing.T) {
	dir := t.TempDir()
	writeBaseFixture(t, dir)

	ds, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	inv := ds.InvoicesByID[1001]
	if inv.Payment.IsPaid() {
		t.Fatal("Invoice with sentinel paid date must be unpaid")
	}
	paid := ds.InvoicesByID[1000]
	if !paid.Payment.IsPaid() {
		t.Fatal("Invoice 1000 must be paid")
	}
}

func TestLoadOrphanForeignKey(t *testing.T) {
	dir := t.TempDir()
	writeBaseFixture(t, dir)

	// La commande 102 référence un client inexistant
	writeCSV(t, dir, FileSalesOrders,
		"SalesOrderID,OrderDate,ProdID,CustID,TerritoryID,Quantity,UnitPrice,SubTotal,TaxAmt,Freight,TotalDue,CredApr,ShipID,InvoiceID,ModifiedDate\n"+
			"102,2017-06-01,1,99,1,1,2500,2500,0,0,2500,N,,,2017-06-01\n")

	_, err := NewLoader(dir).Load()
	var integrityErr *DataIntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("Expected DataIntegrityError, got %v", err)
	}
	if integrityErr.Field != "CustID" {
		t.Errorf("Expected violation on CustID, got %s", integrityErr.Field)
	}
}

// Une facture vers une commande inexistante est fatale au chargement :
// les moteurs peuvent compter sur l'index commande complet
func TestLoadOrphanInvoiceOrderReference(t *testing.T) {
	dir := t.TempDir()
	writeBaseFixture(t, dir)

	writeCSV(t, dir, FileInvoices,
		"InvoiceID,CustID,InvoiceDate,SalesOrderID,PaidDate,ModifiedDate\n"+
			"1000,1,2017-06-10,999,9999-09-09,2017-06-10\n")

	_, err := NewLoader(dir).Load()
	var integrityErr *DataIntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("Expected DataIntegrityError, got %v", err)
	}
	if integrityErr.Field != "SalesOrderID" {
		t.Errorf("Expected violation on SalesOrderID, got %s", integrityErr.Field)
	}
}

func TestLoadDuplicateIdentifier(t *testing.T) {
	dir := t.TempDir()
	writeBaseFixture(t, dir)

	writeCSV(t, dir, FileInvoices,
		"InvoiceID,CustID,InvoiceDate,SalesOrderID,PaidDate,ModifiedDate\n"+
			"1000,1,2017-06-10,100,2017-06-25,2017-06-10\n"+
			"1000,2,2017-11-25,101,9999-09-09,2017-11-25\n")

	_, err := NewLoader(dir).Load()
	var integrityErr *DataIntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("Expected DataIntegrityError for duplicate invoice, got %v", err)
	}
}

func TestLoadUnparseableAmount(t *testing.T) {
	dir := t.TempDir()
	writeBaseFixture(t, dir)

	writeCSV(t, dir, FileSalesOrders,
		"SalesOrderID,OrderDate,ProdID,CustID,TerritoryID,Quantity,UnitPrice,SubTotal,TaxAmt,Freight,TotalDue,CredApr,ShipID,InvoiceID,ModifiedDate\n"+
			"100,2017-06-01,1,1,1,2,2500,oops,400,100,5500,Y,,,2017-06-01\n")

	_, err := NewLoader(dir).Load()
	var integrityErr *DataIntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("Expected DataIntegrityError, got %v", err)
	}
	if integrityErr.Field != "SubTotal" {
		t.Errorf("Expected violation on SubTotal, got %s", integrityErr.Field)
	}
}

// Une facture qui revendique une commande qui ne la référence pas en
// retour est signalée, jamais réparée
func TestLoadLinkageConflictFinding(t *testing.T) {
	dir := t.TempDir()
	writeBaseFixture(t, dir)

	// La commande 101 perd sa référence facture, la facture 1001 la
	// revendique toujours
	writeCSV(t, dir, FileSalesOrders,
		"SalesOrderID,OrderDate,ProdID,CustID,TerritoryID,Quantity,UnitPrice,SubTotal,TaxAmt,Freight,TotalDue,CredApr,ShipID,InvoiceID,ModifiedDate\n"+
			"100,2017-06-01,1,1,1,2,2500,5000,400,100,5500,Y,10,1000,2017-06-01\n"+
			"101,2017-11-20,1,2,1,1,2500,2500,200,50,2750,Y,,,2017-11-20\n")

	ds, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	conflicts := ds.Report.FindingsOf(FindingLinkageConflict)
	if len(conflicts) != 1 {
		t.Fatalf("Expected 1 linkage conflict, got %d", len(conflicts))
	}
	if conflicts[0].RowID != 1001 {
		t.Errorf("Expected conflict on invoice 1001, got %d", conflicts[0].RowID)
	}
}

func TestLoadPaidBeforeInvoiceFinding(t *testing.T) {
	dir := t.TempDir()
	writeBaseFixture(t, dir)

	writeCSV(t, dir, FileInvoices,
		"InvoiceID,CustID,InvoiceDate,SalesOrderID,PaidDate,ModifiedDate\n"+
			"1000,1,2017-06-10,100,2017-06-01,2017-06-10\n"+
			"1001,2,2017-11-25,101,9999-09-09,2017-11-25\n")

	ds, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := len(ds.Report.FindingsOf(FindingPaidBeforeInvoice)); got != 1 {
		t.Errorf("Expected 1 paid-before-invoice finding, got %d", got)
	}
}

func TestLoadNonAdditiveAmountsFinding(t *testing.T) {
	dir := t.TempDir()
	writeBaseFixture(t, dir)

	// SubTotal incohérent avec quantité x prix unitaire
	writeCSV(t, dir, FileSalesOrders,
		"SalesOrderID,OrderDate,ProdID,CustID,TerritoryID,Quantity,UnitPrice,SubTotal,TaxAmt,Freight,TotalDue,CredApr,ShipID,InvoiceID,ModifiedDate\n"+
			"100,2017-06-01,1,1,1,2,2500,4000,400,100,4500,Y,10,1000,2017-06-01\n"+
			"101,2017-11-20,1,2,1,1,2500,2500,200,50,2750,Y,,1001,2017-11-20\n")

	ds, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := len(ds.Report.FindingsOf(FindingNonAdditiveAmounts)); got != 1 {
		t.Errorf("Expected 1 non-additive finding, got %d", got)
	}
}

func TestParseDateLayouts(t *testing.T) {
	cases := []string{"2017-12-31", "12/31/2017", "2017-12-31 00:00:00", "2017/12/31"}
	for _, raw := range cases {
		d, err := ParseDate(raw)
		if err != nil {
			t.Errorf("%q: unexpected error %v", raw, err)
			continue
		}
		if d.Format("2006-01-02") != "2017-12-31" {
			t.Errorf("%q: parsed to %s", raw, d.Format("2006-01-02"))
		}
	}
	if _, err := ParseDate("31 décembre 2017"); err == nil {
		t.Error("Expected error for an unknown layout")
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	// Pas de fichiers du tout
	if _, err := NewLoader(dir).Load(); err == nil {
		t.Error("Expected error when the extraction files are missing")
	}
}
