package database_test

import (
	"testing"
	"time"

	"audit/database"
	"audit/internal/dataset"
	shareddomain "audit/internal/shared/domain"
	"audit/internal/testhelpers"
)

// ========================================
// INTEGRATION TESTS - REAL DATABASE
// ========================================
// Ces tests utilisent PostgreSQL et vérifient l'aller-retour complet :
// extraction -> base -> rechargement -> Dataset indexé.

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := database.DB.Exec(`TRUNCATE territories, customers, products,
		sales_orders, shipments, invoices, credit_limit_history CASCADE`)
	if err != nil {
		t.Fatalf("truncating test tables: %v", err)
	}
}

func TestSeedAndReloadRoundTrip(t *testing.T) {
	testhelpers.SkipIfNoDatabase(t)

	database.DB = testhelpers.SetupTestDB(t)
	defer database.Close()

	if err := database.CreateSchema(); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	truncateAll(t)
	defer truncateAll(t)

	f := testhelpers.NewFixture()
	f.AddCustomer(1, "Mercy General", 100000)
	f.AddOrder(100, 1, testhelpers.Date(2017, time.June, 1), 5000)
	f.AddShipment(10, 100, testhelpers.Date(2017, time.June, 3))
	f.AddInvoice(1000, 100, testhelpers.Date(2017, time.June, 5), shareddomain.Paid(testhelpers.Date(2017, time.July, 1)))
	f.AddOrder(101, 1, testhelpers.Date(2017, time.November, 1), 2000)
	f.AddInvoice(1001, 101, testhelpers.Date(2017, time.November, 5), shareddomain.Unpaid())
	f.AddLimitChange(1, 100000, testhelpers.Date(2017, time.January, 1))
	ds := f.Build(t)

	err := database.SeedTables(ds.Orders, ds.Shipments, ds.Invoices,
		ds.Territories, ds.Customers, ds.Products, ds.CreditHistory)
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}

	tables, err := database.LoadAll()
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	reloaded, err := dataset.FromTables(tables)
	if err != nil {
		t.Fatalf("rebuilding dataset: %v", err)
	}

	if len(reloaded.Orders) != 2 || len(reloaded.Invoices) != 2 || len(reloaded.Shipments) != 1 {
		t.Errorf("Expected 2 orders, 2 invoices, 1 shipment; got %d/%d/%d",
			len(reloaded.Orders), len(reloaded.Invoices), len(reloaded.Shipments))
	}

	// L'impayé traverse la base en NULL et revient impayé
	if reloaded.InvoicesByID[1001].Payment.IsPaid() {
		t.Error("Unpaid invoice must stay unpaid through the database round trip")
	}
	if !reloaded.InvoicesByID[1000].Payment.IsPaid() {
		t.Error("Paid invoice must stay paid through the database round trip")
	}

	// Les références croisées posées en dernier survivent au rechargement
	order, ok := reloaded.OrdersByID[100]
	if !ok || order.InvoiceID == nil || *order.InvoiceID != 1000 {
		t.Error("Order 100 must reference invoice 1000 after the round trip")
	}
	if len(reloaded.CreditHistory) != 1 {
		t.Errorf("Expected 1 credit limit journal entry, got %d", len(reloaded.CreditHistory))
	}
}

// Le rechargement est idempotent : re-seeder la même extraction ne
// duplique rien
func TestSeedIsIdempotent(t *testing.T) {
	testhelpers.SkipIfNoDatabase(t)

	database.DB = testhelpers.SetupTestDB(t)
	defer database.Close()

	if err := database.CreateSchema(); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	truncateAll(t)
	defer truncateAll(t)

	f := testhelpers.NewFixture()
	f.AddCustomer(1, "Mercy General", 100000)
	f.AddOrder(100, 1, testhelpers.Date(2017, time.June, 1), 5000)
	ds := f.Build(t)

	for i := 0; i < 2; i++ {
		err := database.SeedTables(ds.Orders, ds.Shipments, ds.Invoices,
			ds.Territories, ds.Customers, ds.Products, ds.CreditHistory)
		if err != nil {
			t.Fatalf("seeding pass %d: %v", i+1, err)
		}
	}

	tables, err := database.LoadAll()
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if len(tables.Orders) != 1 {
		t.Errorf("Expected 1 order after double seed, got %d", len(tables.Orders))
	}
}
