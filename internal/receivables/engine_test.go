package receivables

import (
	"testing"
	"time"

	shareddomain "audit/internal/shared/domain"
	"audit/internal/testhelpers"
)

func fiscalYear(t *testing.T) shareddomain.FiscalYear {
	t.Helper()
	fy, err := shareddomain.NewFiscalYear(2017)
	if err != nil {
		t.Fatalf("fiscal year: %v", err)
	}
	return fy
}

// L'encours à la clôture : factures émises au plus tard le 31/12 et non
// encaissées à cette date. Une facture payée APRÈS la clôture fait partie
// de l'encours, une facture payée LE JOUR de la clôture n'en fait pas
// partie.
func TestReconcileCutoffBounds(t *testing.T) {
	cutoff := testhelpers.Date(2017, time.December, 31)

	f := testhelpers.NewFixture()
	f.AddCustomer(1, "Mercy General", 1_000_000)
	f.AddOrder(100, 1, testhelpers.Date(2017, time.November, 1), 1000)
	f.AddOrder(101, 1, testhelpers.Date(2017, time.November, 2), 2000)
	f.AddOrder(102, 1, testhelpers.Date(2017, time.November, 3), 4000)
	f.AddOrder(103, 1, testhelpers.Date(2017, time.November, 4), 8000)
	f.AddOrder(104, 1, testhelpers.Date(2017, time.December, 30), 16000)

	// Payée avant la clôture : réglée, hors encours
	f.AddInvoice(1000, 100, testhelpers.Date(2017, time.November, 5), shareddomain.Paid(testhelpers.Date(2017, time.December, 15)))
	// Payée le jour de la clôture : réglée
	f.AddInvoice(1001, 101, testhelpers.Date(2017, time.November, 6), shareddomain.Paid(cutoff))
	// Payée après la clôture : dans l'encours, recouvrement normal
	f.AddInvoice(1002, 102, testhelpers.Date(2017, time.November, 7), shareddomain.Paid(testhelpers.Date(2018, time.January, 10)))
	// Impayée à l'extraction : dans l'encours, risque de recouvrement
	f.AddInvoice(1003, 103, testhelpers.Date(2017, time.November, 8), shareddomain.Unpaid())
	// Facturée après la clôture : hors périmètre
	f.AddInvoice(1004, 104, testhelpers.Date(2018, time.January, 2), shareddomain.Unpaid())
	ds := f.Build(t)

	res := NewEngine(ds, fiscalYear(t), 1.00).Reconcile(12000)

	if res.GrossReceivables != 12000 {
		t.Errorf("Expected gross receivables 12000, got %f", res.GrossReceivables)
	}
	if res.Status != StatusMatch {
		t.Errorf("Expected MATCH, got %s", res.Status)
	}
	if res.ExcludedSettled != 2 {
		t.Errorf("Expected 2 settled invoices excluded, got %d", res.ExcludedSettled)
	}
	if res.ExcludedAfterCutoff != 1 {
		t.Errorf("Expected 1 invoice excluded after cutoff, got %d", res.ExcludedAfterCutoff)
	}
	if res.PaidAfterCount != 1 || res.PaidAfterAmount != 4000 {
		t.Errorf("Expected 1 paid-after row for 4000, got %d/%f", res.PaidAfterCount, res.PaidAfterAmount)
	}
	if res.StillUnpaidCount != 1 || res.StillUnpaidAmount != 8000 {
		t.Errorf("Expected 1 still-unpaid row for 8000, got %d/%f", res.StillUnpaidCount, res.StillUnpaidAmount)
	}
}

func TestReconcileClassification(t *testing.T) {
	f := testhelpers.NewFixture()
	f.AddCustomer(1, "Mercy General", 1_000_000)
	f.AddOrder(100, 1, testhelpers.Date(2017, time.October, 1), 5000)
	f.AddInvoice(1000, 100, testhelpers.Date(2017, time.October, 5), shareddomain.Paid(testhelpers.Date(2018, time.February, 1)))
	ds := f.Build(t)

	res := NewEngine(ds, fiscalYear(t), 1.00).Reconcile(5000)

	if len(res.Rows) != 1 {
		t.Fatalf("Expected 1 open invoice, got %d", len(res.Rows))
	}
	if res.Rows[0].Classification != PaidAfterCutoff {
		t.Errorf("Expected paid_after_cutoff, got %s", res.Rows[0].Classification)
	}
}

// Une facture antérieure à l'exercice viole la précondition du périmètre :
// signalée, pas corrigée
func TestReconcilePreFiscalYearFinding(t *testing.T) {
	f := testhelpers.NewFixture()
	f.AddCustomer(1, "Mercy General", 1_000_000)
	f.AddOrder(100, 1, testhelpers.Date(2016, time.December, 1), 5000)
	f.AddInvoice(1000, 100, testhelpers.Date(2016, time.December, 10), shareddomain.Unpaid())
	ds := f.Build(t)

	res := NewEngine(ds, fiscalYear(t), 1.00).Reconcile(5000)

	if len(res.Findings) != 1 {
		t.Fatalf("Expected 1 scope finding, got %d", len(res.Findings))
	}
	// La facture reste dans l'encours : elle est ouverte à la clôture
	if res.GrossReceivables != 5000 {
		t.Errorf("Expected the pre-fiscal invoice to stay in the balance, got %f", res.GrossReceivables)
	}
}

func TestReconcileRowsSortedByAmount(t *testing.T) {
	f := testhelpers.NewFixture()
	f.AddCustomer(1, "Mercy General", 1_000_000)
	f.AddOrder(100, 1, testhelpers.Date(2017, time.October, 1), 100)
	f.AddOrder(101, 1, testhelpers.Date(2017, time.October, 2), 300)
	f.AddOrder(102, 1, testhelpers.Date(2017, time.October, 3), 200)
	f.AddInvoice(1000, 100, testhelpers.Date(2017, time.October, 5), shareddomain.Unpaid())
	f.AddInvoice(1001, 101, testhelpers.Date(2017, time.October, 6), shareddomain.Unpaid())
	f.AddInvoice(1002, 102, testhelpers.Date(2017, time.October, 7), shareddomain.Unpaid())
	ds := f.Build(t)

	res := NewEngine(ds, fiscalYear(t), 1.00).Reconcile(600)

	want := []int64{1001, 1002, 1000}
	for i, id := range want {
		if res.Rows[i].InvoiceID != id {
			t.Errorf("Row %d: expected invoice %d, got %d", i, id, res.Rows[i].InvoiceID)
		}
	}
}
