package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"audit/internal/aging"
	"audit/internal/receivables"
	"audit/internal/revenue"
	shareddomain "audit/internal/shared/domain"
	"audit/internal/testhelpers"
)

// Trois clients, trois histoires :
//   - Mercy General : cycle complet, facture encaissée avant la clôture
//   - St. Anne Clinic : facturée le 31/12 sans expédition, impayée
//   - Lakeside Hospital : encours au-delà de sa limite, facture à 90+ jours
func buildScenario(t *testing.T) *testhelpers.Fixture {
	t.Helper()
	f := testhelpers.NewFixture()
	f.AddCustomer(1, "Mercy General", 100000)
	f.AddCustomer(2, "St. Anne Clinic", 100000)
	f.AddCustomer(3, "Lakeside Hospital", 5000)

	f.AddOrder(100, 1, testhelpers.Date(2017, time.March, 1), 10000)
	f.AddShipment(10, 100, testhelpers.Date(2017, time.March, 3))
	f.AddInvoice(1000, 100, testhelpers.Date(2017, time.March, 5), shareddomain.Paid(testhelpers.Date(2017, time.April, 1)))

	f.AddOrder(101, 2, testhelpers.Date(2017, time.December, 28), 2000)
	f.AddInvoice(1001, 101, testhelpers.Date(2017, time.December, 31), shareddomain.Unpaid())

	f.AddOrder(102, 3, testhelpers.Date(2017, time.May, 28), 8000)
	f.AddShipment(11, 102, testhelpers.Date(2017, time.May, 30))
	f.AddInvoice(1002, 102, testhelpers.Date(2017, time.June, 1), shareddomain.Unpaid())

	return f
}

func scenarioConfig() Config {
	return Config{
		FiscalYear:              2017,
		TrialBalanceRevenue:     20000,
		TrialBalanceReceivables: 10000,
		CurrentAllowance:        6000,
		Tolerance:               1.00,
	}
}

func TestRunEndToEnd(t *testing.T) {
	ds := buildScenario(t).Build(t)
	runner, err := NewRunner(ds, scenarioConfig())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	report, err := runner.Run()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Revenus : les trois factures tombent dans l'exercice
	if report.Revenue.Status != revenue.StatusMatch {
		t.Errorf("Expected revenue MATCH, got %s (diff %f)", report.Revenue.Status, report.Revenue.Difference)
	}
	if report.Revenue.RecognizedRevenue != 20000 {
		t.Errorf("Expected 20000 recognized, got %f", report.Revenue.RecognizedRevenue)
	}

	// Encours : la facture encaissée sort, les deux impayées restent
	if report.Receivables.GrossReceivables != 10000 {
		t.Errorf("Expected gross receivables 10000, got %f", report.Receivables.GrossReceivables)
	}
	if report.Receivables.Status != receivables.StatusMatch {
		t.Errorf("Expected receivables MATCH, got %s", report.Receivables.Status)
	}
	if report.Receivables.StillUnpaidCount != 2 {
		t.Errorf("Expected 2 still-unpaid invoices, got %d", report.Receivables.StillUnpaidCount)
	}

	// Concordance : seule la commande de St. Anne est incomplète
	if report.ThreeWay.MatchedCount != 2 {
		t.Errorf("Expected 2 matched orders, got %d", report.ThreeWay.MatchedCount)
	}
	inv := report.ThreeWay.InvoicedNotShipped()
	if len(inv) != 1 || inv[0].SalesOrderID != 101 {
		t.Fatalf("Expected order 101 invoiced-not-shipped, got %+v", inv)
	}

	// Crédit : Lakeside porte 8000 pour 5000 de limite
	if len(report.Credit.Exceptions) != 1 {
		t.Fatalf("Expected 1 credit exception, got %d", len(report.Credit.Exceptions))
	}
	if e := report.Credit.Exceptions[0]; e.CustID != 3 || e.Excess != 3000 {
		t.Errorf("Expected Lakeside over by 3000, got %+v", e)
	}

	// Balance âgée : la facture de juin est à plus de 90 jours
	if report.Aging.Totals.B90Plus != 8000 {
		t.Errorf("Expected 8000 past 90 days, got %f", report.Aging.Totals.B90Plus)
	}
	// Provision : 75% de 8000 = 6000 recommandés, 6000 comptabilisés
	if report.Aging.Allowance.Verdict != aging.VerdictReasonable {
		t.Errorf("Expected a reasonable allowance, got %s", report.Aging.Allowance.Verdict)
	}

	// Anomalies : la facture du 31/12 est relevée, impayée
	if report.Anomaly.PeriodEnd.Count != 1 || report.Anomaly.PeriodEnd.UnpaidCount != 1 {
		t.Errorf("Expected 1 unpaid period-end invoice, got %+v", report.Anomaly.PeriodEnd)
	}

	// Risque : cinq aires pondérées, recommandations non vides
	if len(report.Risk.Factors) != 5 {
		t.Errorf("Expected 5 risk factors, got %d", len(report.Risk.Factors))
	}
	if report.Risk.WeightedScore <= 0 || report.Risk.Level == "" {
		t.Errorf("Expected a scored assessment, got %+v", report.Risk)
	}
	var vouch bool
	for _, r := range report.Risk.Recommendations {
		if strings.Contains(r, "bill-and-hold") {
			vouch = true
		}
	}
	if !vouch {
		t.Error("Expected a bill-and-hold vouching recommendation")
	}
}

func TestRunWithReferenceListing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_aging.csv")
	content := "CustomerName,Amount\nLakeside Hospital,8000\nRiverbend Medical,500\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg := scenarioConfig()
	cfg.ReferenceListingPath = path
	runner, err := NewRunner(buildScenario(t).Build(t), cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	report, err := runner.Run()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	diff := report.ReferenceDiff
	if diff == nil {
		t.Fatal("Expected a reference diff when a client listing is provided")
	}
	if diff.Agreed != 1 {
		t.Errorf("Expected Lakeside to agree, got %d", diff.Agreed)
	}
	if len(diff.OnlyTheirs) != 1 || diff.OnlyTheirs[0].CustomerName != "Riverbend Medical" {
		t.Errorf("Expected Riverbend only on the client side, got %+v", diff.OnlyTheirs)
	}
}

func TestNewRunnerValidation(t *testing.T) {
	ds := buildScenario(t).Build(t)

	if _, err := NewRunner(ds, Config{FiscalYear: 0}); err == nil {
		t.Error("Expected error for an invalid fiscal year")
	}
	cfg := scenarioConfig()
	cfg.Tolerance = -1
	if _, err := NewRunner(ds, cfg); err == nil {
		t.Error("Expected error for a negative tolerance")
	}
}

func TestRenderTextSections(t *testing.T) {
	runner, err := NewRunner(buildScenario(t).Build(t), scenarioConfig())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	report, err := runner.Run()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := RenderText(report)
	for _, want := range []string{
		"RECONCILIATION & EXCEPTION REPORT - FY2017",
		"MATCH",
		"Lakeside Hospital",
		"90+",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Rendered report missing %q", want)
		}
	}
}
