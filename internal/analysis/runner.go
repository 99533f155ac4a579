package analysis

import (
	"errors"
	"fmt"
	"time"

	"audit/internal/aging"
	"audit/internal/anomaly"
	"audit/internal/credit"
	"audit/internal/dataset"
	"audit/internal/receivables"
	"audit/internal/revenue"
	shareddomain "audit/internal/shared/domain"
	"audit/internal/threewaymatch"
)

// Config rassemble les paramètres de la mission : exercice audité, soldes
// de la balance générale et tolérances de rapprochement
type Config struct {
	FiscalYear              int
	TrialBalanceRevenue     float64
	TrialBalanceReceivables float64
	CurrentAllowance        float64
	Tolerance               float64
	AllowancePct61to90      float64
	AllowancePct90Plus      float64
	// Listing 90+ fourni par le client, vide si non transmis
	ReferenceListingPath string
}

// Report est la sortie complète d'une passe d'analyse
type Report struct {
	GeneratedAt   time.Time             `json:"generated_at"`
	FiscalYear    int                   `json:"fiscal_year"`
	Load          dataset.LoadReport    `json:"load"`
	Revenue       *revenue.Result       `json:"revenue"`
	Receivables   *receivables.Result   `json:"receivables"`
	ThreeWay      *threewaymatch.Result `json:"three_way"`
	Credit        *credit.Result        `json:"credit"`
	Aging         *aging.Result         `json:"aging"`
	ReferenceDiff *aging.ReferenceDiff  `json:"reference_diff,omitempty"`
	Anomaly       *anomaly.Result       `json:"anomaly"`
	Risk          RiskAssessment        `json:"risk"`
}

// Runner enchaîne les moteurs d'analyse sur un Dataset chargé. Passe
// unique, mono-thread : chaque étape consomme la sortie de la précédente.
type Runner struct {
	ds  *dataset.Dataset
	cfg Config
	fy  shareddomain.FiscalYear
}

// NewRunner crée l'orchestrateur avec validation de la configuration
func NewRunner(ds *dataset.Dataset, cfg Config) (*Runner, error) {
	fy, err := shareddomain.NewFiscalYear(cfg.FiscalYear)
	if err != nil {
		return nil, fmt.Errorf("invalid fiscal year %d: %w", cfg.FiscalYear, err)
	}
	if cfg.Tolerance < 0 {
		return nil, errors.New("tolerance cannot be negative")
	}
	if cfg.AllowancePct61to90 == 0 {
		cfg.AllowancePct61to90 = 0.25
	}
	if cfg.AllowancePct90Plus == 0 {
		cfg.AllowancePct90Plus = 0.75
	}
	return &Runner{ds: ds, cfg: cfg, fy: fy}, nil
}

// Run exécute les six étapes d'analyse et assemble le rapport
func (r *Runner) Run() (*Report, error) {
	report := &Report{
		GeneratedAt: time.Now().UTC(),
		FiscalYear:  r.fy.Year(),
		Load:        r.ds.Report,
	}

	// 1. Rapprochement des revenus
	fmt.Println("   📊 Rapprochement des revenus...")
	report.Revenue = revenue.NewEngine(r.ds, r.fy, r.cfg.Tolerance).Reconcile(r.cfg.TrialBalanceRevenue)

	// 2. Rapprochement de l'encours clients
	fmt.Println("   📊 Rapprochement de l'encours clients...")
	report.Receivables = receivables.NewEngine(r.ds, r.fy, r.cfg.Tolerance).Reconcile(r.cfg.TrialBalanceReceivables)

	// 3. Concordance à trois voies
	fmt.Println("   🔍 Concordance commande / expédition / facture...")
	report.ThreeWay = threewaymatch.NewEngine(r.ds).Match()

	// 4. Contrôle des limites de crédit
	fmt.Println("   💳 Contrôle des limites de crédit...")
	history := credit.NewLimitHistory(r.ds.CreditHistory)
	report.Credit = credit.NewEngine(r.ds, history, r.fy.End()).Review(report.Receivables.Rows)

	// 5. Balance âgée et provision
	fmt.Println("   📅 Balance âgée et provision...")
	agingEngine := aging.NewEngine(r.ds, r.fy.End(), r.cfg.AllowancePct61to90, r.cfg.AllowancePct90Plus)
	report.Aging = agingEngine.Age(report.Receivables.Rows, r.cfg.CurrentAllowance)

	if r.cfg.ReferenceListingPath != "" {
		ref, err := aging.LoadReference(r.cfg.ReferenceListingPath)
		if err != nil {
			return nil, fmt.Errorf("loading client 90+ listing: %w", err)
		}
		report.ReferenceDiff = aging.CompareReference(report.Aging.Over90ByCustomer(), ref, r.cfg.Tolerance)
	}

	// 6. Signaux d'anomalie
	fmt.Println("   🚨 Signaux d'anomalie...")
	report.Anomaly = anomaly.NewEngine(r.ds, r.fy).Score(report.Revenue)

	report.Risk = assessRisk(
		report.Revenue,
		report.Receivables,
		report.ThreeWay,
		report.Credit,
		report.Aging,
		report.Anomaly,
		len(r.ds.Report.Findings),
	)

	return report, nil
}
