package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"audit/database"
	"audit/internal/analysis"
	"audit/internal/dataset"
	"audit/internal/report"

	"github.com/joho/godotenv"
)

func main() {
	// Charge .env
	if err := godotenv.Load(); err != nil {
		log.Println("Attention: fichier .env non trouvé, utilisation des valeurs par défaut")
	}

	cfg := analysis.Config{
		FiscalYear:              getEnvInt("FISCAL_YEAR", 2017),
		TrialBalanceRevenue:     getEnvFloat("TB_REVENUE", 84867855),
		TrialBalanceReceivables: getEnvFloat("TB_GROSS_AR", 11988886),
		CurrentAllowance:        getEnvFloat("CURRENT_ALLOWANCE", 315000),
		Tolerance:               getEnvFloat("RECON_TOLERANCE", 1.00),
		ReferenceListingPath:    os.Getenv("CLIENT_AGING_FILE"),
	}
	outputDir := getEnv("OUTPUT_DIR", "./output")

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("🔎 Analyse de rapprochement - Exercice %d\n", cfg.FiscalYear)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	ds, err := loadDataset()
	if err != nil {
		log.Fatal("❌ Erreur chargement de l'extraction:", err)
	}
	for _, c := range ds.Report.Counts {
		fmt.Printf("   📦 %-22s %8d lignes\n", c.Table, c.RowsRead)
	}
	if n := len(ds.Report.Findings); n > 0 {
		fmt.Printf("   ⚠️ %d observation(s) de qualité de données\n", n)
	}

	runner, err := analysis.NewRunner(ds, cfg)
	if err != nil {
		log.Fatal("❌ Configuration invalide:", err)
	}

	fmt.Println("🚀 Exécution des moteurs d'analyse...")
	rep, err := runner.Run()
	if err != nil {
		log.Fatal("❌ Erreur pendant l'analyse:", err)
	}

	fmt.Println("📝 Écriture des livrables...")
	if err := writeArtifacts(rep, outputDir); err != nil {
		log.Fatal("❌ Erreur écriture des livrables:", err)
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("✅ Analyse terminée: revenus %s, encours %s, risque %s (%.2f/5)\n",
		rep.Revenue.Status, rep.Receivables.Status, rep.Risk.Level, rep.Risk.WeightedScore)
	fmt.Printf("   Livrables dans %s\n", outputDir)
}

// loadDataset charge l'extraction depuis les CSV ou depuis PostgreSQL
// selon DATA_SOURCE
func loadDataset() (*dataset.Dataset, error) {
	switch source := getEnv("DATA_SOURCE", "csv"); source {
	case "csv":
		dataDir := getEnv("DATA_DIR", "./data")
		fmt.Printf("📂 Chargement de l'extraction CSV depuis %s...\n", dataDir)
		return dataset.NewLoader(dataDir).Load()

	case "postgres":
		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "audituser"),
			getEnv("DB_PASSWORD", "auditpass"),
			getEnv("DB_NAME", "auditdb"),
			getEnv("DB_SSLMODE", "disable"),
		)
		if err := database.Init(connStr); err != nil {
			return nil, fmt.Errorf("connexion PostgreSQL: %w", err)
		}
		defer database.Close()

		fmt.Println("🗄️ Chargement de l'extraction depuis PostgreSQL...")
		tables, err := database.LoadAll()
		if err != nil {
			return nil, err
		}
		return dataset.FromTables(tables)

	default:
		return nil, fmt.Errorf("DATA_SOURCE inconnu: %q (csv ou postgres)", source)
	}
}

func writeArtifacts(rep *analysis.Report, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(outputDir, "audit_report.txt"), []byte(analysis.RenderText(rep)), 0o644); err != nil {
		return err
	}

	csvArtifacts := []struct {
		name   string
		export func() ([]byte, error)
	}{
		{"revenue_detail.csv", func() ([]byte, error) { return report.ExportRevenueCSV(rep.Revenue) }},
		{"receivables_detail.csv", func() ([]byte, error) { return report.ExportReceivablesCSV(rep.Receivables) }},
		{"three_way_exceptions.csv", func() ([]byte, error) { return report.ExportThreeWayCSV(rep.ThreeWay) }},
		{"credit_exceptions.csv", func() ([]byte, error) { return report.ExportCreditCSV(rep.Credit) }},
		{"aging.csv", func() ([]byte, error) { return report.ExportAgingCSV(rep.Aging, rep.ReferenceDiff) }},
		{"anomaly_signals.csv", func() ([]byte, error) { return report.ExportAnomalyCSV(rep.Anomaly) }},
		{"summary.csv", func() ([]byte, error) { return report.ExportSummaryCSV(rep) }},
	}
	for _, a := range csvArtifacts {
		data, err := a.export()
		if err != nil {
			return fmt.Errorf("export %s: %w", a.name, err)
		}
		if err := os.WriteFile(filepath.Join(outputDir, a.name), data, 0o644); err != nil {
			return err
		}
		fmt.Printf("   ✅ %s\n", a.name)
	}

	parquetPath := filepath.Join(outputDir, "revenue_detail.parquet")
	if err := report.ExportRevenueParquet(rep.Revenue, parquetPath); err != nil {
		return fmt.Errorf("export parquet: %w", err)
	}
	fmt.Println("   ✅ revenue_detail.parquet")

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return fallback
}
