package main

import (
	"fmt"
	"log"
	"os"

	"audit/database"
	"audit/internal/dataset"

	"github.com/joho/godotenv"
)

func main() {
	// Charge .env
	err := godotenv.Load()
	if err != nil {
		log.Println("Attention: fichier .env non trouvé, utilisation des valeurs par défaut")
	}

	// Connexion PostgreSQL
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "audituser"),
		getEnv("DB_PASSWORD", "auditpass"),
		getEnv("DB_NAME", "auditdb"),
		getEnv("DB_SSLMODE", "disable"),
	)

	err = database.Init(connStr)
	if err != nil {
		log.Fatal("❌ Erreur connexion DB:", err)
	}
	defer database.Close()

	fmt.Println("✅ Connexion PostgreSQL établie")

	dataDir := getEnv("DATA_DIR", "./data")

	fmt.Printf("📂 Lecture de l'extraction CSV depuis %s...\n", dataDir)
	ds, err := dataset.NewLoader(dataDir).Load()
	if err != nil {
		log.Fatal("❌ Erreur chargement de l'extraction:", err)
	}

	fmt.Println("🌱 Démarrage du chargement en base...")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if err := database.CreateSchema(); err != nil {
		log.Fatal("❌ Erreur création du schéma:", err)
	}
	err = database.SeedTables(ds.Orders, ds.Shipments, ds.Invoices, ds.Territories, ds.Customers, ds.Products, ds.CreditHistory)
	if err != nil {
		log.Fatal("❌ Erreur lors du chargement:", err)
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("✅ Chargement terminé avec succès!")
	fmt.Println()
	fmt.Println("Vous pouvez maintenant lancer l'analyse avec:")
	fmt.Println("  DATA_SOURCE=postgres go run main.go")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
