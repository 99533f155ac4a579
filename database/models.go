package database

import (
	"time"

	shareddomain "audit/internal/shared/domain"
)

// ============================================================================
// MODÈLES DE DONNÉES - Extraction comptable normalisée (6 tables)
// ============================================================================

// SalesOrder - Commande de vente (source du chiffre d'affaires)
type SalesOrder struct {
	SalesOrderID int64     `json:"sales_order_id"`
	OrderDate    time.Time `json:"order_date"`
	ProdID       int64     `json:"prod_id"`
	CustID       int64     `json:"cust_id"`
	TerritoryID  int64     `json:"territory_id"`
	Quantity     int       `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	SubTotal     float64   `json:"sub_total"`
	TaxAmt       float64   `json:"tax_amt"`
	Freight      float64   `json:"freight"`
	TotalDue     float64   `json:"total_due"`
	CredApr      bool      `json:"cred_apr"`
	ShipID       *int64    `json:"ship_id,omitempty"`
	InvoiceID    *int64    `json:"invoice_id,omitempty"`
	ModifiedDate time.Time `json:"modified_date"`
}

// Shipment - Expédition liée à une commande
type Shipment struct {
	ShipID       int64     `json:"ship_id"`
	SalesOrderID int64     `json:"sales_order_id"`
	ShipDate     time.Time `json:"ship_date"`
	ShipWeight   float64   `json:"ship_weight"`
	Carrier      string    `json:"carrier,omitempty"`
	ModifiedDate time.Time `json:"modified_date"`
}

// Invoice - Facture émise. Le statut de paiement est porté par le value
// object PaymentStatus : la sentinelle brute du système source ne sort
// jamais du chargeur.
type Invoice struct {
	InvoiceID    int64                      `json:"invoice_id"`
	CustID       int64                      `json:"cust_id"`
	InvoiceDate  time.Time                  `json:"invoice_date"`
	SalesOrderID int64                      `json:"sales_order_id"`
	Payment      shareddomain.PaymentStatus `json:"-"`
	ModifiedDate time.Time                  `json:"modified_date"`
}

// Territory - Territoire de vente
type Territory struct {
	TerritoryID   int64     `json:"territory_id"`
	TerritoryName string    `json:"territory_name"`
	SalesPerson   string    `json:"sales_person,omitempty"`
	SalesGoalQTR  float64   `json:"sales_goal_qtr"`
	ModifiedDate  time.Time `json:"modified_date"`
}

// Customer - Client avec sa limite de crédit courante (snapshot à l'extraction)
type Customer struct {
	CustID       int64     `json:"cust_id"`
	TerritoryID  int64     `json:"territory_id"`
	CustName     string    `json:"cust_name"`
	Addr1        string    `json:"addr1,omitempty"`
	Addr2        string    `json:"addr2,omitempty"`
	City         string    `json:"city,omitempty"`
	Zip          string    `json:"zip,omitempty"`
	CredLimit    float64   `json:"cred_limit"`
	ModifiedDate time.Time `json:"modified_date"`
}

// Product - Produit (dispositif médical)
type Product struct {
	ProdID           int64     `json:"prod_id"`
	ProdName         string    `json:"prod_name"`
	SafetyStockLevel int       `json:"safety_stock_level"`
	ReManPoint       int       `json:"re_man_point"`
	StandardCost     float64   `json:"standard_cost"`
	UnitPrice        float64   `json:"unit_price"`
	Weight           float64   `json:"weight"`
	DaysToMan        int       `json:"days_to_man"`
	SellStartDate    time.Time `json:"sell_start_date"`
	ModifiedDate     time.Time `json:"modified_date"`
}

// CreditLimitChange - Entrée du journal append-only des limites de crédit.
// Permet le contrôle de crédit à la date de facture plutôt qu'au snapshot.
type CreditLimitChange struct {
	CustID      int64     `json:"cust_id"`
	Limit       float64   `json:"limit"`
	EffectiveAt time.Time `json:"effective_at"`
}

// ============================================================================
// MODÈLES POUR EXPORT PARQUET
// ============================================================================

// RevenueRowParquet - Structure optimisée pour l'export Parquet du détail
// des revenus rapprochés
type RevenueRowParquet struct {
	InvoiceDate   string  `parquet:"name=invoice_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	InvoiceID     int64   `parquet:"name=invoice_id, type=INT64"`
	SalesOrderID  int64   `parquet:"name=sales_order_id, type=INT64"`
	CustomerName  string  `parquet:"name=customer_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	TerritoryName string  `parquet:"name=territory_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount        float64 `parquet:"name=amount, type=DOUBLE"`
	PaymentState  string  `parquet:"name=payment_state, type=BYTE_ARRAY, convertedtype=UTF8"`
}
