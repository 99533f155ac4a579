package database

import (
	"fmt"
)

// CreateSchema crée les tables de l'extraction si elles n'existent pas.
// La sentinelle d'impayé n'existe pas en base : paid_date est NULL pour
// une facture impayée.
func CreateSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS territories (
			territory_id BIGINT PRIMARY KEY,
			territory_name TEXT NOT NULL,
			sales_person TEXT,
			sales_goal_qtr DOUBLE PRECISION NOT NULL DEFAULT 0,
			modified_date DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			cust_id BIGINT PRIMARY KEY,
			territory_id BIGINT NOT NULL REFERENCES territories(territory_id),
			cust_name TEXT NOT NULL,
			addr1 TEXT, addr2 TEXT, city TEXT, zip TEXT,
			cred_limit DOUBLE PRECISION NOT NULL DEFAULT 0,
			modified_date DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			prod_id BIGINT PRIMARY KEY,
			prod_name TEXT NOT NULL,
			safety_stock_level INT NOT NULL DEFAULT 0,
			re_man_point INT NOT NULL DEFAULT 0,
			standard_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
			unit_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			days_to_man INT NOT NULL DEFAULT 0,
			sell_start_date DATE NOT NULL,
			modified_date DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sales_orders (
			sales_order_id BIGINT PRIMARY KEY,
			order_date DATE NOT NULL,
			prod_id BIGINT NOT NULL REFERENCES products(prod_id),
			cust_id BIGINT NOT NULL REFERENCES customers(cust_id),
			territory_id BIGINT NOT NULL REFERENCES territories(territory_id),
			quantity INT NOT NULL,
			unit_price DOUBLE PRECISION NOT NULL,
			sub_total DOUBLE PRECISION NOT NULL,
			tax_amt DOUBLE PRECISION NOT NULL,
			freight DOUBLE PRECISION NOT NULL,
			total_due DOUBLE PRECISION NOT NULL,
			cred_apr BOOLEAN NOT NULL DEFAULT FALSE,
			ship_id BIGINT,
			invoice_id BIGINT,
			modified_date DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS shipments (
			ship_id BIGINT PRIMARY KEY,
			sales_order_id BIGINT NOT NULL REFERENCES sales_orders(sales_order_id),
			ship_date DATE NOT NULL,
			ship_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			carrier TEXT,
			modified_date DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			invoice_id BIGINT PRIMARY KEY,
			cust_id BIGINT NOT NULL REFERENCES customers(cust_id),
			invoice_date DATE NOT NULL,
			sales_order_id BIGINT NOT NULL REFERENCES sales_orders(sales_order_id),
			paid_date DATE,
			modified_date DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS credit_limit_history (
			cust_id BIGINT NOT NULL REFERENCES customers(cust_id),
			cred_limit DOUBLE PRECISION NOT NULL,
			effective_date DATE NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("erreur création schéma: %w", err)
		}
	}
	return nil
}

// SeedTables peuple la base depuis une extraction déjà validée. L'ordre
// d'insertion respecte les clés étrangères ; les références croisées des
// commandes sont posées en dernier.
func SeedTables(
	orders []SalesOrder,
	shipments []Shipment,
	invoices []Invoice,
	territories []Territory,
	customers []Customer,
	products []Product,
	history []CreditLimitChange,
) error {
	fmt.Println("🌱 Chargement de l'extraction en base...")

	if err := seedTerritories(territories); err != nil {
		return fmt.Errorf("erreur chargement territoires: %w", err)
	}
	if err := seedCustomers(customers); err != nil {
		return fmt.Errorf("erreur chargement clients: %w", err)
	}
	if err := seedProducts(products); err != nil {
		return fmt.Errorf("erreur chargement produits: %w", err)
	}
	if err := seedOrders(orders); err != nil {
		return fmt.Errorf("erreur chargement commandes: %w", err)
	}
	if err := seedShipments(shipments); err != nil {
		return fmt.Errorf("erreur chargement expéditions: %w", err)
	}
	if err := seedInvoices(invoices); err != nil {
		return fmt.Errorf("erreur chargement factures: %w", err)
	}
	if err := seedOrderRefs(orders); err != nil {
		return fmt.Errorf("erreur pose des références croisées: %w", err)
	}
	if err := seedCreditHistory(history); err != nil {
		return fmt.Errorf("erreur chargement journal des limites: %w", err)
	}

	fmt.Println("🔍 Analyse des tables...")
	if _, err := DB.Exec("ANALYZE"); err != nil {
		fmt.Println("⚠️ Attention: échec de l'analyse:", err)
	}

	return nil
}

func seedTerritories(territories []Territory) error {
	fmt.Printf("   📦 Chargement de %d territoires...\n", len(territories))
	for _, t := range territories {
		_, err := DB.Exec(`
			INSERT INTO territories (territory_id, territory_name, sales_person, sales_goal_qtr, modified_date)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (territory_id) DO NOTHING
		`, t.TerritoryID, t.TerritoryName, t.SalesPerson, t.SalesGoalQTR, t.ModifiedDate)
		if err != nil {
			return err
		}
	}
	fmt.Printf("   ✅ %d territoires chargés\n", len(territories))
	return nil
}

func seedCustomers(customers []Customer) error {
	fmt.Printf("   📦 Chargement de %d clients...\n", len(customers))
	for _, c := range customers {
		_, err := DB.Exec(`
			INSERT INTO customers (cust_id, territory_id, cust_name, addr1, addr2, city, zip, cred_limit, modified_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (cust_id) DO NOTHING
		`, c.CustID, c.TerritoryID, c.CustName, c.Addr1, c.Addr2, c.City, c.Zip, c.CredLimit, c.ModifiedDate)
		if err != nil {
			return err
		}
	}
	fmt.Printf("   ✅ %d clients chargés\n", len(customers))
	return nil
}

func seedProducts(products []Product) error {
	fmt.Printf("   📦 Chargement de %d produits...\n", len(products))
	for _, p := range products {
		_, err := DB.Exec(`
			INSERT INTO products (prod_id, prod_name, safety_stock_level, re_man_point, standard_cost,
				unit_price, weight, days_to_man, sell_start_date, modified_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (prod_id) DO NOTHING
		`, p.ProdID, p.ProdName, p.SafetyStockLevel, p.ReManPoint, p.StandardCost,
			p.UnitPrice, p.Weight, p.DaysToMan, p.SellStartDate, p.ModifiedDate)
		if err != nil {
			return err
		}
	}
	fmt.Printf("   ✅ %d produits chargés\n", len(products))
	return nil
}

// seedOrders insère les commandes SANS leurs références croisées : les
// expéditions et factures n'existent pas encore à ce stade
func seedOrders(orders []SalesOrder) error {
	fmt.Printf("   📦 Chargement de %d commandes...\n", len(orders))
	for _, o := range orders {
		_, err := DB.Exec(`
			INSERT INTO sales_orders (sales_order_id, order_date, prod_id, cust_id, territory_id,
				quantity, unit_price, sub_total, tax_amt, freight, total_due, cred_apr, modified_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (sales_order_id) DO NOTHING
		`, o.SalesOrderID, o.OrderDate, o.ProdID, o.CustID, o.TerritoryID,
			o.Quantity, o.UnitPrice, o.SubTotal, o.TaxAmt, o.Freight, o.TotalDue, o.CredApr, o.ModifiedDate)
		if err != nil {
			return err
		}
	}
	fmt.Printf("   ✅ %d commandes chargées\n", len(orders))
	return nil
}

func seedShipments(shipments []Shipment) error {
	fmt.Printf("   📦 Chargement de %d expéditions...\n", len(shipments))
	for _, s := range shipments {
		_, err := DB.Exec(`
			INSERT INTO shipments (ship_id, sales_order_id, ship_date, ship_weight, carrier, modified_date)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (ship_id) DO NOTHING
		`, s.ShipID, s.SalesOrderID, s.ShipDate, s.ShipWeight, s.Carrier, s.ModifiedDate)
		if err != nil {
			return err
		}
	}
	fmt.Printf("   ✅ %d expéditions chargées\n", len(shipments))
	return nil
}

func seedInvoices(invoices []Invoice) error {
	fmt.Printf("   📦 Chargement de %d factures...\n", len(invoices))
	for _, inv := range invoices {
		var paidDate interface{}
		if d, paid := inv.Payment.PaidDate(); paid {
			paidDate = d
		}
		_, err := DB.Exec(`
			INSERT INTO invoices (invoice_id, cust_id, invoice_date, sales_order_id, paid_date, modified_date)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (invoice_id) DO NOTHING
		`, inv.InvoiceID, inv.CustID, inv.InvoiceDate, inv.SalesOrderID, paidDate, inv.ModifiedDate)
		if err != nil {
			return err
		}
	}
	fmt.Printf("   ✅ %d factures chargées\n", len(invoices))
	return nil
}

func seedOrderRefs(orders []SalesOrder) error {
	fmt.Println("   🔗 Pose des références expédition / facture sur les commandes...")
	for _, o := range orders {
		if o.ShipID == nil && o.InvoiceID == nil {
			continue
		}
		_, err := DB.Exec(`
			UPDATE sales_orders SET ship_id = $2, invoice_id = $3 WHERE sales_order_id = $1
		`, o.SalesOrderID, o.ShipID, o.InvoiceID)
		if err != nil {
			return err
		}
	}
	fmt.Println("   ✅ Références croisées posées")
	return nil
}

func seedCreditHistory(history []CreditLimitChange) error {
	if len(history) == 0 {
		return nil
	}
	fmt.Printf("   📦 Chargement de %d entrées du journal des limites...\n", len(history))
	for _, h := range history {
		_, err := DB.Exec(`
			INSERT INTO credit_limit_history (cust_id, cred_limit, effective_date)
			VALUES ($1, $2, $3)
		`, h.CustID, h.Limit, h.EffectiveAt)
		if err != nil {
			return err
		}
	}
	fmt.Printf("   ✅ %d entrées chargées\n", len(history))
	return nil
}
