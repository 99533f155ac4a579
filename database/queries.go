package database

import (
	"database/sql"
	"time"

	shareddomain "audit/internal/shared/domain"
)

// Tables regroupe les six tables rechargées depuis la base, dans le même
// modèle que le chemin CSV
type Tables struct {
	Orders      []SalesOrder
	Shipments   []Shipment
	Invoices    []Invoice
	Territories []Territory
	Customers   []Customer
	Products    []Product
	History     []CreditLimitChange
}

// LoadAll recharge l'extraction complète depuis la base
func LoadAll() (*Tables, error) {
	t := &Tables{}

	if err := loadOrders(t); err != nil {
		return nil, err
	}
	if err := loadShipments(t); err != nil {
		return nil, err
	}
	if err := loadInvoices(t); err != nil {
		return nil, err
	}
	if err := loadTerritories(t); err != nil {
		return nil, err
	}
	if err := loadCustomers(t); err != nil {
		return nil, err
	}
	if err := loadProducts(t); err != nil {
		return nil, err
	}
	if err := loadCreditHistory(t); err != nil {
		return nil, err
	}

	return t, nil
}

func loadOrders(t *Tables) error {
	rows, err := DB.Query(`
		SELECT sales_order_id, order_date, prod_id, cust_id, territory_id,
		       quantity, unit_price, sub_total, tax_amt, freight, total_due,
		       cred_apr, ship_id, invoice_id, modified_date
		FROM sales_orders
		ORDER BY sales_order_id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o         SalesOrder
			shipID    sql.NullInt64
			invoiceID sql.NullInt64
		)
		if err := rows.Scan(&o.SalesOrderID, &o.OrderDate, &o.ProdID, &o.CustID, &o.TerritoryID,
			&o.Quantity, &o.UnitPrice, &o.SubTotal, &o.TaxAmt, &o.Freight, &o.TotalDue,
			&o.CredApr, &shipID, &invoiceID, &o.ModifiedDate); err != nil {
			return err
		}
		if shipID.Valid {
			v := shipID.Int64
			o.ShipID = &v
		}
		if invoiceID.Valid {
			v := invoiceID.Int64
			o.InvoiceID = &v
		}
		t.Orders = append(t.Orders, o)
	}
	return rows.Err()
}

func loadShipments(t *Tables) error {
	rows, err := DB.Query(`
		SELECT ship_id, sales_order_id, ship_date, ship_weight, carrier, modified_date
		FROM shipments
		ORDER BY ship_id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s       Shipment
			carrier sql.NullString
		)
		if err := rows.Scan(&s.ShipID, &s.SalesOrderID, &s.ShipDate, &s.ShipWeight, &carrier, &s.ModifiedDate); err != nil {
			return err
		}
		s.Carrier = carrier.String
		t.Shipments = append(t.Shipments, s)
	}
	return rows.Err()
}

func loadInvoices(t *Tables) error {
	rows, err := DB.Query(`
		SELECT invoice_id, cust_id, invoice_date, sales_order_id, paid_date, modified_date
		FROM invoices
		ORDER BY invoice_id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			inv      Invoice
			paidDate sql.NullTime
		)
		if err := rows.Scan(&inv.InvoiceID, &inv.CustID, &inv.InvoiceDate, &inv.SalesOrderID, &paidDate, &inv.ModifiedDate); err != nil {
			return err
		}
		// En base, impayé = paid_date NULL : la sentinelle n'existe que
		// dans les fichiers source
		if paidDate.Valid {
			inv.Payment = shareddomain.Paid(paidDate.Time.UTC())
		} else {
			inv.Payment = shareddomain.Unpaid()
		}
		t.Invoices = append(t.Invoices, inv)
	}
	return rows.Err()
}

func loadTerritories(t *Tables) error {
	rows, err := DB.Query(`
		SELECT territory_id, territory_name, sales_person, sales_goal_qtr, modified_date
		FROM territories
		ORDER BY territory_id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			terr        Territory
			salesPerson sql.NullString
		)
		if err := rows.Scan(&terr.TerritoryID, &terr.TerritoryName, &salesPerson, &terr.SalesGoalQTR, &terr.ModifiedDate); err != nil {
			return err
		}
		terr.SalesPerson = salesPerson.String
		t.Territories = append(t.Territories, terr)
	}
	return rows.Err()
}

func loadCustomers(t *Tables) error {
	rows, err := DB.Query(`
		SELECT cust_id, territory_id, cust_name, addr1, addr2, city, zip, cred_limit, modified_date
		FROM customers
		ORDER BY cust_id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c                      Customer
			addr1, addr2, city, zip sql.NullString
		)
		if err := rows.Scan(&c.CustID, &c.TerritoryID, &c.CustName, &addr1, &addr2, &city, &zip, &c.CredLimit, &c.ModifiedDate); err != nil {
			return err
		}
		c.Addr1, c.Addr2, c.City, c.Zip = addr1.String, addr2.String, city.String, zip.String
		t.Customers = append(t.Customers, c)
	}
	return rows.Err()
}

func loadProducts(t *Tables) error {
	rows, err := DB.Query(`
		SELECT prod_id, prod_name, safety_stock_level, re_man_point, standard_cost,
		       unit_price, weight, days_to_man, sell_start_date, modified_date
		FROM products
		ORDER BY prod_id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ProdID, &p.ProdName, &p.SafetyStockLevel, &p.ReManPoint, &p.StandardCost,
			&p.UnitPrice, &p.Weight, &p.DaysToMan, &p.SellStartDate, &p.ModifiedDate); err != nil {
			return err
		}
		t.Products = append(t.Products, p)
	}
	return rows.Err()
}

func loadCreditHistory(t *Tables) error {
	rows, err := DB.Query(`
		SELECT cust_id, cred_limit, effective_date
		FROM credit_limit_history
		ORDER BY cust_id, effective_date
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			h    CreditLimitChange
			date time.Time
		)
		if err := rows.Scan(&h.CustID, &h.Limit, &date); err != nil {
			return err
		}
		h.EffectiveAt = date.UTC()
		t.History = append(t.History, h)
	}
	return rows.Err()
}
