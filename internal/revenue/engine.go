package revenue

import (
	"sort"
	"time"

	"audit/internal/dataset"
	shareddomain "audit/internal/shared/domain"
)

// Status est le verdict du rapprochement
type Status string

const (
	StatusMatch    Status = "MATCH"
	StatusMismatch Status = "MISMATCH"
)

// Row est une ligne de revenu reconnu : une facture de l'exercice jointe
// au SubTotal de sa commande
type Row struct {
	InvoiceID     int64                      `json:"invoice_id"`
	SalesOrderID  int64                      `json:"sales_order_id"`
	CustID        int64                      `json:"cust_id"`
	TerritoryID   int64                      `json:"territory_id"`
	CustomerName  string                     `json:"customer_name"`
	TerritoryName string                     `json:"territory_name"`
	InvoiceDate   time.Time                  `json:"invoice_date"`
	Amount        float64                    `json:"amount"`
	Payment       shareddomain.PaymentStatus `json:"-"`
}

// Result porte le détail des revenus reconnus et le verdict contre la
// balance générale. Un écart est un résultat à documenter, pas une erreur.
type Result struct {
	FiscalYear         int     `json:"fiscal_year"`
	Rows               []Row   `json:"rows"`
	RecognizedRevenue  float64 `json:"recognized_revenue"`
	TrialBalance       float64 `json:"trial_balance"`
	Difference         float64 `json:"difference"`
	DifferencePct      float64 `json:"difference_pct"`
	Tolerance          float64 `json:"tolerance"`
	Status             Status  `json:"status"`
	InvoicesConsidered int     `json:"invoices_considered"`
	ExcludedOutOfYear  int     `json:"excluded_out_of_year"`
}

// Engine rapproche le revenu reconnu (factures de l'exercice) de la
// balance générale
type Engine struct {
	ds        *dataset.Dataset
	fy        shareddomain.FiscalYear
	tolerance float64
}

// NewEngine crée le moteur de rapprochement des revenus
func NewEngine(ds *dataset.Dataset, fy shareddomain.FiscalYear, tolerance float64) *Engine {
	return &Engine{ds: ds, fy: fy, tolerance: tolerance}
}

// Reconcile calcule le revenu reconnu de l'exercice et le compare à la
// balance générale dans la tolérance donnée.
func (e *Engine) Reconcile(trialBalance float64) *Result {
	res := &Result{
		FiscalYear:   e.fy.Year(),
		TrialBalance: trialBalance,
		Tolerance:    e.tolerance,
	}

	for i := range e.ds.Invoices {
		inv := &e.ds.Invoices[i]
		res.InvoicesConsidered++

		if !e.fy.Contains(inv.InvoiceDate) {
			res.ExcludedOutOfYear++
			continue
		}
		// Intégrité garantie au chargement : toute facture référence une
		// commande existante
		order, ok := e.ds.OrdersByID[inv.SalesOrderID]
		if !ok {
			continue
		}

		res.Rows = append(res.Rows, Row{
			InvoiceID:     inv.InvoiceID,
			SalesOrderID:  order.SalesOrderID,
			CustID:        inv.CustID,
			TerritoryID:   order.TerritoryID,
			CustomerName:  e.ds.CustomerName(inv.CustID),
			TerritoryName: e.ds.TerritoryName(order.TerritoryID),
			InvoiceDate:   inv.InvoiceDate,
			Amount:        order.SubTotal,
			Payment:       inv.Payment,
		})
		res.RecognizedRevenue += order.SubTotal
	}

	// Ordre déterministe : date puis identifiant
	sort.Slice(res.Rows, func(i, j int) bool {
		if !res.Rows[i].InvoiceDate.Equal(res.Rows[j].InvoiceDate) {
			return res.Rows[i].InvoiceDate.Before(res.Rows[j].InvoiceDate)
		}
		return res.Rows[i].InvoiceID < res.Rows[j].InvoiceID
	})

	res.Difference = res.RecognizedRevenue - trialBalance
	if trialBalance != 0 {
		res.DifferencePct = res.Difference / trialBalance * 100
	}
	if e.matches(res.RecognizedRevenue, trialBalance) {
		res.Status = StatusMatch
	} else {
		res.Status = StatusMismatch
	}

	return res
}

// matches compare les deux soldes en valeurs Money de même devise, dans
// la tolérance du moteur. Un montant inexploitable ne peut pas concorder.
func (e *Engine) matches(recognized, book float64) bool {
	r, err := shareddomain.NewUSD(recognized)
	if err != nil {
		return false
	}
	b, err := shareddomain.NewUSD(book)
	if err != nil {
		return false
	}
	ok, err := r.WithinTolerance(b, e.tolerance)
	return err == nil && ok
}
