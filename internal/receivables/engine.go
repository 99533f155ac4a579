package receivables

import (
	"fmt"
	"sort"
	"time"

	"audit/internal/dataset"
	shareddomain "audit/internal/shared/domain"
)

// Classification distingue les deux populations de l'encours : les
// factures encaissées après la clôture (collections normales) et celles
// toujours impayées à l'extraction (risque de recouvrement)
type Classification string

const (
	PaidAfterCutoff Classification = "paid_after_cutoff"
	StillUnpaid     Classification = "still_unpaid"
)

// Status est le verdict du rapprochement
type Status string

const (
	StatusMatch    Status = "MATCH"
	StatusMismatch Status = "MISMATCH"
)

// Row est une facture ouverte à la clôture, valorisée au TotalDue de sa
// commande
type Row struct {
	InvoiceID      int64          `json:"invoice_id"`
	SalesOrderID   int64          `json:"sales_order_id"`
	CustID         int64          `json:"cust_id"`
	CustomerName   string         `json:"customer_name"`
	InvoiceDate    time.Time      `json:"invoice_date"`
	Amount         float64        `json:"amount"`
	Classification Classification `json:"classification"`
}

// Result porte l'encours clients reconstitué et le verdict contre la
// balance générale
type Result struct {
	Cutoff              time.Time         `json:"cutoff"`
	Rows                []Row             `json:"rows"`
	GrossReceivables    float64           `json:"gross_receivables"`
	TrialBalance        float64           `json:"trial_balance"`
	Difference          float64           `json:"difference"`
	DifferencePct       float64           `json:"difference_pct"`
	Tolerance           float64           `json:"tolerance"`
	Status              Status            `json:"status"`
	InvoicesConsidered  int               `json:"invoices_considered"`
	ExcludedSettled     int               `json:"excluded_settled"`
	ExcludedAfterCutoff int               `json:"excluded_after_cutoff"`
	StillUnpaidCount    int               `json:"still_unpaid_count"`
	StillUnpaidAmount   float64           `json:"still_unpaid_amount"`
	PaidAfterCount      int               `json:"paid_after_count"`
	PaidAfterAmount     float64           `json:"paid_after_amount"`
	Findings            []dataset.Finding `json:"findings,omitempty"`
}

// Engine reconstitue l'encours clients à la date de clôture : factures
// émises au plus tard à la clôture et non encaissées à cette date
type Engine struct {
	ds        *dataset.Dataset
	fy        shareddomain.FiscalYear
	tolerance float64
}

// NewEngine crée le moteur de rapprochement de l'encours clients
func NewEngine(ds *dataset.Dataset, fy shareddomain.FiscalYear, tolerance float64) *Engine {
	return &Engine{ds: ds, fy: fy, tolerance: tolerance}
}

// Reconcile reconstitue l'encours brut à la clôture et le compare à la
// balance générale dans la tolérance donnée.
func (e *Engine) Reconcile(trialBalance float64) *Result {
	cutoff := e.fy.End()
	res := &Result{
		Cutoff:       cutoff,
		TrialBalance: trialBalance,
		Tolerance:    e.tolerance,
	}

	for i := range e.ds.Invoices {
		inv := &e.ds.Invoices[i]
		res.InvoicesConsidered++

		// Précondition du périmètre : aucune facture antérieure à
		// l'exercice ne devrait exister dans l'extraction
		if inv.InvoiceDate.Before(e.fy.Start()) {
			res.Findings = append(res.Findings, dataset.Finding{
				Kind:   "invoice_before_fiscal_year",
				Table:  "invoices",
				RowID:  inv.InvoiceID,
				Detail: fmt.Sprintf("invoice dated %s predates fiscal year %d", inv.InvoiceDate.Format("2006-01-02"), e.fy.Year()),
			})
		}

		if inv.InvoiceDate.After(cutoff) {
			res.ExcludedAfterCutoff++
			continue
		}
		if inv.Payment.PaidOnOrBefore(cutoff) {
			res.ExcludedSettled++
			continue
		}
		// Intégrité garantie au chargement : toute facture référence une
		// commande existante
		order, ok := e.ds.OrdersByID[inv.SalesOrderID]
		if !ok {
			continue
		}

		cls := StillUnpaid
		if inv.Payment.IsPaid() {
			// Payée, mais après la clôture : encours normal en cours
			// de recouvrement
			cls = PaidAfterCutoff
		}

		row := Row{
			InvoiceID:      inv.InvoiceID,
			SalesOrderID:   order.SalesOrderID,
			CustID:         inv.CustID,
			CustomerName:   e.ds.CustomerName(inv.CustID),
			InvoiceDate:    inv.InvoiceDate,
			Amount:         order.TotalDue,
			Classification: cls,
		}
		res.Rows = append(res.Rows, row)
		res.GrossReceivables += order.TotalDue
		if cls == StillUnpaid {
			res.StillUnpaidCount++
			res.StillUnpaidAmount += order.TotalDue
		} else {
			res.PaidAfterCount++
			res.PaidAfterAmount += order.TotalDue
		}
	}

	sort.Slice(res.Rows, func(i, j int) bool {
		if res.Rows[i].Amount != res.Rows[j].Amount {
			return res.Rows[i].Amount > res.Rows[j].Amount
		}
		return res.Rows[i].InvoiceID < res.Rows[j].InvoiceID
	})

	res.Difference = res.GrossReceivables - trialBalance
	if trialBalance != 0 {
		res.DifferencePct = res.Difference / trialBalance * 100
	}
	if e.matches(res.GrossReceivables, trialBalance) {
		res.Status = StatusMatch
	} else {
		res.Status = StatusMismatch
	}

	return res
}

// matches compare les deux soldes en valeurs Money de même devise, dans
// la tolérance du moteur. Un montant inexploitable ne peut pas concorder.
func (e *Engine) matches(gross, book float64) bool {
	g, err := shareddomain.NewUSD(gross)
	if err != nil {
		return false
	}
	b, err := shareddomain.NewUSD(book)
	if err != nil {
		return false
	}
	ok, err := g.WithinTolerance(b, e.tolerance)
	return err == nil && ok
}
