package credit

import (
	"sort"
	"time"

	"audit/internal/dataset"
	"audit/internal/receivables"
)

// Seuil de mise sous surveillance : utilisation de la limite au-delà de
// 80% sans dépassement
const watchlistThreshold = 0.80

// Exception est un client dont l'encours dépasse strictement sa limite de
// crédit. Un encours exactement égal à la limite est conforme.
type Exception struct {
	CustID       int64   `json:"cust_id"`
	CustomerName string  `json:"customer_name"`
	CredLimit    float64 `json:"cred_limit"`
	Balance      float64 `json:"balance"`
	Excess       float64 `json:"excess"`
	Utilization  float64 `json:"utilization"`
	OpenInvoices int     `json:"open_invoices"`
	// SnapshotOnly signale que la limite comparée est le snapshot courant,
	// faute de journal des limites pour ce client
	SnapshotOnly bool `json:"snapshot_only"`
}

// WatchlistEntry est un client sous surveillance : forte utilisation de sa
// limite sans dépassement
type WatchlistEntry struct {
	CustID       int64   `json:"cust_id"`
	CustomerName string  `json:"customer_name"`
	CredLimit    float64 `json:"cred_limit"`
	Balance      float64 `json:"balance"`
	Utilization  float64 `json:"utilization"`
}

// OverLimitAtIssue est une facture dont le montant excédait déjà la limite
// en vigueur à sa date d'émission (journal des limites requis)
type OverLimitAtIssue struct {
	InvoiceID    int64   `json:"invoice_id"`
	CustID       int64   `json:"cust_id"`
	CustomerName string  `json:"customer_name"`
	Amount       float64 `json:"amount"`
	LimitAtIssue float64 `json:"limit_at_issue"`
}

// NoLimitApproved est une commande approuvée crédit alors que le client
// n'a pas de limite de crédit
type NoLimitApproved struct {
	SalesOrderID int64   `json:"sales_order_id"`
	CustID       int64   `json:"cust_id"`
	CustomerName string  `json:"customer_name"`
	Amount       float64 `json:"amount"`
}

// Result porte les contrôles de crédit
type Result struct {
	CustomersEvaluated int                `json:"customers_evaluated"`
	Exceptions         []Exception        `json:"exceptions"`
	Watchlist          []WatchlistEntry   `json:"watchlist"`
	OverLimitAtIssue   []OverLimitAtIssue `json:"over_limit_at_issue,omitempty"`
	NoLimitApproved    []NoLimitApproved  `json:"no_limit_approved,omitempty"`
	TotalExcess        float64            `json:"total_excess"`
}

// Engine contrôle les encours clients contre leurs limites de crédit
type Engine struct {
	ds      *dataset.Dataset
	history *LimitHistory
	cutoff  time.Time
}

// NewEngine crée le moteur de contrôle de crédit. Le cutoff est la date de
// clôture, utilisée pour dater la limite de référence quand le journal des
// limites est disponible.
func NewEngine(ds *dataset.Dataset, history *LimitHistory, cutoff time.Time) *Engine {
	return &Engine{ds: ds, history: history, cutoff: cutoff}
}

// Review évalue chaque client porteur d'encours contre sa limite de
// crédit. L'encours est la somme des factures ouvertes à la clôture
// (sortie du rapprochement de l'encours). Le dépassement est strict :
// balance > limite.
func (e *Engine) Review(open []receivables.Row) *Result {
	res := &Result{}

	type balance struct {
		amount   float64
		invoices int
	}
	perCustomer := map[int64]*balance{}
	for _, row := range open {
		b, ok := perCustomer[row.CustID]
		if !ok {
			b = &balance{}
			perCustomer[row.CustID] = b
		}
		b.amount += row.Amount
		b.invoices++

		// Contrôle à l'émission : la facture dépassait-elle déjà la
		// limite en vigueur à sa date ?
		if limit, ok := e.history.LimitAsOf(row.CustID, row.InvoiceDate); ok && row.Amount > limit {
			res.OverLimitAtIssue = append(res.OverLimitAtIssue, OverLimitAtIssue{
				InvoiceID:    row.InvoiceID,
				CustID:       row.CustID,
				CustomerName: row.CustomerName,
				Amount:       row.Amount,
				LimitAtIssue: limit,
			})
		}
	}

	res.CustomersEvaluated = len(perCustomer)
	for custID, b := range perCustomer {
		cust, ok := e.ds.CustomersByID[custID]
		if !ok {
			continue
		}

		limit := cust.CredLimit
		snapshotOnly := true
		if l, ok := e.history.LimitAsOf(custID, e.cutoff); ok {
			limit = l
			snapshotOnly = false
		}

		utilization := 0.0
		if limit > 0 {
			utilization = b.amount / limit
		}

		if b.amount > limit {
			res.Exceptions = append(res.Exceptions, Exception{
				CustID:       custID,
				CustomerName: cust.CustName,
				CredLimit:    limit,
				Balance:      b.amount,
				Excess:       b.amount - limit,
				Utilization:  utilization,
				OpenInvoices: b.invoices,
				SnapshotOnly: snapshotOnly,
			})
			res.TotalExcess += b.amount - limit
		} else if utilization > watchlistThreshold {
			res.Watchlist = append(res.Watchlist, WatchlistEntry{
				CustID:       custID,
				CustomerName: cust.CustName,
				CredLimit:    limit,
				Balance:      b.amount,
				Utilization:  utilization,
			})
		}
	}

	// Commandes approuvées crédit sans limite de crédit au dossier
	for i := range e.ds.Orders {
		o := &e.ds.Orders[i]
		if !o.CredApr {
			continue
		}
		if cust, ok := e.ds.CustomersByID[o.CustID]; ok && cust.CredLimit <= 0 {
			res.NoLimitApproved = append(res.NoLimitApproved, NoLimitApproved{
				SalesOrderID: o.SalesOrderID,
				CustID:       o.CustID,
				CustomerName: cust.CustName,
				Amount:       o.TotalDue,
			})
		}
	}

	sort.Slice(res.Exceptions, func(i, j int) bool {
		if res.Exceptions[i].Excess != res.Exceptions[j].Excess {
			return res.Exceptions[i].Excess > res.Exceptions[j].Excess
		}
		return res.Exceptions[i].CustID < res.Exceptions[j].CustID
	})
	sort.Slice(res.Watchlist, func(i, j int) bool {
		if res.Watchlist[i].Utilization != res.Watchlist[j].Utilization {
			return res.Watchlist[i].Utilization > res.Watchlist[j].Utilization
		}
		return res.Watchlist[i].CustID < res.Watchlist[j].CustID
	})
	sort.Slice(res.OverLimitAtIssue, func(i, j int) bool {
		if res.OverLimitAtIssue[i].Amount != res.OverLimitAtIssue[j].Amount {
			return res.OverLimitAtIssue[i].Amount > res.OverLimitAtIssue[j].Amount
		}
		return res.OverLimitAtIssue[i].InvoiceID < res.OverLimitAtIssue[j].InvoiceID
	})
	sort.Slice(res.NoLimitApproved, func(i, j int) bool {
		if res.NoLimitApproved[i].Amount != res.NoLimitApproved[j].Amount {
			return res.NoLimitApproved[i].Amount > res.NoLimitApproved[j].Amount
		}
		return res.NoLimitApproved[i].SalesOrderID < res.NoLimitApproved[j].SalesOrderID
	})

	return res
}
