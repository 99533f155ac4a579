package threewaymatch

import (
	"fmt"
	"sort"
	"time"

	"audit/internal/dataset"
)

// Category est la case du partitionnement commande / facture / expédition.
// Le partitionnement est exhaustif et mutuellement exclusif : chaque
// commande tombe dans exactement une case, selon la seule présence des
// références.
type Category string

const (
	CategoryMatched            Category = "matched"
	CategoryInvoicedNotShipped Category = "invoiced_not_shipped"
	CategoryShippedNotInvoiced Category = "shipped_not_invoiced"
	CategoryIncompletePending  Category = "incomplete_pending"
)

// categoryRank fixe l'ordre de restitution des exceptions
var categoryRank = map[Category]int{
	CategoryInvoicedNotShipped: 0,
	CategoryShippedNotInvoiced: 1,
	CategoryIncompletePending:  2,
}

// Exception est une commande dont le cycle commande → expédition →
// facture est incomplet
type Exception struct {
	Category     Category   `json:"category"`
	SalesOrderID int64      `json:"sales_order_id"`
	CustID       int64      `json:"cust_id"`
	CustomerName string     `json:"customer_name"`
	OrderDate    time.Time  `json:"order_date"`
	Amount       float64    `json:"amount"`
	InvoiceID    *int64     `json:"invoice_id,omitempty"`
	InvoiceDate  *time.Time `json:"invoice_date,omitempty"`
	PaymentState string     `json:"payment_state,omitempty"`
	ShipID       *int64     `json:"ship_id,omitempty"`
	ShipDate     *time.Time `json:"ship_date,omitempty"`
}

// CategorySummary donne le volume et le poids d'une case du partitionnement
type CategorySummary struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
	Amount   float64  `json:"amount"`
	Share    float64  `json:"share_pct"`
}

// Result porte le partitionnement complet et les exceptions triées
type Result struct {
	TotalOrders   int               `json:"total_orders"`
	MatchedCount  int               `json:"matched_count"`
	MatchedAmount float64           `json:"matched_amount"`
	MatchRate     float64           `json:"match_rate_pct"`
	Exceptions    []Exception       `json:"exceptions"`
	Summaries     []CategorySummary `json:"summaries"`
	// Paires appariées dont les références croisées ne concordent pas :
	// la commande reste dans sa case, le conflit est restitué à part
	Conflicts []dataset.Finding `json:"conflicts,omitempty"`
}

// InvoicedNotShipped retourne les exceptions facturées non expédiées,
// le signal bill-and-hold
func (r *Result) InvoicedNotShipped() []Exception {
	var out []Exception
	for _, e := range r.Exceptions {
		if e.Category == CategoryInvoicedNotShipped {
			out = append(out, e)
		}
	}
	return out
}

// Engine exécute le contrôle de concordance à trois voies
type Engine struct {
	ds *dataset.Dataset
}

// NewEngine crée le moteur de concordance
func NewEngine(ds *dataset.Dataset) *Engine {
	return &Engine{ds: ds}
}

// Match partitionne chaque commande selon la présence de ses références
// facture et expédition, puis trie les exceptions par (catégorie, montant
// décroissant, identifiant croissant).
func (e *Engine) Match() *Result {
	res := &Result{TotalOrders: len(e.ds.Orders)}
	perCategory := map[Category]*CategorySummary{}
	record := func(cat Category, amount float64) {
		s, ok := perCategory[cat]
		if !ok {
			s = &CategorySummary{Category: cat}
			perCategory[cat] = s
		}
		s.Count++
		s.Amount += amount
	}

	for i := range e.ds.Orders {
		o := &e.ds.Orders[i]
		hasInvoice := o.InvoiceID != nil
		hasShipment := o.ShipID != nil

		var cat Category
		switch {
		case hasInvoice && hasShipment:
			cat = CategoryMatched
		case hasInvoice && !hasShipment:
			cat = CategoryInvoicedNotShipped
		case !hasInvoice && hasShipment:
			cat = CategoryShippedNotInvoiced
		default:
			cat = CategoryIncompletePending
		}
		record(cat, o.TotalDue)

		if cat == CategoryMatched {
			res.MatchedCount++
			res.MatchedAmount += o.TotalDue
			// Contrôle de cohérence des références croisées sur les
			// paires appariées
			if inv, ok := e.ds.InvoicesByID[*o.InvoiceID]; ok && inv.SalesOrderID != o.SalesOrderID {
				res.Conflicts = append(res.Conflicts, dataset.Finding{
					Kind:   dataset.FindingLinkageConflict,
					Table:  "sales_orders",
					RowID:  o.SalesOrderID,
					Detail: fmt.Sprintf("matched order references invoice %d which belongs to order %d", inv.InvoiceID, inv.SalesOrderID),
				})
			}
			if sh, ok := e.ds.ShipmentsByID[*o.ShipID]; ok && sh.SalesOrderID != o.SalesOrderID {
				res.Conflicts = append(res.Conflicts, dataset.Finding{
					Kind:   dataset.FindingLinkageConflict,
					Table:  "sales_orders",
					RowID:  o.SalesOrderID,
					Detail: fmt.Sprintf("matched order references shipment %d which belongs to order %d", sh.ShipID, sh.SalesOrderID),
				})
			}
			continue
		}

		exc := Exception{
			Category:     cat,
			SalesOrderID: o.SalesOrderID,
			CustID:       o.CustID,
			CustomerName: e.ds.CustomerName(o.CustID),
			OrderDate:    o.OrderDate,
			Amount:       o.TotalDue,
		}
		if hasInvoice {
			if inv, ok := e.ds.InvoicesByID[*o.InvoiceID]; ok {
				id := inv.InvoiceID
				date := inv.InvoiceDate
				exc.InvoiceID = &id
				exc.InvoiceDate = &date
				exc.PaymentState = inv.Payment.String()
			}
		}
		if hasShipment {
			if sh, ok := e.ds.ShipmentsByID[*o.ShipID]; ok {
				id := sh.ShipID
				date := sh.ShipDate
				exc.ShipID = &id
				exc.ShipDate = &date
			}
		}
		res.Exceptions = append(res.Exceptions, exc)
	}

	sort.Slice(res.Exceptions, func(i, j int) bool {
		a, b := res.Exceptions[i], res.Exceptions[j]
		if a.Category != b.Category {
			return categoryRank[a.Category] < categoryRank[b.Category]
		}
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.SalesOrderID < b.SalesOrderID
	})

	for _, cat := range []Category{CategoryMatched, CategoryInvoicedNotShipped, CategoryShippedNotInvoiced, CategoryIncompletePending} {
		s, ok := perCategory[cat]
		if !ok {
			s = &CategorySummary{Category: cat}
		}
		if res.TotalOrders > 0 {
			s.Share = float64(s.Count) / float64(res.TotalOrders) * 100
		}
		res.Summaries = append(res.Summaries, *s)
	}
	if res.TotalOrders > 0 {
		res.MatchRate = float64(res.MatchedCount) / float64(res.TotalOrders) * 100
	}

	return res
}
