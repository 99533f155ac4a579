package anomaly

import (
	"fmt"
	"sort"
	"time"

	"audit/internal/dataset"
	"audit/internal/revenue"
	shareddomain "audit/internal/shared/domain"
)

// Seuils de détection des schémas à risque
const (
	q4SpikeThresholdPct       = 100 // croissance T4 vs moyenne T1-T3
	customerConcThresholdPct  = 50  // part des 10 premiers clients
	territoryConcThresholdPct = 40  // part du premier territoire
	periodEndThresholdPct     = 10  // part du dernier jour de l'exercice
)

// Pattern est un schéma à risque détecté
type Pattern struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// PeriodEndConcentration mesure le revenu facturé le dernier jour de
// l'exercice, le schéma classique de reconnaissance anticipée
type PeriodEndConcentration struct {
	Date        time.Time     `json:"date"`
	Count       int           `json:"count"`
	Amount      float64       `json:"amount"`
	SharePct    float64       `json:"share_pct"`
	UnpaidCount int           `json:"unpaid_count"`
	Rows        []revenue.Row `json:"rows,omitempty"`
}

// Q4LimitChange est un client dont la fiche a été modifiée au quatrième
// trimestre, période où une hausse de limite peut masquer un dépassement
type Q4LimitChange struct {
	CustID       int64     `json:"cust_id"`
	CustomerName string    `json:"customer_name"`
	CredLimit    float64   `json:"cred_limit"`
	ModifiedDate time.Time `json:"modified_date"`
}

// QuarterRevenue est le revenu reconnu d'un trimestre
type QuarterRevenue struct {
	Quarter int     `json:"quarter"`
	Count   int     `json:"count"`
	Amount  float64 `json:"amount"`
}

// Concentration est la part d'un acteur dans le revenu reconnu
type Concentration struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	SharePct float64 `json:"share_pct"`
}

// Result porte l'ensemble des signaux d'anomalie
type Result struct {
	PeriodEnd         PeriodEndConcentration `json:"period_end"`
	Q4LimitChanges    []Q4LimitChange        `json:"q4_limit_changes,omitempty"`
	Quarters          []QuarterRevenue       `json:"quarters"`
	Q4GrowthPct       float64                `json:"q4_growth_pct"`
	TopCustomers      []Concentration        `json:"top_customers"`
	Top10SharePct     float64                `json:"top10_share_pct"`
	TopTerritories    []Concentration        `json:"top_territories"`
	TopTerritoryShare float64                `json:"top_territory_share_pct"`
	Patterns          []Pattern              `json:"patterns,omitempty"`
}

// Engine calcule les signaux d'anomalie sur le revenu reconnu
type Engine struct {
	ds *dataset.Dataset
	fy shareddomain.FiscalYear
}

// NewEngine crée le moteur de signaux d'anomalie
func NewEngine(ds *dataset.Dataset, fy shareddomain.FiscalYear) *Engine {
	return &Engine{ds: ds, fy: fy}
}

// Score analyse le détail des revenus reconnus : concentration de fin de
// période, modifications de limites au T4, profil trimestriel et
// concentrations client / territoire.
func (e *Engine) Score(rev *revenue.Result) *Result {
	res := &Result{}

	e.scorePeriodEnd(res, rev)
	e.scoreQ4LimitChanges(res)
	e.scoreQuarters(res, rev)
	e.scoreConcentrations(res, rev)

	return res
}

func (e *Engine) scorePeriodEnd(res *Result, rev *revenue.Result) {
	lastDay := e.fy.End()
	res.PeriodEnd.Date = lastDay

	for _, row := range rev.Rows {
		if !row.InvoiceDate.Equal(lastDay) {
			continue
		}
		res.PeriodEnd.Count++
		res.PeriodEnd.Amount += row.Amount
		if !row.Payment.IsPaid() {
			res.PeriodEnd.UnpaidCount++
		}
		res.PeriodEnd.Rows = append(res.PeriodEnd.Rows, row)
	}
	if rev.RecognizedRevenue != 0 {
		res.PeriodEnd.SharePct = res.PeriodEnd.Amount / rev.RecognizedRevenue * 100
	}
	if res.PeriodEnd.SharePct > periodEndThresholdPct {
		res.Patterns = append(res.Patterns, Pattern{
			Kind: "period_end_concentration",
			Detail: fmt.Sprintf("%.1f%% of recognized revenue invoiced on %s (%d invoices, %d unpaid)",
				res.PeriodEnd.SharePct, lastDay.Format("2006-01-02"), res.PeriodEnd.Count, res.PeriodEnd.UnpaidCount),
		})
	}
}

func (e *Engine) scoreQ4LimitChanges(res *Result) {
	for i := range e.ds.Customers {
		c := &e.ds.Customers[i]
		if e.fy.InQ4(c.ModifiedDate) {
			res.Q4LimitChanges = append(res.Q4LimitChanges, Q4LimitChange{
				CustID:       c.CustID,
				CustomerName: c.CustName,
				CredLimit:    c.CredLimit,
				ModifiedDate: c.ModifiedDate,
			})
		}
	}
	sort.Slice(res.Q4LimitChanges, func(i, j int) bool {
		return res.Q4LimitChanges[i].CustID < res.Q4LimitChanges[j].CustID
	})
}

func (e *Engine) scoreQuarters(res *Result, rev *revenue.Result) {
	quarters := [4]QuarterRevenue{}
	for q := range quarters {
		quarters[q].Quarter = q + 1
	}
	for _, row := range rev.Rows {
		q := e.fy.Quarter(row.InvoiceDate)
		if q == 0 {
			continue
		}
		quarters[q-1].Count++
		quarters[q-1].Amount += row.Amount
	}
	res.Quarters = quarters[:]

	avgQ1toQ3 := (quarters[0].Amount + quarters[1].Amount + quarters[2].Amount) / 3
	if avgQ1toQ3 > 0 {
		res.Q4GrowthPct = (quarters[3].Amount - avgQ1toQ3) / avgQ1toQ3 * 100
	}
	if res.Q4GrowthPct > q4SpikeThresholdPct {
		res.Patterns = append(res.Patterns, Pattern{
			Kind:   "q4_spike",
			Detail: fmt.Sprintf("Q4 revenue %.0f is %.1f%% above the Q1-Q3 average %.0f", quarters[3].Amount, res.Q4GrowthPct, avgQ1toQ3),
		})
	}
}

func (e *Engine) scoreConcentrations(res *Result, rev *revenue.Result) {
	perCustomer := map[string]float64{}
	perTerritory := map[string]float64{}
	for _, row := range rev.Rows {
		perCustomer[row.CustomerName] += row.Amount
		perTerritory[row.TerritoryName] += row.Amount
	}

	res.TopCustomers = topConcentrations(perCustomer, rev.RecognizedRevenue, 10)
	for _, c := range res.TopCustomers {
		res.Top10SharePct += c.SharePct
	}
	if res.Top10SharePct > customerConcThresholdPct {
		res.Patterns = append(res.Patterns, Pattern{
			Kind:   "customer_concentration",
			Detail: fmt.Sprintf("top 10 customers carry %.1f%% of recognized revenue", res.Top10SharePct),
		})
	}

	res.TopTerritories = topConcentrations(perTerritory, rev.RecognizedRevenue, 5)
	if len(res.TopTerritories) > 0 {
		res.TopTerritoryShare = res.TopTerritories[0].SharePct
	}
	if res.TopTerritoryShare > territoryConcThresholdPct {
		res.Patterns = append(res.Patterns, Pattern{
			Kind:   "territory_concentration",
			Detail: fmt.Sprintf("territory %s carries %.1f%% of recognized revenue", res.TopTerritories[0].Name, res.TopTerritoryShare),
		})
	}
}

func topConcentrations(amounts map[string]float64, total float64, n int) []Concentration {
	list := make([]Concentration, 0, len(amounts))
	for name, amount := range amounts {
		c := Concentration{Name: name, Amount: amount}
		if total != 0 {
			c.SharePct = amount / total * 100
		}
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Amount != list[j].Amount {
			return list[i].Amount > list[j].Amount
		}
		return list[i].Name < list[j].Name
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
