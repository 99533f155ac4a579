package aging

import (
	"math"
	"sort"
	"time"

	"audit/internal/dataset"
	"audit/internal/receivables"
	shareddomain "audit/internal/shared/domain"
)

// Bucket est une tranche d'ancienneté de la balance âgée
type Bucket string

const (
	Bucket0to30  Bucket = "0-30"
	Bucket31to60 Bucket = "31-60"
	Bucket61to90 Bucket = "61-90"
	Bucket90Plus Bucket = "90+"
)

// BucketFor retourne la tranche d'une ancienneté en jours. Les bornes
// hautes sont inclusives : 90 jours exactement tombe en 61-90.
func BucketFor(ageDays int) Bucket {
	switch {
	case ageDays <= 30:
		return Bucket0to30
	case ageDays <= 60:
		return Bucket31to60
	case ageDays <= 90:
		return Bucket61to90
	default:
		return Bucket90Plus
	}
}

// CustomerAging est la ligne de balance âgée d'un client
type CustomerAging struct {
	CustID       int64   `json:"cust_id"`
	CustomerName string  `json:"customer_name"`
	B0to30       float64 `json:"b_0_30"`
	B31to60      float64 `json:"b_31_60"`
	B61to90      float64 `json:"b_61_90"`
	B90Plus      float64 `json:"b_90_plus"`
	Total        float64 `json:"total"`
}

func (c *CustomerAging) add(b Bucket, amount float64) {
	switch b {
	case Bucket0to30:
		c.B0to30 += amount
	case Bucket31to60:
		c.B31to60 += amount
	case Bucket61to90:
		c.B61to90 += amount
	case Bucket90Plus:
		c.B90Plus += amount
	}
	c.Total += amount
}

// Verdict qualifie l'adéquation de la provision pour créances douteuses
type Verdict string

const (
	VerdictReasonable     Verdict = "reasonable"
	VerdictRequiresReview Verdict = "requires_review"
	VerdictQuestionable   Verdict = "questionable"
)

// AllowanceAssessment compare la provision comptabilisée à la provision
// recommandée par la balance âgée
type AllowanceAssessment struct {
	Pct61to90   float64 `json:"pct_61_90"`
	Pct90Plus   float64 `json:"pct_90_plus"`
	Base61to90  float64 `json:"base_61_90"`
	Base90Plus  float64 `json:"base_90_plus"`
	Recommended float64 `json:"recommended"`
	Current     float64 `json:"current"`
	VariancePct float64 `json:"variance_pct"`
	Verdict     Verdict `json:"verdict"`
}

// Result porte la balance âgée complète à la clôture
type Result struct {
	Cutoff      time.Time           `json:"cutoff"`
	Customers   []CustomerAging     `json:"customers"`
	Totals      CustomerAging       `json:"totals"`
	FutureDated []receivables.Row   `json:"future_dated,omitempty"`
	Allowance   AllowanceAssessment `json:"allowance"`
	Findings    []dataset.Finding   `json:"findings,omitempty"`
}

// Over90ByCustomer retourne le 90+ par client, trié par montant décroissant
func (r *Result) Over90ByCustomer() []CustomerAging {
	var out []CustomerAging
	for _, c := range r.Customers {
		if c.B90Plus > 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].B90Plus != out[j].B90Plus {
			return out[i].B90Plus > out[j].B90Plus
		}
		return out[i].CustID < out[j].CustID
	})
	return out
}

// Engine construit la balance âgée et évalue la provision
type Engine struct {
	ds        *dataset.Dataset
	cutoff    time.Time
	pct61to90 float64
	pct90Plus float64
}

// NewEngine crée le moteur de balance âgée. Les pourcentages de provision
// s'appliquent aux tranches 61-90 et 90+.
func NewEngine(ds *dataset.Dataset, cutoff time.Time, pct61to90, pct90Plus float64) *Engine {
	return &Engine{ds: ds, cutoff: cutoff, pct61to90: pct61to90, pct90Plus: pct90Plus}
}

// Age ventile chaque facture ouverte dans sa tranche d'ancienneté
// (clôture moins date de facture, en jours) et évalue la provision
// comptabilisée contre la provision recommandée. Une facture postdatée
// est signalée, jamais ventilée.
func (e *Engine) Age(open []receivables.Row, currentAllowance float64) *Result {
	res := &Result{Cutoff: e.cutoff}
	perCustomer := map[int64]*CustomerAging{}

	for _, row := range open {
		if row.InvoiceDate.After(e.cutoff) {
			res.FutureDated = append(res.FutureDated, row)
			res.Findings = append(res.Findings, dataset.Finding{
				Kind:   "future_dated_invoice",
				Table:  "invoices",
				RowID:  row.InvoiceID,
				Detail: "invoice dated after the aging cutoff, excluded from the ladder",
			})
			continue
		}

		ageDays := int(e.cutoff.Sub(row.InvoiceDate).Hours() / 24)
		bucket := BucketFor(ageDays)

		c, ok := perCustomer[row.CustID]
		if !ok {
			c = &CustomerAging{CustID: row.CustID, CustomerName: row.CustomerName}
			perCustomer[row.CustID] = c
		}
		c.add(bucket, row.Amount)
		res.Totals.add(bucket, row.Amount)
	}

	for _, c := range perCustomer {
		res.Customers = append(res.Customers, *c)
	}
	sort.Slice(res.Customers, func(i, j int) bool {
		if res.Customers[i].Total != res.Customers[j].Total {
			return res.Customers[i].Total > res.Customers[j].Total
		}
		return res.Customers[i].CustID < res.Customers[j].CustID
	})

	res.Allowance = e.assessAllowance(res.Totals, currentAllowance)
	return res
}

func (e *Engine) assessAllowance(totals CustomerAging, current float64) AllowanceAssessment {
	a := AllowanceAssessment{
		Pct61to90:  e.pct61to90,
		Pct90Plus:  e.pct90Plus,
		Base61to90: totals.B61to90,
		Base90Plus: totals.B90Plus,
		Current:    current,
	}
	a.Recommended = e.recommendedAllowance(totals)

	if a.Recommended != 0 {
		a.VariancePct = (current - a.Recommended) / a.Recommended * 100
	}
	switch variance := math.Abs(a.VariancePct); {
	case variance <= 5:
		a.Verdict = VerdictReasonable
	case variance <= 10:
		a.Verdict = VerdictRequiresReview
	default:
		a.Verdict = VerdictQuestionable
	}
	return a
}

// recommendedAllowance applique les taux de provision aux tranches 61-90
// et 90+, en valeurs Money. Une tranche inexploitable vaut zéro.
func (e *Engine) recommendedAllowance(totals CustomerAging) float64 {
	base61, err := shareddomain.NewUSD(totals.B61to90)
	if err != nil {
		return 0
	}
	base90, err := shareddomain.NewUSD(totals.B90Plus)
	if err != nil {
		return 0
	}
	prov61, err := base61.Multiply(e.pct61to90)
	if err != nil {
		return 0
	}
	prov90, err := base90.Multiply(e.pct90Plus)
	if err != nil {
		return 0
	}
	recommended, err := prov61.Add(prov90)
	if err != nil {
		return 0
	}
	return recommended.Amount()
}
