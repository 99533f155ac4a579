package analysis

import (
	"fmt"
	"math"

	"audit/internal/aging"
	"audit/internal/anomaly"
	"audit/internal/credit"
	"audit/internal/receivables"
	"audit/internal/revenue"
	"audit/internal/threewaymatch"
)

// Pondérations des aires de risque dans le score global
const (
	weightThreeWay    = 0.25
	weightCredit      = 0.20
	weightAging       = 0.15
	weightAnomaly     = 0.30
	weightDataQuality = 0.10
)

// Niveaux de risque global
const (
	RiskHigh     = "HIGH"
	RiskModerate = "MODERATE"
	RiskLow      = "LOW"
)

// RiskFactor est la contribution d'une aire de contrôle au score global
type RiskFactor struct {
	Area   string  `json:"area"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
	Detail string  `json:"detail"`
}

// RiskAssessment est l'évaluation pondérée du risque d'audit, sur une
// échelle de 0 à 5
type RiskAssessment struct {
	Factors         []RiskFactor `json:"factors"`
	WeightedScore   float64      `json:"weighted_score"`
	Level           string       `json:"level"`
	Recommendations []string     `json:"recommendations"`
}

// assessRisk agrège les sorties des moteurs en un score pondéré :
// concordance 0.25, crédit 0.20, balance âgée 0.15, anomalies 0.30,
// qualité des données 0.10. Seuils : >= 3.5 élevé, >= 2.0 modéré.
func assessRisk(
	rev *revenue.Result,
	recv *receivables.Result,
	tw *threewaymatch.Result,
	cr *credit.Result,
	ag *aging.Result,
	an *anomaly.Result,
	loadFindings int,
) RiskAssessment {
	var a RiskAssessment

	// Concordance à trois voies : taux d'exception rapporté sur 0-5
	exceptionPct := 100 - tw.MatchRate
	twScore := clamp(exceptionPct / 10)
	a.Factors = append(a.Factors, RiskFactor{
		Area:   "three_way_match",
		Score:  twScore,
		Weight: weightThreeWay,
		Detail: fmt.Sprintf("%.1f%% of orders with an incomplete cycle (%d exceptions)", exceptionPct, len(tw.Exceptions)),
	})

	// Crédit : part des clients porteurs d'encours en dépassement
	creditPct := 0.0
	if cr.CustomersEvaluated > 0 {
		creditPct = float64(len(cr.Exceptions)) / float64(cr.CustomersEvaluated) * 100
	}
	crScore := clamp(creditPct / 10)
	a.Factors = append(a.Factors, RiskFactor{
		Area:   "credit",
		Score:  crScore,
		Weight: weightCredit,
		Detail: fmt.Sprintf("%d of %d customers over their limit, excess $%.0f", len(cr.Exceptions), cr.CustomersEvaluated, cr.TotalExcess),
	})

	// Balance âgée : poids du 90+ dans l'encours, aggravé si la provision
	// est jugée douteuse
	agingPct := 0.0
	if ag.Totals.Total > 0 {
		agingPct = ag.Totals.B90Plus / ag.Totals.Total * 100
	}
	agScore := clamp(agingPct / 10)
	if ag.Allowance.Verdict == aging.VerdictQuestionable {
		agScore = clamp(agScore + 1)
	}
	a.Factors = append(a.Factors, RiskFactor{
		Area:   "aging",
		Score:  agScore,
		Weight: weightAging,
		Detail: fmt.Sprintf("%.1f%% of receivables past 90 days, allowance %s", agingPct, ag.Allowance.Verdict),
	})

	// Anomalies : 1.25 point par schéma détecté
	anScore := clamp(float64(len(an.Patterns)) * 1.25)
	a.Factors = append(a.Factors, RiskFactor{
		Area:   "anomaly",
		Score:  anScore,
		Weight: weightAnomaly,
		Detail: fmt.Sprintf("%d risk pattern(s) detected", len(an.Patterns)),
	})

	// Qualité des données : observations du chargement, plus 2 points par
	// rapprochement en écart
	dqScore := clamp(float64(loadFindings) / 5)
	if rev.Status == revenue.StatusMismatch {
		dqScore = clamp(dqScore + 2)
	}
	if recv.Status == receivables.StatusMismatch {
		dqScore = clamp(dqScore + 2)
	}
	a.Factors = append(a.Factors, RiskFactor{
		Area:   "data_quality",
		Score:  dqScore,
		Weight: weightDataQuality,
		Detail: fmt.Sprintf("%d load finding(s), revenue %s, receivables %s", loadFindings, rev.Status, recv.Status),
	})

	for _, f := range a.Factors {
		a.WeightedScore += f.Score * f.Weight
	}
	a.WeightedScore = math.Round(a.WeightedScore*100) / 100

	switch {
	case a.WeightedScore >= 3.5:
		a.Level = RiskHigh
	case a.WeightedScore >= 2.0:
		a.Level = RiskModerate
	default:
		a.Level = RiskLow
	}

	a.Recommendations = recommend(a, rev, recv, tw, cr, ag, an)
	return a
}

func recommend(
	a RiskAssessment,
	rev *revenue.Result,
	recv *receivables.Result,
	tw *threewaymatch.Result,
	cr *credit.Result,
	ag *aging.Result,
	an *anomaly.Result,
) []string {
	var recs []string

	if a.Level == RiskHigh {
		recs = append(recs, "Escalate to the engagement partner before issuing the opinion")
	}
	if rev.Status == revenue.StatusMismatch {
		recs = append(recs, fmt.Sprintf("Investigate the $%.2f revenue difference against the trial balance", rev.Difference))
	}
	if recv.Status == receivables.StatusMismatch {
		recs = append(recs, fmt.Sprintf("Investigate the $%.2f receivables difference against the trial balance", recv.Difference))
	}
	if inv := tw.InvoicedNotShipped(); len(inv) > 0 {
		recs = append(recs, fmt.Sprintf("Vouch the %d invoiced-not-shipped orders for bill-and-hold treatment", len(inv)))
	}
	if len(cr.Exceptions) > 0 {
		recs = append(recs, fmt.Sprintf("Obtain credit committee approval evidence for the %d over-limit customers", len(cr.Exceptions)))
	}
	if ag.Allowance.Verdict != aging.VerdictReasonable {
		recs = append(recs, fmt.Sprintf("Reassess the allowance for doubtful accounts (recommended $%.0f vs recorded $%.0f)", ag.Allowance.Recommended, ag.Allowance.Current))
	}
	for _, p := range an.Patterns {
		recs = append(recs, "Corroborate pattern: "+p.Detail)
	}
	if len(recs) == 0 {
		recs = append(recs, "Standard substantive procedures, no expanded scope required")
	}
	return recs
}

func clamp(score float64) float64 {
	if score > 5 {
		return 5
	}
	if score < 0 {
		return 0
	}
	return score
}
