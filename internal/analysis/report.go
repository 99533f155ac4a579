package analysis

import (
	"fmt"
	"strings"
)

const bannerWidth = 72

// RenderText produit le rapport d'audit en texte brut, section par section
func RenderText(r *Report) string {
	var b strings.Builder

	banner(&b, fmt.Sprintf("RECONCILIATION & EXCEPTION REPORT - FY%d", r.FiscalYear))
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	banner(&b, "1. DATASET")
	for _, c := range r.Load.Counts {
		fmt.Fprintf(&b, "%-22s %8d rows  %4d flagged\n", c.Table, c.RowsRead, c.RowsFlagged)
	}
	if len(r.Load.Findings) > 0 {
		fmt.Fprintf(&b, "\nData quality findings (%d):\n", len(r.Load.Findings))
		for _, f := range r.Load.Findings {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	b.WriteString("\n")

	banner(&b, "2. REVENUE RECONCILIATION")
	fmt.Fprintf(&b, "Recognized revenue:    $%15.2f\n", r.Revenue.RecognizedRevenue)
	fmt.Fprintf(&b, "Trial balance:         $%15.2f\n", r.Revenue.TrialBalance)
	fmt.Fprintf(&b, "Difference:            $%15.2f (%.4f%%)\n", r.Revenue.Difference, r.Revenue.DifferencePct)
	fmt.Fprintf(&b, "Status:                %s (tolerance $%.2f)\n", r.Revenue.Status, r.Revenue.Tolerance)
	fmt.Fprintf(&b, "Invoices: %d considered, %d out of year\n\n",
		r.Revenue.InvoicesConsidered, r.Revenue.ExcludedOutOfYear)

	banner(&b, "3. RECEIVABLES RECONCILIATION")
	fmt.Fprintf(&b, "Gross receivables:     $%15.2f\n", r.Receivables.GrossReceivables)
	fmt.Fprintf(&b, "Trial balance:         $%15.2f\n", r.Receivables.TrialBalance)
	fmt.Fprintf(&b, "Difference:            $%15.2f (%.4f%%)\n", r.Receivables.Difference, r.Receivables.DifferencePct)
	fmt.Fprintf(&b, "Status:                %s\n", r.Receivables.Status)
	fmt.Fprintf(&b, "Open invoices: %d paid after cutoff ($%.2f), %d still unpaid ($%.2f)\n\n",
		r.Receivables.PaidAfterCount, r.Receivables.PaidAfterAmount,
		r.Receivables.StillUnpaidCount, r.Receivables.StillUnpaidAmount)

	banner(&b, "4. THREE-WAY MATCH")
	fmt.Fprintf(&b, "Orders: %d, match rate %.1f%%\n", r.ThreeWay.TotalOrders, r.ThreeWay.MatchRate)
	for _, s := range r.ThreeWay.Summaries {
		fmt.Fprintf(&b, "%-24s %6d orders  $%14.2f  (%.1f%%)\n", s.Category, s.Count, s.Amount, s.Share)
	}
	if inv := r.ThreeWay.InvoicedNotShipped(); len(inv) > 0 {
		fmt.Fprintf(&b, "\nInvoiced not shipped (bill-and-hold exposure):\n")
		for _, e := range inv {
			fmt.Fprintf(&b, "  order %-8d %-28s $%12.2f  %s\n", e.SalesOrderID, e.CustomerName, e.Amount, e.PaymentState)
		}
	}
	if len(r.ThreeWay.Conflicts) > 0 {
		fmt.Fprintf(&b, "\nCross-reference conflicts (%d):\n", len(r.ThreeWay.Conflicts))
		for _, c := range r.ThreeWay.Conflicts {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}
	b.WriteString("\n")

	banner(&b, "5. CREDIT LIMITS")
	fmt.Fprintf(&b, "Customers with open balances: %d, over limit: %d, total excess $%.2f\n",
		r.Credit.CustomersEvaluated, len(r.Credit.Exceptions), r.Credit.TotalExcess)
	for _, e := range r.Credit.Exceptions {
		basis := "as-of-cutoff limit"
		if e.SnapshotOnly {
			basis = "snapshot limit only"
		}
		fmt.Fprintf(&b, "  %-28s balance $%12.2f  limit $%12.2f  excess $%12.2f  (%s)\n",
			e.CustomerName, e.Balance, e.CredLimit, e.Excess, basis)
	}
	if len(r.Credit.Watchlist) > 0 {
		fmt.Fprintf(&b, "Watchlist (>80%% utilization): %d customer(s)\n", len(r.Credit.Watchlist))
	}
	if len(r.Credit.NoLimitApproved) > 0 {
		fmt.Fprintf(&b, "Credit-approved orders without a credit limit on file: %d\n", len(r.Credit.NoLimitApproved))
	}
	b.WriteString("\n")

	banner(&b, "6. AGING & ALLOWANCE")
	fmt.Fprintf(&b, "%-10s $%14.2f\n", "0-30", r.Aging.Totals.B0to30)
	fmt.Fprintf(&b, "%-10s $%14.2f\n", "31-60", r.Aging.Totals.B31to60)
	fmt.Fprintf(&b, "%-10s $%14.2f\n", "61-90", r.Aging.Totals.B61to90)
	fmt.Fprintf(&b, "%-10s $%14.2f\n", "90+", r.Aging.Totals.B90Plus)
	fmt.Fprintf(&b, "%-10s $%14.2f\n", "TOTAL", r.Aging.Totals.Total)
	fmt.Fprintf(&b, "\nAllowance recommended: $%.2f (%.0f%% of 61-90 + %.0f%% of 90+)\n",
		r.Aging.Allowance.Recommended, r.Aging.Allowance.Pct61to90*100, r.Aging.Allowance.Pct90Plus*100)
	fmt.Fprintf(&b, "Allowance recorded:    $%.2f  variance %.1f%%  -> %s\n",
		r.Aging.Allowance.Current, r.Aging.Allowance.VariancePct, r.Aging.Allowance.Verdict)
	if r.ReferenceDiff != nil {
		fmt.Fprintf(&b, "\nClient 90+ listing comparison: %d agreed, %d only ours, %d only theirs, %d amount differences\n",
			r.ReferenceDiff.Agreed, len(r.ReferenceDiff.OnlyOurs), len(r.ReferenceDiff.OnlyTheirs), len(r.ReferenceDiff.AmountDiffs))
	}
	b.WriteString("\n")

	banner(&b, "7. ANOMALY SIGNALS")
	fmt.Fprintf(&b, "Period-end (%s): %d invoices, $%.2f (%.1f%% of revenue), %d unpaid\n",
		r.Anomaly.PeriodEnd.Date.Format("2006-01-02"), r.Anomaly.PeriodEnd.Count,
		r.Anomaly.PeriodEnd.Amount, r.Anomaly.PeriodEnd.SharePct, r.Anomaly.PeriodEnd.UnpaidCount)
	for _, q := range r.Anomaly.Quarters {
		fmt.Fprintf(&b, "Q%d: %5d invoices  $%14.2f\n", q.Quarter, q.Count, q.Amount)
	}
	fmt.Fprintf(&b, "Q4 growth vs Q1-Q3 average: %.1f%%\n", r.Anomaly.Q4GrowthPct)
	fmt.Fprintf(&b, "Top 10 customers share: %.1f%%, top territory share: %.1f%%\n",
		r.Anomaly.Top10SharePct, r.Anomaly.TopTerritoryShare)
	fmt.Fprintf(&b, "Customer records modified in Q4: %d\n", len(r.Anomaly.Q4LimitChanges))
	if len(r.Anomaly.Patterns) > 0 {
		b.WriteString("\nDetected patterns:\n")
		for _, p := range r.Anomaly.Patterns {
			fmt.Fprintf(&b, "  [%s] %s\n", p.Kind, p.Detail)
		}
	}
	b.WriteString("\n")

	banner(&b, "8. RISK ASSESSMENT")
	for _, f := range r.Risk.Factors {
		fmt.Fprintf(&b, "%-18s %.2f x %.2f  %s\n", f.Area, f.Score, f.Weight, f.Detail)
	}
	fmt.Fprintf(&b, "\nWeighted score: %.2f / 5.00  ->  %s RISK\n\n", r.Risk.WeightedScore, r.Risk.Level)
	b.WriteString("Recommendations:\n")
	for i, rec := range r.Risk.Recommendations {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, rec)
	}

	return b.String()
}

func banner(b *strings.Builder, title string) {
	b.WriteString(strings.Repeat("=", bannerWidth))
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", bannerWidth))
	b.WriteString("\n")
}
