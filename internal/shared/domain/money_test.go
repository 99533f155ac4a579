package domain

import (
	"math"
	"testing"
	"time"
)

// Date raccourci de test
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestNewMoneyValidation(t *testing.T) {
	if _, err := NewMoney(math.NaN(), "USD"); err == nil {
		t.Error("Expected error for a NaN amount")
	}
	if _, err := NewMoney(math.Inf(1), "USD"); err == nil {
		t.Error("Expected error for an infinite amount")
	}
	if _, err := NewMoney(10, ""); err == nil {
		t.Error("Expected error for empty currency")
	}
	// Un solde négatif est légitime : avoirs et écarts signés
	if _, err := NewMoney(-500, "USD"); err != nil {
		t.Errorf("Unexpected error for a negative balance: %v", err)
	}
}

func TestMoneySignedBalance(t *testing.T) {
	credit, err := NewUSD(-2500)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	zero, _ := NewUSD(0)

	diff, err := credit.Diff(zero)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff != -2500 {
		t.Errorf("Expected signed diff -2500, got %f", diff)
	}
	if ok, _ := credit.WithinTolerance(zero, 1.00); ok {
		t.Error("A credit balance must not match zero within $1")
	}
}

func TestMoneyAddDifferentCurrencies(t *testing.T) {
	usd, _ := NewUSD(10)
	eur, _ := NewMoney(10, "EUR")
	if _, err := usd.Add(eur); err == nil {
		t.Error("Expected error when adding different currencies")
	}
}

func TestMoneyWithinTolerance(t *testing.T) {
	a, _ := NewUSD(84867855)
	b, _ := NewUSD(84867854.50)

	ok, err := a.WithinTolerance(b, 1.00)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !ok {
		t.Error("Expected amounts within $1 to match")
	}

	ok, _ = a.WithinTolerance(b, 0.10)
	if ok {
		t.Error("Expected amounts beyond $0.10 not to match")
	}
}

func TestMoneyDiffSigned(t *testing.T) {
	a, _ := NewUSD(100)
	b, _ := NewUSD(150)
	diff, err := a.Diff(b)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff != -50 {
		t.Errorf("Expected -50, got %f", diff)
	}
}

func TestFiscalYearBounds(t *testing.T) {
	fy, err := NewFiscalYear(2017)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !fy.Contains(Date(2017, 1, 1)) || !fy.Contains(Date(2017, 12, 31)) {
		t.Error("Fiscal year must contain its first and last day")
	}
	if fy.Contains(Date(2016, 12, 31)) || fy.Contains(Date(2018, 1, 1)) {
		t.Error("Fiscal year must exclude neighboring years")
	}
	if got := fy.End().Format("2006-01-02"); got != "2017-12-31" {
		t.Errorf("Expected cutoff 2017-12-31, got %s", got)
	}
}

func TestFiscalYearQuarters(t *testing.T) {
	fy, _ := NewFiscalYear(2017)

	cases := []struct {
		month int
		want  int
	}{
		{1, 1}, {3, 1}, {4, 2}, {6, 2}, {7, 3}, {9, 3}, {10, 4}, {12, 4},
	}
	for _, c := range cases {
		if got := fy.Quarter(Date(2017, c.month, 15)); got != c.want {
			t.Errorf("Month %d: expected Q%d, got Q%d", c.month, c.want, got)
		}
	}

	if fy.Quarter(Date(2016, 12, 15)) != 0 {
		t.Error("Out-of-year date must return quarter 0")
	}
	if !fy.InQ4(Date(2017, 10, 1)) {
		t.Error("October 1st must be in Q4")
	}
	if fy.InQ4(Date(2017, 9, 30)) {
		t.Error("September 30th must not be in Q4")
	}
}
