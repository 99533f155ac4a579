package domain

import (
	"errors"
	"testing"
	"time"
)

func parseISO(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

// La sentinelle doit être reconnue sur la chaîne brute, avant conversion.
// Convertir d'abord la transforme en date valide du futur et fait passer
// toutes les factures pour payées.
func TestNewPaymentStatusSentinel(t *testing.T) {
	status, err := NewPaymentStatus("9999-09-09", parseISO)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status.IsPaid() {
		t.Error("Sentinel must map to unpaid, not to a paid date in 9999")
	}
	if _, ok := status.PaidDate(); ok {
		t.Error("Unpaid status must not expose a paid date")
	}
}

func TestNewPaymentStatusEmpty(t *testing.T) {
	status, err := NewPaymentStatus("  ", parseISO)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status.IsPaid() {
		t.Error("Blank paid date must map to unpaid")
	}
}

func TestNewPaymentStatusPaid(t *testing.T) {
	status, err := NewPaymentStatus("2017-11-15", parseISO)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !status.IsPaid() {
		t.Fatal("Expected paid status")
	}
	date, _ := status.PaidDate()
	if date.Format("2006-01-02") != "2017-11-15" {
		t.Errorf("Expected paid date 2017-11-15, got %s", date.Format("2006-01-02"))
	}
}

func TestNewPaymentStatusGarbage(t *testing.T) {
	_, err := NewPaymentStatus("not-a-date", parseISO)
	if err == nil {
		t.Error("Expected an error for an unparseable paid date")
	}
}

func TestPaidOnOrBefore(t *testing.T) {
	cutoff := time.Date(2017, time.December, 31, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		status PaymentStatus
		want   bool
	}{
		{"paid before cutoff", Paid(cutoff.AddDate(0, 0, -10)), true},
		{"paid on cutoff", Paid(cutoff), true},
		{"paid after cutoff", Paid(cutoff.AddDate(0, 0, 1)), false},
		{"unpaid", Unpaid(), false},
	}

	for _, c := range cases {
		if got := c.status.PaidOnOrBefore(cutoff); got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestPaymentStatusString(t *testing.T) {
	if s := Unpaid().String(); s != "UNPAID" {
		t.Errorf("Expected UNPAID, got %s", s)
	}
	paid := Paid(time.Date(2017, time.March, 2, 0, 0, 0, 0, time.UTC))
	if s := paid.String(); s != "PAID 2017-03-02" {
		t.Errorf("Expected PAID 2017-03-02, got %s", s)
	}
}

func TestNewPaymentStatusParseError(t *testing.T) {
	sentinel := errors.New("boom")
	_, err := NewPaymentStatus("2017-01-01", func(string) (time.Time, error) {
		return time.Time{}, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Error("Expected the parse error to be wrapped")
	}
}
