package domain

import (
	"errors"
	"fmt"
	"math"
)

// Money représente un solde monétaire avec garanties d'invariants. Le
// montant est signé : les écarts de rapprochement et les avoirs sont des
// soldes négatifs légitimes.
type Money struct {
	amount   float64
	currency string
}

// NewMoney crée une nouvelle instance de Money avec validation
func NewMoney(amount float64, currency string) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, errors.New("amount must be finite")
	}
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewUSD crée un Money en dollars US (devise des balances auditées)
func NewUSD(amount float64) (Money, error) {
	return NewMoney(amount, "USD")
}

// Amount retourne le montant
func (m Money) Amount() float64 {
	return m.amount
}

// Currency retourne la devise
func (m Money) Currency() string {
	return m.currency
}

// Add additionne deux Money (même devise requise)
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{
		amount:   m.amount + other.amount,
		currency: m.currency,
	}, nil
}

// Diff retourne l'écart signé entre deux Money (même devise requise)
func (m Money) Diff(other Money) (float64, error) {
	if m.currency != other.currency {
		return 0, fmt.Errorf("cannot compare different currencies: %s and %s", m.currency, other.currency)
	}
	return m.amount - other.amount, nil
}

// Multiply multiplie le montant par un facteur (taux de provision, part)
func (m Money) Multiply(factor float64) (Money, error) {
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return Money{}, errors.New("factor must be finite and non-negative")
	}
	return Money{
		amount:   m.amount * factor,
		currency: m.currency,
	}, nil
}

// WithinTolerance vérifie si deux Money concordent à une tolérance près
func (m Money) WithinTolerance(other Money, tolerance float64) (bool, error) {
	diff, err := m.Diff(other)
	if err != nil {
		return false, err
	}
	return math.Abs(diff) <= tolerance, nil
}

// IsZero vérifie si le montant est zéro
func (m Money) IsZero() bool {
	return m.amount == 0
}
