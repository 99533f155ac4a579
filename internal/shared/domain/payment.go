package domain

import (
	"fmt"
	"strings"
	"time"
)

// UnpaidSentinel est la valeur magique utilisée par le système source
// pour marquer une facture impayée à la date d'extraction.
const UnpaidSentinel = "9999-09-09"

// PaymentStatus représente l'état de paiement d'une facture : soit payée
// à une date connue, soit impayée à l'extraction. La sentinelle brute ne
// sort jamais de ce constructeur.
type PaymentStatus struct {
	paid     bool
	paidDate time.Time
}

// NewPaymentStatus construit le statut à partir de la valeur brute de la
// colonne PaidDate. La comparaison avec la sentinelle se fait sur la
// chaîne AVANT toute conversion en date : convertir d'abord transforme
// la sentinelle en une vraie date du futur et fait passer toutes les
// factures pour payées.
func NewPaymentStatus(raw string, parse func(string) (time.Time, error)) (PaymentStatus, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == UnpaidSentinel {
		return Unpaid(), nil
	}

	date, err := parse(trimmed)
	if err != nil {
		return PaymentStatus{}, fmt.Errorf("invalid paid date %q: %w", raw, err)
	}
	return Paid(date), nil
}

// Paid crée un statut payé à la date donnée
func Paid(date time.Time) PaymentStatus {
	return PaymentStatus{paid: true, paidDate: date}
}

// Unpaid crée un statut impayé à l'extraction
func Unpaid() PaymentStatus {
	return PaymentStatus{}
}

// IsPaid retourne true si la facture était payée à l'extraction
func (p PaymentStatus) IsPaid() bool {
	return p.paid
}

// PaidDate retourne la date de paiement (valide uniquement si payée)
func (p PaymentStatus) PaidDate() (time.Time, bool) {
	return p.paidDate, p.paid
}

// PaidOnOrBefore vérifie si la facture était encaissée à la date de clôture
func (p PaymentStatus) PaidOnOrBefore(cutoff time.Time) bool {
	return p.paid && !p.paidDate.After(cutoff)
}

// String retourne une représentation lisible pour les rapports
func (p PaymentStatus) String() string {
	if !p.paid {
		return "UNPAID"
	}
	return "PAID " + p.paidDate.Format("2006-01-02")
}
