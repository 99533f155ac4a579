package domain

import (
	"errors"
	"time"
)

// FiscalYear représente l'exercice fiscal audité (année civile)
type FiscalYear struct {
	year int
}

// NewFiscalYear crée un exercice fiscal avec validation
func NewFiscalYear(year int) (FiscalYear, error) {
	if year < 1900 || year > 9998 {
		return FiscalYear{}, errors.New("fiscal year out of range")
	}
	return FiscalYear{year: year}, nil
}

// Year retourne l'année de l'exercice
func (f FiscalYear) Year() int {
	return f.year
}

// Start retourne le premier jour de l'exercice
func (f FiscalYear) Start() time.Time {
	return time.Date(f.year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// End retourne le dernier jour de l'exercice (date de clôture)
func (f FiscalYear) End() time.Time {
	return time.Date(f.year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// Contains vérifie si une date tombe dans l'exercice
func (f FiscalYear) Contains(t time.Time) bool {
	return t.Year() == f.year
}

// Q4Start retourne le premier jour du quatrième trimestre
func (f FiscalYear) Q4Start() time.Time {
	return time.Date(f.year, time.October, 1, 0, 0, 0, 0, time.UTC)
}

// InQ4 vérifie si une date tombe dans le quatrième trimestre de l'exercice
func (f FiscalYear) InQ4(t time.Time) bool {
	return f.Contains(t) && !t.Before(f.Q4Start())
}

// Quarter retourne le trimestre (1-4) d'une date, 0 si hors exercice
func (f FiscalYear) Quarter(t time.Time) int {
	if !f.Contains(t) {
		return 0
	}
	return (int(t.Month())-1)/3 + 1
}
