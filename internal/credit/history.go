package credit

import (
	"sort"
	"time"

	"audit/database"
)

// LimitHistory est le journal append-only des limites de crédit. Quand il
// est fourni dans l'extraction, le contrôle se fait à la limite en vigueur
// à une date donnée au lieu du snapshot courant.
type LimitHistory struct {
	byCustomer map[int64][]database.CreditLimitChange
}

// NewLimitHistory indexe le journal par client, trié par date d'effet
func NewLimitHistory(changes []database.CreditLimitChange) *LimitHistory {
	h := &LimitHistory{byCustomer: make(map[int64][]database.CreditLimitChange)}
	for _, ch := range changes {
		h.byCustomer[ch.CustID] = append(h.byCustomer[ch.CustID], ch)
	}
	for custID := range h.byCustomer {
		entries := h.byCustomer[custID]
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].EffectiveAt.Before(entries[j].EffectiveAt)
		})
		h.byCustomer[custID] = entries
	}
	return h
}

// HasHistory indique si le journal couvre ce client
func (h *LimitHistory) HasHistory(custID int64) bool {
	return len(h.byCustomer[custID]) > 0
}

// LimitAsOf retourne la limite en vigueur à la date donnée : la dernière
// entrée dont la date d'effet est antérieure ou égale. Retourne false si
// aucune entrée ne couvre la date.
func (h *LimitHistory) LimitAsOf(custID int64, at time.Time) (float64, bool) {
	entries := h.byCustomer[custID]
	limit := 0.0
	found := false
	for _, e := range entries {
		if e.EffectiveAt.After(at) {
			break
		}
		limit = e.Limit
		found = true
	}
	return limit, found
}
