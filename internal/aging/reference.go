package aging

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ReferenceEntry est une ligne du listing 90+ fourni par le client
type ReferenceEntry struct {
	CustomerName string  `json:"customer_name"`
	Amount       float64 `json:"amount"`
}

// AmountDiff est un écart de montant entre notre 90+ et celui du client
type AmountDiff struct {
	CustomerName string  `json:"customer_name"`
	Ours         float64 `json:"ours"`
	Theirs       float64 `json:"theirs"`
	Diff         float64 `json:"diff"`
}

// ReferenceDiff est la comparaison bilatérale de notre listing 90+ avec
// celui du client : présents seulement chez nous, seulement chez eux, et
// écarts de montant au-delà de la tolérance
type ReferenceDiff struct {
	Agreed      int              `json:"agreed"`
	OnlyOurs    []CustomerAging  `json:"only_ours,omitempty"`
	OnlyTheirs  []ReferenceEntry `json:"only_theirs,omitempty"`
	AmountDiffs []AmountDiff     `json:"amount_diffs,omitempty"`
}

// LoadReference lit le listing 90+ du client (CSV : CustomerName, Amount)
func LoadReference(path string) ([]ReferenceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reference listing: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading reference listing: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reference listing is empty")
	}

	var entries []ReferenceEntry
	for i, rec := range records[1:] {
		if len(rec) < 2 {
			return nil, fmt.Errorf("reference listing row %d: expected 2 columns, got %d", i+2, len(rec))
		}
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(rec[1])
		amount, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil, fmt.Errorf("reference listing row %d: bad amount %q: %w", i+2, rec[1], err)
		}
		entries = append(entries, ReferenceEntry{
			CustomerName: strings.TrimSpace(rec[0]),
			Amount:       amount,
		})
	}
	return entries, nil
}

// CompareReference rapproche notre 90+ par client du listing du client.
// L'appariement se fait sur le nom normalisé, la comparaison de montant
// dans la tolérance donnée.
func CompareReference(ours []CustomerAging, theirs []ReferenceEntry, tolerance float64) *ReferenceDiff {
	diff := &ReferenceDiff{}

	theirsByName := make(map[string]ReferenceEntry, len(theirs))
	for _, t := range theirs {
		theirsByName[normalizeName(t.CustomerName)] = t
	}

	seen := map[string]bool{}
	for _, o := range ours {
		key := normalizeName(o.CustomerName)
		t, ok := theirsByName[key]
		if !ok {
			diff.OnlyOurs = append(diff.OnlyOurs, o)
			continue
		}
		seen[key] = true
		if math.Abs(o.B90Plus-t.Amount) > tolerance {
			diff.AmountDiffs = append(diff.AmountDiffs, AmountDiff{
				CustomerName: o.CustomerName,
				Ours:         o.B90Plus,
				Theirs:       t.Amount,
				Diff:         o.B90Plus - t.Amount,
			})
		} else {
			diff.Agreed++
		}
	}

	for _, t := range theirs {
		if !seen[normalizeName(t.CustomerName)] {
			diff.OnlyTheirs = append(diff.OnlyTheirs, t)
		}
	}

	sort.Slice(diff.AmountDiffs, func(i, j int) bool {
		return math.Abs(diff.AmountDiffs[i].Diff) > math.Abs(diff.AmountDiffs[j].Diff)
	})
	sort.Slice(diff.OnlyTheirs, func(i, j int) bool {
		return diff.OnlyTheirs[i].Amount > diff.OnlyTheirs[j].Amount
	})

	return diff
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
