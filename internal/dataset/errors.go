package dataset

import (
	"fmt"
	"strconv"
)

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

// DataIntegrityError signale une rupture structurelle dans l'extraction :
// clé étrangère orpheline, champ obligatoire inexploitable, identifiant
// dupliqué. L'analyse s'arrête immédiatement, on ne répare jamais les
// données d'audit en silence.
type DataIntegrityError struct {
	Table  string
	Row    string
	Field  string
	Reason string
	Err    error
}

func (e *DataIntegrityError) Error() string {
	msg := fmt.Sprintf("data integrity violation in %s (row %s, field %s): %s", e.Table, e.Row, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Err
}

// FindingKind catégorise les observations non fatales relevées au chargement
type FindingKind string

const (
	// FindingLinkageConflict : la commande et la facture se référencent
	// mutuellement de façon incohérente
	FindingLinkageConflict FindingKind = "linkage_conflict"
	// FindingPaidBeforeInvoice : date de paiement antérieure à la date de facture
	FindingPaidBeforeInvoice FindingKind = "paid_before_invoice"
	// FindingNonPositiveAmount : montant nul ou négatif sur une commande
	FindingNonPositiveAmount FindingKind = "non_positive_amount"
	// FindingPossibleReversal : montant négatif, avoir ou extourne probable
	FindingPossibleReversal FindingKind = "possible_reversal"
	// FindingNonAdditiveAmounts : SubTotal ou TotalDue ne recoupe pas ses composantes
	FindingNonAdditiveAmounts FindingKind = "non_additive_amounts"
)

// Finding est une observation de qualité de données : signalée, comptée,
// jamais corrigée
type Finding struct {
	Kind   FindingKind `json:"kind"`
	Table  string      `json:"table"`
	RowID  int64       `json:"row_id"`
	Detail string      `json:"detail"`
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s #%d: %s", f.Kind, f.Table, f.RowID, f.Detail)
}
