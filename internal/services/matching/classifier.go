package matching

import "match-reconciliation-backend/internal/models"

// Classify maps an upstream match type and confidence label to the state a
// new match is created in. StateNone means no match is created. Exclusion
// rules run before the confirmation rules: a row flagged as a non-match
// must never be confirmed by its percentage.
func Classify(matchType, confidence string) models.MatchState {
	t := upper(matchType)
	c := upper(confidence)

	switch {
	case t == "" || c == "":
		return models.StateNone
	case containsAny(t, "NO-MATCH", "NO_MATCH", "NO MATCH"):
		return models.StateNone
	case containsAny(c, "VERY-LOW", "VERY_LOW", "VERY LOW"), c == "LOW":
		return models.StateNone
	case containsAny(t, "AMOUNT-ONLY-UNIQUE", "AMOUNT_ONLY_UNIQUE", "AMOUNT ONLY UNIQUE"):
		return models.StateNone
	case t == "CODE+AMOUNT-EXACT" && c == "HIGH":
		return models.StateConfirmed
	case t == "CODE-EXACT" && c == "HIGH":
		return models.StateConfirmed
	case containsAny(c, "MEDIUM (100%)", "MEDIUM(100%)"):
		return models.StateConfirmed
	case containsAny(c, "MEDIUM"):
		return models.StatePending
	}
	return models.StateNone
}

// Decide resolves the state for an imported pairing. A non-empty external
// match code confirms the pairing whatever the labels say; overridden is
// true when the labels alone would not have confirmed it.
func Decide(matchType, confidence, externalCode string) (state models.MatchState, overridden bool) {
	labelled := Classify(matchType, confidence)
	if upper(externalCode) != "" {
		return models.StateConfirmed, labelled != models.StateConfirmed
	}
	return labelled, false
}
