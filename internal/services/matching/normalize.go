package matching

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"match-reconciliation-backend/internal/models"
)

const codeFragmentLength = 8

// upper is the single case-folding rule for labels, names and codes.
func upper(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// StripCode drops dashes and underscores and uppercases what is left, the
// form both bank and sale codes are compared in.
func StripCode(code string) string {
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, "_", "")
	return upper(code)
}

// CodeFragment is the stripped code cut to its first eight characters.
func CodeFragment(code string) string {
	return truncateRunes(StripCode(code), codeFragmentLength)
}

// NameTokens returns the first two words of name, uppercased, keeping only
// words longer than two characters.
func NameTokens(name string) []string {
	fields := strings.Fields(upper(name))
	if len(fields) > 2 {
		fields = fields[:2]
	}
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Accepts reports whether r passes the name and code filters of q. Amount
// and date bounds are left to the store.
func (q CandidateQuery) Accepts(r models.LedgerRecord) bool {
	if len(q.NameTokens) > 0 {
		name := upper(r.LedgerName())
		for _, token := range q.NameTokens {
			if !strings.Contains(name, token) {
				return false
			}
		}
	}
	if q.CodeFragment != "" && !strings.Contains(StripCode(r.LedgerCode()), q.CodeFragment) {
		return false
	}
	return true
}

// Filter keeps the rows q accepts, in their original order.
func Filter(q CandidateQuery, rows []models.LedgerRecord) []models.LedgerRecord {
	if len(q.NameTokens) == 0 && q.CodeFragment == "" {
		return rows
	}
	kept := rows[:0:0]
	for _, r := range rows {
		if q.Accepts(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
