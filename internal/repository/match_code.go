package repository

import "github.com/google/uuid"

const (
	MatchCodeLength   = 6
	matchCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewMatchCode returns a random six character code drawn from A-Z and 0-9.
// The first six bytes of a v4 UUID are fully random.
func NewMatchCode() string {
	id := uuid.New()
	code := make([]byte, MatchCodeLength)
	for i := range code {
		code[i] = matchCodeAlphabet[int(id[i])%len(matchCodeAlphabet)]
	}
	return string(code)
}
