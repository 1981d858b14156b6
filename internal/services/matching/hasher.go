package matching

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FingerprintLength is the number of hex characters kept from the digest.
const FingerprintLength = 16

const fieldSeparator = "|"

// BankFingerprint identifies a bank movement by date, amount, bank code and name.
func BankFingerprint(date *time.Time, amount decimal.Decimal, bankCode, name string) string {
	return fingerprint(formatDate(date), amount.StringFixed(2), bankCode, name)
}

// SaleFingerprint identifies a sale by invoice, date, amount, name and sale code.
func SaleFingerprint(invoice string, date *time.Time, amount decimal.Decimal, name, saleCode string) string {
	return fingerprint(invoice, formatDate(date), amount.StringFixed(2), name, saleCode)
}

func fingerprint(fields ...string) string {
	normalized := make([]string, len(fields))
	for i, f := range fields {
		normalized[i] = strings.ToLower(strings.TrimSpace(f))
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, fieldSeparator)))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format("2006-01-02")
}
