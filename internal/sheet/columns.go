package sheet

import "strings"

// Canonical column names, in the order they are written.
const (
	ColBankRow    = "bank_row"
	ColBankDate   = "bank_date"
	ColBankCode   = "bank_code"
	ColBankName   = "bank_name"
	ColBankAmount = "bank_amount"
	ColSaleRow    = "sale_row"
	ColInvoice    = "invoice"
	ColSaleCode   = "sale_code"
	ColSaleDate   = "sale_date"
	ColSaleName   = "sale_name"
	ColSaleAmount = "sale_amount"
	ColMatchType  = "match_type"
	ColConfidence = "confidence"
	ColMatchCode  = "match_code"
)

var Header = []string{
	ColBankRow, ColBankDate, ColBankCode, ColBankName, ColBankAmount,
	ColSaleRow, ColInvoice, ColSaleCode, ColSaleDate, ColSaleName, ColSaleAmount,
	ColMatchType, ColConfidence, ColMatchCode,
}

// aliases maps the column names of files produced by the legacy merge
// tooling onto the canonical ones.
var aliases = map[string]string{
	"row_banco":    ColBankRow,
	"fecha_banco":  ColBankDate,
	"codigo_banco": ColBankCode,
	"nombre_banco": ColBankName,
	"monto_banco":  ColBankAmount,
	"row_venta":    ColSaleRow,
	"factura":      ColInvoice,
	"codigo_venta": ColSaleCode,
	"fecha_venta":  ColSaleDate,
	"nombre_venta": ColSaleName,
	"monto_venta":  ColSaleAmount,
	"match_tipo":   ColMatchType,
	"confianza":    ColConfidence,
}

func canonicalColumn(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "_")
	if alias, ok := aliases[n]; ok {
		return alias
	}
	return n
}
