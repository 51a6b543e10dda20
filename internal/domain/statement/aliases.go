package statement

import "github.com/agnivade/levenshtein"

// Field names a semantic column in a bank statement export.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldDeposit     Field = "deposit"
	FieldWithdrawal  Field = "withdrawal"
	FieldBalance     Field = "balance"
	FieldReference   Field = "reference"
)

// fieldAliases maps each semantic field to the column names banks use for
// it, covering Spanish and English export conventions. Order matters: the
// first alias with a non-empty value in a row wins.
var fieldAliases = map[Field][]string{
	FieldDate:        {"date", "fecha", "transaction date", "fecha de operacion", "fecha operacion"},
	FieldDescription: {"description", "descripcion", "concepto", "concept", "detalle", "memo"},
	FieldAmount:      {"amount", "monto", "importe", "cantidad"},
	FieldDeposit:     {"deposit", "deposito", "abono", "credit", "credito"},
	FieldWithdrawal:  {"withdrawal", "retiro", "cargo", "debit", "debito"},
	FieldBalance:     {"balance", "saldo"},
	FieldReference:   {"reference", "referencia", "reference number", "folio", "ref"},
}

// fuzzyAliasMinLen guards the levenshtein fallback: short aliases like
// "ref" are too easy to collide with unrelated headers.
const fuzzyAliasMinLen = 4

// canonicalizeHeaders maps each raw header to its canonical alias. Headers
// that match an alias exactly map to themselves; otherwise a header within
// edit distance 1 of an alias adopts that alias, which absorbs minor
// header typos and stripped diacritics ("descripción" exported as
// "descripcio"). Unrecognized headers pass through unchanged.
func canonicalizeHeaders(headers []string) []string {
	exact := make(map[string]bool)
	for _, aliases := range fieldAliases {
		for _, a := range aliases {
			exact[a] = true
		}
	}

	out := make([]string, len(headers))
	for i, h := range headers {
		if exact[h] {
			out[i] = h
			continue
		}
		out[i] = h
		for _, aliases := range fieldAliases {
			for _, a := range aliases {
				if len(a) < fuzzyAliasMinLen || len(h) < fuzzyAliasMinLen {
					continue
				}
				if levenshtein.ComputeDistance(h, a) == 1 {
					out[i] = a
					break
				}
			}
			if out[i] != h {
				break
			}
		}
	}
	return out
}

// resolveField returns the first non-empty value among the field's aliases
// in the given row.
func resolveField(row map[string]string, field Field) string {
	for _, alias := range fieldAliases[field] {
		if v, ok := row[alias]; ok && v != "" {
			return v
		}
	}
	return ""
}
