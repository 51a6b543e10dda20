// Package statement normalizes raw bank statement CSV exports into typed
// statement-line candidates.
//
// Banks disagree on column naming (Spanish vs English), sign conventions
// (separate deposit/withdrawal columns vs one signed amount column), and
// negative-amount notation (accounting parentheses). The parser resolves
// all of these into a single shape: deposits positive, withdrawals
// negative, dates as time.Time.
//
// Row-level problems are never fatal: a row missing a date, description,
// or parseable amount is dropped and counted. A file with no data rows at
// all, or one where every row is dropped, fails the whole batch.
package statement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoDataRows indicates a CSV with a header but no data rows.
	ErrNoDataRows = errors.New("statement file contains no data rows")

	// ErrNoValidRows indicates a CSV whose every data row was dropped
	// during per-row validation.
	ErrNoValidRows = errors.New("statement file contains no valid transactions")
)

// dateLayouts are tried in order; day-first comes before month-first since
// the Spanish bank exports this parser targets are day-first.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	time.RFC3339,
}

// ParseCSV parses delimited bank-statement text into normalized statement
// lines. It returns the parsed lines and the number of rows skipped during
// per-row validation.
func ParseCSV(data string) ([]ParsedLine, int, error) {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")

	var rows [][]string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitCSVLine(line))
	}
	if len(rows) < 2 {
		return nil, 0, ErrNoDataRows
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	headers = canonicalizeHeaders(headers)

	var parsed []ParsedLine
	skipped := 0
	for _, cells := range rows[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = strings.TrimSpace(cells[i])
			}
		}

		line, ok := buildLine(row)
		if !ok {
			skipped++
			continue
		}
		parsed = append(parsed, line)
	}

	if len(parsed) == 0 {
		return nil, skipped, fmt.Errorf("%w (%d rows skipped)", ErrNoValidRows, skipped)
	}
	return parsed, skipped, nil
}

// splitCSVLine tokenizes one CSV line. A quote toggles the in-quotes
// state, so commas inside quoted fields are not delimiters; doubled quotes
// inside a quoted field collapse to a literal quote.
func splitCSVLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

// buildLine assembles a ParsedLine from a canonical-header row map.
// Returns false when the row lacks a date, description, or resolvable
// amount.
func buildLine(row map[string]string) (ParsedLine, bool) {
	dateStr := resolveField(row, FieldDate)
	desc := resolveField(row, FieldDescription)
	if dateStr == "" || desc == "" {
		return ParsedLine{}, false
	}

	date, ok := parseDate(dateStr)
	if !ok {
		return ParsedLine{}, false
	}

	amount, txType, ok := resolveAmount(row)
	if !ok {
		return ParsedLine{}, false
	}

	line := ParsedLine{
		TransactionDate: date,
		Description:     desc,
		Amount:          amount.StringFixed(2),
		ReferenceNumber: resolveField(row, FieldReference),
		Type:            txType,
	}

	if bal := parseAmount(resolveField(row, FieldBalance)); bal != nil {
		s := bal.StringFixed(2)
		line.Balance = &s
	}

	return line, true
}

// resolveAmount determines the signed amount and transaction type. A
// positive value in a deposit-aliased column wins, then a positive value
// in a withdrawal-aliased column (negated), then the sign of the generic
// amount column.
func resolveAmount(row map[string]string) (decimal.Decimal, TransactionType, bool) {
	if dep := parseAmount(resolveField(row, FieldDeposit)); dep != nil && dep.IsPositive() {
		return *dep, TypeDeposit, true
	}
	if wd := parseAmount(resolveField(row, FieldWithdrawal)); wd != nil && wd.IsPositive() {
		return wd.Neg(), TypeWithdrawal, true
	}

	amt := parseAmount(resolveField(row, FieldAmount))
	if amt == nil {
		return decimal.Decimal{}, "", false
	}
	if amt.IsNegative() {
		return *amt, TypeWithdrawal, true
	}
	return *amt, TypeDeposit, true
}

// parseAmount cleans and parses a raw amount cell. Currency symbols,
// commas and whitespace are stripped; a value wrapped in parentheses is
// negative (accounting convention). Unparseable values yield nil.
func parseAmount(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ', '\t':
			return -1
		}
		return r
	}, s)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	if negative {
		d = d.Neg()
	}
	return &d
}

// parseDate tries each known layout in order.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
