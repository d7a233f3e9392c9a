package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/syoopie/money-collection-bot/internal/domain"
)

var (
	ErrTooFewLines        = errors.New("input must have at least three lines: a name, a phone number and one debt per line")
	ErrInvalidPhoneNumber = errors.New("phone number must contain only numbers")
)

// MalformedEntryError names the debt line that could not be parsed.
type MalformedEntryError struct {
	Line string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("failed to parse debt entry: %q", e.Line)
}

// ParseDebtList turns raw multi-line input into a debt list draft:
//
//	MacDonalds
//	98765432
//	@user1 9.6
//	@user2 5.4
//
// Line 0 is the debt name (kept verbatim), line 1 the payee phone number
// (digits only), and every remaining line is "@handle amount". Handles are
// stored without the "@" prefix. Duplicate handles are kept in input order;
// persistence collapses them. The function has no side effects.
func ParseDebtList(text string) (*domain.DebtListDraft, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < 3 {
		return nil, ErrTooFewLines
	}

	name := lines[0]
	phone := lines[1]
	if !allDigits(phone) {
		return nil, ErrInvalidPhoneNumber
	}

	entries := make([]domain.DebtEntry, 0, len(lines)-2)
	for _, line := range lines[2:] {
		entry, ok := parseEntry(line)
		if !ok {
			return nil, &MalformedEntryError{Line: line}
		}
		entries = append(entries, entry)
	}

	return &domain.DebtListDraft{
		Name:        name,
		PhoneNumber: phone,
		Entries:     entries,
	}, nil
}

func parseEntry(line string) (domain.DebtEntry, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return domain.DebtEntry{}, false
	}

	identity, found := strings.CutPrefix(fields[0], "@")
	if !found || identity == "" {
		return domain.DebtEntry{}, false
	}

	if !validAmount(fields[1]) {
		return domain.DebtEntry{}, false
	}
	amount, err := decimal.NewFromString(fields[1])
	if err != nil {
		return domain.DebtEntry{}, false
	}

	return domain.DebtEntry{OwedBy: identity, Amount: amount}, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validAmount accepts a plain non-negative decimal: digits with at most one
// dot. No signs, no exponents.
func validAmount(s string) bool {
	if s == "" {
		return false
	}
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return s != "." && !strings.HasPrefix(s, ".") && !strings.HasSuffix(s, ".")
}
