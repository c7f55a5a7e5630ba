package utils

import (
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	receiptSuffixLen     = 5
	receiptLongSuffixLen = 8
	receiptDateLayout    = "20060102"
)

// ReceiptNumberGenerator produces human-readable receipt references such as
// "RCP-20260114-7KQ2Z". The number is a display convenience; the receipt's
// UUID is its identity.
type ReceiptNumberGenerator struct {
	Prefix      string
	IncludeDate bool
	Now         func() time.Time
}

// NewReceiptNumberGenerator creates a generator; an empty prefix defaults to "RCP"
func NewReceiptNumberGenerator(prefix string, includeDate bool) *ReceiptNumberGenerator {
	if prefix == "" {
		prefix = "RCP"
	}
	return &ReceiptNumberGenerator{Prefix: prefix, IncludeDate: includeDate, Now: time.Now}
}

// Next returns a fresh receipt number
func (g *ReceiptNumberGenerator) Next() string {
	if !g.IncludeDate {
		return GenerateShortReceiptNo(g.Prefix)
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return GenerateReceiptNo(g.Prefix, now())
}

// GenerateReceiptNo returns PREFIX-YYYYMMDD-XXXXX with a 5 character base36 suffix
func GenerateReceiptNo(prefix string, at time.Time) string {
	return prefix + "-" + at.Format(receiptDateLayout) + "-" + randomBase36(receiptSuffixLen)
}

// GenerateShortReceiptNo returns the date-free variant PREFIX-XXXXXXXX. The
// longer suffix makes up for the missing date component.
func GenerateShortReceiptNo(prefix string) string {
	return prefix + "-" + randomBase36(receiptLongSuffixLen)
}

// randomBase36 draws n base36 characters from the random bits of a v4 UUID
func randomBase36(n int) string {
	u := uuid.New()
	s := new(big.Int).SetBytes(u[:]).Text(36)
	if len(s) < n {
		s = strings.Repeat("0", n-len(s)) + s
	}
	return strings.ToUpper(s[len(s)-n:])
}
