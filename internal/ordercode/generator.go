// Package ordercode produces human-readable, branch- and day-scoped order
// codes of the form BR1-20260901-0042.
package ordercode

import (
	"fmt"
	"math/rand"
	"time"
)

// MaxAttempts bounds how many fresh suffixes the store may try when an insert
// collides on the code's unique constraint.
const MaxAttempts = 5

const suffixSpace = 10000

// Generator produces order codes. The zero value is not usable; construct
// with New.
type Generator struct {
	suffix func() int
}

// New returns a generator with a random 4-digit suffix source.
func New() *Generator {
	return &Generator{suffix: func() int { return rand.Intn(suffixSpace) }}
}

// NewWithSuffix returns a generator with a fixed suffix source, for tests.
func NewWithSuffix(suffix func() int) *Generator {
	return &Generator{suffix: suffix}
}

// Generate returns a code of the form {branchCode}-{YYYYMMDD}-{NNNN}. The
// suffix is random; uniqueness per branch per day is enforced by the orders
// table and resolved by the caller's bounded retry.
func (g *Generator) Generate(branchCode string, date time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", branchCode, date.UTC().Format("20060102"), g.suffix())
}
