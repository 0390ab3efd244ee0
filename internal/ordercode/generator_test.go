package ordercode

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateFormat(t *testing.T) {
	g := NewWithSuffix(func() int { return 42 })
	date := time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "BR1-20260901-0042", g.Generate("BR1", date))
}

func TestGenerateUsesUTCDate(t *testing.T) {
	g := NewWithSuffix(func() int { return 7 })
	// 00:30 in UTC+2 is still the previous day in UTC; codes are scoped to
	// the UTC day.
	loc := time.FixedZone("UTC+2", 2*60*60)
	date := time.Date(2026, 9, 2, 0, 30, 0, 0, loc)

	assert.Equal(t, "BR1-20260901-0007", g.Generate("BR1", date))
}

func TestGenerateRandomSuffixShape(t *testing.T) {
	g := New()
	pattern := regexp.MustCompile(`^BR9-\d{8}-\d{4}$`)

	for i := 0; i < 100; i++ {
		code := g.Generate("BR9", time.Now())
		assert.Regexp(t, pattern, code)
	}
}

func TestGenerateFreshSuffixPerCall(t *testing.T) {
	n := 0
	g := NewWithSuffix(func() int { n++; return n })
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	first := g.Generate("BR1", date)
	second := g.Generate("BR1", date)
	assert.NotEqual(t, first, second)
}
