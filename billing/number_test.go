package billing

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewInvoiceNumber(t *testing.T) {
	now := time.Now()

	seen := make(map[string]bool)
	var numbers []string
	for i := 0; i < 1000; i++ {
		n := NewInvoiceNumber(now)
		assert.True(t, strings.HasPrefix(n, "INV-"))
		assert.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
		numbers = append(numbers, n)
	}

	// Numbers generated in sequence sort in generation order, even within
	// the same millisecond.
	assert.True(t, sort.StringsAreSorted(numbers))
}

func TestNewInvoiceNumberOrdersAcrossTime(t *testing.T) {
	earlier := NewInvoiceNumber(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	later := NewInvoiceNumber(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	assert.Less(t, earlier, later)
}
