package billing

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewInvoiceNumber returns "INV-<ULID>". ULIDs embed a millisecond
// timestamp, so numbers sort by generation time; the monotonic entropy
// source keeps same-millisecond numbers ordered too. Uniqueness is still
// enforced by the invoices unique index — on a duplicate-key error the
// runner just asks for a fresh number.
func NewInvoiceNumber(now time.Time) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now.UTC()), entropy)
	entropyMu.Unlock()
	return "INV-" + id.String()
}
