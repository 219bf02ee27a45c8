package relay

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// idSource generates monotonic, lexicographically sortable ids for
// streams added without a caller-chosen id (permanent streams added via
// PutPermanent use the caller's id instead). ULID gives us millisecond time-ordering plus a
// monotonic random component so ids minted within the same millisecond
// still sort correctly.
type idSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIDSource() *idSource {
	return &idSource{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (s *idSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

var defaultIDSource = newIDSource()

// NewStreamID mints a new stream identifier.
func NewStreamID() string { return defaultIDSource.next() }
