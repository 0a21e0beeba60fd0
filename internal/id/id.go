package id

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptorand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Monotonic keeps IDs created within the same millisecond increasing.
	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a new entry ID (a ULID string).
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a new entry ID stamped with t.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String()
}

// Check reports whether s is usable as an entry ID. Any non-empty string
// without surrounding whitespace is accepted, so files written with other
// ID schemes (e.g. UUIDs) keep loading.
func Check(s string) error {
	if s == "" {
		return fmt.Errorf("empty entry ID")
	}
	if strings.TrimSpace(s) != s {
		return fmt.Errorf("entry ID %q has surrounding whitespace", s)
	}
	return nil
}

// Time returns the creation time encoded in a ULID entry ID.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing entry ID %q: %w", s, err)
	}
	return ulid.Time(u.Time()), nil
}
