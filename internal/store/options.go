package store

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/rcliao/recall/internal/logging"
)

// IDGenerator returns a new globally unique id on every call.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ID schemes accepted by NewIDGenerator.
const (
	IDSchemeULID = "ulid"
	IDSchemeUUID = "uuid"
)

// ULIDGenerator returns lexically sortable ULIDs with monotonic entropy.
func ULIDGenerator() IDGenerator {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	}
}

// UUIDGenerator returns random (version 4) UUIDs.
func UUIDGenerator() IDGenerator {
	return uuid.NewString
}

// NewIDGenerator returns the generator for scheme.
func NewIDGenerator(scheme string) (IDGenerator, error) {
	switch scheme {
	case "", IDSchemeULID:
		return ULIDGenerator(), nil
	case IDSchemeUUID:
		return UUIDGenerator(), nil
	}
	return nil, fmt.Errorf("unknown id scheme %q (valid: ulid, uuid)", scheme)
}

type options struct {
	newID IDGenerator
	now   Clock
	log   *slog.Logger
}

// Option configures the stores in this package.
type Option func(*options)

// WithIDGenerator overrides how new memory ids are produced.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.newID = g }
}

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(o *options) { o.now = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.newID == nil {
		o.newID = ULIDGenerator()
	}
	if o.log == nil {
		o.log = logging.Discard()
	}
	return o
}

func (o options) nowMillis() int64 {
	return o.now().UnixMilli()
}
