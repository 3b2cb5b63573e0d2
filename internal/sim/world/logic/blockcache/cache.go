package blockcache

import (
	"errors"
	"fmt"
)

// MaxBlockIDs bounds the block-type identifier space.
const MaxBlockIDs = 4096

// ErrInvalidIdentifier is wrapped by every InvalidIdentifierError.
var ErrInvalidIdentifier = errors.New("invalid block identifier")

// InvalidIdentifierError reports an id outside the cache or unknown to the palette.
type InvalidIdentifierError struct {
	ID       uint16
	Capacity int
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("unknown block id %d (cache capacity %d)", e.ID, e.Capacity)
}

func (e *InvalidIdentifierError) Unwrap() error { return ErrInvalidIdentifier }

// Resolver computes the property for a block id. It is called at most once per id;
// ok=false marks the id as unknown and every later Get fails for it.
type Resolver func(id uint16) (v float64, ok bool)

type slotState uint8

const (
	slotUnresolved slotState = iota
	slotResolved
	slotInvalid
)

// Cache memoizes one float property per block id for the lifetime of a session.
// Values never change once resolved; build a new Cache when settings change.
// Not safe for concurrent use.
type Cache struct {
	resolve Resolver
	state   []slotState
	values  []float64

	resolutions int
}

// New returns an empty cache; capacity outside (0, MaxBlockIDs] means MaxBlockIDs.
func New(capacity int, resolve Resolver) *Cache {
	if capacity <= 0 || capacity > MaxBlockIDs {
		capacity = MaxBlockIDs
	}
	return &Cache{
		resolve: resolve,
		state:   make([]slotState, capacity),
		values:  make([]float64, capacity),
	}
}

// Get returns the property for id, resolving it on first use.
func (c *Cache) Get(id uint16) (float64, error) {
	if int(id) >= len(c.state) {
		return 0, &InvalidIdentifierError{ID: id, Capacity: len(c.state)}
	}
	switch c.state[id] {
	case slotResolved:
		return c.values[id], nil
	case slotInvalid:
		return 0, &InvalidIdentifierError{ID: id, Capacity: len(c.state)}
	}
	v, ok := c.resolve(id)
	c.resolutions++
	if !ok {
		c.state[id] = slotInvalid
		return 0, &InvalidIdentifierError{ID: id, Capacity: len(c.state)}
	}
	c.values[id] = v
	c.state[id] = slotResolved
	return v, nil
}

func (c *Cache) Capacity() int { return len(c.state) }

// Resolutions reports how many resolver calls the cache has made.
func (c *Cache) Resolutions() int { return c.resolutions }
