package runtime

import (
	"errors"
	"fmt"

	"voxelminer.ai/internal/sim/tasks"
)

// ErrDesync marks errors where the agent's expected and actual state diverged. The
// scheduler recovers by dropping its queue and planning again.
var ErrDesync = errors.New("desync")

// SelectionError reports that the item a task needs could not be selected. The task
// consumed no attempt.
type SelectionError struct {
	Filter ItemFilter
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("desync: cannot select %v", e.Filter)
}

func (e *SelectionError) Unwrap() error { return ErrDesync }

// BlockedError reports that a walk step could not be taken although the way looked
// clear.
type BlockedError struct {
	At tasks.Vec3i
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("desync: blocked at %v", e.At)
}

func (e *BlockedError) Unwrap() error { return ErrDesync }
