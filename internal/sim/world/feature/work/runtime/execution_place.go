package runtime

import (
	"fmt"
	"io"
	"log"

	"voxelminer.ai/internal/sim/tasks"
)

// DefaultPlaceAttempts is the per-candidate retry budget.
const DefaultPlaceAttempts = 10

const (
	TorchItem  = "voxel:torch"
	TorchBlock = "voxel:torch"
)

type PlaceSpec struct {
	Kind tasks.Kind
	// Places are tried in order; for each place every preferred face is tried in order.
	Places []tasks.Vec3i
	// Faces point from the place to the block it is mounted on.
	Faces  []tasks.Face
	Filter ItemFilter
	// Expect is the block name that confirms success at the last attempted place.
	Expect   string
	Attempts int
	Logger   *log.Logger
}

type placeCandidate struct {
	place        tasks.Vec3i
	face         tasks.Face
	attemptsLeft int
}

func (c *placeCandidate) placeOn() tasks.Vec3i { return c.place.Add(c.face.Offset()) }

func (c *placeCandidate) String() string {
	return fmt.Sprintf("{place=%v face=%v attemptsLeft=%d}", c.place, c.face, c.attemptsLeft)
}

// PlaceSomewhereTask places one item at the first place that works. Each
// (place, face) candidate gets a bounded number of attempts; candidates are consumed
// strictly in order and never revisited. The task succeeds once the expected block
// shows up at the last attempted place.
type PlaceSomewhereTask struct {
	spec PlaceSpec
	log  *log.Logger

	state       tasks.Status
	queue       []*placeCandidate
	lastAttempt tasks.Vec3i
	hasAttempt  bool
}

func NewPlaceSomewhereTask(spec PlaceSpec) *PlaceSomewhereTask {
	if spec.Attempts <= 0 {
		spec.Attempts = DefaultPlaceAttempts
	}
	if spec.Kind == "" {
		spec.Kind = tasks.KindPlaceBlock
	}
	logger := spec.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PlaceSomewhereTask{spec: spec, log: logger, state: tasks.StatusUninitialized}
}

// NewPlaceTorchTask places a torch on one of places, mounted in one of faces.
func NewPlaceTorchTask(places []tasks.Vec3i, faces ...tasks.Face) *PlaceSomewhereTask {
	return NewPlaceSomewhereTask(PlaceSpec{
		Kind:   tasks.KindPlaceTorch,
		Places: places,
		Faces:  faces,
		Filter: BlockItemFilter{Item: TorchItem},
		Expect: TorchBlock,
	})
}

// NewPlaceColoredBlockTask places a colored block variant at pos against any solid
// neighbour.
func NewPlaceColoredBlockTask(pos tasks.Vec3i, item, color, block string) *PlaceSomewhereTask {
	return NewPlaceSomewhereTask(PlaceSpec{
		Kind:   tasks.KindPlaceBlock,
		Places: []tasks.Vec3i{pos},
		Faces:  []tasks.Face{tasks.FaceDown, tasks.FaceNorth, tasks.FaceSouth, tasks.FaceWest, tasks.FaceEast, tasks.FaceUp},
		Filter: ColoredItemFilter{Item: item, Color: color},
		Expect: block,
	})
}

func (t *PlaceSomewhereTask) SetLogger(l *log.Logger) {
	if l != nil {
		t.log = l
	}
}

func (t *PlaceSomewhereTask) Kind() tasks.Kind { return t.spec.Kind }

func (t *PlaceSomewhereTask) TickTimeout(base int) int { return base * 3 }

// Status checks for success first, so a restored task can finish before its
// candidate list is ever built.
func (t *PlaceSomewhereTask) Status(w WorldQuery) tasks.Status {
	if t.hasAttempt && w.BlockAt(t.lastAttempt) == t.spec.Expect {
		t.state = tasks.StatusFinished
		return t.state
	}
	if t.state.Terminal() {
		return t.state
	}
	if t.next(w) == nil {
		t.state = tasks.StatusExhausted
	}
	return t.state
}

func (t *PlaceSomewhereTask) Tick(w WorldQuery, x ActionExecutor) error {
	if !x.SelectItem(t.spec.Filter) {
		return &SelectionError{Filter: t.spec.Filter}
	}

	c := t.next(w)
	if c == nil {
		t.state = tasks.StatusExhausted
		return nil
	}
	on := c.placeOn()
	side := c.face.Opposite()
	x.FaceSideOf(on, side)
	if w.IsFacingBlock(on, side) {
		x.PerformPrimaryAction()
	}
	c.attemptsLeft--
	t.lastAttempt = c.place
	t.hasAttempt = true
	return nil
}

// next builds the candidate queue on first use, drops spent heads and returns the
// current head, or nil when nothing is left.
func (t *PlaceSomewhereTask) next(w WorldQuery) *placeCandidate {
	if t.state == tasks.StatusUninitialized {
		t.queue = t.queue[:0]
		for _, p := range t.spec.Places {
			for _, f := range t.spec.Faces {
				c := &placeCandidate{place: p, face: f, attemptsLeft: t.spec.Attempts}
				if !w.IsAirAt(c.placeOn()) {
					t.queue = append(t.queue, c)
				}
			}
		}
		t.state = tasks.StatusActive
		t.log.Printf("placing %v somewhere there: %v", t.spec.Filter, t.queue)
	}
	for len(t.queue) > 0 && t.queue[0].attemptsLeft <= 0 {
		t.queue = t.queue[1:]
	}
	if len(t.queue) == 0 {
		return nil
	}
	return t.queue[0]
}

// Remaining reports the candidates still queued, for diagnostics.
func (t *PlaceSomewhereTask) Remaining() int { return len(t.queue) }

func (t *PlaceSomewhereTask) String() string {
	return fmt.Sprintf("PlaceSomewhereTask[kind=%s places=%v faces=%v filter=%v]", t.spec.Kind, t.spec.Places, t.spec.Faces, t.spec.Filter)
}
