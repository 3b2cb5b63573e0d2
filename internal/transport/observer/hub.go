package observer

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"voxelminer.ai/internal/protocol"
)

// Hub fans trace events out to observer connections and keeps a bounded backlog
// for late joiners. Slow subscribers lose events rather than stall the agent.
type Hub struct {
	mu      sync.Mutex
	backlog []protocol.TraceEvent
	start   int
	size    int
	subs    map[uint64]chan []byte
	nextID  uint64
	view    []byte

	dropped atomic.Uint64
}

func NewHub(backlog int) *Hub {
	if backlog <= 0 {
		backlog = 1024
	}
	return &Hub{
		backlog: make([]protocol.TraceEvent, backlog),
		subs:    map[uint64]chan []byte{},
	}
}

// WriteEvent records ev in the backlog and sends it to every subscriber.
func (h *Hub) WriteEvent(ev protocol.TraceEvent) error {
	b, err := json.Marshal(protocol.TraceMsg{
		Type:            protocol.TypeTrace,
		ProtocolVersion: protocol.Version,
		Events:          []protocol.TraceEvent{ev},
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.backlog)
	if h.size < n {
		h.backlog[(h.start+h.size)%n] = ev
		h.size++
	} else {
		h.backlog[h.start] = ev
		h.start = (h.start + 1) % n
	}
	h.broadcastLocked(b)
	return nil
}

// SetView replaces the latest voxel view and sends it to every subscriber. New
// connections get it right after the backlog.
func (h *Hub) SetView(v protocol.VoxelsMsg) error {
	v.Type = protocol.TypeVoxels
	v.ProtocolVersion = protocol.Version
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.view = b
	h.broadcastLocked(b)
	return nil
}

func (h *Hub) broadcastLocked(b []byte) {
	for _, ch := range h.subs {
		select {
		case ch <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

// Since returns the buffered events at or after tick, oldest first.
func (h *Hub) Since(tick uint64) []protocol.TraceEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sinceLocked(tick)
}

func (h *Hub) sinceLocked(tick uint64) []protocol.TraceEvent {
	out := make([]protocol.TraceEvent, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.backlog[(h.start+i)%len(h.backlog)]
		if ev.Tick >= tick {
			out = append(out, ev)
		}
	}
	return out
}

// join registers a subscriber and snapshots the backlog since tick and the latest
// view under the same lock, so each event reaches it either in the snapshot or live.
func (h *Hub) join(buf int, since uint64) (id uint64, ch <-chan []byte, backlog []protocol.TraceEvent, view []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	c := make(chan []byte, buf)
	h.subs[h.nextID] = c
	return h.nextID, c, h.sinceLocked(since), h.view
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
