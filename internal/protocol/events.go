package protocol

// Trace event types.
const (
	EventSessionStart = "SESSION_START"
	EventTarget       = "TARGET"
	EventNoTarget     = "NO_TARGET"
	EventTaskDone     = "TASK_DONE"
	EventTaskFail     = "TASK_FAIL"
	EventBlockChange  = "BLOCK_CHANGE"
	EventSessionEnd   = "SESSION_END"
)

// TraceEvent is one decision or outcome of the agent loop. Optional fields are
// omitted when they do not apply to Type.
type TraceEvent struct {
	Tick      uint64 `json:"t"`
	Type      string `json:"type"`
	SessionID string `json:"session_id"`

	Kind   string  `json:"kind,omitempty"`
	Task   string  `json:"task,omitempty"`
	Status string  `json:"status,omitempty"`
	Pos    *[3]int `json:"pos,omitempty"`

	Cost     *float64 `json:"cost,omitempty"`
	Distance int      `json:"distance,omitempty"`
	Ticks    int      `json:"ticks,omitempty"`

	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func PosOf(x, y, z int) *[3]int { return &[3]int{x, y, z} }

func CostOf(v float64) *float64 { return &v }
