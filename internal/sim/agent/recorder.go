package agent

import (
	"log"

	"voxelminer.ai/internal/protocol"
)

// Recorder receives every trace event the agent emits.
type Recorder interface {
	WriteEvent(ev protocol.TraceEvent) error
}

// Recorders fans an event out to every sink. A failing sink is logged and does not
// stop the others.
type Recorders struct {
	Sinks  []Recorder
	Logger *log.Logger
}

func (r *Recorders) Add(rec Recorder) {
	if rec != nil {
		r.Sinks = append(r.Sinks, rec)
	}
}

func (r *Recorders) WriteEvent(ev protocol.TraceEvent) error {
	for _, s := range r.Sinks {
		if err := s.WriteEvent(ev); err != nil && r.Logger != nil {
			r.Logger.Printf("trace sink %T: %v", s, err)
		}
	}
	return nil
}

// LogRecorder prints task failures and targets to a std logger.
type LogRecorder struct{ Logger *log.Logger }

func (l LogRecorder) WriteEvent(ev protocol.TraceEvent) error {
	switch ev.Type {
	case protocol.EventTarget:
		l.Logger.Printf("t=%d target %v cost=%.2f dist=%d", ev.Tick, *ev.Pos, *ev.Cost, ev.Distance)
	case protocol.EventTaskFail:
		l.Logger.Printf("t=%d %s failed: %s %s", ev.Tick, ev.Task, ev.Code, ev.Message)
	case protocol.EventSessionStart, protocol.EventSessionEnd:
		l.Logger.Printf("t=%d %s %s %s", ev.Tick, ev.Type, ev.SessionID, ev.Message)
	}
	return nil
}
