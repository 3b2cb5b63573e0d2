package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"voxelminer.ai/internal/protocol"
	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/world/feature/work/plan"
	"voxelminer.ai/internal/sim/world/feature/work/runtime"
	"voxelminer.ai/internal/sim/world/logic/blockcache"
	"voxelminer.ai/internal/sim/world/logic/movement"
)

// Env is everything the agent needs from the world it runs in.
type Env interface {
	runtime.WorldQuery
	runtime.ActionExecutor
	// DigCost prices clearing p for walking; false means p can never be entered.
	DigCost(p tasks.Vec3i) (int, bool)
}

type Params struct {
	Search movement.SearchParams
	// TaskTimeoutTicks is the base tick budget each task scales.
	TaskTimeoutTicks int
	// TorchEvery queues a torch after this many targets; 0 disables it.
	TorchEvery int
	Recorder   Recorder
	Logger     *log.Logger
}

type queued struct {
	task  runtime.Task
	ticks int
}

// Agent runs the plan/execute loop. Tick is driven by a single goroutine.
type Agent struct {
	env     Env
	session *Session
	params  Params
	rec     Recorder
	log     *log.Logger

	tick    uint64
	queue   []queued
	targets int
}

func New(env Env, session *Session, params Params) *Agent {
	if params.TaskTimeoutTicks <= 0 {
		params.TaskTimeoutTicks = 200
	}
	logger := params.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	rec := params.Recorder
	if rec == nil {
		rec = &Recorders{}
	}
	return &Agent{env: env, session: session, params: params, rec: rec, log: logger}
}

// Enqueue appends a task; the agent is the planner's task sink.
func (a *Agent) Enqueue(t runtime.Task) {
	if l, ok := t.(interface{ SetLogger(*log.Logger) }); ok {
		l.SetLogger(a.log)
	}
	a.queue = append(a.queue, queued{task: t})
}

func (a *Agent) QueueLen() int { return len(a.queue) }

func (a *Agent) CurrentTick() uint64 { return a.tick }

func (a *Agent) Targets() int { return a.targets }

func (a *Agent) Session() *Session { return a.session }

// Start records the session start. Call once before the first Tick.
func (a *Agent) Start() {
	a.emit(protocol.TraceEvent{Type: protocol.EventSessionStart})
}

// Stop records the session end with a reason.
func (a *Agent) Stop(reason string) {
	a.emit(protocol.TraceEvent{Type: protocol.EventSessionEnd, Message: reason})
}

// RecordBlockChange traces a block the body changed; wire it to the world's change
// callback.
func (a *Agent) RecordBlockChange(p tasks.Vec3i, from, to string) {
	a.emit(protocol.TraceEvent{Type: protocol.EventBlockChange, Pos: protocol.PosOf(p.X, p.Y, p.Z), From: from, To: to})
}

// Tick advances the agent by one step. It plans when the queue is empty, then runs
// one tick of the first unfinished task. A planning cycle without target returns an
// error wrapping movement.ErrNoTarget; the caller may simply tick again later.
// Task failures drop the queue and are traced, not returned.
func (a *Agent) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.tick++

	a.popTerminal()
	if len(a.queue) == 0 {
		if err := a.plan(); err != nil {
			return err
		}
		a.popTerminal()
		if len(a.queue) == 0 {
			return nil
		}
	}

	head := &a.queue[0]
	if budget := head.task.TickTimeout(a.params.TaskTimeoutTicks); head.ticks >= budget {
		a.fail(head, protocol.ErrTimeout, fmt.Sprintf("no progress after %d ticks", head.ticks))
		a.clear()
		return nil
	}

	err := head.task.Tick(a.env, a.env)
	head.ticks++
	if err == nil {
		return nil
	}
	if errors.Is(err, runtime.ErrDesync) {
		code := protocol.ErrBlocked
		var sel *runtime.SelectionError
		if errors.As(err, &sel) {
			code = protocol.ErrSelect
		}
		a.fail(head, code, err.Error())
		a.clear()
		return nil
	}
	a.log.Printf("tick %d: %v: %v", a.tick, head.task, err)
	a.fail(head, protocol.ErrInternal, err.Error())
	a.clear()
	return nil
}

// popTerminal drops finished and exhausted tasks from the head of the queue.
func (a *Agent) popTerminal() {
	for len(a.queue) > 0 {
		head := &a.queue[0]
		st := head.task.Status(a.env)
		switch st {
		case tasks.StatusFinished:
			a.emit(a.outcome(protocol.EventTaskDone, head, ""))
		case tasks.StatusExhausted:
			a.fail(head, protocol.ErrExhausted, "")
		default:
			return
		}
		a.queue = a.queue[1:]
	}
}

func (a *Agent) plan() error {
	eng := a.session.Engine
	stepCost := func(p movement.Pos) (int, bool) {
		feet, ok := a.env.DigCost(p)
		if !ok {
			return 0, false
		}
		head, ok := a.env.DigCost(p.Up(1))
		if !ok {
			return 0, false
		}
		if !a.env.HasSafeSidesAt(p) || !a.env.HasSafeSidesAt(p.Up(1)) {
			return 0, false
		}
		return 1 + eng.MaterialCost(p, feet) + eng.MaterialCost(p.Up(1), head), true
	}

	target, err := movement.FindTarget(a.env.Position(), a.params.Search, stepCost, eng.RateDestination)
	if errors.Is(err, movement.ErrNoTarget) {
		a.emit(protocol.TraceEvent{Type: protocol.EventNoTarget, Code: protocol.ErrNoTarget})
		return fmt.Errorf("tick %d: %w", a.tick, err)
	}
	if err != nil {
		// The search is abandoned for this cycle; the next one starts afresh.
		code := protocol.ErrInternal
		if errors.Is(err, blockcache.ErrInvalidIdentifier) {
			code = protocol.ErrInvalidID
		}
		a.log.Printf("tick %d: plan: %v", a.tick, err)
		a.emit(protocol.TraceEvent{Type: protocol.EventNoTarget, Code: code, Message: err.Error()})
		return fmt.Errorf("tick %d: %w: %w", a.tick, movement.ErrNoTarget, err)
	}

	a.targets++
	p := target.Pos
	a.emit(protocol.TraceEvent{
		Type:     protocol.EventTarget,
		Pos:      protocol.PosOf(p.X, p.Y, p.Z),
		Cost:     protocol.CostOf(target.Cost),
		Distance: target.Distance,
	})
	plan.PlanTarget(a.env, eng, a.session.Tools, target, a)
	if a.params.TorchEvery > 0 && a.targets%a.params.TorchEvery == 0 {
		faces := append([]tasks.Face{tasks.FaceDown}, tasks.HorizontalFaces...)
		a.Enqueue(runtime.NewPlaceTorchTask([]tasks.Vec3i{p, p.Up(1)}, faces...))
	}
	return nil
}

func (a *Agent) clear() {
	a.queue = a.queue[:0]
}

func (a *Agent) fail(q *queued, code, msg string) {
	ev := a.outcome(protocol.EventTaskFail, q, code)
	ev.Message = msg
	a.emit(ev)
}

func (a *Agent) outcome(typ string, q *queued, code string) protocol.TraceEvent {
	return protocol.TraceEvent{
		Type:   typ,
		Kind:   string(q.task.Kind()),
		Task:   q.task.String(),
		Status: q.task.Status(a.env).String(),
		Ticks:  q.ticks,
		Code:   code,
	}
}

func (a *Agent) emit(ev protocol.TraceEvent) {
	ev.Tick = a.tick
	ev.SessionID = a.session.ID
	_ = a.rec.WriteEvent(ev)
}
