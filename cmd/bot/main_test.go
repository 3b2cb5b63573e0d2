package main

import (
	"context"
	"io"
	"log"
	"testing"

	"voxelminer.ai/internal/sim/agent"
	"voxelminer.ai/internal/sim/catalogs"
	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/tuning"
	"voxelminer.ai/internal/sim/world/logic/movement"
	"voxelminer.ai/internal/sim/world/sandbox"
)

func newIdleAgent(t *testing.T) *agent.Agent {
	t.Helper()
	cats, err := catalogs.LoadDefault()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	w, err := sandbox.New(sandbox.Config{
		Catalogs: cats,
		Gen:      sandbox.GenFromCatalog(cats, 1, 16, 32, 0),
		Spawn:    tasks.Vec3i{Y: 12},
	})
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	// Nothing is worth mining.
	s := tuning.NewSettings(map[string]float64{"mine_points_coal_ore": 5})
	return agent.New(w, agent.NewSession(cats, s, w, 1), agent.Params{
		Search: movement.SearchParams{MaxDistance: 4, MaxNodes: 100},
	})
}

func TestRunStopsWhenIdle(t *testing.T) {
	a := newIdleAgent(t)
	calls := 0
	reason := run(context.Background(), a, loopLimits{MaxIdleCycles: 3}, func() { calls++ }, log.New(io.Discard, "", 0))
	if reason != "no targets left" {
		t.Fatalf("unexpected reason %q", reason)
	}
	if a.CurrentTick() != 3 || calls != 3 {
		t.Fatalf("expected 3 ticks, got tick=%d calls=%d", a.CurrentTick(), calls)
	}
}

func TestRunStopsAtTickLimit(t *testing.T) {
	a := newIdleAgent(t)
	reason := run(context.Background(), a, loopLimits{MaxTicks: 5}, nil, log.New(io.Discard, "", 0))
	if reason != "tick limit" || a.CurrentTick() != 5 {
		t.Fatalf("expected tick limit at 5, got %q at %d", reason, a.CurrentTick())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a := newIdleAgent(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if reason := run(ctx, a, loopLimits{}, nil, log.New(io.Discard, "", 0)); reason != "interrupted" {
		t.Fatalf("unexpected reason %q", reason)
	}
}
