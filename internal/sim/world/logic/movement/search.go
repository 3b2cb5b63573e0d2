package movement

import (
	"container/heap"
	"errors"
	"math"

	"voxelminer.ai/internal/sim/tasks"
)

// ErrNoTarget means no finite-cost destination was found within the search budget.
// It is recoverable: the caller retries on a later tick.
var ErrNoTarget = errors.New("no target within search budget")

type Pos = tasks.Vec3i

type SearchParams struct {
	MaxDistance int // path distance ceiling
	MaxNodes    int // settled node ceiling
}

type Target struct {
	Pos      Pos
	Distance int
	Cost     float64
	// Path runs from the first step after start to Pos.
	Path []Pos
}

// StepCostFunc returns the cost of moving into p (>= 1), or false when p cannot be
// occupied.
type StepCostFunc func(p Pos) (int, bool)

// RateFunc returns the cost of choosing p as destination; +Inf rejects p.
type RateFunc func(distance int, p Pos) (float64, error)

// Fixed neighbour order for determinism.
var dirs = []Pos{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}, {Y: 1}, {Y: -1}}

// FindTarget settles positions in non-decreasing path distance from start and rates
// each one. The lowest finite rating wins; ties keep the first settled position.
func FindTarget(start Pos, params SearchParams, stepCost StepCostFunc, rate RateFunc) (Target, error) {
	if params.MaxDistance <= 0 || params.MaxNodes <= 0 {
		return Target{}, ErrNoTarget
	}

	dist := make(map[Pos]int, 1024)
	parent := make(map[Pos]Pos, 1024)
	settled := make(map[Pos]bool, 1024)

	q := &frontier{}
	var seq uint64
	push := func(p Pos, d int) {
		seq++
		heap.Push(q, node{p: p, dist: d, seq: seq})
	}
	dist[start] = 0
	push(start, 0)

	best := Target{Cost: math.Inf(1)}
	found := false
	nodes := 0

	for q.Len() > 0 && nodes < params.MaxNodes {
		it := heap.Pop(q).(node)
		if settled[it.p] || it.dist != dist[it.p] {
			continue
		}
		settled[it.p] = true
		nodes++

		cost, err := rate(it.dist, it.p)
		if err != nil {
			return Target{}, err
		}
		if !math.IsInf(cost, 1) && !math.IsNaN(cost) && (!found || cost < best.Cost) {
			found = true
			best = Target{Pos: it.p, Distance: it.dist, Cost: cost}
		}

		for _, d := range dirs {
			np := it.p.Add(d)
			if settled[np] {
				continue
			}
			step, ok := stepCost(np)
			if !ok {
				continue
			}
			if step < 1 {
				step = 1
			}
			nd := it.dist + step
			if nd > params.MaxDistance {
				continue
			}
			if old, seen := dist[np]; seen && old <= nd {
				continue
			}
			dist[np] = nd
			parent[np] = it.p
			push(np, nd)
		}
	}

	if !found {
		return Target{}, ErrNoTarget
	}
	best.Path = pathTo(parent, start, best.Pos)
	return best, nil
}

func pathTo(parent map[Pos]Pos, start, end Pos) []Pos {
	var rev []Pos
	for p := end; p != start; p = parent[p] {
		rev = append(rev, p)
	}
	out := make([]Pos, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out
}

type node struct {
	p    Pos
	dist int
	seq  uint64
}

type frontier []node

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].seq < f[j].seq
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(node)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	it := old[n-1]
	*f = old[:n-1]
	return it
}
