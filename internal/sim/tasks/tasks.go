package tasks

import "fmt"

type Kind string

const (
	KindWalk       Kind = "WALK"
	KindMine       Kind = "MINE"
	KindPlaceTorch Kind = "PLACE_TORCH"
	KindPlaceBlock Kind = "PLACE_BLOCK"
)

// Status is the scheduler-visible state of a task. Finished and Exhausted are both
// terminal; they only differ for diagnostics.
type Status int

const (
	StatusUninitialized Status = iota
	StatusActive
	StatusFinished
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "UNINITIALIZED"
	case StatusActive:
		return "ACTIVE"
	case StatusFinished:
		return "FINISHED"
	case StatusExhausted:
		return "EXHAUSTED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) Terminal() bool { return s == StatusFinished || s == StatusExhausted }

// Vec3i is duplicated here to avoid import cycles (tasks is used by every layer).
type Vec3i struct{ X, Y, Z int }

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

func (v Vec3i) Up(n int) Vec3i { return Vec3i{X: v.X, Y: v.Y + n, Z: v.Z} }

func (v Vec3i) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

// Manhattan distance, same metric the work tasks use for reach checks.
func Manhattan(a, b Vec3i) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y) + absInt(a.Z-b.Z)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Face is one of the six block sides.
type Face int

const (
	FaceDown Face = iota
	FaceUp
	FaceNorth
	FaceSouth
	FaceWest
	FaceEast
)

var faceOffsets = [...]Vec3i{
	FaceDown:  {Y: -1},
	FaceUp:    {Y: 1},
	FaceNorth: {Z: -1},
	FaceSouth: {Z: 1},
	FaceWest:  {X: -1},
	FaceEast:  {X: 1},
}

var faceNames = [...]string{"DOWN", "UP", "NORTH", "SOUTH", "WEST", "EAST"}

func (f Face) Offset() Vec3i {
	if f < 0 || int(f) >= len(faceOffsets) {
		return Vec3i{}
	}
	return faceOffsets[f]
}

func (f Face) Opposite() Face { return f ^ 1 }

func (f Face) String() string {
	if f < 0 || int(f) >= len(faceNames) {
		return fmt.Sprintf("Face(%d)", int(f))
	}
	return faceNames[f]
}

// HorizontalFaces lists the four wall sides in a fixed order.
var HorizontalFaces = []Face{FaceNorth, FaceSouth, FaceWest, FaceEast}

// FaceToward returns the side of the block at b that looks at p. The dominant axis
// wins; ties prefer the vertical axis.
func FaceToward(b, p Vec3i) Face {
	dx, dy, dz := p.X-b.X, p.Y-b.Y, p.Z-b.Z
	ax, ay, az := absInt(dx), absInt(dy), absInt(dz)
	switch {
	case ay >= ax && ay >= az:
		if dy < 0 {
			return FaceDown
		}
		return FaceUp
	case ax >= az:
		if dx < 0 {
			return FaceWest
		}
		return FaceEast
	default:
		if dz < 0 {
			return FaceNorth
		}
		return FaceSouth
	}
}
