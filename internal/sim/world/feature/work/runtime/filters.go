package runtime

import "fmt"

// ItemFilter picks inventory stacks for SelectItem.
type ItemFilter interface {
	Matches(item, color string) bool
	fmt.Stringer
}

type BlockItemFilter struct {
	Item string
}

func (f BlockItemFilter) Matches(item, _ string) bool { return item == f.Item }

func (f BlockItemFilter) String() string { return "BlockItemFilter[" + f.Item + "]" }

// ColoredItemFilter matches one color variant of a colored block item (wool,
// stained glass, stained clay).
type ColoredItemFilter struct {
	Item  string
	Color string
}

func (f ColoredItemFilter) Matches(item, color string) bool {
	return item == f.Item && color == f.Color
}

func (f ColoredItemFilter) String() string {
	return "ColoredItemFilter[" + f.Item + "/" + f.Color + "]"
}

// HandFilter selects the empty hand.
type HandFilter struct{}

func (HandFilter) Matches(item, _ string) bool { return item == "" }

func (HandFilter) String() string { return "HandFilter" }
