package layer

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
)

// Direction is the z-order direction of a move.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// ParseDirection parses "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("invalid direction %q", s)
}

// Layers is the ordered layer registry. The backing slice is always sorted
// ascending by ID, which Get relies on for binary search.
//
// Layers is not safe for concurrent use; callers serialise access.
type Layers struct {
	data []*Layer
	// selectedID is zero or the ID of a layer present in data.
	selectedID ID

	lastID ID
	nextZ  int
	logger *slog.Logger
}

// New returns an empty store. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Layers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Layers{logger: logger}
}

// Len returns the number of resident layers.
func (ls *Layers) Len() int { return len(ls.data) }

// All returns the layers in store (ID) order.
func (ls *Layers) All() []*Layer {
	return slices.Clone(ls.data)
}

// Visible returns the visible layers in store order.
func (ls *Layers) Visible() []*Layer {
	var out []*Layer
	for _, l := range ls.data {
		if l.Visible {
			out = append(out, l)
		}
	}
	return out
}

// ByZIndex returns the layers sorted bottom to top.
func (ls *Layers) ByZIndex() []*Layer {
	out := slices.Clone(ls.data)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func (ls *Layers) index(id ID) (int, bool) {
	i := sort.Search(len(ls.data), func(i int) bool { return ls.data[i].ID >= id })
	return i, i < len(ls.data) && ls.data[i].ID == id
}

// Get looks a layer up by ID. The returned layer may be mutated in place.
func (ls *Layers) Get(id ID) (*Layer, bool) {
	i, ok := ls.index(id)
	if !ok {
		return nil, false
	}
	return ls.data[i], true
}

// MustGet is Get for IDs that are required to exist.
func (ls *Layers) MustGet(id ID) (*Layer, error) {
	l, ok := ls.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: layer %d not in store", ErrInvariantViolation, id)
	}
	return l, nil
}

// SelectedID returns the selected layer's ID, or zero when nothing is
// selected.
func (ls *Layers) SelectedID() ID { return ls.selectedID }

// Selected returns the currently selected layer, if any.
func (ls *Layers) Selected() (*Layer, bool) {
	if ls.selectedID == 0 {
		return nil, false
	}
	return ls.Get(ls.selectedID)
}

// Add assigns the next ID to staged, appends it and returns the ID. The
// staged layer must not be used afterwards.
func (ls *Layers) Add(staged *UnassignedLayer) ID {
	ls.lastID++
	id := ls.lastID

	z := ls.nextZ
	ls.nextZ++

	metadata := staged.Metadata
	if metadata == nil {
		metadata = Metadata{}
	}
	ls.data = append(ls.data, &Layer{
		ID:                  id,
		Name:                staged.Name,
		UnprojectedGeometry: staged.UnprojectedGeometry,
		UnprojectedBound:    staged.UnprojectedBound,
		ProjectedGeometry:   staged.ProjectedGeometry,
		ProjectedBound:      staged.ProjectedBound,
		Color:               staged.Color,
		Metadata:            metadata,
		Visible:             staged.Visible,
		ZIndex:              z,
	})
	*staged = UnassignedLayer{}
	return id
}

// ToggleVisibility flips a layer's visibility and returns the new value.
func (ls *Layers) ToggleVisibility(id ID) (bool, error) {
	l, err := ls.MustGet(id)
	if err != nil {
		return false, err
	}
	l.Visible = !l.Visible
	return l.Visible, nil
}

// SetColor replaces a layer's color.
func (ls *Layers) SetColor(id ID, c Color) error {
	l, err := ls.MustGet(id)
	if err != nil {
		return err
	}
	l.Color = c
	return nil
}

// Delete removes a layer from the store. The remaining layers keep their
// IDs and order. It reports whether the selection was cleared as a result.
func (ls *Layers) Delete(id ID) (bool, error) {
	i, ok := ls.index(id)
	if !ok {
		return false, fmt.Errorf("%w: layer %d not in store", ErrInvariantViolation, id)
	}
	ls.data = slices.Delete(ls.data, i, i+1)
	if ls.selectedID == id {
		ls.selectedID = 0
		return true, nil
	}
	return false, nil
}

// Move swaps the z-index of a layer with its nearest neighbour in the given
// direction. It returns the IDs whose z-index changed; none when the layer is
// already at the top (Up) or bottom (Down).
func (ls *Layers) Move(id ID, dir Direction) ([]ID, error) {
	l, err := ls.MustGet(id)
	if err != nil {
		return nil, err
	}

	var neighbour *Layer
	for _, other := range ls.data {
		if other.ID == id {
			continue
		}
		switch dir {
		case Up:
			if other.ZIndex > l.ZIndex && (neighbour == nil || other.ZIndex < neighbour.ZIndex) {
				neighbour = other
			}
		case Down:
			if other.ZIndex < l.ZIndex && (neighbour == nil || other.ZIndex > neighbour.ZIndex) {
				neighbour = other
			}
		}
	}
	if neighbour == nil {
		return nil, nil
	}

	l.ZIndex, neighbour.ZIndex = neighbour.ZIndex, l.ZIndex
	return []ID{l.ID, neighbour.ID}, nil
}
