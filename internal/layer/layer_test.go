package layer_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-layers/internal/layer"
)

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func stage(t *testing.T, g orb.Geometry, name string) *layer.UnassignedLayer {
	t.Helper()
	staged, err := layer.FromGeometry(g, name, nil, "EPSG:4326", "EPSG:4326", layer.NewColorAllocator())
	require.NoError(t, err)
	return staged
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	ls := layer.New(nil)
	for i := 1; i <= 5; i++ {
		id := ls.Add(stage(t, orb.Point{float64(i), 0}, "p"))
		require.Equal(t, layer.ID(i), id)
	}

	all := ls.All()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].ID, all[i].ID)
	}
}

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	ls := layer.New(nil)
	ls.Add(stage(t, orb.Point{1, 1}, "a"))
	second := ls.Add(stage(t, orb.Point{2, 2}, "b"))

	_, err := ls.Delete(second)
	require.NoError(t, err)

	third := ls.Add(stage(t, orb.Point{3, 3}, "c"))
	require.Equal(t, layer.ID(3), third)
	_, ok := ls.Get(second)
	require.False(t, ok)
}

func TestGetReturnsStagedFields(t *testing.T) {
	ls := layer.New(nil)
	staged, err := layer.FromGeometry(square(0, 0, 10, 10), "field", layer.Metadata{"kind": "park"}, "EPSG:4326", "EPSG:4326", layer.NewColorAllocator())
	require.NoError(t, err)
	want := *staged

	id := ls.Add(staged)
	got, ok := ls.Get(id)
	require.True(t, ok)
	require.Equal(t, id, got.ID)
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.UnprojectedGeometry, got.UnprojectedGeometry)
	require.Equal(t, want.ProjectedGeometry, got.ProjectedGeometry)
	require.Equal(t, want.UnprojectedBound, got.UnprojectedBound)
	require.Equal(t, want.ProjectedBound, got.ProjectedBound)
	require.Equal(t, want.Color, got.Color)
	require.Equal(t, want.Metadata, got.Metadata)
	require.True(t, got.Visible)
}

func TestGetMissing(t *testing.T) {
	ls := layer.New(nil)
	_, ok := ls.Get(42)
	require.False(t, ok)

	_, err := ls.MustGet(42)
	require.ErrorIs(t, err, layer.ErrInvariantViolation)

	_, err = ls.ToggleVisibility(42)
	require.ErrorIs(t, err, layer.ErrInvariantViolation)
}

func TestToggleVisibility(t *testing.T) {
	ls := layer.New(nil)
	id := ls.Add(stage(t, orb.Point{1, 1}, "a"))

	visible, err := ls.ToggleVisibility(id)
	require.NoError(t, err)
	require.False(t, visible)
	require.Empty(t, ls.Visible())

	visible, err = ls.ToggleVisibility(id)
	require.NoError(t, err)
	require.True(t, visible)
	require.Len(t, ls.Visible(), 1)
}

func TestDeleteClearsSelection(t *testing.T) {
	ls := layer.New(nil)
	id := ls.Add(stage(t, square(0, 0, 10, 10), "a"))
	require.True(t, ls.SetSelectedFromMousePress(orb.Point{5, 5}))

	cleared, err := ls.Delete(id)
	require.NoError(t, err)
	require.True(t, cleared)
	require.Zero(t, ls.SelectedID())
	require.Zero(t, ls.Len())

	_, err = ls.Delete(id)
	require.ErrorIs(t, err, layer.ErrInvariantViolation)
}

func TestMoveSwapsZIndex(t *testing.T) {
	ls := layer.New(nil)
	a := ls.Add(stage(t, orb.Point{1, 1}, "a"))
	b := ls.Add(stage(t, orb.Point{2, 2}, "b"))
	c := ls.Add(stage(t, orb.Point{3, 3}, "c"))

	changed, err := ls.Move(a, layer.Up)
	require.NoError(t, err)
	require.ElementsMatch(t, []layer.ID{a, b}, changed)

	order := ls.ByZIndex()
	require.Equal(t, []layer.ID{b, a, c}, []layer.ID{order[0].ID, order[1].ID, order[2].ID})

	// storage order is untouched
	all := ls.All()
	require.Equal(t, []layer.ID{a, b, c}, []layer.ID{all[0].ID, all[1].ID, all[2].ID})

	changed, err = ls.Move(c, layer.Up)
	require.NoError(t, err)
	require.Empty(t, changed)

	changed, err = ls.Move(b, layer.Down)
	require.NoError(t, err)
	require.Empty(t, changed)
}

func TestZIndexIncreasesAfterDeleteAndMove(t *testing.T) {
	ls := layer.New(nil)
	a := ls.Add(stage(t, orb.Point{1, 1}, "a"))
	ls.Add(stage(t, orb.Point{2, 2}, "b"))
	c := ls.Add(stage(t, orb.Point{3, 3}, "c"))

	_, err := ls.Move(a, layer.Up)
	require.NoError(t, err)
	_, err = ls.Delete(c)
	require.NoError(t, err)
	d := ls.Add(stage(t, orb.Point{4, 4}, "d"))

	seen := map[int]layer.ID{}
	for _, l := range ls.All() {
		prev, dup := seen[l.ZIndex]
		require.False(t, dup, "layers %d and %d share z-index %d", prev, l.ID, l.ZIndex)
		seen[l.ZIndex] = l.ID
	}

	top := ls.ByZIndex()
	require.Equal(t, d, top[len(top)-1].ID, "new layer is drawn on top")
	for i := 1; i < len(top); i++ {
		require.Less(t, top[i-1].ZIndex, top[i].ZIndex)
	}
}

func TestParseDirection(t *testing.T) {
	d, err := layer.ParseDirection("down")
	require.NoError(t, err)
	require.Equal(t, layer.Down, d)

	_, err = layer.ParseDirection("sideways")
	require.Error(t, err)
}
