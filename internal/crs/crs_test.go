package crs_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-layers/internal/crs"
)

func TestLookupAliases(t *testing.T) {
	for _, code := range []string{"EPSG:4326", "epsg:4326", "WGS84", "CRS:84", " urn:ogc:def:crs:OGC:1.3:CRS84 "} {
		sys, err := crs.Lookup(code)
		require.NoError(t, err, code)
		require.Equal(t, crs.WGS84, sys.Code)
	}
	for _, code := range []string{"EPSG:3857", "EPSG:900913", "epsg:3785"} {
		sys, err := crs.Lookup(code)
		require.NoError(t, err, code)
		require.Equal(t, crs.WebMercator, sys.Code)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := crs.Lookup("EPSG:99999")
	require.ErrorIs(t, err, crs.ErrProjection)
	require.ErrorIs(t, err, crs.ErrUnknownCRS)
}

func TestReprojectIdentity(t *testing.T) {
	poly := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	got, err := crs.Reproject(poly, "EPSG:4326", "EPSG:4326")
	require.NoError(t, err)

	out := got.(orb.Polygon)
	require.Len(t, out, 1)
	require.Len(t, out[0], 5)
	for i, p := range poly[0] {
		require.InDelta(t, p[0], out[0][i][0], 1e-9)
		require.InDelta(t, p[1], out[0][i][1], 1e-9)
	}

	// the input is untouched and not shared
	out[0][0] = orb.Point{99, 99}
	require.Equal(t, orb.Point{0, 0}, poly[0][0])
}

func TestReprojectToMercatorAndBack(t *testing.T) {
	in := orb.Collection{
		orb.Point{13.4, 52.5},
		orb.LineString{{-122.4, 37.8}, {-73.9, 40.7}},
	}
	merc, err := crs.Reproject(in, crs.WGS84, crs.WebMercator)
	require.NoError(t, err)

	c := merc.(orb.Collection)
	require.Len(t, c, 2)
	require.Len(t, c[1].(orb.LineString), 2)
	require.InDelta(t, 1491681.18, c[0].(orb.Point)[0], 1)

	back, err := crs.Reproject(merc, "EPSG:900913", "EPSG:4326")
	require.NoError(t, err)
	p := back.(orb.Collection)[0].(orb.Point)
	require.InDelta(t, 13.4, p[0], 1e-9)
	require.InDelta(t, 52.5, p[1], 1e-9)
}

func TestReprojectPoleIsUndefined(t *testing.T) {
	_, err := crs.Reproject(orb.Point{0, 90}, crs.WGS84, crs.WebMercator)
	require.ErrorIs(t, err, crs.ErrProjection)

	_, err = crs.Reproject(orb.Point{0, math.NaN()}, crs.WGS84, crs.WebMercator)
	require.ErrorIs(t, err, crs.ErrProjection)
}

func TestReprojectUnknownTarget(t *testing.T) {
	_, err := crs.Reproject(orb.Point{1, 1}, crs.WGS84, "EPSG:1")
	require.ErrorIs(t, err, crs.ErrUnknownCRS)
}

func TestSame(t *testing.T) {
	require.True(t, crs.Same("epsg:900913", "EPSG:3857"))
	require.False(t, crs.Same("EPSG:4326", "EPSG:3857"))
	require.False(t, crs.Same("nope", "nope"))
}

func TestReprojectAliasIsIdentity(t *testing.T) {
	g := orb.LineString{{1491681.18, 6894699.8}, {-2e7, 2e7}}
	out, err := crs.Reproject(g, "EPSG:900913", "epsg:3857")
	require.NoError(t, err)
	require.Equal(t, g, out)

	out.(orb.LineString)[0][0] = 0
	require.Equal(t, 1491681.18, g[0][0], "input must not be modified")
}
