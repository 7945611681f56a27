package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"geomemdb/internal/geo"
)

func TestParseGeoAddSinglePoint(t *testing.T) {
	cmd, err := Parse("GEOADD sf 37.7749 -122.4194")
	require.NoError(t, err)
	require.Equal(t, GeoAdd, cmd.Verb)
	require.Equal(t, "sf", cmd.Key)
	require.Equal(t, []geo.LatLon{{Lat: 37.7749, Lon: -122.4194}}, cmd.Coords)
}

func TestParseGeoAddPolygon(t *testing.T) {
	cmd, err := Parse("GEOADD block 0 0 0 1 1 1\n")
	require.NoError(t, err)
	require.Equal(t, GeoAdd, cmd.Verb)
	require.Len(t, cmd.Coords, 3)
}

func TestParseGeoAddRejectsTwoPairs(t *testing.T) {
	_, err := Parse("GEOADD k 0 0 1 1")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseGeoAddRejectsOddCoordinateCount(t *testing.T) {
	_, err := Parse("GEOADD k 0 0 1")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseGeoAddRejectsNonFiniteCoordinate(t *testing.T) {
	_, err := Parse("GEOADD k NaN 0")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Parse("GEOADD k Inf 0")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseGeoSearch(t *testing.T) {
	cmd, err := Parse("GEOSEARCH 1.5 2.5 5000")
	require.NoError(t, err)
	require.Equal(t, GeoSearch, cmd.Verb)
	require.Equal(t, 1.5, cmd.Lat)
	require.Equal(t, 2.5, cmd.Lon)
	require.Equal(t, 5000.0, cmd.RadiusM)
}

func TestParseGeoSearchWrongArity(t *testing.T) {
	_, err := Parse("GEOSEARCH 1.5 2.5")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseGeoGet(t *testing.T) {
	cmd, err := Parse("GEOGET mykey")
	require.NoError(t, err)
	require.Equal(t, GeoGet, cmd.Verb)
	require.Equal(t, "mykey", cmd.Key)
}

func TestParseHeartbeat(t *testing.T) {
	cmd, err := Parse("HEARTBEAT")
	require.NoError(t, err)
	require.Equal(t, Heartbeat, cmd.Verb)
}

func TestParseHeartbeatRejectsExtraTokens(t *testing.T) {
	_, err := Parse("HEARTBEAT extra")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseUnknownVerb(t *testing.T) {
	_, err := Parse("FROBNICATE x")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseEmptyLine(t *testing.T) {
	_, err := Parse("")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Parse("   ")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseIsCaseSensitive(t *testing.T) {
	_, err := Parse("geoadd k 1 1")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestFormatThenParseRoundTrips(t *testing.T) {
	cases := []Command{
		{Verb: GeoAdd, Key: "sf", Coords: []geo.LatLon{{Lat: 37.7749, Lon: -122.4194}}},
		{Verb: GeoAdd, Key: "block", Coords: []geo.LatLon{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}}},
		{Verb: GeoSearch, Lat: 1.5, Lon: 2.5, RadiusM: 5000},
		{Verb: GeoGet, Key: "mykey"},
		{Verb: Heartbeat},
	}

	for _, cmd := range cases {
		got, err := Parse(Format(cmd))
		require.NoError(t, err)
		require.Equal(t, cmd, got)
	}
}
