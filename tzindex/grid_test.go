package tzindex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     error
	}{
		{"origin", 0, 0, nil},
		{"north pole", 90, 0, nil},
		{"south west corner", -90, -180, nil},
		{"north east corner", 90, 180, nil},
		{"lat above", 91, 0, ErrOutOfRange},
		{"lat below", -90.0000001, 0, ErrOutOfRange},
		{"lon above", 0, 181, ErrOutOfRange},
		{"lon below", 0, -180.5, ErrOutOfRange},
		{"lat inf", math.Inf(1), 0, ErrOutOfRange},
		{"lon -inf", 0, math.Inf(-1), ErrOutOfRange},
		{"lat nan", math.NaN(), 0, ErrMissingInput},
		{"lon nan", 0, math.NaN(), ErrMissingInput},
		{"nan beats range", 1000, math.NaN(), ErrMissingInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, ValidCoordinate(tt.lat, tt.lon), tt.want)
		})
	}
}

func TestGridPointCorners(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		u, v     int
	}{
		{"north west", 90, -180, 0, 0},
		{"north east", 90, 180, RootWidth - 1, 0},
		{"south west", -90, -180, 0, RootHeight - 1},
		{"south east", -90, 180, RootWidth - 1, RootHeight - 1},
		{"origin", 0, 0, 23, 11},
		{"just east of greenwich", 1e-9, 1e-9, 24, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := GridPoint(tt.lat, tt.lon)
			require.Equal(t, tt.u, p.U)
			require.Equal(t, tt.v, p.V)
		})
	}
}

func TestGridPointStaysInsideRootGrid(t *testing.T) {
	check := func(lat, lon float64) {
		p := GridPoint(lat, lon)
		require.GreaterOrEqual(t, p.U, 0, "lat %v lon %v", lat, lon)
		require.Less(t, p.U, RootWidth, "lat %v lon %v", lat, lon)
		require.GreaterOrEqual(t, p.V, 0, "lat %v lon %v", lat, lon)
		require.Less(t, p.V, RootHeight, "lat %v lon %v", lat, lon)
		require.Less(t, p.X, float64(RootWidth))
		require.Less(t, p.Y, float64(RootHeight))
	}

	// Walk down from the extreme values one ulp at a time.
	lon, lat := 180.0, -90.0
	for i := 0; i < 4096; i++ {
		check(lat, lon)
		check(-lat, -lon)
		lon = math.Nextafter(lon, 0)
		lat = math.Nextafter(lat, 0)
	}

	for lat := -90.0; lat <= 90; lat += 0.37 {
		for lon := -180.0; lon <= 180; lon += 0.53 {
			check(lat, lon)
		}
	}
}
