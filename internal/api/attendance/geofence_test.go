package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineMeters(t *testing.T) {
	assert.InDelta(t, 0, HaversineMeters(-6.2, 106.8, -6.2, 106.8), 1e-9)
	// One degree of latitude is roughly 111.2 km.
	assert.InDelta(t, 111195, HaversineMeters(0, 0, 1, 0), 10)
}

func TestGeofenceCheck(t *testing.T) {
	lat, lng := -6.2, 106.8

	d, err := Geofence{}.Check(nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, d)

	fence := Geofence{Enabled: true, Latitude: lat, Longitude: lng, RadiusMeters: 100}

	_, err = fence.Check(nil, &lng)
	assert.ErrorIs(t, err, ErrLocationRequired)

	d, err = fence.Check(&lat, &lng)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.InDelta(t, 0, *d, 1e-6)

	far := lat + 0.01
	d, err = fence.Check(&far, &lng)
	assert.ErrorIs(t, err, ErrOutsideGeofence)
	require.NotNil(t, d)
	assert.Greater(t, *d, 1000.0)
}
