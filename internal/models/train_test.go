package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainUnmarshalJSON(t *testing.T) {
	raw := `{
		"trainno": "514",
		"lat": "39.95374",
		"lon": "-75.16199",
		"line": "Airport",
		"dest": "Airport Terminal E-F",
		"currentstop": "Suburban Station",
		"nextstop": "30th Street Station",
		"consist": "403,404,405",
		"late": 4
	}`

	var train Train
	require.NoError(t, json.Unmarshal([]byte(raw), &train))

	assert.Equal(t, "514", train.TrainNo)
	assert.InDelta(t, 39.95374, train.Lat, 0.000001)
	assert.InDelta(t, -75.16199, train.Lon, 0.000001)
	assert.Equal(t, "Airport", train.Line)
	assert.Equal(t, []string{"403", "404", "405"}, train.Consist)
	assert.Equal(t, 4, train.LateMinutes)
}

func TestTrainUnmarshalBadCoordinates(t *testing.T) {
	raw := `{"trainno": "514", "lat": "", "lon": "not-a-number"}`

	var train Train
	require.NoError(t, json.Unmarshal([]byte(raw), &train))

	assert.Zero(t, train.Lat)
	assert.Zero(t, train.Lon)
}

func TestTrainUnmarshalLateVariants(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int
	}{
		{"numeric", `{"trainno": "1", "late": 7}`, 7},
		{"string numeric", `{"trainno": "1", "late": "12"}`, 12},
		{"missing", `{"trainno": "1"}`, 0},
		{"garbage string", `{"trainno": "1", "late": "soon"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var train Train
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &train))
			assert.Equal(t, tt.expected, train.LateMinutes)
		})
	}
}

func TestTrainConsistSplitting(t *testing.T) {
	var train Train
	require.NoError(t, json.Unmarshal([]byte(`{"trainno": "1", "consist": " 403 ,, 404 "}`), &train))
	assert.Equal(t, []string{"403", "404"}, train.Consist)

	require.NoError(t, json.Unmarshal([]byte(`{"trainno": "1", "consist": ""}`), &train))
	assert.Nil(t, train.Consist)
}

func TestTrainEquipmentClass(t *testing.T) {
	tests := []struct {
		name     string
		consist  []string
		expected string
	}{
		{"silverliner IV", []string{"403", "404"}, "Silverliner IV"},
		{"silverliner V", []string{"812"}, "Silverliner V"},
		{"coach", []string{"2405", "2406"}, "Comet Coach"},
		{"out of range", []string{"9999"}, "unknown"},
		{"non numeric", []string{"abc"}, "unknown"},
		{"empty consist", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train := Train{Consist: tt.consist}
			assert.Equal(t, tt.expected, train.EquipmentClass())
		})
	}
}

func TestTrainStructuralEquality(t *testing.T) {
	raw := `{"trainno": "514", "lat": "39.9", "lon": "-75.1", "consist": "403"}`

	var a, b Train
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	require.NoError(t, json.Unmarshal([]byte(raw), &b))

	assert.Equal(t, a, b)

	b.LateMinutes = 3
	assert.NotEqual(t, a, b)
}
