package restapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railwatch.transitlabs.org/internal/models"
)

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestTrainsEndpointReturnsSnapshot(t *testing.T) {
	server := newTestServer(t)

	var envelope struct {
		Data struct {
			Trains      []models.Train `json:"trains"`
			LastUpdated int64          `json:"lastUpdated"`
		} `json:"data"`
	}
	status := getJSON(t, server.URL+"/api/rail/trains?key=TEST", &envelope)

	require.Equal(t, http.StatusOK, status)
	require.Len(t, envelope.Data.Trains, 2)
	assert.Equal(t, "514", envelope.Data.Trains[0].TrainNo)
	assert.Equal(t, 5, envelope.Data.Trains[0].LateMinutes)
	assert.Equal(t, []string{"401", "402"}, envelope.Data.Trains[0].Consist)
	assert.NotZero(t, envelope.Data.LastUpdated)
}

func TestTrainEndpoint(t *testing.T) {
	server := newTestServer(t)

	var envelope struct {
		Data struct {
			Train          models.Train `json:"train"`
			EquipmentClass string       `json:"equipmentClass"`
			Track          string       `json:"track"`
		} `json:"data"`
	}
	status := getJSON(t, server.URL+"/api/rail/train/514?key=TEST", &envelope)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "514", envelope.Data.Train.TrainNo)
	assert.Equal(t, "Silverliner IV", envelope.Data.EquipmentClass)
	assert.NotEmpty(t, envelope.Data.Track)
}

func TestTrainEndpointAcceptsJSONSuffix(t *testing.T) {
	server := newTestServer(t)

	status := getJSON(t, server.URL+"/api/rail/train/514.json?key=TEST", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestTrainEndpointUnknownTrain(t *testing.T) {
	server := newTestServer(t)

	status := getJSON(t, server.URL+"/api/rail/train/0000?key=TEST", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTrainsNearReturnsClosestFirst(t *testing.T) {
	server := newTestServer(t)

	var envelope struct {
		Data struct {
			Trains []models.Train `json:"trains"`
		} `json:"data"`
	}
	// Center city: train 514 is close, 900 is ~30km away.
	status := getJSON(t, server.URL+"/api/rail/trains-near?lat=39.9539&lon=-75.1677&radius=5000&key=TEST", &envelope)

	require.Equal(t, http.StatusOK, status)
	require.Len(t, envelope.Data.Trains, 1)
	assert.Equal(t, "514", envelope.Data.Trains[0].TrainNo)
}

func TestTrainsNearValidation(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"missing coordinates", ""},
		{"bad latitude", "lat=abc&lon=-75.1"},
		{"negative radius", "lat=39.9&lon=-75.1&radius=-5"},
		{"zero limit", "lat=39.9&lon=-75.1&limit=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := getJSON(t, server.URL+"/api/rail/trains-near?key=TEST&"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}
