package restapi

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railwatch.transitlabs.org/internal/models"
)

type favoriteListData struct {
	Favorites []struct {
		Start    string             `json:"start"`
		End      string             `json:"end"`
		Arrivals []models.NextTrain `json:"arrivals"`
	} `json:"favorites"`
}

func listFavorites(t *testing.T, serverURL string) favoriteListData {
	t.Helper()

	var envelope struct {
		Data favoriteListData `json:"data"`
	}
	status := getJSON(t, serverURL+"/api/rail/favorites?key=TEST", &envelope)
	require.Equal(t, http.StatusOK, status)
	return envelope.Data
}

func TestFavoritesAddListRemove(t *testing.T) {
	server := newTestServer(t)

	assert.Empty(t, listFavorites(t, server.URL).Favorites)

	resp, err := http.Post(
		server.URL+"/api/rail/favorites?key=TEST",
		"application/json",
		strings.NewReader(`{"start":"Thorndale","end":"Suburban Station"}`),
	)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listed := listFavorites(t, server.URL)
	require.Len(t, listed.Favorites, 1)
	assert.Equal(t, "Thorndale", listed.Favorites[0].Start)
	assert.Equal(t, "Suburban Station", listed.Favorites[0].End)

	params := url.Values{}
	params.Set("key", "TEST")
	params.Set("start", "Thorndale")
	params.Set("end", "Suburban Station")
	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/rail/favorites?"+params.Encode(), nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Empty(t, listFavorites(t, server.URL).Favorites)
}

func TestFavoritesAddValidation(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "start=Thorndale"},
		{"missing end", `{"start":"Thorndale"}`},
		{"empty body fields", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(
				server.URL+"/api/rail/favorites?key=TEST",
				"application/json",
				strings.NewReader(tt.body),
			)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestFavoritesRemoveValidation(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/rail/favorites?key=TEST&start=Thorndale", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
