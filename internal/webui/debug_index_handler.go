package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"railwatch.transitlabs.org/internal/appconf"
)

//go:embed debug_index.html
var templateFS embed.FS

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data any) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html")
	tmpl, err := template.ParseFS(templateFS, "debug_index.html")
	if err != nil {
		slog.Error("failed to parse debug template", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	dataStruct := debugData{
		Title: title,
		Pre:   content,
	}

	if err := tmpl.Execute(w, dataStruct); err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}
	dataType := r.URL.Query().Get("dataType")

	var data any
	var title string

	switch dataType {
	case "trains":
		data = webUI.Tracker.Trains()
		title = "Live Feed - Trains"
	case "favorites":
		data = webUI.Favorites.Favorites()
		title = "Favorites - Station Pairs"
	case "favorite_results":
		data = webUI.Favorites.Results()
		title = "Favorites - Latest Arrivals"
	case "schedules":
		data = webUI.RefData.Schedules()
		title = "Reference Data - Schedules"
	case "stops":
		data = webUI.RefData.Stops()
		title = "Reference Data - Stops"
	case "advisories":
		data = webUI.RefData.Advisories()
		title = "Reference Data - Advisories"
	default:
		data = map[string]string{
			"error": "Please use one of the following: trains, favorites, favorite_results, schedules, stops, advisories.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
