package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Train is one live vehicle from the train-view feed. The whole list is
// replaced on every poll tick; structural equality is used for change
// detection.
type Train struct {
	TrainNo     string   `json:"trainNo"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Line        string   `json:"line"`
	Dest        string   `json:"dest"`
	CurrentStop string   `json:"currentStop"`
	NextStop    string   `json:"nextStop"`
	Consist     []string `json:"consist"`
	LateMinutes int      `json:"lateMinutes"`
}

// trainWire mirrors the vendor feed, which encodes coordinates as numeric
// strings and the consist as a comma-separated list.
type trainWire struct {
	TrainNo     string          `json:"trainno"`
	Lat         string          `json:"lat"`
	Lon         string          `json:"lon"`
	Line        string          `json:"line"`
	Dest        string          `json:"dest"`
	CurrentStop string          `json:"currentstop"`
	NextStop    string          `json:"nextstop"`
	Consist     string          `json:"consist"`
	Late        json.RawMessage `json:"late"`
}

// UnmarshalJSON decodes the vendor representation into typed fields.
// Unparsable coordinates become 0,0 rather than an error; the feed routinely
// carries blanks for trains between GPS fixes.
func (t *Train) UnmarshalJSON(data []byte) error {
	var wire trainWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	t.TrainNo = wire.TrainNo
	t.Lat = parseCoordinate(wire.Lat)
	t.Lon = parseCoordinate(wire.Lon)
	t.Line = wire.Line
	t.Dest = wire.Dest
	t.CurrentStop = wire.CurrentStop
	t.NextStop = wire.NextStop
	t.Consist = splitConsist(wire.Consist)
	t.LateMinutes = parseLate(wire.Late)
	return nil
}

func parseCoordinate(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func splitConsist(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	cars := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cars = append(cars, trimmed)
		}
	}
	return cars
}

// parseLate accepts either a bare number or a quoted numeric string; the
// upstream feed has shipped both over time. Anything else means on time.
func parseLate(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, convErr := strconv.Atoi(strings.TrimSpace(s)); convErr == nil {
			return v
		}
	}
	return 0
}

// EquipmentClass infers the rolling-stock class from the numeric range of the
// first car in the consist.
func (t Train) EquipmentClass() string {
	if len(t.Consist) == 0 {
		return "unknown"
	}
	car, err := strconv.Atoi(t.Consist[0])
	if err != nil {
		return "unknown"
	}
	switch {
	case car >= 101 && car <= 460:
		return "Silverliner IV"
	case car >= 701 && car <= 876:
		return "Silverliner V"
	case car >= 2301 && car <= 2550:
		return "Comet Coach"
	default:
		return "unknown"
	}
}
