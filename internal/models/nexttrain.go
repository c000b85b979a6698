package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NextTrain is one predicted journey between a station pair, possibly with a
// single connection leg. The connection variant is decided once at decode
// time: Connection is nil for direct journeys and for malformed upstream
// records that claim a connection but omit its fields.
type NextTrain struct {
	OrigTrain        string `json:"origTrain"`
	OrigLine         string `json:"origLine"`
	OrigDeparture    string `json:"origDeparture"`
	OrigArrival      string `json:"origArrival"`
	OrigDelay        string `json:"origDelay"`
	OrigDelayMinutes int    `json:"origDelayMinutes"`
	Direct           bool   `json:"direct"`

	Connection *ConnectionLeg `json:"connection,omitempty"`
}

// ConnectionLeg is the second leg of a journey that requires a transfer.
type ConnectionLeg struct {
	Station      string `json:"station"`
	Train        string `json:"train"`
	Line         string `json:"line"`
	Departure    string `json:"departure"`
	Arrival      string `json:"arrival"`
	Delay        string `json:"delay"`
	DelayMinutes int    `json:"delayMinutes"`
}

// nextTrainWire mirrors the vendor feed: string-encoded booleans, delay text
// such as "On time" or "5 min", and nullable term_* fields.
type nextTrainWire struct {
	OrigTrain     string  `json:"orig_train"`
	OrigLine      string  `json:"orig_line"`
	OrigDeparture string  `json:"orig_departure_time"`
	OrigArrival   string  `json:"orig_arrival_time"`
	OrigDelay     string  `json:"orig_delay"`
	TermTrain     *string `json:"term_train"`
	TermLine      *string `json:"term_line"`
	TermDeparture *string `json:"term_depart_time"`
	TermArrival   *string `json:"term_arrival_time"`
	TermDelay     *string `json:"term_delay"`
	Connection    string  `json:"Connection"`
	IsDirect      string  `json:"isdirect"`
}

// UnmarshalJSON converts the wire quirks into typed fields so that no
// string-encoded boolean or delay comparison survives past ingestion.
func (n *NextTrain) UnmarshalJSON(data []byte) error {
	var wire nextTrainWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	n.OrigTrain = wire.OrigTrain
	n.OrigLine = wire.OrigLine
	n.OrigDeparture = wire.OrigDeparture
	n.OrigArrival = wire.OrigArrival
	n.OrigDelay = wire.OrigDelay
	n.OrigDelayMinutes = ParseDelayMinutes(wire.OrigDelay)
	n.Direct = wire.IsDirect == "true"
	n.Connection = nil

	if !n.Direct {
		// A connection leg is only materialized when the upstream record is
		// complete; partially-populated term fields are treated as absent.
		if wire.TermTrain != nil && wire.TermLine != nil &&
			wire.TermDeparture != nil && wire.TermArrival != nil {
			delay := ""
			if wire.TermDelay != nil {
				delay = *wire.TermDelay
			}
			n.Connection = &ConnectionLeg{
				Station:      wire.Connection,
				Train:        *wire.TermTrain,
				Line:         *wire.TermLine,
				Departure:    *wire.TermDeparture,
				Arrival:      *wire.TermArrival,
				Delay:        delay,
				DelayMinutes: ParseDelayMinutes(delay),
			}
		}
	}
	return nil
}

// ParseDelayMinutes extracts the signed minute offset from vendor delay text.
// "On time", blanks, and unparseable text all mean zero.
func ParseDelayMinutes(delay string) int {
	delay = strings.TrimSpace(delay)
	if delay == "" || strings.EqualFold(delay, "On time") {
		return 0
	}
	fields := strings.Fields(delay)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return v
}
