package models

import (
	"railwatch.transitlabs.org/internal/clock"
)

// ResponseModel is the envelope for every JSON API response.
type ResponseModel struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
	Data        any    `json:"data,omitempty"`
}

// ResponseCurrentTime returns the timestamp stamped onto responses.
func ResponseCurrentTime(c clock.Clock) int64 {
	return c.NowUnixMilli()
}

// NewEntryResponse wraps a single entry in the standard envelope.
func NewEntryResponse(data any, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        200,
		CurrentTime: ResponseCurrentTime(c),
		Text:        "OK",
		Version:     2,
		Data:        data,
	}
}

// NewListResponse wraps a list payload in the standard envelope.
func NewListResponse(list any, c clock.Clock) ResponseModel {
	return NewEntryResponse(list, c)
}
