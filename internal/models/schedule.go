package models

// Day buckets and directions used to key the static schedule data.
const (
	DayMonFri = "mon-fri"
	DaySat    = "sat"
	DaySun    = "sun"

	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// ScheduleStop is one (stop, scheduled time) entry along a scheduled run.
type ScheduleStop struct {
	Stop string `json:"stop"`
	Time string `json:"time"`
}

// TrainSchedule is a scheduled run: a train number plus its stop sequence.
// The stop order is geographic order along the route and must never be
// reordered.
type TrainSchedule struct {
	TrainNo string         `json:"trainNo"`
	Stops   []ScheduleStop `json:"stops"`
}

// ScheduleData maps line code → day bucket → direction → scheduled runs.
type ScheduleData map[string]map[string]map[string][]TrainSchedule

// ValidDay reports whether s is a recognized schedule day bucket.
func ValidDay(s string) bool {
	return s == DayMonFri || s == DaySat || s == DaySun
}

// ValidDirection reports whether s is a recognized schedule direction.
func ValidDirection(s string) bool {
	return s == DirectionInbound || s == DirectionOutbound
}
