package models

// PlaceholderStation is the "no station chosen" sentinel used by clients
// before the user has picked an origin or destination.
const PlaceholderStation = "---"

// StationPair is a user-saved origin/destination query. Ordered: the reverse
// pair is a different favorite.
type StationPair struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Key returns the identity used for favorite bookkeeping.
func (p StationPair) Key() string {
	return p.Start + "-" + p.End
}
