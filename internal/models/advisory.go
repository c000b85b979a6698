package models

// Advisory is a service advisory. Identity is the title; upstream does not
// deduplicate colliding titles and neither do we.
type Advisory struct {
	Title         string `json:"title"`
	DatesAffected string `json:"dates_affected"`
	Description   string `json:"description"`
}

// AdvisoryFeed is the advisory endpoint envelope. Current may be null
// upstream.
type AdvisoryFeed struct {
	Current    []string   `json:"current"`
	Advisories []Advisory `json:"advisory"`
}
