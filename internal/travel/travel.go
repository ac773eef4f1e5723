// Package travel holds the static list of access routes shown next to resort
// conditions. Road status is not looked up; it points users at Caltrans.
package travel

import "time"

type Route struct {
	Name        string   `json:"name"`
	Highway     string   `json:"highway"`
	Status      string   `json:"status"`
	Description string   `json:"description,omitempty"`
	Incidents   []string `json:"incidents,omitempty"`
}

type Conditions struct {
	Routes      []Route   `json:"routes"`
	LastUpdated time.Time `json:"lastUpdated"`
}

const statusPlaceholder = "Check Caltrans"

var routes = []Route{
	{
		Name:        "I-80 to Palisades/Northstar",
		Highway:     "I-80",
		Status:      statusPlaceholder,
		Description: "Primary route from Bay Area to North Lake Tahoe",
	},
	{
		Name:        "US-50 to Heavenly",
		Highway:     "US-50",
		Status:      statusPlaceholder,
		Description: "Primary route from Bay Area to South Lake Tahoe",
	},
	{
		Name:        "CA-88 to Kirkwood",
		Highway:     "CA-88",
		Status:      statusPlaceholder,
		Description: "Route from Bay Area to Kirkwood",
	},
}

// Current returns the route list stamped with now.
func Current(now time.Time) Conditions {
	out := make([]Route, len(routes))
	copy(out, routes)
	return Conditions{Routes: out, LastUpdated: now.UTC()}
}
