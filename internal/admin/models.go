package admin

import "time"

// Bucket is one bar of a time histogram
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

type Totals struct {
	Users        int `json:"users"`
	Donations    int `json:"donations"`
	Requests     int `json:"requests"`
	Interests    int `json:"interests"`
	Matches      int `json:"matches"`
	Certificates int `json:"certificates"`
}

// Dashboard is the admin overview
type Dashboard struct {
	Totals             Totals         `json:"totals"`
	UsersByRole        map[string]int `json:"usersByRole"`
	DonationsByStatus  map[string]int `json:"donationsByStatus"`
	RequestsByStatus   map[string]int `json:"requestsByStatus"`
	InterestsByStatus  map[string]int `json:"interestsByStatus"`
	MatchesByStatus    map[string]int `json:"matchesByStatus"`
	DonationsLast7Days []Bucket       `json:"donationsLast7Days"`
	MatchesLast6Months []Bucket       `json:"matchesLast6Months"`
	GeneratedAt        time.Time      `json:"generatedAt"`
}

// StatusCounts holds per-entity counts keyed by status
type StatusCounts struct {
	Donations map[string]int `json:"donations"`
	Requests  map[string]int `json:"requests"`
	Interests map[string]int `json:"interests"`
	Matches   map[string]int `json:"matches"`
}
