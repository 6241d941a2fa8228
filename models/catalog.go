package models

// Service is one bookable catalog item owned by the scheduling backend.
type Service struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Location is one of the closed set of places a service can be booked at.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
