package domain

import "time"

// League represents one tournament league
type League struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Season    string    `json:"season,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLeagueRequest is a request to create a new league
type CreateLeagueRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Season string `json:"season,omitempty"`
}

// ToLeague converts the request into a League
func (r *CreateLeagueRequest) ToLeague() League {
	now := time.Now()
	return League{
		ID:        r.ID,
		Name:      r.Name,
		Season:    r.Season,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
