package model

import "time"

type Pet struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Birthday  *time.Time `json:"birthday"`
	Breed     string     `json:"breed"`
	WeightKg  *float64   `json:"weight_kg"`
	Gender    string     `json:"gender"`
	Features  string     `json:"features"`
	CreatedAt time.Time  `json:"created_at"`
}
