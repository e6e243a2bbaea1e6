package models

import "time"

// Game описывает настольную игру в коллекции пользователя.
type Game struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	OwnerID     int       `json:"owner_id" db:"owner_id"`
	PlayersMin  *int      `json:"players_min,omitempty" db:"players_min"`
	PlayersMax  *int      `json:"players_max,omitempty" db:"players_max"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	ImageKey *string `json:"-" db:"image_key"`
	ImageURL *string `json:"image_url,omitempty" db:"-"`

	Scoresheets []Scoresheet `json:"scoresheets,omitempty" db:"-"`
}
