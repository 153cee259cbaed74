package model

import "time"

// Operator is a signed-in console user. Every operator is an admin.
type Operator struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
