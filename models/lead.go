package models

import "time"

// Lead is a sign-up for the free lecture captured by the landing page form
type Lead struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}
