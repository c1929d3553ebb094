package domain

import "time"

// Airport is an admin-managed catalog record. The booking core only reads
// these.
type Airport struct {
	ID        int64
	Code      string
	Name      string
	City      string
	Country   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
