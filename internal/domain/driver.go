package domain

import "time"

// Driver represents a driver in the system.
type Driver struct {
	ID          string
	Name        string
	Phone       string
	Email       string
	IsAvailable bool
	CreatedAt   time.Time
}

// Vehicle is the active vehicle profile of a driver. A driver owns at most one.
type Vehicle struct {
	ID                 string
	DriverID           string
	Make               string
	Model              string
	Color              string
	Year               int
	RegistrationNumber string
	Comfort            ComfortClass
}
