package models

import "time"

// Bus is one row of the active buses table. Read-only for travellers and
// immutable within a booking session.
type Bus struct {
	ID            int64     `json:"id"`
	CompanyID     int64     `json:"company_id"`
	Company       string    `json:"company"`
	From          string    `json:"from"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Price         int64     `json:"price"`
	Seats         int       `json:"seats"`
	Status        string    `json:"status"`
	DriverID      int64     `json:"driver_id,omitempty"`
	DriverName    string    `json:"driver"`
	DriverContact string    `json:"contact"`
	CreatedAt     time.Time `json:"created_at"`
}

// DisplayStatus falls back to "Scheduled" for rows without a status.
func (b Bus) DisplayStatus() string {
	if b.Status == "" {
		return "Scheduled"
	}
	return b.Status
}

// BusInput is the admin write shape. CompanyID is always taken from the
// admin session, never from the request body.
type BusInput struct {
	From          string `json:"from" binding:"required"`
	Destination   string `json:"to" binding:"required"`
	DepartureTime string `json:"departure_time" binding:"required"`
	ArrivalTime   string `json:"arrival_time" binding:"required"`
	Price         int64  `json:"price" binding:"required,gt=0"`
	Seats         int    `json:"seats" binding:"required,min=1,max=100"`
	Status        string `json:"status"`
	DriverName    string `json:"driver"`
	DriverContact string `json:"contact"`
}

// BusRecord is a validated BusInput ready to be written.
type BusRecord struct {
	ID            int64
	CompanyID     int64
	From          string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Price         int64
	Seats         int
	Status        string
	DriverName    string
	DriverContact string
}
