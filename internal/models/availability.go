package models

import "time"

// RoomAvailability is one ledger row keyed by (RoomID, Date).
type RoomAvailability struct {
	RoomID         int64     `json:"room_id"`
	Date           time.Time `json:"date"`
	AvailableSlots int       `json:"available_slots"`
	SpecialPrice   *int64    `json:"special_price,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DayAvailability is the resolved view of a single night: a ledger row when one
// exists, otherwise the catalog defaults (Fallback=true).
type DayAvailability struct {
	Date           time.Time `json:"date"`
	AvailableSlots int       `json:"available_slots"`
	SpecialPrice   *int64    `json:"special_price,omitempty"`
	NightlyRate    int64     `json:"nightly_rate"`
	Fallback       bool      `json:"fallback"`
}
