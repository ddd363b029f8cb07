package entities

import "time"

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

type Reservation struct {
	ID                int64             `json:"id"`
	BusinessID        int64             `json:"business_id"`
	ResourceID        string            `json:"resource_id"`
	CustomerChannelID string            `json:"customer_channel_id"`
	StartsAt          time.Time         `json:"starts_at"`
	EndsAt            time.Time         `json:"ends_at"`
	Status            ReservationStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
}

// WindowsOverlap reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. A booking ending exactly when another starts does
// not conflict.
func WindowsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
