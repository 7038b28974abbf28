package model

import "time"

// Event types published after a successful commit or cancel. Consumed by the
// notification collaborators; never read back by this service.
const (
	EventRentalConfirmed = "rental.confirmed"
	EventRentalCancelled = "rental.cancelled"
)

type RentalEvent struct {
	Type               string    `json:"type"`
	RentalID           string    `json:"rental_id"`
	CartID             int       `json:"cart_id"`
	RenterName         string    `json:"renter_name"`
	Holes              int       `json:"holes"`
	StartTime          time.Time `json:"start_time"`
	BlockEnd           time.Time `json:"block_end"`
	Price              int       `json:"price"`
	NotificationMethod string    `json:"notification_method"`
	Phone              string    `json:"phone,omitempty"`
	Email              string    `json:"email,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}
