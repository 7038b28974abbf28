package model

import (
	"time"
)

const (
	RentalStatusConfirmed = "confirmed"
	RentalStatusCancelled = "cancelled"
)

const (
	NotifyByEmail = "email"
	NotifyBySMS   = "sms"
)

// Rental is a claim on one cart for an occupancy interval. PlayEnd and
// BlockEnd are derived from the duration policy at commit time and stored so
// range queries can run against them; the policy remains the source of truth.
type Rental struct {
	ID                 string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CartID             int               `json:"cart_id" bson:"cart_id" validate:"required,min=1"`
	RenterName         string            `json:"renter_name" bson:"renter_name" validate:"required,min=2,max=100"`
	Phone              string            `json:"phone" bson:"phone" validate:"required,e164"`
	Email              string            `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	IsMember           bool              `json:"is_member" bson:"is_member"`
	MembershipNumber   string            `json:"membership_number,omitempty" bson:"membership_number,omitempty" validate:"omitempty,min=2,max=30"`
	HasDoctorsNote     bool              `json:"has_doctors_note" bson:"has_doctors_note"`
	Holes              int               `json:"holes" bson:"holes" validate:"required,oneof=9 18"`
	StartTime          time.Time         `json:"start_time" bson:"start_time" validate:"required"`
	PlayEnd            time.Time         `json:"play_end" bson:"play_end"`
	BlockEnd           time.Time         `json:"block_end" bson:"block_end"`
	Price              int               `json:"price" bson:"price" validate:"min=0"`
	Status             string            `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled"`
	NotificationMethod string            `json:"notification_method" bson:"notification_method" validate:"required,oneof=email sms"`
	ContactInfo        string            `json:"contact_info,omitempty" bson:"contact_info,omitempty" validate:"omitempty,max=150"`
	Notes              string            `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=500"`
	Metadata           map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	ReminderSent       bool              `json:"reminder_sent" bson:"reminder_sent"`
	CreatedAt          time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// RentalRequest is the booking payload accepted on the commit surface. It is
// never persisted; a successful commit produces a Rental.
type RentalRequest struct {
	CartID             int               `json:"cart_id" validate:"required,min=1"`
	RenterName         string            `json:"renter_name" validate:"required,min=2,max=100"`
	Phone              string            `json:"phone" validate:"required"`
	Email              string            `json:"email,omitempty" validate:"omitempty,email"`
	IsMember           bool              `json:"is_member"`
	MembershipNumber   string            `json:"membership_number,omitempty" validate:"omitempty,min=2,max=30"`
	HasDoctorsNote     bool              `json:"has_doctors_note"`
	Holes              int               `json:"holes" validate:"required,oneof=9 18"`
	StartTime          time.Time         `json:"start_time" validate:"required"`
	NotificationMethod string            `json:"notification_method" validate:"required,oneof=email sms"`
	ContactInfo        string            `json:"contact_info,omitempty" validate:"omitempty,max=150"`
	Notes              string            `json:"notes,omitempty" validate:"omitempty,max=500"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}
