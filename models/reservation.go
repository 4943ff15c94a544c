package models

import (
	"math"
	"time"
)

// Step is the current stage of the multi-step booking flow.
type Step string

const (
	StepExtras    Step = "extras"
	StepConductor Step = "conductor"
	StepPayment   Step = "payment"
	StepCompleted Step = "completed"
)

// ReservationBase holds the slice written when a vehicle is selected.
// It must exist before any other slice may be written.
type ReservationBase struct {
	Vehicle        Vehicle           `json:"vehicle" validate:"required"`
	PickupLocation string            `json:"pickupLocation" validate:"required"`
	ReturnLocation string            `json:"returnLocation" validate:"required"`
	PickupTime     time.Time         `json:"pickupTime" validate:"required"`
	ReturnTime     time.Time         `json:"returnTime" validate:"required,gtfield=PickupTime"`
	Protection     *ProtectionPolicy `json:"protection,omitempty"`
	Pricing        *PricingBreakdown `json:"pricing,omitempty"`
}

// RentalDays returns the number of billable days, never less than one.
func (b ReservationBase) RentalDays() int {
	hours := b.ReturnTime.Sub(b.PickupTime).Hours()
	days := int(math.Ceil(hours / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// SelectedExtra is one chosen add-on. Legacy sessions may have persisted only
// the bare ID; the consolidator rehydrates those from the extras catalog.
type SelectedExtra struct {
	ID              string  `json:"id"`
	Name            string  `json:"name,omitempty"`
	UnitPricePerDay float64 `json:"unitPricePerDay"`
	Quantity        int     `json:"quantity"`
}

// Hydrated reports whether the extra carries a full record rather than a bare ID.
func (e SelectedExtra) Hydrated() bool {
	return e.Name != "" || e.UnitPricePerDay > 0
}

// Conductor is the driver record collected in the third step.
type Conductor struct {
	FirstName    string        `json:"firstName" validate:"required"`
	LastName     string        `json:"lastName" validate:"required"`
	Email        string        `json:"email" validate:"required,email"`
	Phone        string        `json:"phone" validate:"required"`
	DocumentType string        `json:"documentType" validate:"required"`
	DocumentID   string        `json:"documentId" validate:"required"`
	BirthDate    string        `json:"birthDate,omitempty"`
	Address      string        `json:"address" validate:"required"`
	City         string        `json:"city,omitempty"`
	PostalCode   string        `json:"postalCode,omitempty"`
	Country      string        `json:"country,omitempty"`
	SecondDriver *SecondDriver `json:"secondDriver,omitempty"`
}

// SecondDriver is the optional additional driver.
type SecondDriver struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	DocumentID string `json:"documentId" validate:"required"`
}

// ReservationView is the consolidated read model produced for any step's UI.
type ReservationView struct {
	Base      *ReservationBase `json:"base"`
	Extras    []SelectedExtra  `json:"extras"`
	Conductor *Conductor       `json:"conductor,omitempty"`
	Step      Step             `json:"step"`
	Pricing   PricingBreakdown `json:"pricing"`
}
