package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InsuranceStatus is the declared state of the cardholder's insurance.
// Valid values: "Valid", "Invalid", "Expired".
type InsuranceStatus string

const (
	InsuranceValid   InsuranceStatus = "Valid"
	InsuranceInvalid InsuranceStatus = "Invalid"
	InsuranceExpired InsuranceStatus = "Expired"
)

// IsValid reports whether s is one of the accepted insurance states.
func (s InsuranceStatus) IsValid() bool {
	switch s {
	case InsuranceValid, InsuranceInvalid, InsuranceExpired:
		return true
	}
	return false
}

// Card is the emergency-profile record stored in MongoDB and retrieved
// by bystanders through the short-link page. The vehicle passcode is kept
// only as an argon2id hash and never serialized to JSON.
type Card struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	FullName               string             `bson:"full_name" json:"fullName"`
	UniqueID               string             `bson:"unique_id" json:"uniqueId"`
	InsuranceStatus        InsuranceStatus    `bson:"insurance_status" json:"insuranceStatus"`
	PreferredHospitals     []string           `bson:"preferred_hospitals" json:"preferredHospitals"`
	Allergies              []string           `bson:"allergies" json:"allergies"`
	FamilyDoctorName       string             `bson:"family_doctor_name" json:"familyDoctorName"`
	BloodType              string             `bson:"blood_type" json:"bloodType"`
	CurrentMedication      []string           `bson:"current_medication" json:"currentMedication"`
	EmergencyContactNumber string             `bson:"emergency_contact_number" json:"emergencyContactNumber"`
	VehicleLast4Hash       string             `bson:"vehicle_last4_hash" json:"-"`
	CreatedAt              time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt              time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Coordinates is a GPS fix reported by the bystander's device.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AlertOptions are the togglable content sections of the alert message.
// All default to true when a session opens.
type AlertOptions struct {
	IncludeLocation bool `json:"includeLocation"`
	IncludeMedical  bool `json:"includeMedical"`
	IncludeHotline  bool `json:"includeHotline"`
	IncludeCard     bool `json:"includeCard"`
}

// DefaultAlertOptions returns the options for a freshly opened alert modal.
func DefaultAlertOptions() AlertOptions {
	return AlertOptions{
		IncludeLocation: true,
		IncludeMedical:  true,
		IncludeHotline:  true,
		IncludeCard:     true,
	}
}

// HelperIdentity is the optional name/phone of the bystander sending the
// alert, persisted per client so repeat helpers are prefilled.
type HelperIdentity struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// IsZero reports whether neither field is set.
func (h HelperIdentity) IsZero() bool {
	return h.Name == "" && h.Phone == ""
}
