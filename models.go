package authclient

import (
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region phone numbers without a country
// prefix are parsed against.
var DefaultPhoneRegion = "VN"

// User is the authenticated principal as the client sees it.
type User struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	Name              string   `json:"name"`
	FirstName         string   `json:"first_name,omitempty"`
	LastName          string   `json:"last_name,omitempty"`
	Role              UserRole `json:"role"`
	IsEmailVerified   bool     `json:"is_email_verified"`
	Phone             string   `json:"phone_number,omitempty"`
	DateOfBirth       string   `json:"date_of_birth,omitempty"`
	BloodType         string   `json:"blood_type,omitempty"`
	Address           string   `json:"address,omitempty"`
	EmergencyContact  string   `json:"emergency_contact,omitempty"`
	MedicalConditions string   `json:"medical_conditions,omitempty"`
}

// wireID accepts the id as either a JSON string or a JSON number.
type wireID string

func (w *wireID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*w = wireID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*w = wireID(n.String())
	return nil
}

// wireUser is the shape the server sends. Role arrives as free text and
// the id may be numeric, both are normalized in userFromWire.
type wireUser struct {
	ID                wireID `json:"id"`
	Email             string `json:"email"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Role              string `json:"role"`
	IsEmailVerified   *bool  `json:"is_email_verified"`
	EmailVerified     *bool  `json:"email_verified"`
	Phone             string `json:"phone_number"`
	DateOfBirth       string `json:"date_of_birth"`
	BloodType         string `json:"blood_type"`
	Address           string `json:"address"`
	EmergencyContact  string `json:"emergency_contact"`
	MedicalConditions string `json:"medical_conditions"`
}

// userFromWire validates the server payload and builds a User. Decoding
// fails closed: a payload without an id or email is rejected rather
// than half-populated, and the role string goes through ParseRole so an
// unknown role can never come back privileged.
func userFromWire(w wireUser) (*User, error) {
	id := strings.TrimSpace(string(w.ID))
	if id == "" || w.Email == "" {
		return nil, goerrors.New("malformed user payload from server", goerrors.CategoryInternal)
	}

	verified := false
	if w.IsEmailVerified != nil {
		verified = *w.IsEmailVerified
	} else if w.EmailVerified != nil {
		verified = *w.EmailVerified
	}

	return &User{
		ID:                id,
		Email:             w.Email,
		Name:              displayName(w.FirstName, w.LastName, w.Email),
		FirstName:         w.FirstName,
		LastName:          w.LastName,
		Role:              ParseRole(w.Role),
		IsEmailVerified:   verified,
		Phone:             w.Phone,
		DateOfBirth:       w.DateOfBirth,
		BloodType:         w.BloodType,
		Address:           w.Address,
		EmergencyContact:  w.EmergencyContact,
		MedicalConditions: w.MedicalConditions,
	}, nil
}

func displayName(first, last, fallback string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		return fallback
	}
	return name
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RegisterRequest mirrors the signup body the server expects.
type RegisterRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Phone             string `json:"phone_number"`
	CitizenID         string `json:"citizen_id"`
	DateOfBirth       string `json:"date_of_birth"`
	EmergencyContact  string `json:"emergency_contact"`
	MedicalConditions string `json:"medical_conditions"`
	Address           string `json:"address"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Phone, validation.By(validPhoneNumber)),
	)
}

func validPhoneNumber(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return fmt.Errorf("invalid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("invalid phone number")
	}

	return nil
}

// ResetPasswordRequest carries the reset-completion form fields.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate runs the local checks the reset flow performs before any
// network call: both fields present, minimum length, and equality.
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.In(r.NewPassword).Error("passwords do not match"),
		),
	)
}
