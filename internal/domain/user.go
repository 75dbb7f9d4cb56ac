package domain

import "time"

// ============================================================
// Users
// ============================================================

// UserType is the role of a user record.
type UserType string

const (
	UserAnonymous UserType = "Anonymous"
	UserRegular   UserType = "Regular"
	UserAdmin     UserType = "Admin"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	switch t {
	case UserAnonymous, UserRegular, UserAdmin:
		return true
	}
	return false
}

// User is a row of the users table. UserID is the device identity for
// anonymous visitors and the auth UUID once promoted; DeviceID keeps the
// original device identity as a secondary key.
type User struct {
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id,omitempty"`
	UserType  UserType  `json:"user_type"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Company   string    `json:"company,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is the set of fields filled in at signup.
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// PromoteRequest is the body of POST /v1/users/promote.
type PromoteRequest struct {
	DeviceID string  `json:"deviceId"`
	Profile  Profile `json:"profile"`
}

// UserTypeRequest is the body of PATCH /v1/users/{userId}/type.
type UserTypeRequest struct {
	UserType UserType `json:"userType"`
}

// AuthClaims are the claims this service reads from Supabase access tokens.
type AuthClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// DeviceIdentity is returned by POST /v1/identity/device.
type DeviceIdentity struct {
	DeviceID string `json:"deviceId"`
}
