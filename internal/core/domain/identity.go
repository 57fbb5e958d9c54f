package domain

import "errors"

// Role is the fixed, closed set of portal roles.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleRepresentative Role = "representative"
	RoleEmployee       Role = "employee"
	RoleClient         Role = "client"
	RoleUser           Role = "user"
)

const (
	ClientHome = "/dashboard"
	StaffHome  = "/staff/dashboard"
	LoginPath  = "/login"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnknownRole        = errors.New("unknown role")
)

// Valid reports whether r is one of the portal roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRepresentative, RoleEmployee, RoleClient, RoleUser:
		return true
	}
	return false
}

// IsStaff reports whether r belongs to the back-office role class.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleRepresentative || r == RoleEmployee
}

// Home returns the default dashboard for the role class.
func (r Role) Home() string {
	if r.IsStaff() {
		return StaffHome
	}
	return ClientHome
}

// Identity is an authenticated principal. Role never changes while a session
// holding the identity is alive.
type Identity struct {
	ID           string `json:"id" bson:"id"`
	Email        string `json:"email" bson:"email"`
	FirstName    string `json:"first_name" bson:"first_name"`
	LastName     string `json:"last_name" bson:"last_name"`
	Role         Role   `json:"role" bson:"role"`
	Phone        string `json:"phone,omitempty" bson:"phone,omitempty"`
	CompanyID    string `json:"company_id,omitempty" bson:"company_id,omitempty"`
	CompanyName  string `json:"company_name,omitempty" bson:"company_name,omitempty"`
	IsSuperAdmin bool   `json:"is_super_admin,omitempty" bson:"is_super_admin,omitempty"`
}

// Validate checks the fields every stored identity must carry.
func (i Identity) Validate() error {
	if i.Email == "" {
		return errors.New("identity: missing email")
	}
	if !i.Role.Valid() {
		return ErrUnknownRole
	}
	return nil
}

// ProfileUpdate carries the user-editable part of an identity.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Phone     string
}

// Apply returns a copy of i with the editable fields replaced. Email and role
// are left untouched.
func (p ProfileUpdate) Apply(i Identity) Identity {
	i.FirstName = p.FirstName
	i.LastName = p.LastName
	i.Phone = p.Phone
	return i
}
