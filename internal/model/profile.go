package model

import (
	"strings"
	"time"
)

// Profile roles. A profile's role decides its row-level scope: patients
// only ever see rows keyed to their own id, staff roles see all rows.
const (
	RolePatient     = "patient"
	RoleNurse       = "nurse"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
	RoleSales       = "sales"
)

// Service regions
const (
	RegionAustralia  = "AU"
	RegionNewZealand = "NZ"
	RegionThailand   = "TH"
)

// Profile status constants
const (
	ProfileStatusActive   = "active"
	ProfileStatusPending  = "pending"
	ProfileStatusInactive = "inactive"
	ProfileStatusLocked   = "locked"
)

// Profile represents an authenticated portal identity
type Profile struct {
	Base
	Email            string     `json:"email" db:"email"`
	FullName         string     `json:"full_name" db:"full_name"`
	Role             string     `json:"role" db:"role"`
	Region           string     `json:"region" db:"region"`
	Status           string     `json:"status" db:"status"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	EmailVerified    bool       `json:"email_verified" db:"email_verified"`
	LoginAttempts    int        `json:"-" db:"login_attempts"`
	LastLoginAttempt time.Time  `json:"-" db:"last_login_attempt"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// IsStaff reports whether the profile holds a provider-side role
func (p *Profile) IsStaff() bool {
	return p.Role != RolePatient
}

// ValidRole reports whether role is one of the known portal roles
func ValidRole(role string) bool {
	switch role {
	case RolePatient, RoleNurse, RoleCoordinator, RoleAdmin, RoleSales:
		return true
	}
	return false
}

// ValidRegion reports whether region is a supported service region
func ValidRegion(region string) bool {
	switch region {
	case RegionAustralia, RegionNewZealand, RegionThailand:
		return true
	}
	return false
}

// ProfileFilter represents patient list search parameters. SearchTerm is a
// case-insensitive substring match against full name and email.
type ProfileFilter struct {
	SearchTerm string     `json:"search_term" form:"search_term"`
	Region     string     `json:"region" form:"region"`
	Role       string     `json:"role" form:"role"`
	Status     string     `json:"status" form:"status"`
	Pagination Pagination `json:"-"`
}

// Matches applies the filter to a profile in memory. Kept alongside the SQL
// filter so handler tests can assert the same semantics.
func (f *ProfileFilter) Matches(p *Profile) bool {
	if f.Region != "" && p.Region != f.Region {
		return false
	}
	if f.Role != "" && p.Role != f.Role {
		return false
	}
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(p.FullName), term) &&
			!strings.Contains(strings.ToLower(p.Email), term) {
			return false
		}
	}
	return true
}

// CreateStaffRequest represents admin-side staff profile creation
type CreateStaffRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=nurse coordinator admin sales"`
	Region   string `json:"region" binding:"required,oneof=AU NZ TH"`
}

// UpdateProfileRequest represents self-service profile updates
type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Region   *string `json:"region" binding:"omitempty,oneof=AU NZ TH"`
}
