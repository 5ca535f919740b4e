package model

import (
	"github.com/google/uuid"
)

// AccessScope carries the row-level visibility of the calling identity.
// Repositories translate it into WHERE predicates: a patient scope pins
// every query to its own patient_id, a staff scope is unrestricted.
// This is the portal's equivalent of database row-level security, evaluated
// per query on the server side.
type AccessScope struct {
	UserID uuid.UUID
	Role   string
	Region string
}

// Staff reports whether the scope may cross patient boundaries
func (s AccessScope) Staff() bool {
	return s.Role != RolePatient && s.Role != ""
}

// CanAccessPatient reports whether rows keyed to patientID are visible
func (s AccessScope) CanAccessPatient(patientID uuid.UUID) bool {
	if s.Staff() {
		return true
	}
	return s.UserID == patientID
}

// CanWritePatient reports whether rows keyed to patientID are writable.
// Write visibility mirrors read visibility: patients write solely their
// own rows, staff write across all rows.
func (s AccessScope) CanWritePatient(patientID uuid.UUID) bool {
	return s.CanAccessPatient(patientID)
}
