package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAccessScopeStaff(t *testing.T) {
	assert.False(t, AccessScope{Role: RolePatient}.Staff())
	assert.False(t, AccessScope{}.Staff(), "empty scope must not pass as staff")

	for _, role := range []string{RoleNurse, RoleCoordinator, RoleAdmin, RoleSales} {
		assert.True(t, AccessScope{Role: role}.Staff(), role)
	}
}

func TestAccessScopeCanAccessPatient(t *testing.T) {
	self := uuid.New()
	other := uuid.New()

	patient := AccessScope{UserID: self, Role: RolePatient}
	assert.True(t, patient.CanAccessPatient(self))
	assert.False(t, patient.CanAccessPatient(other))
	assert.False(t, patient.CanWritePatient(other))

	nurse := AccessScope{UserID: uuid.New(), Role: RoleNurse}
	assert.True(t, nurse.CanAccessPatient(other))
	assert.True(t, nurse.CanWritePatient(other))
}

func TestProfileFilterMatches(t *testing.T) {
	p := &Profile{
		Email:    "jane.doe@example.com",
		FullName: "Jane Doe",
		Role:     RolePatient,
		Region:   RegionAustralia,
	}

	assert.True(t, (&ProfileFilter{}).Matches(p))
	assert.True(t, (&ProfileFilter{SearchTerm: "jane"}).Matches(p))
	assert.True(t, (&ProfileFilter{SearchTerm: "DOE@EXAMPLE"}).Matches(p))
	assert.False(t, (&ProfileFilter{SearchTerm: "smith"}).Matches(p))
	assert.True(t, (&ProfileFilter{Region: RegionAustralia}).Matches(p))
	assert.False(t, (&ProfileFilter{Region: RegionThailand}).Matches(p))
	assert.False(t, (&ProfileFilter{Role: RoleNurse}).Matches(p))
}

func TestTokenClaimsScope(t *testing.T) {
	id := uuid.New()
	claims := &TokenClaims{UserID: id, Role: RolePatient, Region: RegionNewZealand}

	scope := claims.Scope()
	assert.Equal(t, id, scope.UserID)
	assert.Equal(t, RolePatient, scope.Role)
	assert.Equal(t, RegionNewZealand, scope.Region)
}
