package api_test

import (
	"fmt"
	"testing"
	"time"
)

var emailSeq int

// uniqueEmail generates a fresh signup address per call
func uniqueEmail() string {
	emailSeq++
	return fmt.Sprintf("patient_%d_%d@example.com", time.Now().UnixNano(), emailSeq)
}

// requireStaff skips tests that need the seeded admin account
func requireStaff(t *testing.T) {
	t.Helper()
	if adminToken == "" {
		t.Skip("no staff credentials available, set PORTAL_TEST_ADMIN_EMAIL / PORTAL_TEST_ADMIN_PASSWORD")
	}
}

// createTestPlan creates a surgery plan for the primary test patient
func createTestPlan(t *testing.T) string {
	t.Helper()
	requireStaff(t)

	resp := makeRequest("POST", "/plans", map[string]interface{}{
		"patient_id":     patientID,
		"procedure_type": "hip_replacement",
		"clinic_name":    "Harbour Orthopaedics",
		"surgeon_name":   "Dr. Reyes",
		"surgery_date":   time.Now().Add(14 * 24 * time.Hour).Format(time.RFC3339),
	}, adminToken)
	if !resp.Success {
		t.Fatalf("Failed to create test plan: %s", resp.Message)
	}
	return resp.GetString("id")
}

// createTestTask attaches a task to a plan, due at the given time
func createTestTask(t *testing.T, planID string, due time.Time) string {
	t.Helper()
	requireStaff(t)

	resp := makeRequest("POST", "/tasks", map[string]interface{}{
		"surgery_plan_id": planID,
		"title":           "Walk 10 minutes",
		"description":     "Short walk around the ward",
		"due_date":        due.Format(time.RFC3339),
		"task_type":       "exercise",
	}, adminToken)
	if !resp.Success {
		t.Fatalf("Failed to create test task: %s", resp.Message)
	}
	return resp.GetString("id")
}
