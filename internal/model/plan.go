package model

import (
	"time"

	"github.com/google/uuid"
)

// Surgery plan status values, in journey order
const (
	PlanStatusPlanning  = "planning"
	PlanStatusPreOp     = "pre_op"
	PlanStatusSurgery   = "surgery"
	PlanStatusPostOp    = "post_op"
	PlanStatusCompleted = "completed"
)

// planPhaseLabels maps plan status onto the timeline phase label shown to
// patients. Order matters for the timeline rendering.
var planPhaseLabels = map[string]string{
	PlanStatusPlanning:  "Planning",
	PlanStatusPreOp:     "Pre-Op Preparation",
	PlanStatusSurgery:   "Surgery",
	PlanStatusPostOp:    "Post-Op Recovery",
	PlanStatusCompleted: "Completed",
}

// PlanStatusOrder lists the journey phases in display order
var PlanStatusOrder = []string{
	PlanStatusPlanning,
	PlanStatusPreOp,
	PlanStatusSurgery,
	PlanStatusPostOp,
	PlanStatusCompleted,
}

// SurgeryPlan is the scheduling/status record for a patient's procedure
type SurgeryPlan struct {
	Base
	PatientID     uuid.UUID `json:"patient_id" db:"patient_id"`
	ProcedureType string    `json:"procedure_type" db:"procedure_type"`
	ClinicName    string    `json:"clinic_name" db:"clinic_name"`
	SurgeonName   string    `json:"surgeon_name" db:"surgeon_name"`
	SurgeryDate   time.Time `json:"surgery_date" db:"surgery_date"`
	Status        string    `json:"status" db:"status"`
}

// PhaseLabel returns the timeline label for the plan's current status
func (p *SurgeryPlan) PhaseLabel() string {
	if label, ok := planPhaseLabels[p.Status]; ok {
		return label
	}
	return "Unknown"
}

// ValidPlanStatus reports whether status is a known journey phase
func ValidPlanStatus(status string) bool {
	_, ok := planPhaseLabels[status]
	return ok
}

// SurgeryPlanView decorates a plan with its derived phase label
type SurgeryPlanView struct {
	SurgeryPlan
	PhaseLabel string `json:"phase_label"`
}

// NewSurgeryPlanView builds the API representation of a plan
func NewSurgeryPlanView(p *SurgeryPlan) *SurgeryPlanView {
	return &SurgeryPlanView{
		SurgeryPlan: *p,
		PhaseLabel:  p.PhaseLabel(),
	}
}

// CreatePlanRequest represents plan creation parameters
type CreatePlanRequest struct {
	PatientID     string    `json:"patient_id" binding:"required,uuid"`
	ProcedureType string    `json:"procedure_type" binding:"required"`
	ClinicName    string    `json:"clinic_name" binding:"required"`
	SurgeonName   string    `json:"surgeon_name" binding:"required"`
	SurgeryDate   time.Time `json:"surgery_date" binding:"required"`
	Status        string    `json:"status" binding:"omitempty,oneof=planning pre_op surgery post_op completed"`
}

// UpdatePlanRequest represents plan update parameters
type UpdatePlanRequest struct {
	ProcedureType *string    `json:"procedure_type"`
	ClinicName    *string    `json:"clinic_name"`
	SurgeonName   *string    `json:"surgeon_name"`
	SurgeryDate   *time.Time `json:"surgery_date"`
	Status        *string    `json:"status" binding:"omitempty,oneof=planning pre_op surgery post_op completed"`
}

// PlanFilter represents plan list parameters
type PlanFilter struct {
	PatientID uuid.UUID `json:"patient_id" form:"patient_id"`
	Status    string    `json:"status" form:"status" binding:"omitempty,oneof=planning pre_op surgery post_op completed"`
}
