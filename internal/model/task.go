package model

import (
	"time"

	"github.com/google/uuid"
)

// Recovery task types
const (
	TaskTypeMedication = "medication"
	TaskTypeExercise   = "exercise"
	TaskTypeCheckup    = "checkup"
	TaskTypeWoundCare  = "wound_care"
	TaskTypeEducation  = "education"
	TaskTypeDocument   = "document"
	TaskTypeGeneral    = "general"
)

// Task badges derived from completion state and due date
const (
	TaskBadgeCompleted = "Completed"
	TaskBadgeOverdue   = "Overdue"
	TaskBadgePending   = "Pending"
)

// RecoveryTask is a checklist item attached to a surgery plan
type RecoveryTask struct {
	Base
	SurgeryPlanID uuid.UUID  `json:"surgery_plan_id" db:"surgery_plan_id"`
	PatientID     uuid.UUID  `json:"patient_id" db:"patient_id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	DueDate       time.Time  `json:"due_date" db:"due_date"`
	Completed     bool       `json:"completed" db:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	TaskType      string     `json:"task_type" db:"task_type"`
}

// Badge derives the timeline badge for the task. A task is Overdue exactly
// when it is incomplete and its due date is strictly before now; Completed
// wins over Overdue regardless of due date.
func (t *RecoveryTask) Badge(now time.Time) string {
	if t.Completed {
		return TaskBadgeCompleted
	}
	if t.DueDate.Before(now) {
		return TaskBadgeOverdue
	}
	return TaskBadgePending
}

// RecoveryTaskView decorates a task with its derived badge
type RecoveryTaskView struct {
	RecoveryTask
	Badge string `json:"badge"`
}

// NewRecoveryTaskView builds the API representation of a task
func NewRecoveryTaskView(t *RecoveryTask, now time.Time) *RecoveryTaskView {
	return &RecoveryTaskView{
		RecoveryTask: *t,
		Badge:        t.Badge(now),
	}
}

// CreateTaskRequest represents task creation parameters
type CreateTaskRequest struct {
	SurgeryPlanID string    `json:"surgery_plan_id" binding:"required,uuid"`
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description"`
	DueDate       time.Time `json:"due_date" binding:"required"`
	TaskType      string    `json:"task_type" binding:"omitempty,oneof=medication exercise checkup wound_care education document general"`
}

// UpdateTaskRequest represents task update parameters
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	TaskType    *string    `json:"task_type" binding:"omitempty,oneof=medication exercise checkup wound_care education document general"`
}

// TaskFilter represents task list parameters
type TaskFilter struct {
	SurgeryPlanID uuid.UUID `json:"surgery_plan_id" form:"surgery_plan_id"`
	PatientID     uuid.UUID `json:"patient_id" form:"patient_id"`
	Completed     *bool     `json:"completed" form:"completed"`
}
