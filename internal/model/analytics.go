package model

// MonthCount is one bucket of the plans-by-month series. Month is the
// calendar month of the surgery date in UTC, formatted YYYY-MM.
type MonthCount struct {
	Month string `json:"month" db:"month"`
	Count int    `json:"count" db:"count"`
}

// TaskTotals carries the raw counts behind the completion percentage
type TaskTotals struct {
	Completed int `json:"completed" db:"completed"`
	Total     int `json:"total" db:"total"`
}

// AnalyticsOverview is the staff dashboard snapshot
type AnalyticsOverview struct {
	TotalPatients      int            `json:"total_patients"`
	TotalPlans         int            `json:"total_plans"`
	PlansByStatus      map[string]int `json:"plans_by_status"`
	PatientsByRegion   map[string]int `json:"patients_by_region"`
	PlansByMonth       []MonthCount   `json:"plans_by_month"`
	TaskTotals         TaskTotals     `json:"task_totals"`
	TaskCompletionPct  int            `json:"task_completion_pct"`
	UnreadMessageCount int            `json:"unread_message_count"`
}
