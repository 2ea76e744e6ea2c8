package model

import "time"

// RescoreJob asks a worker to recompute one employee's attrition risk.
type RescoreJob struct {
	JobID      string    // unique id, also used in logs
	EmployeeID string    // subject of the recomputation
	Requested  time.Time // enqueue time
}
