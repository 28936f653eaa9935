package models

import "time"

// BulkJobStatus tracks the progress of a bulk regeneration.
type BulkJobStatus string

const (
	BulkJobStatusQueued    BulkJobStatus = "QUEUED"
	BulkJobStatusRunning   BulkJobStatus = "RUNNING"
	BulkJobStatusCompleted BulkJobStatus = "COMPLETED"
	BulkJobStatusFailed    BulkJobStatus = "FAILED"
)

// BulkJob regenerates draft timetables for several year levels in the background.
type BulkJob struct {
	ID         string         `json:"id"`
	Status     BulkJobStatus  `json:"status"`
	YearLevels []int          `json:"year_levels"`
	Completed  int            `json:"completed"`
	Failed     int            `json:"failed"`
	Timetables map[int]string `json:"timetables"`
	Errors     map[int]string `json:"errors,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Done reports whether every year level has finished.
func (j *BulkJob) Done() bool {
	return j.Completed+j.Failed >= len(j.YearLevels)
}
