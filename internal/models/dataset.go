package models

import "time"

// Dataset is one uploaded and analyzed activity log. The event table and its
// derived result live only in process memory; nothing is persisted across runs.
type Dataset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	RowCount     int       `json:"row_count"`
	StudentCount int       `json:"student_count"`
	UploadedBy   string    `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`

	Table  *EventTable     `json:"-"`
	Result *AnalysisResult `json:"-"`
}

// Pagination describes list slicing metadata in responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
