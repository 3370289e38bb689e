package dto

// BulkMutationRequest is the body of POST /api/v1/user-jobs/bulk.
// Field names follow the client-facing contract, hence camelCase.
type BulkMutationRequest struct {
	UserJobIDs    []string `json:"userJobIds" binding:"required"`
	TargetStatus  string   `json:"targetStatus"`
	OperationType string   `json:"operationType" binding:"required"`
	UserID        string   `json:"userId" binding:"required"`
}

// BulkMutationResponse reports per-batch outcome counts
type BulkMutationResponse struct {
	Success      bool     `json:"success"`
	SuccessCount int      `json:"successCount"`
	FailedCount  int      `json:"failedCount"`
	Errors       []string `json:"errors"`
	Message      string   `json:"message,omitempty"`
}

// ListUserJobsRequest is the query of GET /api/v1/user-jobs
type ListUserJobsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

// UserJobDTO is a tracked job with its posting details on the wire
type UserJobDTO struct {
	ID             string   `json:"id"`
	JobID          string   `json:"job_id"`
	Status         string   `json:"status"`
	Notes          string   `json:"notes,omitempty"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	CompanyLogoURL string   `json:"company_logo_url,omitempty"`
	Location       string   `json:"location,omitempty"`
	JobURL         string   `json:"job_url"`
	Site           string   `json:"site,omitempty"`
	SalaryMin      *float64 `json:"salary_min,omitempty"`
	SalaryMax      *float64 `json:"salary_max,omitempty"`
	SalaryCurrency string   `json:"salary_currency,omitempty"`
	DatePosted     string   `json:"date_posted,omitempty"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

// ListUserJobsResponse is a page of tracked jobs
type ListUserJobsResponse struct {
	UserJobs   []UserJobDTO `json:"user_jobs"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
