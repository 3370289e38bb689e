package dto

// ScrapedJobDTO is one posting as reported by the remote scraper
type ScrapedJobDTO struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	CompanyURL     string   `json:"company_url"`
	CompanyLogoURL string   `json:"company_logo_url"`
	Location       string   `json:"location"`
	IsRemote       bool     `json:"is_remote"`
	JobURL         string   `json:"job_url"`
	Description    string   `json:"description"`
	JobType        string   `json:"job_type"`
	JobLevel       string   `json:"job_level"`
	JobFunction    string   `json:"job_function"`
	SalaryMin      *float64 `json:"salary_min"`
	SalaryMax      *float64 `json:"salary_max"`
	SalaryCurrency string   `json:"salary_currency"`
	Site           string   `json:"site"`
	DatePosted     string   `json:"date_posted"`
}

// IngestResultsRequest is the callback body the remote scraper posts when a
// run reaches a terminal state
type IngestResultsRequest struct {
	RunID  string          `json:"run_id" binding:"required"`
	Status string          `json:"status" binding:"required"`
	Jobs   []ScrapedJobDTO `json:"jobs"`
}

// IngestResultsResponse summarizes what the callback stored
type IngestResultsResponse struct {
	Success      bool `json:"success"`
	JobsUpserted int  `json:"jobs_upserted"`
	Linked       int  `json:"linked"`
}
