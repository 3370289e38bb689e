package dto

// ScheduleRunRequest is the body of POST /api/v1/runs
type ScheduleRunRequest struct {
	Title         string `json:"title" binding:"required"`
	Location      string `json:"location"`
	Site          string `json:"site"`
	ResultsWanted int    `json:"results_wanted"`
	HoursOld      int    `json:"hours_old"`
	Country       string `json:"country"`
	Source        string `json:"source"`
}

// RunDTO is a search run on the wire
type RunDTO struct {
	RunID         string `json:"run_id"`
	UserID        string `json:"user_id"`
	Source        string `json:"source"`
	Status        string `json:"status"`
	ClientContext string `json:"client_context"`
	CreatedAt     string `json:"created_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// ScheduleRunResponse reports whether the scrape request reached the remote
// service. Delivery is not completion: the run finishes later, out of band.
type ScheduleRunResponse struct {
	Run       RunDTO `json:"run"`
	Delivered bool   `json:"delivered"`
	Assumed   bool   `json:"assumed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ActiveRunResponse is the body of GET /api/v1/runs/active
type ActiveRunResponse struct {
	Active bool    `json:"active"`
	Run    *RunDTO `json:"run,omitempty"`
}

// DispatchResponse summarizes one batch dispatch over all users
type DispatchResponse struct {
	Success     bool `json:"success"`
	Inserted    int  `json:"inserted"`
	Triggered   int  `json:"triggered"`
	QueueWakeup bool `json:"queue_wakeup"`
}
