package handler

// Gin context keys populated by the router middleware
const (
	ContextUserID    = "user_id"
	ContextSessionID = "session_id"
)
