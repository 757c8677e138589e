package domain

// ID is used across domain entities.
type ID int64

// Role names carried in tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// RequestContext carries authenticated caller info when available.
type RequestContext struct {
	UserID    ID     `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"sessionId,omitempty"`
}

// IsAdmin reports whether the caller holds an admin session.
func (r RequestContext) IsAdmin() bool {
	return r.Role == RoleAdmin && r.SessionID != ""
}
