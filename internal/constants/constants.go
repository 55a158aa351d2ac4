package constants

// Context keys shared between middleware and handlers.
const (
	ContextKeyUserID = "user_id"
	ContextKeyTask   = "task"
	ContextKeyBoard  = "board"
)

// Pagination bounds.
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

const MinPasswordLength = 8

// SessionCookieName is the cookie holding the session ID.
const SessionCookieName = "kanban_session"

// MaxAIGeneratedTasks caps a single suggestion batch.
const MaxAIGeneratedTasks = 20
