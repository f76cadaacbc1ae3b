package ports

import (
	"biasev/domain/dataset"
)

// SessionStore holds at most one uploaded table per browser session
type SessionStore interface {
	// Dataset returns the session's table, or nil when none is loaded
	Dataset(sessionID string) *dataset.Table
	// Replace installs a new table for the session, discarding the previous one
	Replace(sessionID string, table *dataset.Table)
	// Clear removes the session's table
	Clear(sessionID string)
	// Touch refreshes the session's idle timer
	Touch(sessionID string)
}
