package domain

import "time"

// HistoryEntry is one immutable line of a member's audit trail.
type HistoryEntry struct {
	ID          string      `json:"id"`
	Date        time.Time   `json:"date"`
	Type        HistoryType `json:"type"`
	Description string      `json:"description"`
}

type HistoryType string

const (
	HistoryRegistration     HistoryType = "REGISTRATION"
	HistoryTransition       HistoryType = "TRANSITION"
	HistoryStatusChange     HistoryType = "STATUS_CHANGE"
	HistoryDepartmentChange HistoryType = "DEPARTMENT_CHANGE"
	HistoryOther            HistoryType = "OTHER"
)

// Valid reports whether t is a known history type.
func (t HistoryType) Valid() bool {
	switch t {
	case HistoryRegistration, HistoryTransition, HistoryStatusChange, HistoryDepartmentChange, HistoryOther:
		return true
	}
	return false
}
