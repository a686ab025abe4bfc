package models

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of an order. The set is closed: only the
// constants below are valid, and every switch over a Status must handle all
// four and fall through to an ErrUnknownStatus default.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusCancelled  Status = "cancelled"
)

var ErrUnknownStatus = errors.New("unknown order status")

// AllStatuses lists every Status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusComplete, StatusCancelled}
}

// ParseStatus converts a stored or submitted string into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusComplete, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no lifecycle transition leads out of s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusCancelled:
		return true
	case StatusPending, StatusInProgress:
		return false
	default:
		return false
	}
}

// IsLive reports whether the order still belongs on the admin queue.
func (s Status) IsLive() bool {
	switch s {
	case StatusPending, StatusInProgress:
		return true
	case StatusComplete, StatusCancelled:
		return false
	default:
		return false
	}
}

// Label is the display form shown on the status and admin pages.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusComplete:
		return "Complete"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

func (s Status) String() string {
	return string(s)
}
