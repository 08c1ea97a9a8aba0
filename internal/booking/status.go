package booking

import "fmt"

type Status string

const (
	StatusBooked     Status = "booked"
	StatusReceived   Status = "received"
	StatusOffloading Status = "offloading"
	StatusOffloaded  Status = "offloaded"
	StatusExited     Status = "exited"
	StatusRejected   Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusBooked, StatusReceived, StatusOffloading, StatusOffloaded, StatusExited, StatusRejected:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

// Terminal reports whether no further transitions exist from s.
func (s Status) Terminal() bool {
	return s == StatusExited || s == StatusRejected
}

type Event string

const (
	EventReceive            Event = "receive"
	EventUnreceive          Event = "unreceive"
	EventReject             Event = "reject"
	EventStartOffloading    Event = "start_offloading"
	EventCompleteOffloading Event = "complete_offloading"
	EventExit               Event = "exit"

	// Approval overlay events. They never change Status but share the event
	// vocabulary so the audit trail reads uniformly.
	EventApprove        Event = "approve"
	EventRejectApproval Event = "reject_approval"
)

var transitions = map[Status]map[Event]Status{
	StatusBooked: {
		EventReceive: StatusReceived,
		EventReject:  StatusRejected,
	},
	StatusReceived: {
		EventStartOffloading: StatusOffloading,
		EventUnreceive:       StatusBooked,
		EventReject:          StatusRejected,
	},
	StatusOffloading: {
		EventCompleteOffloading: StatusOffloaded,
	},
	StatusOffloaded: {
		EventExit: StatusExited,
	},
	StatusExited:   {},
	StatusRejected: {},
}

func CanTransition(from Status, ev Event) bool {
	_, ok := NextStatus(from, ev)
	return ok
}

func NextStatus(from Status, ev Event) (Status, bool) {
	m, ok := transitions[from]
	if !ok {
		return "", false
	}
	to, ok := m[ev]
	return to, ok
}

type ApprovalStatus string

const (
	ApprovalNone     ApprovalStatus = "none"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch ApprovalStatus(s) {
	case ApprovalNone, ApprovalPending, ApprovalApproved, ApprovalRejected:
		return ApprovalStatus(s), nil
	default:
		return "", fmt.Errorf("unknown approval status: %s", s)
	}
}

type RejectionReason string

const (
	ReasonDocumentationMismatch RejectionReason = "Documentation Mismatch"
	ReasonQualityIssue          RejectionReason = "Quality Issue"
	ReasonOverweight            RejectionReason = "Overweight"
	ReasonNoSpace               RejectionReason = "No Space"
	ReasonOther                 RejectionReason = "Other"
)

func ParseRejectionReason(s string) (RejectionReason, error) {
	switch RejectionReason(s) {
	case ReasonDocumentationMismatch, ReasonQualityIssue, ReasonOverweight, ReasonNoSpace, ReasonOther:
		return RejectionReason(s), nil
	default:
		return "", fmt.Errorf("unknown rejection reason: %s", s)
	}
}
