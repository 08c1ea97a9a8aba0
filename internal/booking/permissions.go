package booking

import "yardgate/internal/actor"

// PermissionSet is the per-actor, per-booking capability projection consumed
// by both the API boundary (to refuse unauthorized transitions) and any
// presentation layer (to decide which controls to offer). It is derived
// fresh on every read and never stored on the entity.
type PermissionSet struct {
	CanApprove            bool `json:"can_approve"`
	CanRejectApproval     bool `json:"can_reject_approval"`
	CanReceive            bool `json:"can_receive"`
	CanReject             bool `json:"can_reject"`
	CanStartOffloading    bool `json:"can_start_offloading"`
	CanCompleteOffloading bool `json:"can_complete_offloading"`
	CanUnreceive          bool `json:"can_unreceive"`
	CanExit               bool `json:"can_exit"`
	CanEdit               bool `json:"can_edit"`
	CanDelete             bool `json:"can_delete"`
}

// Derive is the single source of truth for what a may do to b. The engine
// consults it before every transition; computing these flags anywhere else
// invites drift between buttons shown and transitions accepted.
func Derive(b *Booking, a actor.Actor) PermissionSet {
	pending := b.ApprovalStatus == ApprovalPending
	manage := b.Status == StatusBooked && (b.CreatedBy == a.ID || a.Has(actor.CapManage))

	return PermissionSet{
		CanApprove:            pending && a.Has(actor.CapApprove),
		CanRejectApproval:     pending && a.Has(actor.CapApprove),
		CanReceive:            b.Status == StatusBooked && !pending && a.Has(actor.CapReceive),
		CanReject:             (b.Status == StatusBooked || b.Status == StatusReceived) && a.Has(actor.CapReject),
		CanStartOffloading:    b.Status == StatusReceived,
		CanCompleteOffloading: b.Status == StatusOffloading,
		CanUnreceive:          b.Status == StatusReceived && a.Has(actor.CapUnreceive),
		CanExit:               b.Status == StatusOffloaded,
		CanEdit:               manage,
		CanDelete:             manage,
	}
}

// Allows maps an event to the flag guarding it.
func (p PermissionSet) Allows(ev Event) bool {
	switch ev {
	case EventReceive:
		return p.CanReceive
	case EventUnreceive:
		return p.CanUnreceive
	case EventReject:
		return p.CanReject
	case EventStartOffloading:
		return p.CanStartOffloading
	case EventCompleteOffloading:
		return p.CanCompleteOffloading
	case EventExit:
		return p.CanExit
	case EventApprove:
		return p.CanApprove
	case EventRejectApproval:
		return p.CanRejectApproval
	default:
		return false
	}
}

// capabilityFor is the actor-only part of the permission check. It is
// evaluated before anything derived from booking state so that Forbidden
// responses never disclose what state the booking is in.
func capabilityFor(a actor.Actor, ev Event) bool {
	switch ev {
	case EventReceive:
		return a.Has(actor.CapReceive)
	case EventReject:
		return a.Has(actor.CapReject)
	case EventUnreceive:
		return a.Has(actor.CapUnreceive)
	case EventApprove, EventRejectApproval:
		return a.Has(actor.CapApprove)
	default:
		// start_offloading, complete_offloading and exit are floor
		// operations gated by state alone.
		return true
	}
}
