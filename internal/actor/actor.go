package actor

import "fmt"

// Actor is the authenticated caller as seen by the workflow engine: an
// opaque id, a display name for presentation, and a capability set derived
// from the role carried in the session token.
type Actor struct {
	ID   string
	Name string
	Role Role
}

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleSupervisor   Role = "supervisor"
	RoleGateOperator Role = "gate_operator"
	RoleViewer       Role = "viewer"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleSupervisor, RoleGateOperator, RoleViewer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

type Capability string

const (
	// CapReceive allows receiving a booked vehicle at the gate.
	CapReceive Capability = "receive"
	// CapReject allows rejecting a booking before or after receipt.
	CapReject Capability = "reject"
	// CapUnreceive allows reverting received back to booked. Restricted to
	// supervisors to avoid silent state thrashing at the gate.
	CapUnreceive Capability = "unreceive"
	// CapApprove allows resolving a pending approval either way.
	CapApprove Capability = "approve"
	// CapManage allows editing or deleting any booking still in booked.
	CapManage Capability = "manage"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapReceive:   true,
		CapReject:    true,
		CapUnreceive: true,
		CapApprove:   true,
		CapManage:    true,
	},
	RoleSupervisor: {
		CapReceive:   true,
		CapReject:    true,
		CapUnreceive: true,
		CapApprove:   true,
	},
	RoleGateOperator: {
		CapReceive: true,
		CapReject:  true,
	},
	RoleViewer: {},
}

func (a Actor) Has(c Capability) bool {
	caps, ok := roleCapabilities[a.Role]
	if !ok {
		return false
	}
	return caps[c]
}

// RequiresApproval reports whether bookings created by this actor start in
// the pending-approval state. Gate operators book on behalf of suppliers and
// need a supervisory check before the vehicle may be received.
func (a Actor) RequiresApproval() bool {
	return a.Role == RoleGateOperator
}
