package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is one vehicle's scheduled visit for receiving cargo, tracked
// through the multi-stage yard workflow. Status moves only through the
// transitions in status.go; timestamps are set exactly when the matching
// stage is entered.
type Booking struct {
	ID string `json:"id"`

	VehicleNumber string          `json:"vehicle_number"`
	DriverName    string          `json:"driver_name,omitempty"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	BoxCount      int             `json:"box_count"`
	WeightTons    decimal.Decimal `json:"weight_tons"`

	Status Status `json:"status"`

	ApprovalStatus ApprovalStatus `json:"approval_status"`
	ApprovalNotes  string         `json:"approval_notes,omitempty"`

	// Reconciliation, populated only once offloading completes.
	ActualBoxCount  *int   `json:"actual_box_count,omitempty"`
	BoxCountDiff    *int   `json:"box_count_diff,omitempty"`
	OffloadingNotes string `json:"offloading_notes,omitempty"`

	RejectionReason *RejectionReason `json:"rejection_reason,omitempty"`
	RejectionNotes  string           `json:"rejection_notes,omitempty"`

	CreatedAt           time.Time  `json:"created_at"`
	EntryDatetime       time.Time  `json:"entry_datetime"`
	ReceivedAt          *time.Time `json:"received_at,omitempty"`
	OffloadingStartedAt *time.Time `json:"offloading_started_at,omitempty"`
	OffloadedAt         *time.Time `json:"offloaded_at,omitempty"`
	ExitedAt            *time.Time `json:"exited_at,omitempty"`
	RejectedAt          *time.Time `json:"rejected_at,omitempty"`

	CreatedBy     string `json:"created_by"`
	CreatedByName string `json:"created_by_name,omitempty"`

	// Version is the optimistic lock counter maintained by repositories.
	Version int64 `json:"-"`
}

// Clone returns a deep copy. Repositories hand out and accept clones so a
// failed mutation can never leave a half-applied booking behind.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.ActualBoxCount = cloneInt(b.ActualBoxCount)
	c.BoxCountDiff = cloneInt(b.BoxCountDiff)
	if b.RejectionReason != nil {
		reason := *b.RejectionReason
		c.RejectionReason = &reason
	}
	c.ReceivedAt = cloneTime(b.ReceivedAt)
	c.OffloadingStartedAt = cloneTime(b.OffloadingStartedAt)
	c.OffloadedAt = cloneTime(b.OffloadedAt)
	c.ExitedAt = cloneTime(b.ExitedAt)
	c.RejectedAt = cloneTime(b.RejectedAt)
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}
