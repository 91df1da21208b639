package models

import (
	"time"
)

// Approval status values for a redemption request (overall and per leg).
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Processing status values, the post-approval lifecycle stage.
const (
	ProcessingNotProcessed = "NOT_PROCESSED"
	ProcessingProcessed    = "PROCESSED"
	ProcessingCancelled    = "CANCELLED"
)

// Approval legs. Sales and marketing review independently; the overall
// status flips to APPROVED only once both legs approve.
const (
	ApprovalLegSales     = "sales"
	ApprovalLegMarketing = "marketing"
)

// RedemptionRequest is the model for the 'redemption_requests' table.
type RedemptionRequest struct {
	ID              int64  `json:"id" db:"id"`
	ReferenceNo     string `json:"reference_no" db:"reference_no"`
	RequestedBy     int64  `json:"requested_by" db:"requested_by"`
	RequestedByName string `json:"requested_by_name" db:"requested_by_name"`
	RequestedFor    string `json:"requested_for" db:"requested_for"`

	Status                  string `json:"status" db:"status"`
	SalesApprovalStatus     string `json:"sales_approval_status" db:"sales_approval_status"`
	MarketingApprovalStatus string `json:"marketing_approval_status" db:"marketing_approval_status"`
	ProcessingStatus        string `json:"processing_status" db:"processing_status"`

	TotalPoints int `json:"total_points" db:"total_points"`

	Remarks          *string `json:"remarks,omitempty" db:"remarks"`
	RejectionReason  *string `json:"rejection_reason,omitempty" db:"rejection_reason"`
	WithdrawalReason *string `json:"withdrawal_reason,omitempty" db:"withdrawal_reason"`

	// --- Transition Audit ---
	ReviewedBy  *string    `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ProcessedBy *string    `json:"processed_by,omitempty" db:"processed_by"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	CancelledBy *string    `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	WithdrawnAt *time.Time `json:"withdrawn_at,omitempty" db:"withdrawn_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Joins (populated manually)
	Items []RedemptionRequestItem `json:"items,omitempty" db:"-"`

	// Derived, so every screen renders the same controls and the same
	// combined status label (withdrawn requests are stored as REJECTED
	// plus a withdrawal timestamp).
	Actions       RequestActions `json:"allowed_actions" db:"-"`
	DisplayStatus string         `json:"display_status" db:"-"`
}

// RedemptionRequestItem is one line of a redemption request.
type RedemptionRequestItem struct {
	ID                int64  `json:"id" db:"id"`
	RequestID         int64  `json:"request_id" db:"request_id"`
	VariantCode       string `json:"variant_code" db:"variant_code"`
	CatalogueItemName string `json:"catalogue_item_name" db:"catalogue_item_name"`
	Quantity          int    `json:"quantity" db:"quantity"`
	PointsPerItem     int    `json:"points_per_item" db:"points_per_item"`
	TotalPoints       int    `json:"total_points" db:"total_points"`
}

// RequestActions enumerates the transitions currently allowed on a
// request. Every handler and every list endpoint derives these from
// AllowedActions instead of re-implementing the rules per screen.
type RequestActions struct {
	CanApprove       bool `json:"can_approve"`
	CanReject        bool `json:"can_reject"`
	CanWithdraw      bool `json:"can_withdraw"`
	CanMarkProcessed bool `json:"can_mark_processed"`
	CanCancel        bool `json:"can_cancel"`
}

// AllowedActions is the single source of truth for the request
// lifecycle guards:
//
//	PENDING  -> APPROVED | REJECTED   (review)
//	PENDING  -> withdrawn             (requester, only before sales approval)
//	APPROVED: NOT_PROCESSED -> PROCESSED | CANCELLED
func AllowedActions(status, salesApprovalStatus, processingStatus string) RequestActions {
	return RequestActions{
		CanApprove:       status == StatusPending,
		CanReject:        status == StatusPending,
		CanWithdraw:      status == StatusPending && salesApprovalStatus != StatusApproved,
		CanMarkProcessed: status == StatusApproved && processingStatus == ProcessingNotProcessed,
		CanCancel:        status == StatusApproved && processingStatus == ProcessingNotProcessed,
	}
}

// DeriveActions fills the derived Actions and DisplayStatus fields
// from the request's own state.
func (r *RedemptionRequest) DeriveActions() {
	r.Actions = AllowedActions(r.Status, r.SalesApprovalStatus, r.ProcessingStatus)
	r.DisplayStatus = DisplayStatus(r.Status, r.ProcessingStatus, r.WithdrawnAt != nil)
}

// DisplayStatus renders the combined approval + processing state as a
// single label, the way the request tables show it.
func DisplayStatus(status, processingStatus string, withdrawn bool) string {
	if withdrawn {
		return "Withdrawn"
	}
	switch status {
	case StatusPending:
		return "Pending"
	case StatusRejected:
		return "Rejected"
	case StatusApproved:
		switch processingStatus {
		case ProcessingProcessed:
			return "Processed"
		case ProcessingCancelled:
			return "Cancelled"
		default:
			return "Approved"
		}
	default:
		return status
	}
}
