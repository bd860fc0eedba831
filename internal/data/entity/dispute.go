package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DisputeCategory string

const (
	DisputeCategoryQualityIssue DisputeCategory = "quality_issue"
	DisputeCategoryNoShow       DisputeCategory = "no_show"
	DisputeCategoryOvercharge   DisputeCategory = "overcharge"
	DisputeCategoryPaymentIssue DisputeCategory = "payment_issue"
	DisputeCategoryBehavior     DisputeCategory = "behavior"
	DisputeCategoryOther        DisputeCategory = "other"
)

type DisputePriority string

const (
	DisputePriorityLow    DisputePriority = "low"
	DisputePriorityMedium DisputePriority = "medium"
	DisputePriorityHigh   DisputePriority = "high"
	DisputePriorityUrgent DisputePriority = "urgent"
)

type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusClosed      DisputeStatus = "closed"
)

// disputeTransitions is the closed transition table. open cannot jump
// straight to closed; dismissal goes through resolved with outcome
// "dismissed".
var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:        {DisputeStatusUnderReview},
	DisputeStatusUnderReview: {DisputeStatusResolved},
	DisputeStatusResolved:    {DisputeStatusClosed},
	DisputeStatusClosed:      nil,
}

func (s DisputeStatus) CanTransition(next DisputeStatus) bool {
	for _, allowed := range disputeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether s counts against the one-active-dispute-per-
// booking invariant.
func (s DisputeStatus) Active() bool {
	return s == DisputeStatusOpen || s == DisputeStatusUnderReview
}

type DisputeOutcome string

const (
	OutcomeRefund         DisputeOutcome = "refund"
	OutcomePartialRefund  DisputeOutcome = "partial_refund"
	OutcomeServiceRedo    DisputeOutcome = "service_redo"
	OutcomeWarning        DisputeOutcome = "warning"
	OutcomeSuspension     DisputeOutcome = "suspension"
	OutcomeNoAction       DisputeOutcome = "no_action"
	OutcomePenaltyApplied DisputeOutcome = "penalty_applied"
	OutcomeDismissed      DisputeOutcome = "dismissed"
)

// RequiresRefund reports whether the outcome moves money back through the
// payment ledger.
func (o DisputeOutcome) RequiresRefund() bool {
	return o == OutcomeRefund || o == OutcomePartialRefund
}

// Resolution is written exactly once and is immutable thereafter.
type Resolution struct {
	Description   string           `db:"resolution_description"`
	Outcome       DisputeOutcome   `db:"resolution_outcome"`
	OutcomeAmount *decimal.Decimal `db:"resolution_amount"`
	ResolvedBy    uuid.UUID        `db:"resolved_by"`
	ResolvedAt    time.Time        `db:"resolved_at"`
}

// Dispute is a claim raised against a booking/payment pair. PaymentID
// snapshots the payment active at filing time, which may not yet be
// settled (mid bank-transfer disputes are allowed).
type Dispute struct {
	Base
	BookingID   uuid.UUID       `db:"booking_id"`
	PaymentID   uuid.UUID       `db:"payment_id"`
	RaisedBy    uuid.UUID       `db:"raised_by"`
	Against     uuid.UUID       `db:"against"`
	Category    DisputeCategory `db:"category"`
	Priority    DisputePriority `db:"priority"`
	Status      DisputeStatus   `db:"status"`
	Description string          `db:"description"`
	AssignedTo  *uuid.UUID      `db:"assigned_to"`
	Resolution  *Resolution     `db:"-"`
}

// DisputeMessage is one entry in the dispute's append-only message log.
type DisputeMessage struct {
	BaseSimple
	DisputeID uuid.UUID `db:"dispute_id"`
	AuthorID  uuid.UUID `db:"author_id"`
	Body      string    `db:"body"`
	IsArbiter bool      `db:"is_arbiter"`
}

// DisputeEvidence is an artifact pointer plus its uploader.
type DisputeEvidence struct {
	BaseSimple
	DisputeID   uuid.UUID `db:"dispute_id"`
	UploadedBy  uuid.UUID `db:"uploaded_by"`
	ArtifactKey string    `db:"artifact_key"`
	Description *string   `db:"description"`
}
