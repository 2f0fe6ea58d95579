package ledger

import "time"

// Status is the primary lifecycle state of a sample.
type Status string

const (
	StatusPendingFeedback  Status = "pending_feedback"
	StatusOverdue          Status = "overdue"
	StatusAwaitingClient   Status = "awaiting_client_response"
	StatusClosedDeal       Status = "closed_deal"
	StatusFeedbackReceived Status = "feedback_received"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingFeedback, StatusOverdue, StatusAwaitingClient, StatusClosedDeal, StatusFeedbackReceived:
		return true
	}
	return false
}

// AwaitingDevolution is true for samples that may enter the devolution flow.
func (s Status) AwaitingDevolution() bool {
	return s == StatusPendingFeedback || s == StatusOverdue
}

// Terminal is true for logically completed samples.
func (s Status) Terminal() bool {
	return s == StatusClosedDeal || s == StatusFeedbackReceived
}

// Label is the human-readable status used in reports.
func (s Status) Label() string {
	switch s {
	case StatusPendingFeedback:
		return "Pending feedback"
	case StatusOverdue:
		return "Overdue"
	case StatusAwaitingClient:
		return "Awaiting client"
	case StatusClosedDeal:
		return "Contract closed"
	case StatusFeedbackReceived:
		return "Feedback received (no sale)"
	}
	return string(s)
}

// Contract is the tri-state contract outcome of a devolution.
type Contract int

const (
	ContractUnset Contract = iota
	ContractClosed
	ContractNotClosed
)

// Label renders the outcome as yes/no/n-a.
func (c Contract) Label() string {
	switch c {
	case ContractClosed:
		return "yes"
	case ContractNotClosed:
		return "no"
	}
	return "n/a"
}

// Sample is one physical product unit handed to an agent.
type Sample struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	Status           Status    `json:"status"`
	ReceivedAt       time.Time `json:"received_at"`
	CustomerName     string    `json:"customer_name,omitempty"`
	Contract         Contract  `json:"contract"`
	FollowUpDate     Date      `json:"follow_up_date"`
	FollowUpNotified bool      `json:"follow_up_notified"`
	ClientFeedback   string    `json:"client_feedback,omitempty"`
}

// ShortID is the trailing part of the id shown in chat messages.
func (s Sample) ShortID() string {
	if len(s.ID) <= 6 {
		return s.ID
	}
	return s.ID[len(s.ID)-6:]
}

// Filter narrows List and ReportRows.
type Filter struct {
	Status         Status
	OwnerID        string
	ReceivedBefore time.Time
}

// ReportRow is a sample joined with its owner's name.
type ReportRow struct {
	AgentName string
	Sample    Sample
}
