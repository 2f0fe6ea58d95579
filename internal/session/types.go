// Package session persists where each participant is in a multi-step
// conversation. Every step is its own type carrying exactly the answers
// collected so far; the store keeps the step tag and a JSON payload.
package session

import "github.com/SimpleDioney/Amostras/internal/ledger"

// Step identifies a conversation step.
type Step string

// State is one step of a conversation flow.
type State interface {
	Step() Step
}

// Steward steps.
const (
	StepAddAgentInfo            Step = "add_agent_info"
	StepSelectAgentForRemoval   Step = "select_agent_for_removal"
	StepSelectAgentForDelivery  Step = "select_agent_for_delivery"
	StepDeliveryQuantity        Step = "delivery_quantity"
	StepSelectAgentForClearance Step = "select_agent_for_clearance"
	StepConfirmClearance        Step = "confirm_clearance"
)

// Admin steps.
const (
	StepAdminSelectAgentForReport Step = "admin_select_agent_for_report"
	StepAdminAddUserInfo          Step = "admin_add_user_info"
	StepAdminAddUserRole          Step = "admin_add_user_role"
	StepAdminSelectUserForRemoval Step = "admin_select_user_for_removal"
)

// Agent steps.
const (
	StepSelectSampleForDevolution Step = "select_sample_for_devolution"
	StepSelectSampleForFollowUp   Step = "select_sample_for_followup"
	StepCustomerName              Step = "customer_name"
	StepContractClosed            Step = "contract_closed"
	StepNextAction                Step = "next_action"
	StepClientReturned            Step = "client_returned"
	StepFollowUpContract          Step = "follow_up_contract"
	StepClientFeedback            Step = "client_feedback"
	StepFollowUpDateChoice        Step = "follow_up_date_choice"
	StepFollowUpDateManual        Step = "follow_up_date_manual"
)

type AddAgentInfo struct{}

type SelectAgentForRemoval struct{}

type SelectAgentForDelivery struct{}

// DeliveryQuantity waits for the number of samples handed to AgentID.
type DeliveryQuantity struct {
	AgentID string `json:"agent_id"`
}

type SelectAgentForClearance struct{}

// ConfirmClearance holds the numbered list shown to the steward. Replies
// refer to positions in SampleIDs, starting at 1.
type ConfirmClearance struct {
	AgentID   string   `json:"agent_id"`
	SampleIDs []string `json:"sample_ids"`
}

type AdminSelectAgentForReport struct{}

type AdminAddUserInfo struct{}

// AdminAddUserRole waits for the role of a user whose name and address were
// already given.
type AdminAddUserRole struct {
	Name          string `json:"name"`
	ParticipantID string `json:"participant_id"`
}

type AdminSelectUserForRemoval struct{}

type SelectSampleForDevolution struct{}

type SelectSampleForFollowUp struct{}

// CustomerName waits for the customer the sample went to.
type CustomerName struct {
	SampleID string `json:"sample_id"`
}

// ContractClosed asks whether the customer signed.
type ContractClosed struct {
	SampleID     string `json:"sample_id"`
	CustomerName string `json:"customer_name"`
}

// NextAction follows a "no" on the contract: final feedback now or a
// follow-up later.
type NextAction struct {
	SampleID     string `json:"sample_id"`
	CustomerName string `json:"customer_name"`
}

// ClientReturned asks, during a follow-up, whether the client answered.
type ClientReturned struct {
	SampleID     string `json:"sample_id"`
	CustomerName string `json:"customer_name"`
}

// FollowUpContract asks whether the follow-up ended in a contract.
type FollowUpContract struct {
	SampleID     string `json:"sample_id"`
	CustomerName string `json:"customer_name"`
}

// ClientFeedback waits for the free-text feedback that closes the sample.
type ClientFeedback struct {
	SampleID     string          `json:"sample_id"`
	CustomerName string          `json:"customer_name"`
	Contract     ledger.Contract `json:"contract"`
}

// FollowUpDateChoice offers the preset follow-up dates. Rescheduling drops
// the 15 day option.
type FollowUpDateChoice struct {
	SampleID     string          `json:"sample_id"`
	CustomerName string          `json:"customer_name"`
	Contract     ledger.Contract `json:"contract"`
	Rescheduling bool            `json:"rescheduling,omitempty"`
}

// FollowUpDateManual waits for a DD/MM/YYYY date.
type FollowUpDateManual struct {
	SampleID     string          `json:"sample_id"`
	CustomerName string          `json:"customer_name"`
	Contract     ledger.Contract `json:"contract"`
	Rescheduling bool            `json:"rescheduling,omitempty"`
}

func (AddAgentInfo) Step() Step              { return StepAddAgentInfo }
func (SelectAgentForRemoval) Step() Step     { return StepSelectAgentForRemoval }
func (SelectAgentForDelivery) Step() Step    { return StepSelectAgentForDelivery }
func (DeliveryQuantity) Step() Step          { return StepDeliveryQuantity }
func (SelectAgentForClearance) Step() Step   { return StepSelectAgentForClearance }
func (ConfirmClearance) Step() Step          { return StepConfirmClearance }
func (AdminSelectAgentForReport) Step() Step { return StepAdminSelectAgentForReport }
func (AdminAddUserInfo) Step() Step          { return StepAdminAddUserInfo }
func (AdminAddUserRole) Step() Step          { return StepAdminAddUserRole }
func (AdminSelectUserForRemoval) Step() Step { return StepAdminSelectUserForRemoval }
func (SelectSampleForDevolution) Step() Step { return StepSelectSampleForDevolution }
func (SelectSampleForFollowUp) Step() Step   { return StepSelectSampleForFollowUp }
func (CustomerName) Step() Step              { return StepCustomerName }
func (ContractClosed) Step() Step            { return StepContractClosed }
func (NextAction) Step() Step                { return StepNextAction }
func (ClientReturned) Step() Step            { return StepClientReturned }
func (FollowUpContract) Step() Step          { return StepFollowUpContract }
func (ClientFeedback) Step() Step            { return StepClientFeedback }
func (FollowUpDateChoice) Step() Step        { return StepFollowUpDateChoice }
func (FollowUpDateManual) Step() Step        { return StepFollowUpDateManual }

// SampleOf returns the sample a devolution or follow-up step is about.
func SampleOf(s State) (string, bool) {
	switch st := s.(type) {
	case CustomerName:
		return st.SampleID, true
	case ContractClosed:
		return st.SampleID, true
	case NextAction:
		return st.SampleID, true
	case ClientReturned:
		return st.SampleID, true
	case FollowUpContract:
		return st.SampleID, true
	case ClientFeedback:
		return st.SampleID, true
	case FollowUpDateChoice:
		return st.SampleID, true
	case FollowUpDateManual:
		return st.SampleID, true
	}
	return "", false
}
