package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownStep is returned when a stored step tag is not recognised.
var ErrUnknownStep = errors.New("unknown session step")

// Encode renders a state as its step tag and JSON payload.
func Encode(s State) (Step, []byte, error) {
	if s == nil {
		return "", nil, fmt.Errorf("encoding nil session state")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", nil, fmt.Errorf("encoding %s: %w", s.Step(), err)
	}
	return s.Step(), b, nil
}

// Decode rebuilds a state from its step tag and payload.
func Decode(step Step, payload []byte) (State, error) {
	switch step {
	case StepAddAgentInfo:
		return decodeInto[AddAgentInfo](payload)
	case StepSelectAgentForRemoval:
		return decodeInto[SelectAgentForRemoval](payload)
	case StepSelectAgentForDelivery:
		return decodeInto[SelectAgentForDelivery](payload)
	case StepDeliveryQuantity:
		return decodeInto[DeliveryQuantity](payload)
	case StepSelectAgentForClearance:
		return decodeInto[SelectAgentForClearance](payload)
	case StepConfirmClearance:
		return decodeInto[ConfirmClearance](payload)
	case StepAdminSelectAgentForReport:
		return decodeInto[AdminSelectAgentForReport](payload)
	case StepAdminAddUserInfo:
		return decodeInto[AdminAddUserInfo](payload)
	case StepAdminAddUserRole:
		return decodeInto[AdminAddUserRole](payload)
	case StepAdminSelectUserForRemoval:
		return decodeInto[AdminSelectUserForRemoval](payload)
	case StepSelectSampleForDevolution:
		return decodeInto[SelectSampleForDevolution](payload)
	case StepSelectSampleForFollowUp:
		return decodeInto[SelectSampleForFollowUp](payload)
	case StepCustomerName:
		return decodeInto[CustomerName](payload)
	case StepContractClosed:
		return decodeInto[ContractClosed](payload)
	case StepNextAction:
		return decodeInto[NextAction](payload)
	case StepClientReturned:
		return decodeInto[ClientReturned](payload)
	case StepFollowUpContract:
		return decodeInto[FollowUpContract](payload)
	case StepClientFeedback:
		return decodeInto[ClientFeedback](payload)
	case StepFollowUpDateChoice:
		return decodeInto[FollowUpDateChoice](payload)
	case StepFollowUpDateManual:
		return decodeInto[FollowUpDateManual](payload)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
}

func decodeInto[T State](payload []byte) (State, error) {
	var v T
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", v.Step(), err)
		}
	}
	return v, nil
}
