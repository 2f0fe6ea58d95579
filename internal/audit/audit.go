// Package audit keeps a trail of who changed what: deliveries, clearances,
// devolutions and their corrections, user and settings changes.
package audit

import "time"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorParticipant ActorType = "participant"
	ActorCLI         ActorType = "cli"
	ActorSystem      ActorType = "system"
)

// Action describes what was done.
type Action string

const (
	ActionParticipantAdded   Action = "participant_added"
	ActionParticipantUpdated Action = "participant_updated"
	ActionParticipantRemoved Action = "participant_removed"
	ActionSamplesDelivered   Action = "samples_delivered"
	ActionSamplesCleared     Action = "samples_cleared"
	ActionDevolutionFinal    Action = "devolution_finalized"
	ActionDevolutionUndone   Action = "devolution_corrected"
	ActionSettingChanged     Action = "setting_changed"
	ActionSettingsReloaded   Action = "settings_reloaded"
)

// Entry is a single audit trail record. SubjectID is the participant or
// sample the action was about.
type Entry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	ActorType     ActorType `json:"actor_type"`
	ActorID       string    `json:"actor_id"`
	Action        Action    `json:"action"`
	SubjectID     string    `json:"subject_id,omitempty"`
	Summary       string    `json:"summary"`
	PreviousValue string    `json:"previous_value,omitempty"`
	NewValue      string    `json:"new_value,omitempty"`
}
