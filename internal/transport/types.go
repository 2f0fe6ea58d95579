package transport

import "context"

// InboundEvent is a chat message received from the channel.
type InboundEvent struct {
	SenderID    string
	Body        string
	SelectionID string // row id when the user picked from a list prompt
	IsGroup     bool
	FromSelf    bool
}

// ListMessage is a single-choice list prompt.
type ListMessage struct {
	ButtonText  string    `json:"buttonText"`
	Description string    `json:"description"`
	Sections    []Section `json:"sections"`
}

// Section groups rows under a title.
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Row is one selectable option. ID comes back as InboundEvent.SelectionID.
type Row struct {
	ID          string `json:"rowId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// File is an attachment.
type File struct {
	Name     string
	Caption  string
	MimeType string
	Data     []byte
}

// Sender delivers outbound messages. Every method is best effort; callers
// log failures and carry on.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
	SendList(ctx context.Context, to string, list ListMessage) error
	SendFile(ctx context.Context, to string, file File) error
}
