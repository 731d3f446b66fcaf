package protocol

import "github.com/own-c/rt/internal/emotes"

// EventType is an abstraction on top of the wire protocol, presenting the frontend
// with a simplified set of chat events that are germane to rendering the chat overlay
type EventType string

const (
	// EventTypeMessage indicates that a new chat line should be displayed
	EventTypeMessage EventType = "message"
)

// Event is something that happened in chat that the overlay UI needs to know about
type Event struct {
	Type    EventType `json:"type"`
	Message *Message  `json:"message,omitempty"`
}

// Message is the payload for an event with type 'message'
type Message struct {
	ID           *int64     `json:"id,omitempty"`
	Sender       string     `json:"sender"`
	Color        string     `json:"color"`
	FirstMessage bool       `json:"firstMessage"`
	Fragments    []Fragment `json:"fragments"`
}

// FragmentKind discriminates the typed slices that make up a message body
type FragmentKind int

const (
	FragmentKindText  FragmentKind = 0
	FragmentKindEmote FragmentKind = 1
	FragmentKindUrl   FragmentKind = 2
)

// Fragment is one typed slice of a message body: plain text, an emote occurrence, or
// a URL. Emote fragments carry the descriptor the UI needs to render the image
type Fragment struct {
	Kind    FragmentKind       `json:"kind"`
	Content string             `json:"content"`
	Emote   *emotes.Descriptor `json:"emote,omitempty"`
}
