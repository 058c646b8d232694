package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire event names.
const (
	EventJoinRoom              = "join-room"
	EventUsersUpdate           = "users-update"
	EventContentChange         = "content-change"
	EventRequestCurrentContent = "request-current-content"
	EventSendCurrentContent    = "send-current-content"
	EventReceiveCurrentContent = "receive-current-content"
	EventPing                  = "ping"
	EventPong                  = "pong"
	EventError                 = "error"
)

// Envelope wraps every frame in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinRoom struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// ContentIn is the inbound body of content-change and send-current-content.
// html, fullHtml and user are relayed untouched; absent fields stay absent.
type ContentIn struct {
	Room     string          `json:"room"`
	HTML     json.RawMessage `json:"html,omitempty"`
	FullHTML json.RawMessage `json:"fullHtml,omitempty"`
	User     json.RawMessage `json:"user,omitempty"`
}

type ContentOut struct {
	HTML     json.RawMessage `json:"html,omitempty"`
	FullHTML json.RawMessage `json:"fullHtml,omitempty"`
	User     json.RawMessage `json:"user,omitempty"`
}

func (c ContentIn) Out() ContentOut {
	return ContentOut{HTML: c.HTML, FullHTML: c.FullHTML, User: c.User}
}

type ContentRequestIn struct {
	Room string          `json:"room"`
	User json.RawMessage `json:"user,omitempty"`
}

type ContentRequestOut struct {
	RequesterID SessionID       `json:"requesterId"`
	User        json.RawMessage `json:"user,omitempty"`
}

type ErrorOut struct {
	Error string `json:"error"`
}

type outEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Encode builds an envelope frame. A nil data omits the data field.
// HTML is not escaped: relayed content reaches peers as the sender wrote it.
func Encode(event string, data any) (Frame, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(outEnvelope{Type: event, Data: data}); err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
