package model

import "time"

// RawMessage is one inbound message as the inbox source hands it over.
// The allowed-sender whitelist is enforced by the source before a message
// reaches the core.
type RawMessage struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Sender     string    `json:"sender"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}
