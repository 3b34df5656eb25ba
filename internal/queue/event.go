// Package queue defines the messages exchanged over RabbitMQ and the
// background consumer that audits them.
package queue

import "time"

// LayoutSavedQueue is the durable queue every accepted layout save is
// announced on.
const LayoutSavedQueue = "layout.saved"

// LayoutSavedEvent is published after the store accepted a save.  It carries
// enough to audit who overwrote what without reading the layout back.
type LayoutSavedEvent struct {
	LayoutID        string    `json:"layout_id"`
	Version         int64     `json:"version"`
	ExpectedVersion int64     `json:"expected_version"`
	Forced          bool      `json:"forced"`
	Editor          string    `json:"editor"`
	PayloadBytes    int       `json:"payload_bytes"`
	SavedAt         time.Time `json:"saved_at"`
}
