package models

import (
	"fmt"
	"time"
)

// Command is a parsed chat command.
type Command struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Args        []string  `json:"args"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	ChannelID   string    `json:"channel_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// Attachment is a file sent with a reply.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result is what a command produces before the reply rule is applied.
type Result struct {
	Text       string      // rendered table
	TextName   string      // file name for the text attachment
	Chart      *Attachment // optional chart
	Note       string      // extra line appended to the content when attaching
	AlwaysFile bool        // always send the text as a file
	Ticker     string
	Extra      []Attachment
}

// CommandEvent is published when a command finishes.
type CommandEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Command    string    `json:"command"`
	Args       []string  `json:"args"`
	Ticker     string    `json:"ticker,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
)

// MoverAlert is raised when a symbol's change percent jumps between polls.
type MoverAlert struct {
	Symbol    string    `json:"symbol"`
	Delta     float64   `json:"delta"`
	Previous  float64   `json:"previous"`
	Current   float64   `json:"current"`
	ChannelID string    `json:"channel_id"`
	At        time.Time `json:"at"`
}

// Message renders the channel text for the alert.
func (a MoverAlert) Message() string {
	return fmt.Sprintf("%s is on the move! It has moved %.2f%% in the last minute. Buy it while it's hot!", a.Symbol, a.Delta)
}
