package store

import "time"

// Kind tells the dispatcher how a command body is interpreted.
type Kind string

const (
	// KindStatic replies with the stored response text verbatim.
	KindStatic Kind = "static"
	// KindExecutable runs the stored code body against the message.
	KindExecutable Kind = "executable"
)

// Command is a user-defined chat command. A record with an empty BotID is
// global and applies to every bot.
type Command struct {
	BotID       string    `json:"botId,omitempty"`
	Trigger     string    `json:"trigger"`
	Kind        Kind      `json:"type"`
	Response    string    `json:"response,omitempty"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	Cooldown    int       `json:"cooldown"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Variant is a named alternate behavior of an existing command, selected
// in chat with a marker-prefixed argument.
type Variant struct {
	BotID          string    `json:"botId,omitempty"`
	CommandTrigger string    `json:"commandTrigger"`
	Name           string    `json:"variantName"`
	Kind           Kind      `json:"type"`
	Response       string    `json:"response,omitempty"`
	Code           string    `json:"code,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
