package entities

import "github.com/Jacobbrewer1/vanguard/pkg/custom"

// TicketAction is the action recorded by a TicketLogEntry.
type TicketAction string

const (
	// ActionCreated is recorded when a ticket is opened.
	ActionCreated TicketAction = "created"

	// ActionClosed is recorded when a ticket is closed manually.
	ActionClosed TicketAction = "closed"

	// ActionForceClosed is recorded when a ticket is closed administratively.
	ActionForceClosed TicketAction = "ticket_force_closed"

	// ActionAutoClosed is recorded when a ticket is closed by the inactivity sweep.
	ActionAutoClosed TicketAction = "ticket_auto_closed"

	// ActionMemberAdded is recorded when a member is added to a ticket channel.
	ActionMemberAdded TicketAction = "member_added"

	// ActionMemberRemoved is recorded when a member is removed from a ticket channel.
	ActionMemberRemoved TicketAction = "member_removed"

	// ActionPanelCreated is recorded when a ticket panel is posted.
	ActionPanelCreated TicketAction = "panel_created"
)

// TicketLogEntry is one append only audit record. Entries are never mutated or deleted.
type TicketLogEntry struct {
	// GuildID is the ID of the guild that the action happened in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ChannelID is the ID of the channel that the action concerns.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// UserID is the ID of the user that performed the action. It is empty for actions
	// performed by the bot itself, such as an auto close.
	UserID string `json:"user_id,omitempty" bson:"user_id,omitempty"`

	// Action is the action that was performed.
	Action TicketAction `json:"action" bson:"action"`

	// Details is a human readable description of the action.
	Details string `json:"details" bson:"details"`

	// Timestamp is the time that the action was performed.
	Timestamp custom.Datetime `json:"timestamp" bson:"timestamp"`
}
