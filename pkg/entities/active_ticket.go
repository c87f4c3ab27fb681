package entities

import "github.com/Jacobbrewer1/vanguard/pkg/custom"

// PriorityNormal is the default priority for a new ticket.
const PriorityNormal = "normal"

// ActiveTicket is one open support channel. There is at most one row per channel.
type ActiveTicket struct {
	// ChannelID is the ID of the channel that the ticket is in. It is the unique key.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// UserID is the ID of the user that opened the ticket.
	UserID string `json:"user_id" bson:"user_id"`

	// Username is the display name of the user that opened the ticket.
	Username string `json:"username" bson:"username"`

	// TicketType is the category tag of the ticket, e.g. "suporte".
	TicketType string `json:"ticket_type" bson:"ticket_type"`

	// Reason is the reason given when the ticket was opened, if any.
	Reason string `json:"reason" bson:"reason"`

	// VoiceChannelID is the ID of the companion voice channel, if one was provisioned.
	VoiceChannelID string `json:"voice_channel_id,omitempty" bson:"voice_channel_id,omitempty"`

	// Priority is the priority of the ticket.
	Priority string `json:"priority" bson:"priority"`

	// StaffAssigned is the ID of the staff member assigned to the ticket, if any.
	StaffAssigned string `json:"staff_assigned,omitempty" bson:"staff_assigned,omitempty"`

	// CreatedAt is the time that the ticket was opened.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// LastActivity is the time of the last message in the ticket channel.
	LastActivity custom.Datetime `json:"last_activity" bson:"last_activity"`
}
