// Package ticketing implements the ticket lifecycle: the rate limiter gating ticket
// creation, the open/close/force-close/auto-close engine, and the inactivity sweeper.
// It operates over the data access layers and a channel manager interface so that the
// Discord session stays at the edge of the application.
package ticketing

import (
	"context"
	"errors"
	"time"

	"github.com/Jacobbrewer1/vanguard/pkg/entities"
)

// ErrChannelNotFound is returned by a ChannelManager when a channel no longer exists,
// e.g. because it was deleted out of band.
var ErrChannelNotFound = errors.New("channel not found")

// ConfigSource provides the per guild ticket configuration.
type ConfigSource interface {
	// GetConfig gets the ticket configuration for a guild. It never fails; missing or
	// unparsable documents degrade to the defaults.
	GetConfig(ctx context.Context, guildID string) *entities.TicketConfig
}

// ChannelInfo is the subset of channel state the engine needs.
type ChannelInfo struct {
	// ID is the ID of the channel.
	ID string

	// Name is the name of the channel.
	Name string
}

// TextChannelParams are the parameters for provisioning a ticket text channel. The
// channel denies everyone by default and allows the requesting user plus any role whose
// name matches one of the staff role patterns.
type TextChannelParams struct {
	// GuildID is the guild to create the channel in.
	GuildID string

	// Name is the name of the channel.
	Name string

	// Topic is the topic of the channel.
	Topic string

	// UserID is the requesting user, granted access to the channel.
	UserID string

	// StaffRolePatterns is the set of role name substrings granted access.
	StaffRolePatterns []string
}

// VoiceChannelParams are the parameters for provisioning a companion voice channel.
type VoiceChannelParams struct {
	// GuildID is the guild to create the channel in.
	GuildID string

	// Name is the name of the channel.
	Name string

	// UserID is the requesting user, granted access to the channel.
	UserID string

	// Limit is the member limit of the channel.
	Limit int

	// Bitrate is the bitrate of the channel.
	Bitrate int

	// StaffRolePatterns is the set of role name substrings granted access.
	StaffRolePatterns []string
}

// HistoryMessage is one message of a channel's history, as captured in a backup.
type HistoryMessage struct {
	// Author is the author of the message.
	Author string `json:"author"`

	// Content is the text content of the message.
	Content string `json:"content"`

	// Timestamp is the time the message was sent.
	Timestamp time.Time `json:"timestamp"`

	// Attachments is the list of attachment URLs on the message.
	Attachments []string `json:"attachments"`
}

// ChannelManager is the boundary to the chat platform's channel primitives. The Discord
// session implements it at the application edge.
type ChannelManager interface {
	// Channel gets a channel. It returns ErrChannelNotFound if the channel no longer
	// exists.
	Channel(channelID string) (*ChannelInfo, error)

	// CreateTextChannel creates a ticket text channel and returns its ID.
	CreateTextChannel(params TextChannelParams) (string, error)

	// CreateVoiceChannel creates a companion voice channel and returns its ID.
	CreateVoiceChannel(params VoiceChannelParams) (string, error)

	// DeleteChannel deletes a channel.
	DeleteChannel(channelID string) error

	// History enumerates the full message history of a channel, oldest first.
	History(channelID string) ([]HistoryMessage, error)

	// SendWelcome posts the welcome notice in a new ticket channel, with the guild's
	// configured ticket management buttons attached.
	SendWelcome(guildID, channelID, content string) error

	// SendNotice posts a plain notice in a channel.
	SendNotice(channelID, content string) error
}
