package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/Jacobbrewer1/vanguard/pkg/ticketing"
)

// ticketsCategoryName is the category created for ticket channels when none exists.
const ticketsCategoryName = "\U0001F4E8 Tickets"

// historyPageSize is the page size used when enumerating channel history.
const historyPageSize = 100

// sessionChannels implements ticketing.ChannelManager over the discord session. It is
// the only place the lifecycle engine touches the Discord API.
type sessionChannels struct {
	a IApp
}

func newSessionChannels(a IApp) *sessionChannels {
	return &sessionChannels{a: a}
}

func (c *sessionChannels) Channel(channelID string) (*ticketing.ChannelInfo, error) {
	channel, err := c.a.Session().Channel(channelID)
	if err != nil {
		er := new(discordgo.RESTError)
		if errors.As(err, &er) && (er.Message.Code == discordgo.ErrCodeUnknownChannel || er.Message.Code == discordgo.ErrCodeGeneralError) { // General is thrown when a 404 is returned.
			return nil, ticketing.ErrChannelNotFound
		}
		return nil, fmt.Errorf("error getting channel: %w", err)
	}

	return &ticketing.ChannelInfo{
		ID:   channel.ID,
		Name: channel.Name,
	}, nil
}

func (c *sessionChannels) CreateTextChannel(params ticketing.TextChannelParams) (string, error) {
	category, err := c.ensureTicketsCategory(params.GuildID, params.UserID, params.StaffRolePatterns)
	if err != nil {
		return "", err
	}

	channel, err := c.a.Session().GuildChannelCreateComplex(params.GuildID, discordgo.GuildChannelCreateData{
		Name:                 params.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                params.Topic,
		PermissionOverwrites: c.ticketOverwrites(params.GuildID, params.UserID, params.StaffRolePatterns),
		ParentID:             category,
	})
	if err != nil {
		return "", fmt.Errorf("error creating ticket channel: %w", err)
	}
	return channel.ID, nil
}

func (c *sessionChannels) CreateVoiceChannel(params ticketing.VoiceChannelParams) (string, error) {
	category, err := c.ensureTicketsCategory(params.GuildID, params.UserID, params.StaffRolePatterns)
	if err != nil {
		return "", err
	}

	channel, err := c.a.Session().GuildChannelCreateComplex(params.GuildID, discordgo.GuildChannelCreateData{
		Name:                 params.Name,
		Type:                 discordgo.ChannelTypeGuildVoice,
		PermissionOverwrites: c.ticketOverwrites(params.GuildID, params.UserID, params.StaffRolePatterns),
		ParentID:             category,
		Bitrate:              params.Bitrate,
		UserLimit:            params.Limit,
	})
	if err != nil {
		return "", fmt.Errorf("error creating voice channel: %w", err)
	}
	return channel.ID, nil
}

func (c *sessionChannels) DeleteChannel(channelID string) error {
	if _, err := c.a.Session().ChannelDelete(channelID); err != nil {
		er := new(discordgo.RESTError)
		if errors.As(err, &er) && (er.Message.Code == discordgo.ErrCodeUnknownChannel || er.Message.Code == discordgo.ErrCodeGeneralError) {
			return ticketing.ErrChannelNotFound
		}
		return fmt.Errorf("error deleting channel: %w", err)
	}
	return nil
}

// History pages backwards through the channel and returns the messages oldest first.
func (c *sessionChannels) History(channelID string) ([]ticketing.HistoryMessage, error) {
	messages := make([]ticketing.HistoryMessage, 0)

	beforeID := ""
	for {
		page, err := c.a.Session().ChannelMessages(channelID, historyPageSize, beforeID, "", "")
		if err != nil {
			return nil, fmt.Errorf("error getting channel messages: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for _, msg := range page {
			attachments := make([]string, 0, len(msg.Attachments))
			for _, attachment := range msg.Attachments {
				attachments = append(attachments, attachment.URL)
			}

			author := ""
			if msg.Author != nil {
				author = msg.Author.Username
			}

			messages = append(messages, ticketing.HistoryMessage{
				Author:      author,
				Content:     msg.Content,
				Timestamp:   msg.Timestamp,
				Attachments: attachments,
			})
		}

		beforeID = page[len(page)-1].ID
		if len(page) < historyPageSize {
			break
		}
	}

	// Pages come back newest first, so reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (c *sessionChannels) SendWelcome(guildID, channelID, content string) error {
	cfg := c.a.ConfigDal().GetConfig(context.Background(), guildID)

	msg, err := c.a.Session().ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: ticketButtons(cfg)},
		},
	})
	if err != nil {
		return fmt.Errorf("error sending welcome message: %w", err)
	}

	// Pin the message so the management buttons stay reachable.
	if err := c.a.Session().ChannelMessagePin(channelID, msg.ID); err != nil {
		c.a.Log().Warn("Error pinning welcome message", slog.String(logging.KeyError, err.Error()))
	}
	return nil
}

// ticketButtons builds the management button row for a ticket's welcome message. Labels
// and styles come from the guild's button configuration, with a fallback per action.
func ticketButtons(cfg *entities.TicketConfig) []discordgo.MessageComponent {
	actions := []struct {
		action   string
		customID string
		label    string
		style    discordgo.ButtonStyle
	}{
		{action: "close", customID: CloseTicketButtonID, label: fmt.Sprintf("%s Fechar", CloseEmoji), style: discordgo.DangerButton},
		{action: "add_member", customID: AddMemberButtonID, label: "➕ Adicionar", style: discordgo.SuccessButton},
		{action: "remove_member", customID: RemoveMemberButtonID, label: "➖ Remover", style: discordgo.DangerButton},
		{action: "create_call", customID: CreateCallButtonID, label: "\U0001F4DE Criar Call", style: discordgo.PrimaryButton},
	}

	row := make([]discordgo.MessageComponent, 0, len(actions))
	for _, act := range actions {
		label, style := act.label, act.style
		if button, ok := cfg.Buttons[act.action]; ok {
			label = button.Label
			style = buttonStyle(button.Style)
		}

		row = append(row, discordgo.Button{
			Label:    label,
			Style:    style,
			CustomID: act.customID,
		})
	}
	return row
}

func (c *sessionChannels) SendNotice(channelID, content string) error {
	if _, err := c.a.Session().ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("error sending notice: %w", err)
	}
	return nil
}

// ensureTicketsCategory returns the ID of the category holding ticket channels, creating
// it when it does not exist yet.
func (c *sessionChannels) ensureTicketsCategory(guildID, userID string, staffRolePatterns []string) (string, error) {
	channels, err := c.a.Session().GuildChannels(guildID)
	if err != nil {
		return "", fmt.Errorf("error getting guild channels: %w", err)
	}

	for _, channel := range channels {
		if channel.Type == discordgo.ChannelTypeGuildCategory && strings.Contains(strings.ToLower(channel.Name), "ticket") {
			return channel.ID, nil
		}
	}

	c.a.Log().Warn("Tickets category does not exist, creating it now", slog.String(logging.KeyGuildID, guildID))

	category, err := c.a.Session().GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 ticketsCategoryName,
		Type:                 discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: c.ticketOverwrites(guildID, userID, staffRolePatterns),
	})
	if err != nil {
		return "", fmt.Errorf("error creating tickets category: %w", err)
	}
	return category.ID, nil
}

// ticketOverwrites builds the permission overwrites for a ticket channel: deny everyone,
// allow the requesting user and any role whose name matches a staff pattern.
func (c *sessionChannels) ticketOverwrites(guildID, userID string, staffRolePatterns []string) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		// Deny @everyone from seeing the ticket.
		{
			ID:    guildID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: 0,
			Deny:  discordgo.PermissionAll,
		},
		// The creator of the ticket can see the ticket.
		{
			ID:    userID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionAllText,
			Deny:  discordgo.PermissionMentionEveryone,
		},
	}

	roles, err := c.a.Session().GuildRoles(guildID)
	if err != nil {
		c.a.Log().Warn("Error getting guild roles, ticket will only be visible to the creator",
			slog.String(logging.KeyGuildID, guildID),
			slog.String(logging.KeyError, err.Error()))
		return overwrites
	}

	for _, role := range roles {
		for _, pattern := range staffRolePatterns {
			if strings.Contains(strings.ToLower(role.Name), strings.ToLower(pattern)) {
				overwrites = append(overwrites, &discordgo.PermissionOverwrite{
					ID:    role.ID,
					Type:  discordgo.PermissionOverwriteTypeRole,
					Allow: discordgo.PermissionAllText,
					Deny:  discordgo.PermissionMentionEveryone,
				})
				break
			}
		}
	}
	return overwrites
}
