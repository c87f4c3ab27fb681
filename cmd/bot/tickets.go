package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/Jacobbrewer1/vanguard/pkg/messages"
	"github.com/Jacobbrewer1/vanguard/pkg/ticketing"
)

const (
	// OpenTicketButtonPrefix is the custom ID prefix for panel open buttons. The ticket
	// type follows the prefix, e.g. "open_ticket:suporte".
	OpenTicketButtonPrefix = "open_ticket"

	// CloseTicketButtonID is the ID for the close ticket button.
	CloseTicketButtonID = "close_ticket_button"

	// ConfirmCloseButtonPrefix is the custom ID prefix for the close confirmation button.
	ConfirmCloseButtonPrefix = "confirm_close"

	// CancelCloseButtonPrefix is the custom ID prefix for the close cancellation button.
	CancelCloseButtonPrefix = "cancel_close"
)

const (
	// CloseEmoji is the emoji that will be used for the close button. (Padlock)
	CloseEmoji = "\U0001F510"

	// TicketEmoji is the emoji that will be used for the open button. (Envelope with arrow)
	TicketEmoji = "\U0001F4E9"
)

const (
	// TicketCmdName is the command for controlling tickets.
	TicketCmdName = "ticket"

	// OpenCmdName is the sub command for opening a ticket.
	OpenCmdName = "open"

	// CloseCmdName is the sub command for closing a ticket.
	CloseCmdName = "close"

	// ForceCloseCmdName is the sub command for force closing a ticket.
	ForceCloseCmdName = "forceclose"
)

// closeChannelDelay is how long a closed channel stays visible before deletion, so the
// closing notice can be read.
const closeChannelDelay = 5 * time.Second

// closeConfirmTimeout is how long a close confirmation prompt stays valid.
const closeConfirmTimeout = 30 * time.Second

var (
	// ticketCmd is the command for controlling tickets.
	ticketCmd = &discordgo.ApplicationCommand{
		Name:        TicketCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for controlling tickets.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        OpenCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This opens a new ticket.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "type",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "The type of ticket to open.",
						Required:    true,
					},
					{
						Name:        "reason",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "The reason for opening the ticket.",
						Required:    false,
					},
				},
			},
			{
				Name:        CloseCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This closes the ticket for the channel that the command was executed in.",
			},
			{
				Name:        ForceCloseCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This force closes a ticket without confirmation. Requires Manage Channels.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "channel",
						Type:        discordgo.ApplicationCommandOptionChannel,
						Description: "The ticket channel to close. Defaults to the current channel.",
						Required:    false,
					},
				},
			},
		},
	}
)

// ticketCmdController resolves the ticket subcommand into its processor.
func ticketCmdController(_ IApp, cmd string) (commandProcessor, error) {
	switch cmd {
	case OpenCmdName:
		return openTicketHandler, nil
	case CloseCmdName:
		return closeTicketHandler, nil
	case ForceCloseCmdName:
		return forceCloseTicketHandler, nil
	default:
		return nil, fmt.Errorf("unknown subcommand %s", cmd)
	}
}

// openTicketHandler handles /ticket open.
func openTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	opts := commandOptions(i)

	ticketType := ""
	if opt, ok := opts["type"]; ok {
		ticketType = strings.ToLower(strings.TrimSpace(opt.StringValue()))
	}

	reason := ""
	if opt, ok := opts["reason"]; ok {
		reason = strings.TrimSpace(opt.StringValue())
	}

	return openTicket(a, i, ticketType, reason)
}

// openTicketButtonHandler handles presses on a panel open button. The ticket type is
// carried in the custom ID after the prefix.
func openTicketButtonHandler(a IApp, i *discordgo.InteractionCreate) error {
	customID := i.MessageComponentData().CustomID

	parts := strings.SplitN(customID, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return fmt.Errorf("malformed open button custom ID %q", customID)
	}

	// Panel buttons go through a per user cooldown so one user cannot spam the panel.
	if !a.UIState().AllowPanelClick(i.GuildID, i.Member.User.ID) {
		return respondEphemeral(a, i, messages.PanelCooldown)
	}

	return openTicket(a, i, parts[1], "")
}

func openTicket(a IApp, i *discordgo.InteractionCreate, ticketType, reason string) error {
	cfg := a.ConfigDal().GetConfig(context.Background(), i.GuildID)

	if !cfg.HasTicketType(ticketType) {
		return respondEphemeral(a, i, fmt.Sprintf(messages.ErrUnknownTicketType, ticketType, strings.Join(cfg.TicketTypes(), ", ")))
	}

	if cfg.Settings.RequireReason && reason == "" {
		return respondEphemeral(a, i, messages.ErrReasonRequired)
	}

	ticket, err := a.Engine().Open(context.Background(), ticketing.OpenRequest{
		GuildID:    i.GuildID,
		UserID:     i.Member.User.ID,
		Username:   displayName(i.Member),
		TicketType: ticketType,
		Reason:     reason,
	})
	if err != nil {
		denial := new(ticketing.DenialError)
		if errors.As(err, &denial) {
			return respondEphemeral(a, i, denial.Reason)
		}

		duplicate := new(ticketing.DuplicateTicketError)
		if errors.As(err, &duplicate) {
			return respondEphemeral(a, i, fmt.Sprintf(messages.ErrDuplicateTicket, duplicate.ChannelID))
		}
		return fmt.Errorf("error opening ticket: %w", err)
	}

	// Respond to the interaction saying that the ticket has been created in channel <channel>.
	// This message is an embedded ephemeral message with all the information about the ticket.
	err = a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Ticket Criado",
					Description: fmt.Sprintf("<@%s>, o seu ticket foi criado.", i.Member.User.ID),
					Color:       0x00ff00,
					Fields: []*discordgo.MessageEmbedField{
						{
							Name:   "Tipo",
							Value:  ticketType,
							Inline: true,
						},
						{
							Name:   "Canal",
							Value:  fmt.Sprintf("<#%s>", ticket.ChannelID),
							Inline: true,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

// closeTicketHandler handles /ticket close and the close button inside a ticket channel.
// It asks for confirmation before anything is deleted.
func closeTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	ticket, err := a.TicketDal().GetTicket(context.Background(), i.ChannelID)
	if err != nil {
		if errors.Is(err, dataaccess.ErrTicketNotFound) {
			return respondEphemeral(a, i, messages.ErrTicketNotFound)
		}
		return fmt.Errorf("error getting ticket: %w", err)
	}

	// Only the ticket owner or staff may close a ticket.
	if i.Member.User.ID != ticket.UserID && !hasStaffRole(a, i.GuildID, i.Member) {
		return respondEphemeral(a, i, messages.ErrNotTicketOwnerOrStaff)
	}

	a.UIState().AddPendingClose(i.ChannelID, i.Member.User.ID, closeConfirmTimeout)

	// Ask for confirmation with confirm and cancel buttons.
	err = a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: messages.TicketCloseConfirm,
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    fmt.Sprintf("%s Confirmar", CloseEmoji),
							Style:    discordgo.DangerButton,
							CustomID: ConfirmCloseButtonPrefix + ":" + i.ChannelID,
						},
						discordgo.Button{
							Label:    "Cancelar",
							Style:    discordgo.SecondaryButton,
							CustomID: CancelCloseButtonPrefix + ":" + i.ChannelID,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

// confirmCloseHandler handles the close confirmation button.
func confirmCloseHandler(a IApp, i *discordgo.InteractionCreate) error {
	channelID := buttonArgument(i, i.ChannelID)

	pending, ok := a.UIState().TakePendingClose(channelID)
	if !ok {
		return respondEphemeral(a, i, messages.ErrCloseConfirmExpired)
	}

	// The confirmation belongs to whoever requested the close.
	if pending.UserID != i.Member.User.ID {
		return respondEphemeral(a, i, messages.ErrNotTicketOwnerOrStaff)
	}

	if err := respondEphemeral(a, i, messages.TicketClosing); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}

	// The channel deletion waits out the close delay, so run the close off the
	// interaction path.
	go func() {
		if err := a.Engine().Close(context.Background(), channelID, i.Member.User.ID, entities.ActionClosed); err != nil {
			a.Log().Error("Error closing ticket",
				slog.String(logging.KeyChannelID, channelID),
				slog.String(logging.KeyError, err.Error()))
		}
	}()
	return nil
}

// cancelCloseHandler handles the close cancellation button.
func cancelCloseHandler(a IApp, i *discordgo.InteractionCreate) error {
	channelID := buttonArgument(i, i.ChannelID)
	a.UIState().TakePendingClose(channelID)
	return respondEphemeral(a, i, messages.TicketCloseCancelled)
}

// forceCloseTicketHandler handles /ticket forceclose. No confirmation is asked.
func forceCloseTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	if !hasManageChannels(i) {
		return respondEphemeral(a, i, messages.ErrMissingManageChannels)
	}

	channelID := i.ChannelID
	if opt, ok := commandOptions(i)["channel"]; ok {
		channelID = opt.ChannelValue(nil).ID
	}

	if err := respondEphemeral(a, i, messages.TicketClosing); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}

	go func() {
		err := a.Engine().Close(context.Background(), channelID, i.Member.User.ID, entities.ActionForceClosed)
		if err != nil && !errors.Is(err, dataaccess.ErrTicketNotFound) {
			a.Log().Error("Error force closing ticket",
				slog.String(logging.KeyChannelID, channelID),
				slog.String(logging.KeyError, err.Error()))
		}
	}()
	return nil
}

// buttonArgument returns the argument carried after the prefix in the pressed button's
// custom ID, or the fallback when there is none.
func buttonArgument(i *discordgo.InteractionCreate, fallback string) string {
	parts := strings.SplitN(i.MessageComponentData().CustomID, ":", 2)
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	return fallback
}
