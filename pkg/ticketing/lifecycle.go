package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Jacobbrewer1/vanguard/pkg/custom"
	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/Jacobbrewer1/vanguard/pkg/ticketing/monitoring"
)

// DenialError is returned when an open request is denied by policy. It is reported to
// the requester, not logged as an error.
type DenialError struct {
	// Reason is the user facing denial message.
	Reason string
}

func (e *DenialError) Error() string {
	return "ticket denied: " + e.Reason
}

// DuplicateTicketError is returned when the user already has an open ticket of the
// requested type. The caller should point the user at the existing channel.
type DuplicateTicketError struct {
	// ChannelID is the channel of the existing ticket.
	ChannelID string
}

func (e *DuplicateTicketError) Error() string {
	return "an open ticket of this type already exists in channel " + e.ChannelID
}

// OpenRequest is a request to open a ticket.
type OpenRequest struct {
	// GuildID is the guild the ticket is opened in.
	GuildID string

	// UserID is the requesting user.
	UserID string

	// Username is the requesting user's display name.
	Username string

	// TicketType is the category tag of the ticket, e.g. "suporte".
	TicketType string

	// Reason is the reason given for opening the ticket, if any.
	Reason string
}

// Engine orchestrates the ticket lifecycle transitions. It exclusively owns writes to
// the ticket registry and the audit log.
type Engine struct {
	// l is the logger.
	l *slog.Logger

	// cfg is the configuration source.
	cfg ConfigSource

	// tickets is the registry of open tickets.
	tickets dataaccess.TicketDal

	// logs is the audit log.
	logs dataaccess.LogDal

	// limiter is the rate limiter consulted before an open.
	limiter *RateLimiter

	// channels is the channel manager.
	channels ChannelManager

	// backups writes message history backups on close.
	backups *BackupWriter

	// locks serializes open requests per (guild, user).
	locks *userLocks

	// closeDelay is how long the closing notice stays visible before the channel is
	// deleted.
	closeDelay time.Duration

	// now returns the current time.
	now func() time.Time
}

// NewEngine creates a new lifecycle engine.
func NewEngine(
	l *slog.Logger,
	cfg ConfigSource,
	tickets dataaccess.TicketDal,
	logs dataaccess.LogDal,
	limiter *RateLimiter,
	channels ChannelManager,
	backups *BackupWriter,
	closeDelay time.Duration,
) *Engine {
	return &Engine{
		l:          l,
		cfg:        cfg,
		tickets:    tickets,
		logs:       logs,
		limiter:    limiter,
		channels:   channels,
		backups:    backups,
		locks:      newUserLocks(),
		closeDelay: closeDelay,
		now:        time.Now,
	}
}

// Open opens a new ticket. It returns a DenialError when policy denies the request and
// a DuplicateTicketError when the user already has an open ticket of the same type.
func (e *Engine) Open(ctx context.Context, req OpenRequest) (*entities.ActiveTicket, error) {
	// The lock covers the rate/count check and the registry insert so that two
	// interleaved open requests for the same user cannot both pass the count check.
	unlock := e.locks.lock(req.GuildID, req.UserID)
	defer unlock()

	// One open ticket per type per user; a second request is pointed at the existing
	// channel instead of being rate limited, so the duplicate check runs first.
	existing, err := e.tickets.GetTicketByUserAndType(ctx, req.GuildID, req.UserID, req.TicketType)
	if err == nil {
		return nil, &DuplicateTicketError{ChannelID: existing.ChannelID}
	} else if !errors.Is(err, dataaccess.ErrTicketNotFound) {
		return nil, fmt.Errorf("error checking for existing ticket: %w", err)
	}

	allowed, reason := e.limiter.Check(ctx, req.GuildID, req.UserID)
	if !allowed {
		monitoring.TicketsDenied.Inc()
		return nil, &DenialError{Reason: reason}
	}

	cfg := e.cfg.GetConfig(ctx, req.GuildID)
	now := e.now()

	channelID, err := e.channels.CreateTextChannel(TextChannelParams{
		GuildID:           req.GuildID,
		Name:              fmt.Sprintf("ticket-%s-%d", strings.ToLower(req.Username), now.Unix()),
		Topic:             fmt.Sprintf("Ticket created by %s", req.Username),
		UserID:            req.UserID,
		StaffRolePatterns: entities.StaffRoleNames,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating ticket channel: %w", err)
	}

	ticket := &entities.ActiveTicket{
		ChannelID:    channelID,
		GuildID:      req.GuildID,
		UserID:       req.UserID,
		Username:     req.Username,
		TicketType:   req.TicketType,
		Reason:       req.Reason,
		Priority:     entities.PriorityNormal,
		CreatedAt:    custom.Datetime(now),
		LastActivity: custom.Datetime(now),
	}

	// The companion voice channel is optional; a failure here leaves the ticket usable
	// without one.
	if tmpl, ok := cfg.Voice[req.TicketType]; ok {
		voiceID, err := e.channels.CreateVoiceChannel(VoiceChannelParams{
			GuildID:           req.GuildID,
			Name:              strings.ReplaceAll(tmpl.Name, "{user}", req.Username),
			UserID:            req.UserID,
			Limit:             tmpl.Limit,
			Bitrate:           tmpl.Bitrate,
			StaffRolePatterns: entities.StaffRoleNames,
		})
		if err != nil {
			e.l.Warn("Error creating companion voice channel",
				slog.String(logging.KeyGuildID, req.GuildID),
				slog.String(logging.KeyChannelID, channelID),
				slog.String(logging.KeyError, err.Error()),
			)
		} else {
			ticket.VoiceChannelID = voiceID
		}
	}

	if err := e.tickets.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	if err := e.limiter.Record(ctx, req.GuildID, req.UserID); err != nil {
		e.l.Warn("Error recording ticket creation in the rate ledger",
			slog.String(logging.KeyGuildID, req.GuildID),
			slog.String(logging.KeyUserID, req.UserID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	e.appendLog(ctx, &entities.TicketLogEntry{
		GuildID:   req.GuildID,
		ChannelID: channelID,
		UserID:    req.UserID,
		Action:    entities.ActionCreated,
		Details:   fmt.Sprintf("Ticket %s criado: <#%s>", req.TicketType, channelID),
		Timestamp: custom.Datetime(now),
	})

	motive := req.Reason
	if motive == "" {
		motive = "Não especificado"
	}
	welcome := fmt.Sprintf("Olá <@%s>! Seu ticket foi criado com sucesso.\n\n**Tipo:** %s\n**Motivo:** %s",
		req.UserID, req.TicketType, motive)
	if err := e.channels.SendWelcome(req.GuildID, channelID, welcome); err != nil {
		e.l.Warn("Error sending welcome notice",
			slog.String(logging.KeyChannelID, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	monitoring.TicketsOpened.WithLabelValues(req.TicketType).Inc()
	return ticket, nil
}

// Close performs the closing to closed transition for a channel's ticket. The action
// must be one of ActionClosed, ActionForceClosed or ActionAutoClosed; actorID may be
// empty for an auto close. Authorization and, for a manual close, the confirmation step
// are the caller's responsibility.
//
// Closing an already closed or never tracked channel returns
// dataaccess.ErrTicketNotFound and performs no destructive action.
func (e *Engine) Close(ctx context.Context, channelID, actorID string, action entities.TicketAction) error {
	ticket, err := e.tickets.GetTicket(ctx, channelID)
	if err != nil {
		// Includes ErrTicketNotFound; a blind close must not touch channels.
		return err
	}

	channel, err := e.channels.Channel(channelID)
	if errors.Is(err, ErrChannelNotFound) {
		// The channel was deleted out of band; drop the stale row and stop.
		e.l.Warn("Ticket channel no longer exists, removing stale registry row",
			slog.String(logging.KeyChannelID, channelID),
		)
		if err := e.tickets.DeleteTicket(ctx, channelID); err != nil && !errors.Is(err, dataaccess.ErrTicketNotFound) {
			return fmt.Errorf("error deleting stale ticket: %w", err)
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("error getting ticket channel: %w", err)
	}

	cfg := e.cfg.GetConfig(ctx, ticket.GuildID)
	if cfg.Settings.BackupEnabled {
		e.backupTicket(ticket, channel)
	}

	// The registry delete is the commit point. Losing the race against a concurrent
	// close means the other party completed the transition; report not found and leave
	// their side effects alone.
	if err := e.tickets.DeleteTicket(ctx, channelID); err != nil {
		return err
	}

	e.appendLog(ctx, &entities.TicketLogEntry{
		GuildID:   ticket.GuildID,
		ChannelID: channelID,
		UserID:    actorID,
		Action:    action,
		Details:   closeDetails(channel.Name, action),
		Timestamp: custom.Datetime(e.now()),
	})

	if ticket.VoiceChannelID != "" {
		if err := e.channels.DeleteChannel(ticket.VoiceChannelID); err != nil {
			e.l.Warn("Error deleting companion voice channel",
				slog.String(logging.KeyChannelID, ticket.VoiceChannelID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}

	if err := e.channels.SendNotice(channelID, closeNotice(cfg, action)); err != nil {
		e.l.Warn("Error sending closing notice",
			slog.String(logging.KeyChannelID, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	// Leave the closing notice visible for a moment before the channel goes away.
	if e.closeDelay > 0 {
		time.Sleep(e.closeDelay)
	}
	if err := e.channels.DeleteChannel(channelID); err != nil {
		e.l.Warn("Error deleting ticket channel",
			slog.String(logging.KeyChannelID, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	monitoring.TicketsClosed.WithLabelValues(string(action)).Inc()
	return nil
}

// ErrNoVoiceTemplate is returned by EnsureVoiceChannel when the ticket's type has no
// voice channel template configured.
var ErrNoVoiceTemplate = errors.New("no voice template configured for ticket type")

// EnsureVoiceChannel provisions the companion voice channel for a channel's ticket if it
// does not have one yet, and returns the voice channel ID either way. The voice channel
// is recorded on the registry row so the close path deletes it with the ticket.
func (e *Engine) EnsureVoiceChannel(ctx context.Context, channelID string) (string, error) {
	ticket, err := e.tickets.GetTicket(ctx, channelID)
	if err != nil {
		return "", err
	}
	if ticket.VoiceChannelID != "" {
		return ticket.VoiceChannelID, nil
	}

	cfg := e.cfg.GetConfig(ctx, ticket.GuildID)
	tmpl, ok := cfg.Voice[ticket.TicketType]
	if !ok {
		return "", ErrNoVoiceTemplate
	}

	voiceID, err := e.channels.CreateVoiceChannel(VoiceChannelParams{
		GuildID:           ticket.GuildID,
		Name:              strings.ReplaceAll(tmpl.Name, "{user}", ticket.Username),
		UserID:            ticket.UserID,
		Limit:             tmpl.Limit,
		Bitrate:           tmpl.Bitrate,
		StaffRolePatterns: entities.StaffRoleNames,
	})
	if err != nil {
		return "", fmt.Errorf("error creating voice channel: %w", err)
	}

	if err := e.tickets.SetVoiceChannel(ctx, channelID, voiceID); err != nil {
		return voiceID, fmt.Errorf("error saving voice channel: %w", err)
	}
	return voiceID, nil
}

// TouchActivity updates a ticket's last activity time. It is a no-op for channels that
// are not tickets.
func (e *Engine) TouchActivity(ctx context.Context, channelID string) error {
	return e.tickets.TouchActivity(ctx, channelID, custom.Datetime(e.now()))
}

func (e *Engine) backupTicket(ticket *entities.ActiveTicket, channel *ChannelInfo) {
	// A failed backup is logged and the close continues; the backup is best effort.
	messages, err := e.channels.History(ticket.ChannelID)
	if err != nil {
		e.l.Warn("Error exporting ticket history",
			slog.String(logging.KeyChannelID, ticket.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}

	if _, err := e.backups.Write(ticket.GuildID, ticket.ChannelID, channel.Name, messages); err != nil {
		e.l.Warn("Error writing ticket backup",
			slog.String(logging.KeyChannelID, ticket.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

func (e *Engine) appendLog(ctx context.Context, entry *entities.TicketLogEntry) {
	// The audit trail is best effort; a failed append must not abort the transition.
	if err := e.logs.AppendEntry(ctx, entry); err != nil {
		e.l.Warn("Error appending ticket log entry",
			slog.String(logging.KeyChannelID, entry.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

func closeDetails(channelName string, action entities.TicketAction) string {
	switch action {
	case entities.ActionForceClosed:
		return fmt.Sprintf("Ticket %s fechado à força", channelName)
	case entities.ActionAutoClosed:
		return fmt.Sprintf("Ticket %s fechado por inatividade", channelName)
	default:
		return fmt.Sprintf("Ticket %s fechado", channelName)
	}
}

func closeNotice(cfg *entities.TicketConfig, action entities.TicketAction) string {
	if action == entities.ActionAutoClosed {
		return fmt.Sprintf("Este ticket foi fechado automaticamente por inatividade de %d horas.", cfg.Settings.AutoCloseHours)
	}
	return "Este ticket foi fechado. O canal será removido em instantes."
}
