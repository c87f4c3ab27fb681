package ticketing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/Jacobbrewer1/vanguard/pkg/ticketing/monitoring"
	"github.com/prometheus/client_golang/prometheus"
)

// SweepInterval is how often the auto close sweep runs.
const SweepInterval = time.Hour

// Sweeper periodically force closes tickets that have been inactive beyond their
// guild's configured threshold.
type Sweeper struct {
	// l is the logger.
	l *slog.Logger

	// engine is the lifecycle engine used to close tickets.
	engine *Engine

	// tickets is the registry of open tickets.
	tickets dataaccess.TicketDal

	// cfg is the configuration source.
	cfg ConfigSource

	// interval is the sweep period.
	interval time.Duration

	// now returns the current time.
	now func() time.Time
}

// NewSweeper creates a new sweeper.
func NewSweeper(l *slog.Logger, engine *Engine, tickets dataaccess.TicketDal, cfg ConfigSource) *Sweeper {
	return &Sweeper{
		l:        l,
		engine:   engine,
		tickets:  tickets,
		cfg:      cfg,
		interval: SweepInterval,
		now:      time.Now,
	}
}

// Run runs the sweep on the configured period until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				s.l.Error("Error sweeping inactive tickets", slog.String(logging.KeyError, err.Error()))
			}
		}
	}
}

// SweepOnce performs one sweep pass over all open tickets. A failure processing one
// ticket does not abort the sweep of the remaining tickets.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	t := prometheus.NewTimer(monitoring.SweepDuration)
	defer t.ObserveDuration()

	tickets, err := s.tickets.ListTickets(ctx)
	if err != nil {
		return err
	}

	for _, ticket := range tickets {
		if err := s.sweepTicket(ctx, ticket); err != nil {
			s.l.Error("Error sweeping ticket",
				slog.String(logging.KeyGuildID, ticket.GuildID),
				slog.String(logging.KeyChannelID, ticket.ChannelID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
	return nil
}

func (s *Sweeper) sweepTicket(ctx context.Context, ticket *entities.ActiveTicket) error {
	cfg := s.cfg.GetConfig(ctx, ticket.GuildID)

	inactive := s.now().Sub(ticket.LastActivity.Time()).Hours()
	if inactive < float64(cfg.Settings.AutoCloseHours) {
		return nil
	}

	err := s.engine.Close(ctx, ticket.ChannelID, "", entities.ActionAutoClosed)
	if errors.Is(err, dataaccess.ErrTicketNotFound) {
		// Closed manually between the scan and the action.
		return nil
	}
	return err
}
