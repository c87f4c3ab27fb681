package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/vanguard/pkg/custom"
	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
)

// AllowedReason is the reason returned when a check allows a ticket creation.
const AllowedReason = "OK"

// RateLimiter decides whether a user may open a new ticket in a guild, based on the
// number of tickets they currently have open and the elapsed time since their last
// ticket creation.
type RateLimiter struct {
	// l is the logger.
	l *slog.Logger

	// cfg is the configuration source.
	cfg ConfigSource

	// tickets is the registry of open tickets.
	tickets dataaccess.TicketDal

	// rates is the rate limit ledger.
	rates dataaccess.RateDal

	// failClosed denies ticket creation when the store is unreachable. The default is
	// fail open: support access must not be blocked by an infrastructure fault.
	failClosed bool

	// now returns the current time.
	now func() time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(l *slog.Logger, cfg ConfigSource, tickets dataaccess.TicketDal, rates dataaccess.RateDal, failClosed bool) *RateLimiter {
	return &RateLimiter{
		l:          l,
		cfg:        cfg,
		tickets:    tickets,
		rates:      rates,
		failClosed: failClosed,
		now:        time.Now,
	}
}

// Check reports whether the user may open a new ticket in the guild. When the result is
// false, the reason is a user facing message.
func (r *RateLimiter) Check(ctx context.Context, guildID, userID string) (bool, string) {
	cfg := r.cfg.GetConfig(ctx, guildID)
	maxTickets := cfg.Settings.MaxTicketsPerUser
	rateLimitHours := cfg.Settings.RateLimitHours

	count, err := r.tickets.CountUserTickets(ctx, guildID, userID)
	if err != nil {
		return r.storeFailure(guildID, userID, err)
	}

	if count >= maxTickets {
		return false, fmt.Sprintf("You already have %d active tickets. Limit: %d", count, maxTickets)
	}

	rate, err := r.rates.GetRate(ctx, guildID, userID)
	if errors.Is(err, dataaccess.ErrRateNotFound) {
		// The user has never created a ticket in this guild.
		return true, AllowedReason
	} else if err != nil {
		return r.storeFailure(guildID, userID, err)
	}

	elapsed := r.now().Sub(rate.LastTicket.Time()).Hours()
	if elapsed < float64(rateLimitHours) {
		remaining := float64(rateLimitHours) - elapsed
		return false, fmt.Sprintf("Please wait %.1fh before opening another ticket", remaining)
	}

	return true, AllowedReason
}

// Record upserts the user's ledger row, setting the last ticket time to now and
// incrementing the lifetime ticket count. The first recorded creation yields a count
// of 1.
func (r *RateLimiter) Record(ctx context.Context, guildID, userID string) error {
	if err := r.rates.RecordTicket(ctx, guildID, userID, custom.Datetime(r.now())); err != nil {
		return fmt.Errorf("error recording ticket creation: %w", err)
	}
	return nil
}

// storeFailure applies the configured policy for a store fault during a check.
func (r *RateLimiter) storeFailure(guildID, userID string, err error) (bool, string) {
	r.l.Warn("Rate limit check failed against the store",
		slog.String(logging.KeyGuildID, guildID),
		slog.String(logging.KeyUserID, userID),
		slog.String(logging.KeyError, err.Error()),
	)

	if r.failClosed {
		return false, "Ticket creation is temporarily unavailable. Please try again later."
	}
	return true, AllowedReason
}
