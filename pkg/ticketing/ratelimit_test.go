package ticketing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jacobbrewer1/vanguard/pkg/custom"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID = "guild-1"
	testUserID  = "user-1"
)

func newTestRateLimiter(t *testing.T, tickets *fakeTicketDal, rates *fakeRateDal, failClosed bool) *RateLimiter {
	t.Helper()
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	r := NewRateLimiter(l, &fakeConfig{}, tickets, rates, failClosed)
	r.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	return r
}

func TestRateLimiter_Check_CleanSlate(t *testing.T) {
	// A user with no open tickets and no ledger row is always allowed.
	r := newTestRateLimiter(t, newFakeTicketDal(), newFakeRateDal(), false)

	allowed, reason := r.Check(context.Background(), testGuildID, testUserID)
	require.True(t, allowed)
	require.Equal(t, AllowedReason, reason)
}

func TestRateLimiter_Check_MaxTickets(t *testing.T) {
	tickets := newFakeTicketDal()
	for _, channelID := range []string{"c1", "c2", "c3"} {
		require.NoError(t, tickets.CreateTicket(context.Background(), &entities.ActiveTicket{
			ChannelID:  channelID,
			GuildID:    testGuildID,
			UserID:     testUserID,
			TicketType: "suporte",
		}))
	}

	r := newTestRateLimiter(t, tickets, newFakeRateDal(), false)

	allowed, reason := r.Check(context.Background(), testGuildID, testUserID)
	require.False(t, allowed)
	require.Contains(t, reason, "3 active tickets")
	require.Contains(t, reason, "Limit: 3")
}

func TestRateLimiter_Check_Window(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lastTicket time.Time
		allowed    bool
		contains   string
	}{
		{
			// Defaults give a 24 hour window; 23 elapsed hours leaves a 1.0h wait.
			name:       "WithinWindow",
			lastTicket: now.Add(-23 * time.Hour),
			allowed:    false,
			contains:   "1.0h",
		},
		{
			name:       "ExactlyAtBoundary",
			lastTicket: now.Add(-24 * time.Hour),
			allowed:    true,
			contains:   AllowedReason,
		},
		{
			name:       "PastBoundary",
			lastTicket: now.Add(-25 * time.Hour),
			allowed:    true,
			contains:   AllowedReason,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates := newFakeRateDal()
			rates.rates[testGuildID+":"+testUserID] = &entities.UserTicketRate{
				GuildID:    testGuildID,
				UserID:     testUserID,
				LastTicket: custom.Datetime(tt.lastTicket),
			}

			r := newTestRateLimiter(t, newFakeTicketDal(), rates, false)

			allowed, reason := r.Check(context.Background(), testGuildID, testUserID)
			require.Equal(t, tt.allowed, allowed)
			require.Contains(t, reason, tt.contains)
		})
	}
}

func TestRateLimiter_Check_StoreFailure(t *testing.T) {
	// Fail open is the deliberate default: support access must not be blocked by an
	// infrastructure fault.
	tests := []struct {
		name       string
		failClosed bool
		allowed    bool
	}{
		{
			name:       "FailOpen",
			failClosed: false,
			allowed:    true,
		},
		{
			name:       "FailClosed",
			failClosed: true,
			allowed:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets := newFakeTicketDal()
			tickets.err = errors.New("store unreachable")

			r := newTestRateLimiter(t, tickets, newFakeRateDal(), tt.failClosed)

			allowed, _ := r.Check(context.Background(), testGuildID, testUserID)
			require.Equal(t, tt.allowed, allowed)
		})
	}
}

func TestRateLimiter_Record(t *testing.T) {
	rates := newFakeRateDal()
	r := newTestRateLimiter(t, newFakeTicketDal(), rates, false)

	require.NoError(t, r.Record(context.Background(), testGuildID, testUserID))

	rate, err := rates.GetRate(context.Background(), testGuildID, testUserID)
	require.NoError(t, err)

	// The first recorded creation yields a count of 1.
	require.Equal(t, 1, rate.TicketCount)
	require.Equal(t, r.now(), rate.LastTicket.Time())

	require.NoError(t, r.Record(context.Background(), testGuildID, testUserID))

	rate, err = rates.GetRate(context.Background(), testGuildID, testUserID)
	require.NoError(t, err)
	require.Equal(t, 2, rate.TicketCount)
}
