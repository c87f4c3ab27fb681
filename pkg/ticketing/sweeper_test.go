package ticketing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jacobbrewer1/vanguard/pkg/custom"
	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/stretchr/testify/require"
)

func newTestSweeper(t *testing.T, env *testEnv) *Sweeper {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	s := NewSweeper(l, env.engine, env.tickets, &fakeConfig{})
	s.now = func() time.Time { return env.now }
	return s
}

func TestSweeper_ClosesInactiveTickets(t *testing.T) {
	env := newTestEnv(t, nil)
	s := newTestSweeper(t, env)

	ticket := openTestTicket(t, env, "suporte")

	// Defaults auto close after 48 inactive hours.
	env.now = env.now.Add(49 * time.Hour)
	require.NoError(t, s.SweepOnce(context.Background()))

	_, err := env.tickets.GetTicket(context.Background(), ticket.ChannelID)
	require.ErrorIs(t, err, dataaccess.ErrTicketNotFound)

	auto := env.logs.byAction(entities.ActionAutoClosed)
	require.Len(t, auto, 1)
	require.Equal(t, ticket.ChannelID, auto[0].ChannelID)
}

func TestSweeper_KeepsActiveTickets(t *testing.T) {
	env := newTestEnv(t, nil)
	s := newTestSweeper(t, env)

	ticket := openTestTicket(t, env, "suporte")

	env.now = env.now.Add(47 * time.Hour)
	require.NoError(t, s.SweepOnce(context.Background()))

	_, err := env.tickets.GetTicket(context.Background(), ticket.ChannelID)
	require.NoError(t, err)
	require.Empty(t, env.logs.byAction(entities.ActionAutoClosed))
}

func TestSweeper_RemovesStaleRows(t *testing.T) {
	env := newTestEnv(t, nil)
	s := newTestSweeper(t, env)

	// A ticket whose backing channel was deleted out of band.
	require.NoError(t, env.tickets.CreateTicket(context.Background(), &entities.ActiveTicket{
		ChannelID:    "gone",
		GuildID:      testGuildID,
		UserID:       testUserID,
		TicketType:   "suporte",
		LastActivity: custom.Datetime(env.now.Add(-72 * time.Hour)),
	}))

	require.NoError(t, s.SweepOnce(context.Background()))

	// The stale row is removed and no channel deletion was attempted.
	_, err := env.tickets.GetTicket(context.Background(), "gone")
	require.ErrorIs(t, err, dataaccess.ErrTicketNotFound)
	require.Empty(t, env.channels.deleted)
}

func TestSweeper_ContinuesPastFailures(t *testing.T) {
	env := newTestEnv(t, nil)
	s := newTestSweeper(t, env)

	bad := openTestTicket(t, env, "suporte")
	good, err := env.engine.Open(context.Background(), OpenRequest{
		GuildID:    testGuildID,
		UserID:     "user-2",
		Username:   "lamb",
		TicketType: "suporte",
	})
	require.NoError(t, err)

	// The first ticket's channel lookup fails hard; the sweep must still process the
	// second ticket.
	env.channels.channelErr[bad.ChannelID] = errors.New("api down")

	env.now = env.now.Add(49 * time.Hour)
	require.NoError(t, s.SweepOnce(context.Background()))

	_, err = env.tickets.GetTicket(context.Background(), bad.ChannelID)
	require.NoError(t, err, "failing ticket should be left in place")

	_, err = env.tickets.GetTicket(context.Background(), good.ChannelID)
	require.ErrorIs(t, err, dataaccess.ErrTicketNotFound)
}

func TestSweeper_IdempotentAgainstManualClose(t *testing.T) {
	env := newTestEnv(t, nil)
	s := newTestSweeper(t, env)

	ticket := openTestTicket(t, env, "suporte")
	env.now = env.now.Add(49 * time.Hour)

	// A manual close lands between the sweep's scan and its action; acting on the
	// already swept row must be a no-op rather than an error.
	require.NoError(t, env.engine.Close(context.Background(), ticket.ChannelID, testUserID, entities.ActionClosed))

	require.NoError(t, s.sweepTicket(context.Background(), ticket))

	// No duplicate close side effects.
	require.Len(t, env.logs.byAction(entities.ActionClosed), 1)
	require.Empty(t, env.logs.byAction(entities.ActionAutoClosed))
}
