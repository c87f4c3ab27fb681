package ticketing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/Jacobbrewer1/vanguard/pkg/custom"
	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/stretchr/testify/require"
)

// testEnv bundles an engine with its fakes.
type testEnv struct {
	engine   *Engine
	tickets  *fakeTicketDal
	rates    *fakeRateDal
	logs     *fakeLogDal
	channels *fakeChannels
	now      time.Time
}

func newTestEnv(t *testing.T, cfg *entities.TicketConfig) *testEnv {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	env := &testEnv{
		tickets:  newFakeTicketDal(),
		rates:    newFakeRateDal(),
		logs:     new(fakeLogDal),
		channels: newFakeChannels(),
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	source := &fakeConfig{cfg: cfg}
	limiter := NewRateLimiter(l, source, env.tickets, env.rates, false)
	limiter.now = func() time.Time { return env.now }

	backups := NewBackupWriter(t.TempDir())
	backups.now = func() time.Time { return env.now }

	env.engine = NewEngine(l, source, env.tickets, env.logs, limiter, env.channels, backups, 0)
	env.engine.now = func() time.Time { return env.now }
	return env
}

func openTestTicket(t *testing.T, env *testEnv, ticketType string) *entities.ActiveTicket {
	t.Helper()
	ticket, err := env.engine.Open(context.Background(), OpenRequest{
		GuildID:    testGuildID,
		UserID:     testUserID,
		Username:   "ana",
		TicketType: ticketType,
	})
	require.NoError(t, err)
	return ticket
}

func TestEngine_Open(t *testing.T) {
	env := newTestEnv(t, nil)

	ticket := openTestTicket(t, env, "suporte")

	require.Equal(t, testGuildID, ticket.GuildID)
	require.Equal(t, testUserID, ticket.UserID)
	require.Equal(t, "suporte", ticket.TicketType)
	require.Equal(t, entities.PriorityNormal, ticket.Priority)
	require.Equal(t, env.now, ticket.CreatedAt.Time())

	// The registry row exists.
	got, err := env.tickets.GetTicket(context.Background(), ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, ticket, got)

	// The rate ledger recorded the creation.
	rate, err := env.rates.GetRate(context.Background(), testGuildID, testUserID)
	require.NoError(t, err)
	require.Equal(t, 1, rate.TicketCount)

	// The defaults carry a voice template for "suporte", so a companion voice channel
	// was provisioned with the user's display name substituted.
	require.NotEmpty(t, ticket.VoiceChannelID)
	voice, err := env.channels.Channel(ticket.VoiceChannelID)
	require.NoError(t, err)
	require.Contains(t, voice.Name, "ana")

	// The created action was audited and the welcome notice posted, with the reason
	// placeholder filled in when none was given.
	created := env.logs.byAction(entities.ActionCreated)
	require.Len(t, created, 1)
	require.Equal(t, ticket.ChannelID, created[0].ChannelID)
	require.Len(t, env.channels.welcomes[ticket.ChannelID], 1)
	require.Contains(t, env.channels.welcomes[ticket.ChannelID][0], "Não especificado")
}

func TestEngine_Open_WelcomeCarriesReason(t *testing.T) {
	env := newTestEnv(t, nil)

	ticket, err := env.engine.Open(context.Background(), OpenRequest{
		GuildID:    testGuildID,
		UserID:     testUserID,
		Username:   "ana",
		TicketType: "suporte",
		Reason:     "conta bloqueada",
	})
	require.NoError(t, err)

	require.Len(t, env.channels.welcomes[ticket.ChannelID], 1)
	require.Contains(t, env.channels.welcomes[ticket.ChannelID][0], "conta bloqueada")
}

func TestEngine_Open_DuplicateType(t *testing.T) {
	env := newTestEnv(t, nil)

	first := openTestTicket(t, env, "suporte")

	_, err := env.engine.Open(context.Background(), OpenRequest{
		GuildID:    testGuildID,
		UserID:     testUserID,
		Username:   "ana",
		TicketType: "suporte",
	})

	// The second request is pointed at the existing channel, and no second row exists.
	dup := new(DuplicateTicketError)
	require.ErrorAs(t, err, &dup)
	require.Equal(t, first.ChannelID, dup.ChannelID)

	count, err := env.tickets.CountUserTickets(context.Background(), testGuildID, testUserID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestEngine_Open_DeniedAtLimit(t *testing.T) {
	env := newTestEnv(t, nil)

	// Step past the rate window between opens so the fourth request is stopped by the
	// concurrent ticket cap, not the window.
	openTestTicket(t, env, "suporte")
	env.now = env.now.Add(25 * time.Hour)
	openTestTicket(t, env, "denuncia")
	env.now = env.now.Add(25 * time.Hour)
	openTestTicket(t, env, "migration")
	env.now = env.now.Add(25 * time.Hour)

	_, err := env.engine.Open(context.Background(), OpenRequest{
		GuildID:    testGuildID,
		UserID:     testUserID,
		Username:   "ana",
		TicketType: "duvida",
	})

	denial := new(DenialError)
	require.ErrorAs(t, err, &denial)
	require.Contains(t, denial.Reason, "Limit: 3")
}

// yieldingTicketDal widens the gap between the limiter's count read and the
// registry insert so interleaved opens observe stale counts.
type yieldingTicketDal struct {
	*fakeTicketDal
}

func (d *yieldingTicketDal) CountUserTickets(ctx context.Context, guildID, userID string) (int, error) {
	count, err := d.fakeTicketDal.CountUserTickets(ctx, guildID, userID)
	runtime.Gosched()
	return count, err
}

func TestEngine_Open_ConcurrentOpensSerialised(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	tickets := &yieldingTicketDal{fakeTicketDal: newFakeTicketDal()}
	source := &fakeConfig{}
	limiter := NewRateLimiter(l, source, tickets, newFakeRateDal(), false)
	engine := NewEngine(l, source, tickets, new(fakeLogDal), limiter, newFakeChannels(), NewBackupWriter(t.TempDir()), 0)

	// All requests land inside the rate window, so with the per-user lock held
	// across the whole open exactly one of them may succeed.
	types := []string{"suporte", "denuncia", "migration", "duvida", "geral", "cobranca", "parceria", "outro"}
	errs := make([]error, len(types))

	var wg sync.WaitGroup
	for i, ticketType := range types {
		wg.Add(1)
		go func(i int, ticketType string) {
			defer wg.Done()
			_, errs[i] = engine.Open(context.Background(), OpenRequest{
				GuildID:    testGuildID,
				UserID:     testUserID,
				Username:   "ana",
				TicketType: ticketType,
			})
		}(i, ticketType)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		denial := new(DenialError)
		require.ErrorAs(t, err, &denial)
	}
	require.Equal(t, 1, succeeded)

	count, err := tickets.CountUserTickets(context.Background(), testGuildID, testUserID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestEngine_Open_VoiceFailureNonFatal(t *testing.T) {
	env := newTestEnv(t, nil)
	env.channels.voiceErr = errors.New("voice create failed")

	// The ticket remains open and usable, just without a voice companion.
	ticket := openTestTicket(t, env, "suporte")
	require.Empty(t, ticket.VoiceChannelID)

	_, err := env.tickets.GetTicket(context.Background(), ticket.ChannelID)
	require.NoError(t, err)
}

func TestEngine_EnsureVoiceChannel(t *testing.T) {
	env := newTestEnv(t, nil)

	// The open failed to provision a voice channel, so the ticket starts without one.
	env.channels.voiceErr = errors.New("voice create failed")
	ticket := openTestTicket(t, env, "suporte")
	require.Empty(t, ticket.VoiceChannelID)
	env.channels.voiceErr = nil

	voiceID, err := env.engine.EnsureVoiceChannel(context.Background(), ticket.ChannelID)
	require.NoError(t, err)
	require.NotEmpty(t, voiceID)

	// The voice channel is recorded on the registry row.
	stored, err := env.tickets.GetTicket(context.Background(), ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, voiceID, stored.VoiceChannelID)

	// A second request reuses the existing channel.
	again, err := env.engine.EnsureVoiceChannel(context.Background(), ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, voiceID, again)

	// The close deletes the voice channel alongside the ticket channel.
	require.NoError(t, env.engine.Close(context.Background(), ticket.ChannelID, testUserID, entities.ActionClosed))
	require.Contains(t, env.channels.deleted, voiceID)
}

func TestEngine_EnsureVoiceChannel_NoTemplate(t *testing.T) {
	env := newTestEnv(t, nil)

	// The defaults carry no voice template for the migration type.
	ticket := openTestTicket(t, env, "migration")
	require.Empty(t, ticket.VoiceChannelID)

	_, err := env.engine.EnsureVoiceChannel(context.Background(), ticket.ChannelID)
	require.ErrorIs(t, err, ErrNoVoiceTemplate)
}

func TestEngine_EnsureVoiceChannel_NoTicket(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.engine.EnsureVoiceChannel(context.Background(), "chan-unknown")
	require.ErrorIs(t, err, dataaccess.ErrTicketNotFound)
}

func TestEngine_Close(t *testing.T) {
	env := newTestEnv(t, nil)
	ticket := openTestTicket(t, env, "suporte")
	voiceID := ticket.VoiceChannelID

	require.NoError(t, env.engine.Close(context.Background(), ticket.ChannelID, testUserID, entities.ActionClosed))

	// The registry row is gone.
	_, err := env.tickets.GetTicket(context.Background(), ticket.ChannelID)
	require.ErrorIs(t, err, dataaccess.ErrTicketNotFound)

	// The close was audited.
	closed := env.logs.byAction(entities.ActionClosed)
	require.Len(t, closed, 1)
	require.Equal(t, ticket.ChannelID, closed[0].ChannelID)
	require.Equal(t, testUserID, closed[0].UserID)

	// Both the companion voice channel and the ticket channel were deleted.
	require.Contains(t, env.channels.deleted, voiceID)
	require.Contains(t, env.channels.deleted, ticket.ChannelID)
}

func TestEngine_Close_WritesBackup(t *testing.T) {
	env := newTestEnv(t, nil)
	dir := t.TempDir()
	env.engine.backups = NewBackupWriter(dir)

	ticket := openTestTicket(t, env, "suporte")
	env.channels.history[ticket.ChannelID] = []HistoryMessage{
		{Author: "ana", Content: "hello", Timestamp: env.now, Attachments: []string{"https://cdn.example/a.png"}},
	}

	require.NoError(t, env.engine.Close(context.Background(), ticket.ChannelID, testUserID, entities.ActionClosed))

	files, err := filepath.Glob(filepath.Join(dir, "ticket_"+ticket.ChannelID+"_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
	require.Contains(t, string(data), "https://cdn.example/a.png")
}

func TestEngine_Close_BackupDisabled(t *testing.T) {
	cfg := entities.DefaultTicketConfig(testGuildID)
	cfg.Settings.BackupEnabled = false

	env := newTestEnv(t, cfg)
	dir := t.TempDir()
	env.engine.backups = NewBackupWriter(dir)

	ticket := openTestTicket(t, env, "suporte")
	require.NoError(t, env.engine.Close(context.Background(), ticket.ChannelID, testUserID, entities.ActionClosed))

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestEngine_Close_Idempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	ticket := openTestTicket(t, env, "suporte")

	require.NoError(t, env.engine.Close(context.Background(), ticket.ChannelID, testUserID, entities.ActionClosed))
	deletions := len(env.channels.deleted)

	// The second close reports not found and performs no destructive action.
	err := env.engine.Close(context.Background(), ticket.ChannelID, testUserID, entities.ActionClosed)
	require.ErrorIs(t, err, dataaccess.ErrTicketNotFound)

	require.Len(t, env.logs.byAction(entities.ActionClosed), 1)
	require.Len(t, env.channels.deleted, deletions)
}

func TestEngine_Close_StaleChannel(t *testing.T) {
	env := newTestEnv(t, nil)

	// A row whose backing channel was deleted out of band.
	require.NoError(t, env.tickets.CreateTicket(context.Background(), &entities.ActiveTicket{
		ChannelID:    "gone",
		GuildID:      testGuildID,
		UserID:       testUserID,
		TicketType:   "suporte",
		LastActivity: custom.Datetime(env.now),
	}))

	require.NoError(t, env.engine.Close(context.Background(), "gone", "", entities.ActionAutoClosed))

	// The stale row is removed without any channel operations or audit entry.
	_, err := env.tickets.GetTicket(context.Background(), "gone")
	require.ErrorIs(t, err, dataaccess.ErrTicketNotFound)
	require.Empty(t, env.channels.deleted)
	require.Empty(t, env.logs.byAction(entities.ActionAutoClosed))
}

func TestEngine_TouchActivity(t *testing.T) {
	env := newTestEnv(t, nil)
	ticket := openTestTicket(t, env, "suporte")

	env.now = env.now.Add(2 * time.Hour)
	require.NoError(t, env.engine.TouchActivity(context.Background(), ticket.ChannelID))

	got, err := env.tickets.GetTicket(context.Background(), ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, env.now, got.LastActivity.Time())

	// Unknown channels are a no-op, not an error.
	require.NoError(t, env.engine.TouchActivity(context.Background(), "not-a-ticket"))
}
