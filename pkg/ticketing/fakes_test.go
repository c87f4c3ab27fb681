package ticketing

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jacobbrewer1/vanguard/pkg/custom"
	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
)

// fakeConfig is an in-memory ConfigSource.
type fakeConfig struct {
	cfg *entities.TicketConfig
}

func (f *fakeConfig) GetConfig(_ context.Context, guildID string) *entities.TicketConfig {
	if f.cfg != nil {
		return f.cfg
	}
	return entities.DefaultTicketConfig(guildID)
}

// fakeTicketDal is an in-memory ticket registry.
type fakeTicketDal struct {
	mu      sync.Mutex
	tickets map[string]*entities.ActiveTicket

	// err, when set, is returned by every operation.
	err error
}

func newFakeTicketDal() *fakeTicketDal {
	return &fakeTicketDal{
		tickets: make(map[string]*entities.ActiveTicket),
	}
}

func (f *fakeTicketDal) CreateTicket(_ context.Context, ticket *entities.ActiveTicket) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[ticket.ChannelID]; ok {
		return dataaccess.ErrDuplicateChannel
	}
	f.tickets[ticket.ChannelID] = ticket
	return nil
}

func (f *fakeTicketDal) GetTicket(_ context.Context, channelID string) (*entities.ActiveTicket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[channelID]
	if !ok {
		return nil, dataaccess.ErrTicketNotFound
	}
	return ticket, nil
}

func (f *fakeTicketDal) GetTicketByUserAndType(_ context.Context, guildID, userID, ticketType string) (*entities.ActiveTicket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ticket := range f.tickets {
		if ticket.GuildID == guildID && ticket.UserID == userID && ticket.TicketType == ticketType {
			return ticket, nil
		}
	}
	return nil, dataaccess.ErrTicketNotFound
}

func (f *fakeTicketDal) CountUserTickets(_ context.Context, guildID, userID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, ticket := range f.tickets {
		if ticket.GuildID == guildID && ticket.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeTicketDal) TouchActivity(_ context.Context, channelID string, at custom.Datetime) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if ticket, ok := f.tickets[channelID]; ok {
		ticket.LastActivity = at
	}
	return nil
}

func (f *fakeTicketDal) SetVoiceChannel(_ context.Context, channelID, voiceChannelID string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[channelID]
	if !ok {
		return dataaccess.ErrTicketNotFound
	}
	ticket.VoiceChannelID = voiceChannelID
	return nil
}

func (f *fakeTicketDal) DeleteTicket(_ context.Context, channelID string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[channelID]; !ok {
		return dataaccess.ErrTicketNotFound
	}
	delete(f.tickets, channelID)
	return nil
}

func (f *fakeTicketDal) ListTickets(_ context.Context) ([]*entities.ActiveTicket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tickets := make([]*entities.ActiveTicket, 0, len(f.tickets))
	for _, ticket := range f.tickets {
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// fakeRateDal is an in-memory rate ledger.
type fakeRateDal struct {
	mu    sync.Mutex
	rates map[string]*entities.UserTicketRate

	// err, when set, is returned by every operation.
	err error
}

func newFakeRateDal() *fakeRateDal {
	return &fakeRateDal{
		rates: make(map[string]*entities.UserTicketRate),
	}
}

func (f *fakeRateDal) GetRate(_ context.Context, guildID, userID string) (*entities.UserTicketRate, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rate, ok := f.rates[guildID+":"+userID]
	if !ok {
		return nil, dataaccess.ErrRateNotFound
	}
	return rate, nil
}

func (f *fakeRateDal) RecordTicket(_ context.Context, guildID, userID string, at custom.Datetime) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := guildID + ":" + userID
	rate, ok := f.rates[key]
	if !ok {
		rate = &entities.UserTicketRate{
			GuildID: guildID,
			UserID:  userID,
		}
		f.rates[key] = rate
	}
	rate.LastTicket = at
	rate.TicketCount++
	return nil
}

// fakeLogDal is an in-memory audit log.
type fakeLogDal struct {
	mu      sync.Mutex
	entries []*entities.TicketLogEntry

	// err, when set, is returned by AppendEntry.
	err error
}

func (f *fakeLogDal) AppendEntry(_ context.Context, entry *entities.TicketLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLogDal) EntriesByChannel(_ context.Context, guildID, channelID string) ([]*entities.TicketLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []*entities.TicketLogEntry
	for _, entry := range f.entries {
		if entry.GuildID == guildID && entry.ChannelID == channelID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (f *fakeLogDal) byAction(action entities.TicketAction) []*entities.TicketLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []*entities.TicketLogEntry
	for _, entry := range f.entries {
		if entry.Action == action {
			entries = append(entries, entry)
		}
	}
	return entries
}

// fakeChannels is an in-memory ChannelManager.
type fakeChannels struct {
	mu       sync.Mutex
	nextID   int
	channels map[string]*ChannelInfo

	// deleted records every channel deletion attempt, in order.
	deleted []string

	// history is the message history returned per channel.
	history map[string][]HistoryMessage

	// welcomes and notices record sent messages per channel.
	welcomes map[string][]string
	notices  map[string][]string

	// textErr and voiceErr, when set, fail the respective channel creations.
	textErr  error
	voiceErr error

	// channelErr, when set per channel, is returned by Channel.
	channelErr map[string]error
}

func newFakeChannels() *fakeChannels {
	return &fakeChannels{
		channels:   make(map[string]*ChannelInfo),
		history:    make(map[string][]HistoryMessage),
		welcomes:   make(map[string][]string),
		notices:    make(map[string][]string),
		channelErr: make(map[string]error),
	}
}

func (f *fakeChannels) Channel(channelID string) (*ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.channelErr[channelID]; ok {
		return nil, err
	}
	channel, ok := f.channels[channelID]
	if !ok {
		return nil, ErrChannelNotFound
	}
	return channel, nil
}

func (f *fakeChannels) CreateTextChannel(params TextChannelParams) (string, error) {
	if f.textErr != nil {
		return "", f.textErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("chan-%d", f.nextID)
	f.channels[id] = &ChannelInfo{ID: id, Name: params.Name}
	return id, nil
}

func (f *fakeChannels) CreateVoiceChannel(params VoiceChannelParams) (string, error) {
	if f.voiceErr != nil {
		return "", f.voiceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("voice-%d", f.nextID)
	f.channels[id] = &ChannelInfo{ID: id, Name: params.Name}
	return id, nil
}

func (f *fakeChannels) DeleteChannel(channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	if _, ok := f.channels[channelID]; !ok {
		return ErrChannelNotFound
	}
	delete(f.channels, channelID)
	return nil
}

func (f *fakeChannels) History(channelID string) ([]HistoryMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history[channelID], nil
}

func (f *fakeChannels) SendWelcome(_, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes[channelID] = append(f.welcomes[channelID], content)
	return nil
}

func (f *fakeChannels) SendNotice(channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices[channelID] = append(f.notices[channelID], content)
	return nil
}
