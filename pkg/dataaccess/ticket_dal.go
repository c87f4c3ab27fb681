package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/vanguard/pkg/custom"
	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const ticketDalName = "ticket_dal"

var (
	// ErrTicketNotFound is returned when a ticket does not exist for a channel.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrDuplicateChannel is returned when a ticket already exists for a channel.
	ErrDuplicateChannel = errors.New("ticket already exists for channel")
)

// TicketDal is the data access layer for the registry of open tickets. Rows are keyed by
// channel ID; a deleted row means the ticket is closed.
type TicketDal interface {
	// CreateTicket inserts a new ticket row. It returns ErrDuplicateChannel if a row
	// already exists for the ticket's channel.
	CreateTicket(ctx context.Context, ticket *entities.ActiveTicket) error

	// GetTicket gets the ticket for a channel. It returns ErrTicketNotFound if the
	// channel has no row.
	GetTicket(ctx context.Context, channelID string) (*entities.ActiveTicket, error)

	// GetTicketByUserAndType gets a user's open ticket of the given type in a guild, if
	// any. It returns ErrTicketNotFound if the user has none.
	GetTicketByUserAndType(ctx context.Context, guildID, userID, ticketType string) (*entities.ActiveTicket, error)

	// CountUserTickets counts a user's open tickets in a guild.
	CountUserTickets(ctx context.Context, guildID, userID string) (int, error)

	// TouchActivity updates the last activity time for a channel. It is a no-op if the
	// channel no longer has a row.
	TouchActivity(ctx context.Context, channelID string, at custom.Datetime) error

	// SetVoiceChannel records the companion voice channel for a channel's ticket. It
	// returns ErrTicketNotFound if the channel has no row.
	SetVoiceChannel(ctx context.Context, channelID, voiceChannelID string) error

	// DeleteTicket deletes the ticket row for a channel. It returns ErrTicketNotFound
	// if the channel has no row.
	DeleteTicket(ctx context.Context, channelID string) error

	// ListTickets lists all open tickets across all guilds.
	ListTickets(ctx context.Context) ([]*entities.ActiveTicket, error)
}

type ticketDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal(logger *slog.Logger) TicketDal {
	l := logger.With(slog.String(logging.KeyDal, ticketDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &ticketDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *ticketDalImpl) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collectionActiveTickets)
}

func (d *ticketDalImpl) CreateTicket(ctx context.Context, ticket *entities.ActiveTicket) error {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "create_ticket", mongoDatabase, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "create_ticket", mongoDatabase, collectionActiveTickets))
	defer t.ObserveDuration()

	// Channel IDs are assigned by Discord and unique by construction, so an existing
	// row means the orchestration went wrong.
	err := d.collection().FindOne(ctx, bson.M{"channel_id": ticket.ChannelID}).Err()
	if err == nil {
		return ErrDuplicateChannel
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("error checking for existing ticket: %w", err)
	}

	if _, err := d.collection().InsertOne(ctx, ticket); err != nil {
		return fmt.Errorf("error inserting ticket: %w", err)
	}
	return nil
}

func (d *ticketDalImpl) GetTicket(ctx context.Context, channelID string) (*entities.ActiveTicket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_ticket", mongoDatabase, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_ticket", mongoDatabase, collectionActiveTickets))
	defer t.ObserveDuration()

	ticket := new(entities.ActiveTicket)
	err := d.collection().FindOne(ctx, bson.M{"channel_id": channelID}).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTicketNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDalImpl) GetTicketByUserAndType(ctx context.Context, guildID, userID, ticketType string) (*entities.ActiveTicket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_ticket_by_user_and_type", mongoDatabase, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_ticket_by_user_and_type", mongoDatabase, collectionActiveTickets))
	defer t.ObserveDuration()

	ticket := new(entities.ActiveTicket)
	err := d.collection().FindOne(ctx, bson.M{
		"guild_id":    guildID,
		"user_id":     userID,
		"ticket_type": ticketType,
	}).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTicketNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDalImpl) CountUserTickets(ctx context.Context, guildID, userID string) (int, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "count_user_tickets", mongoDatabase, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "count_user_tickets", mongoDatabase, collectionActiveTickets))
	defer t.ObserveDuration()

	count, err := d.collection().CountDocuments(ctx, bson.M{
		"guild_id": guildID,
		"user_id":  userID,
	})
	if err != nil {
		return 0, fmt.Errorf("error counting tickets: %w", err)
	}
	return int(count), nil
}

func (d *ticketDalImpl) TouchActivity(ctx context.Context, channelID string, at custom.Datetime) error {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "touch_activity", mongoDatabase, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "touch_activity", mongoDatabase, collectionActiveTickets))
	defer t.ObserveDuration()

	// Matching zero documents is fine; the channel may not be a ticket at all.
	_, err := d.collection().UpdateOne(ctx, bson.M{"channel_id": channelID}, bson.M{"$set": bson.M{"last_activity": at}})
	if err != nil {
		return fmt.Errorf("error updating last activity: %w", err)
	}
	return nil
}

func (d *ticketDalImpl) SetVoiceChannel(ctx context.Context, channelID, voiceChannelID string) error {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "set_voice_channel", mongoDatabase, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "set_voice_channel", mongoDatabase, collectionActiveTickets))
	defer t.ObserveDuration()

	res, err := d.collection().UpdateOne(ctx, bson.M{"channel_id": channelID}, bson.M{"$set": bson.M{"voice_channel_id": voiceChannelID}})
	if err != nil {
		return fmt.Errorf("error updating voice channel: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (d *ticketDalImpl) DeleteTicket(ctx context.Context, channelID string) error {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "delete_ticket", mongoDatabase, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "delete_ticket", mongoDatabase, collectionActiveTickets))
	defer t.ObserveDuration()

	res, err := d.collection().DeleteOne(ctx, bson.M{"channel_id": channelID})
	if err != nil {
		return fmt.Errorf("error deleting ticket: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (d *ticketDalImpl) ListTickets(ctx context.Context) ([]*entities.ActiveTicket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "list_tickets", mongoDatabase, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "list_tickets", mongoDatabase, collectionActiveTickets))
	defer t.ObserveDuration()

	cursor, err := d.collection().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	defer cursor.Close(ctx)

	var tickets []*entities.ActiveTicket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}
	return tickets, nil
}
