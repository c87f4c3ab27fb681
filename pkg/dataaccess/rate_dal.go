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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const rateDalName = "rate_dal"

// ErrRateNotFound is returned when a user has no rate limit ledger row.
var ErrRateNotFound = errors.New("rate ledger entry not found")

// RateDal is the data access layer for the per user ticket rate ledger.
type RateDal interface {
	// GetRate gets the ledger row for a user in a guild. It returns ErrRateNotFound if
	// the user has never created a ticket in the guild.
	GetRate(ctx context.Context, guildID, userID string) (*entities.UserTicketRate, error)

	// RecordTicket upserts the ledger row for a user in a guild, setting the last
	// ticket time and incrementing the lifetime ticket count.
	RecordTicket(ctx context.Context, guildID, userID string, at custom.Datetime) error
}

type rateDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewRateDal creates a new rate ledger data access layer.
func NewRateDal(logger *slog.Logger) RateDal {
	l := logger.With(slog.String(logging.KeyDal, rateDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &rateDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *rateDalImpl) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collectionUserTickets)
}

func (d *rateDalImpl) GetRate(ctx context.Context, guildID, userID string) (*entities.UserTicketRate, error) {
	monitoring.MongoTotalRequests.WithLabelValues(rateDalName, "get_rate", mongoDatabase, collectionUserTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(rateDalName, "get_rate", mongoDatabase, collectionUserTickets))
	defer t.ObserveDuration()

	rate := new(entities.UserTicketRate)
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID, "user_id": userID}).Decode(rate)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRateNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting rate ledger entry: %w", err)
	}
	return rate, nil
}

func (d *rateDalImpl) RecordTicket(ctx context.Context, guildID, userID string, at custom.Datetime) error {
	monitoring.MongoTotalRequests.WithLabelValues(rateDalName, "record_ticket", mongoDatabase, collectionUserTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(rateDalName, "record_ticket", mongoDatabase, collectionUserTickets))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx,
		bson.M{"guild_id": guildID, "user_id": userID},
		bson.M{
			"$set": bson.M{"last_ticket": at},
			"$inc": bson.M{"ticket_count": 1},
		},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error recording ticket: %w", err)
	}
	return nil
}
