package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const logDalName = "log_dal"

// LogDal is the data access layer for the ticket audit log. Entries are append only.
type LogDal interface {
	// AppendEntry appends an audit entry.
	AppendEntry(ctx context.Context, entry *entities.TicketLogEntry) error

	// EntriesByChannel lists the audit entries for a channel, oldest first.
	EntriesByChannel(ctx context.Context, guildID, channelID string) ([]*entities.TicketLogEntry, error)
}

type logDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewLogDal creates a new audit log data access layer.
func NewLogDal(logger *slog.Logger) LogDal {
	l := logger.With(slog.String(logging.KeyDal, logDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &logDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *logDalImpl) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collectionTicketLogs)
}

func (d *logDalImpl) AppendEntry(ctx context.Context, entry *entities.TicketLogEntry) error {
	monitoring.MongoTotalRequests.WithLabelValues(logDalName, "append_entry", mongoDatabase, collectionTicketLogs).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(logDalName, "append_entry", mongoDatabase, collectionTicketLogs))
	defer t.ObserveDuration()

	if _, err := d.collection().InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("error appending log entry: %w", err)
	}
	return nil
}

func (d *logDalImpl) EntriesByChannel(ctx context.Context, guildID, channelID string) ([]*entities.TicketLogEntry, error) {
	monitoring.MongoTotalRequests.WithLabelValues(logDalName, "entries_by_channel", mongoDatabase, collectionTicketLogs).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(logDalName, "entries_by_channel", mongoDatabase, collectionTicketLogs))
	defer t.ObserveDuration()

	opts := options.Find().SetSort(bson.M{"timestamp": 1})
	cursor, err := d.collection().Find(ctx, bson.M{"guild_id": guildID, "channel_id": channelID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing log entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*entities.TicketLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding log entries: %w", err)
	}
	return entries, nil
}
