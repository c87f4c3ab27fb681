package dataaccess

import (
	"context"
	"encoding/json"
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

const configDalName = "config_dal"

// ConfigDal is the data access layer for the per guild configuration documents.
type ConfigDal interface {
	// GetConfig gets the ticket configuration for a guild. It never fails; if no
	// document is persisted, or the persisted document cannot be parsed, the hard coded
	// default configuration is returned instead. Ticket operations degrade to defaults
	// rather than block on a bad document.
	GetConfig(ctx context.Context, guildID string) *entities.TicketConfig

	// GetDocument gets the raw configuration document for a guild. A missing document
	// yields the default document.
	GetDocument(ctx context.Context, guildID string) (entities.ConfigDocument, error)

	// SaveDocument replaces the whole configuration document for a guild.
	SaveDocument(ctx context.Context, guildID string, doc entities.ConfigDocument) error

	// SetField sets one field of the configuration document by path, creating
	// intermediate levels as needed, and persists the whole document.
	SetField(ctx context.Context, guildID string, path []string, value any) error

	// ListGuildIDs lists the guilds that have a persisted configuration document.
	ListGuildIDs(ctx context.Context) ([]string, error)
}

// ticketConfigRow is the persisted form of a configuration document. The document itself
// is stored as JSON text and replaced as a whole, matching the dashboard's view of it.
type ticketConfigRow struct {
	GuildID    string          `bson:"guild_id"`
	ConfigData string          `bson:"config_data"`
	UpdatedAt  custom.Datetime `bson:"updated_at"`
}

type configDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewConfigDal creates a new configuration data access layer.
func NewConfigDal(logger *slog.Logger) ConfigDal {
	l := logger.With(slog.String(logging.KeyDal, configDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &configDalImpl{
		l:      l,
		client: MongoDB,
	}
}

func (d *configDalImpl) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collectionTicketConfigs)
}

func (d *configDalImpl) GetConfig(ctx context.Context, guildID string) *entities.TicketConfig {
	monitoring.MongoTotalRequests.WithLabelValues(configDalName, "get_config", mongoDatabase, collectionTicketConfigs).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(configDalName, "get_config", mongoDatabase, collectionTicketConfigs))
	defer t.ObserveDuration()

	row := new(ticketConfigRow)
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID}).Decode(row)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			d.l.Warn("Error loading guild configuration, falling back to defaults",
				slog.String(logging.KeyGuildID, guildID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
		return entities.DefaultTicketConfig(guildID)
	}

	cfg := new(entities.TicketConfig)
	if err := json.Unmarshal([]byte(row.ConfigData), cfg); err != nil {
		// A corrupt document is swallowed, not surfaced.
		d.l.Warn("Error parsing guild configuration, falling back to defaults",
			slog.String(logging.KeyGuildID, guildID),
			slog.String(logging.KeyError, err.Error()),
		)
		return entities.DefaultTicketConfig(guildID)
	}

	cfg.GuildID = guildID
	cfg.ApplySettingsDefaults()
	return cfg
}

func (d *configDalImpl) GetDocument(ctx context.Context, guildID string) (entities.ConfigDocument, error) {
	monitoring.MongoTotalRequests.WithLabelValues(configDalName, "get_document", mongoDatabase, collectionTicketConfigs).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(configDalName, "get_document", mongoDatabase, collectionTicketConfigs))
	defer t.ObserveDuration()

	row := new(ticketConfigRow)
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID}).Decode(row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return defaultDocument(guildID)
	} else if err != nil {
		return nil, fmt.Errorf("error getting configuration document: %w", err)
	}

	doc := entities.ConfigDocument{}
	if err := json.Unmarshal([]byte(row.ConfigData), &doc); err != nil {
		return nil, fmt.Errorf("error parsing configuration document: %w", err)
	}
	return doc, nil
}

func (d *configDalImpl) SaveDocument(ctx context.Context, guildID string, doc entities.ConfigDocument) error {
	monitoring.MongoTotalRequests.WithLabelValues(configDalName, "save_document", mongoDatabase, collectionTicketConfigs).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(configDalName, "save_document", mongoDatabase, collectionTicketConfigs))
	defer t.ObserveDuration()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error encoding configuration document: %w", err)
	}

	row := &ticketConfigRow{
		GuildID:    guildID,
		ConfigData: string(data),
		UpdatedAt:  custom.Now(),
	}

	opts := options.Update().SetUpsert(true)
	if _, err := d.collection().UpdateOne(ctx, bson.M{"guild_id": guildID}, bson.M{"$set": row}, opts); err != nil {
		return fmt.Errorf("error saving configuration document: %w", err)
	}
	return nil
}

func (d *configDalImpl) SetField(ctx context.Context, guildID string, path []string, value any) error {
	doc, err := d.GetDocument(ctx, guildID)
	if err != nil {
		return fmt.Errorf("error loading configuration document: %w", err)
	}

	if ok := doc.SetField(path, value); !ok {
		return fmt.Errorf("invalid configuration path %v", path)
	}

	return d.SaveDocument(ctx, guildID, doc)
}

func (d *configDalImpl) ListGuildIDs(ctx context.Context) ([]string, error) {
	monitoring.MongoTotalRequests.WithLabelValues(configDalName, "list_guild_ids", mongoDatabase, collectionTicketConfigs).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(configDalName, "list_guild_ids", mongoDatabase, collectionTicketConfigs))
	defer t.ObserveDuration()

	values, err := d.collection().Distinct(ctx, "guild_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing guilds: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		id, ok := v.(string)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// defaultDocument returns the default configuration as a raw document.
func defaultDocument(guildID string) (entities.ConfigDocument, error) {
	data, err := json.Marshal(entities.DefaultTicketConfig(guildID))
	if err != nil {
		return nil, fmt.Errorf("error encoding default configuration: %w", err)
	}

	doc := entities.ConfigDocument{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error decoding default configuration: %w", err)
	}
	return doc, nil
}
