package dataaccess

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB is the Mongo client. This is a connection pool.
var MongoDB *mongo.Client

const mongoDatabase = "vanguard"

const (
	// collectionTicketConfigs is the collection of per guild configuration documents.
	collectionTicketConfigs = "ticket_configs"

	// collectionActiveTickets is the collection of currently open tickets.
	collectionActiveTickets = "active_tickets"

	// collectionUserTickets is the collection of per user rate limit ledgers.
	collectionUserTickets = "user_tickets"

	// collectionTicketLogs is the collection of audit log entries.
	collectionTicketLogs = "ticket_logs"
)
