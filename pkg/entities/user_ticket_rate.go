package entities

import "github.com/Jacobbrewer1/vanguard/pkg/custom"

// UserTicketRate is the rate limit ledger for one user in one guild. Rows are upserted
// on every successful ticket creation and never deleted.
type UserTicketRate struct {
	// UserID is the ID of the user.
	UserID string `json:"user_id" bson:"user_id"`

	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// LastTicket is the time of the user's last ticket creation.
	LastTicket custom.Datetime `json:"last_ticket" bson:"last_ticket"`

	// TicketCount is the total number of tickets the user has created. It only ever
	// increases.
	TicketCount int `json:"ticket_count" bson:"ticket_count"`
}
