package main

import (
	"context"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
)

// messageCreateHandler refreshes a ticket's activity timestamp whenever a human posts in
// its channel, so the auto close sweeper measures real inactivity.
func messageCreateHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}

		if err := a.Engine().TouchActivity(context.Background(), m.ChannelID); err != nil {
			a.Log().Warn("Error touching ticket activity",
				slog.String(logging.KeyChannelID, m.ChannelID),
				slog.String(logging.KeyError, err.Error()))
		}
	}
}
