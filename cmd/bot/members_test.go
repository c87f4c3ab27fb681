package main

import (
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID string
		wantOK bool
	}{
		{
			name:   "raw snowflake",
			input:  "123456789012345678",
			wantID: "123456789012345678",
			wantOK: true,
		},
		{
			name:   "mention",
			input:  "<@123456789012345678>",
			wantID: "123456789012345678",
			wantOK: true,
		},
		{
			name:   "nickname mention",
			input:  "<@!123456789012345678>",
			wantID: "123456789012345678",
			wantOK: true,
		},
		{
			name:   "surrounding whitespace",
			input:  "  123456789012345678  ",
			wantID: "123456789012345678",
			wantOK: true,
		},
		{
			name:   "plain name",
			input:  "ana",
			wantOK: false,
		},
		{
			name:   "empty",
			input:  "",
			wantOK: false,
		},
		{
			name:   "empty mention",
			input:  "<@>",
			wantOK: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			id, ok := parseUserID(test.input)
			require.Equal(t, test.wantOK, ok)
			require.Equal(t, test.wantID, id)
		})
	}
}

func TestTicketButtons(t *testing.T) {
	cfg := entities.DefaultTicketConfig("guild-1")

	row := ticketButtons(cfg)
	require.Len(t, row, 4)

	// Every management action is wired to its handler's custom ID, with the label and
	// style taken from the guild's button configuration.
	wantIDs := []string{CloseTicketButtonID, AddMemberButtonID, RemoveMemberButtonID, CreateCallButtonID}
	wantStyles := []discordgo.ButtonStyle{
		discordgo.DangerButton,
		discordgo.SuccessButton,
		discordgo.DangerButton,
		discordgo.PrimaryButton,
	}

	for idx, component := range row {
		button, ok := component.(discordgo.Button)
		require.True(t, ok)
		require.Equal(t, wantIDs[idx], button.CustomID)
		require.Equal(t, wantStyles[idx], button.Style)
		require.NotEmpty(t, button.Label)
	}
}

func TestTicketButtons_FallbackWithoutConfig(t *testing.T) {
	cfg := entities.DefaultTicketConfig("guild-1")
	cfg.Buttons = nil

	row := ticketButtons(cfg)
	require.Len(t, row, 4)

	button, ok := row[0].(discordgo.Button)
	require.True(t, ok)
	require.Equal(t, CloseTicketButtonID, button.CustomID)
	require.Contains(t, button.Label, "Fechar")
}
