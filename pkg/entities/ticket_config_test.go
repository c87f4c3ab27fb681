package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultTicketConfig(t *testing.T) {
	cfg := DefaultTicketConfig("guild-1")

	require.Equal(t, "guild-1", cfg.GuildID)
	require.Equal(t, 48, cfg.Settings.AutoCloseHours)
	require.Equal(t, 24, cfg.Settings.RateLimitHours)
	require.Equal(t, 3, cfg.Settings.MaxTicketsPerUser)
	require.True(t, cfg.Settings.RequireReason)
	require.True(t, cfg.Settings.BackupEnabled)

	require.Contains(t, cfg.Panels, "main")
	require.Contains(t, cfg.Panels["main"].Options, "suporte")
	require.Contains(t, cfg.Voice, "suporte")
	require.Contains(t, cfg.Buttons, "close")
}

func TestTicketTypes(t *testing.T) {
	cfg := DefaultTicketConfig("guild-1")

	// The union of all panel options, sorted, with duplicates collapsed ("denuncia"
	// appears on two panels).
	require.Equal(t, []string{"denuncia", "migration", "suporte"}, cfg.TicketTypes())

	require.True(t, cfg.HasTicketType("suporte"))
	require.True(t, cfg.HasTicketType("migration"))
	require.False(t, cfg.HasTicketType("duvida"))
}

func TestApplySettingsDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{
			name: "AllUnset",
			in:   Settings{},
			want: Settings{AutoCloseHours: 48, RateLimitHours: 24, MaxTicketsPerUser: 3},
		},
		{
			name: "PartiallySet",
			in:   Settings{AutoCloseHours: 12},
			want: Settings{AutoCloseHours: 12, RateLimitHours: 24, MaxTicketsPerUser: 3},
		},
		{
			name: "FullySet",
			in:   Settings{AutoCloseHours: 6, RateLimitHours: 1, MaxTicketsPerUser: 10, RequireReason: true},
			want: Settings{AutoCloseHours: 6, RateLimitHours: 1, MaxTicketsPerUser: 10, RequireReason: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &TicketConfig{Settings: tt.in}
			cfg.ApplySettingsDefaults()
			require.Equal(t, tt.want, cfg.Settings)
		})
	}
}

func TestConfigDocument_GetField(t *testing.T) {
	doc := ConfigDocument{
		"settings": map[string]any{
			"auto_close_hours": 48,
		},
	}

	require.Equal(t, 48, doc.GetField("settings", "auto_close_hours"))

	// The first missing key yields nil.
	require.Nil(t, doc.GetField("settings", "missing"))
	require.Nil(t, doc.GetField("missing", "auto_close_hours"))

	// A non map intermediate yields nil.
	require.Nil(t, doc.GetField("settings", "auto_close_hours", "deeper"))
}

func TestConfigDocument_SetField(t *testing.T) {
	doc := ConfigDocument{}

	// Intermediate levels are created as needed.
	require.True(t, doc.SetField([]string{"settings", "auto_close_hours"}, 12))
	require.Equal(t, 12, doc.GetField("settings", "auto_close_hours"))

	// Sibling fields are untouched by a later point write.
	require.True(t, doc.SetField([]string{"settings", "rate_limit_hours"}, 6))
	require.Equal(t, 12, doc.GetField("settings", "auto_close_hours"))
	require.Equal(t, 6, doc.GetField("settings", "rate_limit_hours"))

	// A non map intermediate is rejected.
	require.False(t, doc.SetField([]string{"settings", "auto_close_hours", "deeper"}, 1))
	require.False(t, doc.SetField(nil, 1))
}

func TestConfigDocument_RoundTripToTypedConfig(t *testing.T) {
	data, err := json.Marshal(DefaultTicketConfig("guild-1"))
	require.NoError(t, err)

	doc := ConfigDocument{}
	require.NoError(t, json.Unmarshal(data, &doc))

	require.True(t, doc.SetField([]string{"settings", "auto_close_hours"}, 12))

	data, err = json.Marshal(doc)
	require.NoError(t, err)

	cfg := new(TicketConfig)
	require.NoError(t, json.Unmarshal(data, cfg))

	// The point write landed and every other setting is unchanged.
	require.Equal(t, 12, cfg.Settings.AutoCloseHours)
	require.Equal(t, 24, cfg.Settings.RateLimitHours)
	require.Equal(t, 3, cfg.Settings.MaxTicketsPerUser)
	require.True(t, cfg.Settings.BackupEnabled)
	require.Contains(t, cfg.Panels, "main")
}
