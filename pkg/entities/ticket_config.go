package entities

import "sort"

// TicketConfig is the per guild configuration document for the ticket system.
type TicketConfig struct {
	// GuildID is the ID of the guild that the configuration belongs to.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// Panels is the set of ticket panels that can be posted, keyed by panel name.
	Panels map[string]Panel `json:"panels" bson:"panels"`

	// Buttons is the set of button definitions, keyed by action name.
	Buttons map[string]ButtonConfig `json:"buttons" bson:"buttons"`

	// Voice is the set of voice channel templates, keyed by ticket type.
	Voice map[string]VoiceTemplate `json:"voice" bson:"voice"`

	// Settings is the numeric policy settings for the guild.
	Settings Settings `json:"settings" bson:"settings"`
}

// Panel is a ticket panel definition.
type Panel struct {
	// Title is the title of the panel embed.
	Title string `json:"title" bson:"title"`

	// Description is the description of the panel embed.
	Description string `json:"description" bson:"description"`

	// Color is the color of the panel embed.
	Color int `json:"color" bson:"color"`

	// BannerURL is the optional image shown on the panel embed.
	BannerURL string `json:"banner_url" bson:"banner_url"`

	// Options is the set of ticket types offered by the panel, keyed by ticket type.
	Options map[string]PanelOption `json:"options" bson:"options"`
}

// PanelOption is one selectable ticket type on a panel.
type PanelOption struct {
	// Label is the label shown on the button.
	Label string `json:"label" bson:"label"`

	// Description is the description of the option.
	Description string `json:"description" bson:"description"`

	// Emoji is the emoji shown on the button.
	Emoji string `json:"emoji" bson:"emoji"`

	// Style is the button style name (green, red, blurple, gray).
	Style string `json:"style" bson:"style"`
}

// ButtonConfig is the label, style and emoji for one ticket action button.
type ButtonConfig struct {
	// Label is the label shown on the button.
	Label string `json:"label" bson:"label"`

	// Style is the button style name (green, red, blurple, gray).
	Style string `json:"style" bson:"style"`

	// Emoji is the emoji shown on the button.
	Emoji string `json:"emoji" bson:"emoji"`
}

// VoiceTemplate is the template for a ticket's companion voice channel.
type VoiceTemplate struct {
	// Name is the channel name template. The {user} placeholder is replaced with the
	// requesting user's display name.
	Name string `json:"name" bson:"name"`

	// Limit is the member limit of the channel.
	Limit int `json:"limit" bson:"limit"`

	// Bitrate is the bitrate of the channel.
	Bitrate int `json:"bitrate" bson:"bitrate"`
}

// Settings is the numeric policy settings for a guild.
type Settings struct {
	// AutoCloseHours is the number of hours of inactivity after which a ticket is closed.
	AutoCloseHours int `json:"auto_close_hours" bson:"auto_close_hours"`

	// RateLimitHours is the minimum number of hours between ticket creations per user.
	RateLimitHours int `json:"rate_limit_hours" bson:"rate_limit_hours"`

	// MaxTicketsPerUser is the maximum number of concurrently open tickets per user.
	MaxTicketsPerUser int `json:"max_tickets_per_user" bson:"max_tickets_per_user"`

	// RequireReason is whether a reason must be provided when opening a ticket.
	RequireReason bool `json:"require_reason" bson:"require_reason"`

	// BackupEnabled is whether the message history is backed up when a ticket is closed.
	BackupEnabled bool `json:"backup_enabled" bson:"backup_enabled"`
}

const (
	// DefaultAutoCloseHours is the default number of inactive hours before auto close.
	DefaultAutoCloseHours = 48

	// DefaultRateLimitHours is the default number of hours between ticket creations.
	DefaultRateLimitHours = 24

	// DefaultMaxTicketsPerUser is the default number of concurrent tickets per user.
	DefaultMaxTicketsPerUser = 3
)

// StaffRoleNames is the set of role name substrings that identify staff members.
// A role whose name contains any of these (case insensitive) is granted access to
// ticket channels.
var StaffRoleNames = []string{
	"Equipe de Suporte", "Moderadores", "Administradores", "ADMIN", "Staff", "Moderador", "Suporte",
}

// DefaultTicketConfig returns the hard coded default configuration document for a guild.
func DefaultTicketConfig(guildID string) *TicketConfig {
	return &TicketConfig{
		GuildID: guildID,
		Panels: map[string]Panel{
			"main": {
				Title:       "\U0001F4E8 Sistema de Tickets",
				Description: "Escolha o tipo de atendimento que precisa:",
				Color:       0x00ff00,
				Options: map[string]PanelOption{
					"suporte": {
						Label:       "\U0001F6E0️ Suporte Técnico",
						Description: "Problemas técnicos, dúvidas e ajuda geral",
						Emoji:       "\U0001F6E0️",
						Style:       "green",
					},
					"denuncia": {
						Label:       "⚠️ Denúncia",
						Description: "Reportar violações e problemas de conduta",
						Emoji:       "⚠️",
						Style:       "red",
					},
				},
			},
			"migration": {
				Title:       "\U0001F504 Migração de Conta",
				Description: "Solicite a migração da sua conta aqui.",
				Color:       0x0099ff,
				Options: map[string]PanelOption{
					"migration": {
						Label: "\U0001F504 Iniciar Migração",
						Emoji: "\U0001F504",
						Style: "blurple",
					},
				},
			},
			"denuncia": {
				Title:       "⚠️ Sistema de Denúncias",
				Description: "Use este sistema para reportar violações ou comportamentos inadequados.",
				Color:       0xff4444,
				Options: map[string]PanelOption{
					"denuncia": {
						Label: "⚠️ Denúncia",
						Emoji: "⚠️",
						Style: "red",
					},
				},
			},
		},
		Buttons: map[string]ButtonConfig{
			"close":         {Label: "\U0001F512 Fechar", Style: "red", Emoji: "\U0001F512"},
			"confirm_close": {Label: "✅ Confirmar", Style: "red", Emoji: "✅"},
			"cancel_close":  {Label: "❌ Cancelar", Style: "gray", Emoji: "❌"},
			"add_member":    {Label: "➕ Adicionar", Style: "green", Emoji: "➕"},
			"remove_member": {Label: "➖ Remover", Style: "red", Emoji: "➖"},
			"create_call":   {Label: "\U0001F4DE Criar Call", Style: "blurple", Emoji: "\U0001F4DE"},
		},
		Voice: map[string]VoiceTemplate{
			"suporte":  {Name: "\U0001F6E0️ Suporte - {user}", Limit: 5, Bitrate: 64000},
			"migracao": {Name: "\U0001F504 Migração - {user}", Limit: 2, Bitrate: 96000},
			"denuncia": {Name: "⚠️ Denúncia - {user}", Limit: 3, Bitrate: 64000},
		},
		Settings: Settings{
			AutoCloseHours:    DefaultAutoCloseHours,
			RateLimitHours:    DefaultRateLimitHours,
			MaxTicketsPerUser: DefaultMaxTicketsPerUser,
			RequireReason:     true,
			BackupEnabled:     true,
		},
	}
}

// TicketTypes returns the sorted set of ticket types offered across all panels.
func (c *TicketConfig) TicketTypes() []string {
	seen := make(map[string]struct{})
	for _, panel := range c.Panels {
		for name := range panel.Options {
			seen[name] = struct{}{}
		}
	}

	types := make([]string, 0, len(seen))
	for name := range seen {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// HasTicketType reports whether any panel offers the given ticket type.
func (c *TicketConfig) HasTicketType(ticketType string) bool {
	for _, panel := range c.Panels {
		if _, ok := panel.Options[ticketType]; ok {
			return true
		}
	}
	return false
}

// ApplySettingsDefaults fills any unset numeric setting with its default value. A loaded
// document is never partially missing a required setting once this has run.
func (c *TicketConfig) ApplySettingsDefaults() {
	if c.Settings.AutoCloseHours <= 0 {
		c.Settings.AutoCloseHours = DefaultAutoCloseHours
	}
	if c.Settings.RateLimitHours <= 0 {
		c.Settings.RateLimitHours = DefaultRateLimitHours
	}
	if c.Settings.MaxTicketsPerUser <= 0 {
		c.Settings.MaxTicketsPerUser = DefaultMaxTicketsPerUser
	}
}
