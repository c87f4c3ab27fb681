package main

import (
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/messages"
)

func respondSlashError(a IApp, i *discordgo.InteractionCreate) error {
	return respondEphemeral(a, i, messages.ErrUserErrorProcessing)
}

func respondEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondChannel responds with a message visible to the whole channel.
func respondChannel(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

// hasStaffRole reports whether the member carries one of the recognised staff roles.
// Roles are matched by name so the same configuration works across guilds.
func hasStaffRole(a IApp, guildID string, member *discordgo.Member) bool {
	if member == nil {
		return false
	}

	roles, err := a.Session().GuildRoles(guildID)
	if err != nil {
		a.Log().Warn(fmt.Sprintf("Error getting roles for guild %s", guildID))
		return false
	}

	staffRoleIDs := make(map[string]struct{})
	for _, role := range roles {
		for _, name := range entities.StaffRoleNames {
			if strings.Contains(strings.ToLower(role.Name), strings.ToLower(name)) {
				staffRoleIDs[role.ID] = struct{}{}
				break
			}
		}
	}

	for _, roleID := range member.Roles {
		if _, ok := staffRoleIDs[roleID]; ok {
			return true
		}
	}
	return false
}

// hasManageChannels reports whether the interaction member holds the Manage Channels
// permission in the channel the interaction was executed in.
func hasManageChannels(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&discordgo.PermissionManageChannels != 0
}

// displayName returns the member's nickname, falling back to the username.
func displayName(m *discordgo.Member) string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		return m.User.Username
	}
	return ""
}

// commandOptions flattens the options of the executed subcommand into a map by name.
func commandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return opts
	}

	for _, opt := range data.Options[0].Options {
		opts[opt.Name] = opt
	}
	return opts
}
