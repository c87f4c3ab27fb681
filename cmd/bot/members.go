package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/vanguard/pkg/custom"
	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/Jacobbrewer1/vanguard/pkg/messages"
	"github.com/Jacobbrewer1/vanguard/pkg/ticketing"
)

const (
	// AddMemberButtonID is the ID for the add member button on the welcome message.
	AddMemberButtonID = "add_member_button"

	// RemoveMemberButtonID is the ID for the remove member button on the welcome message.
	RemoveMemberButtonID = "remove_member_button"

	// CreateCallButtonID is the ID for the create call button on the welcome message.
	CreateCallButtonID = "create_call_button"

	// AddMemberModalID is the custom ID of the add member modal.
	AddMemberModalID = "add_member_modal"

	// RemoveMemberModalID is the custom ID of the remove member modal.
	RemoveMemberModalID = "remove_member_modal"

	// memberInputID is the custom ID of the member text input inside both modals.
	memberInputID = "member"
)

// addMemberButtonHandler opens the add member modal. Staff only.
func addMemberButtonHandler(a IApp, i *discordgo.InteractionCreate) error {
	if !hasStaffRole(a, i.GuildID, i.Member) {
		return respondEphemeral(a, i, messages.ErrStaffOnly)
	}
	return respondMemberModal(a, i, AddMemberModalID, "Adicionar Membro ao Ticket")
}

// removeMemberButtonHandler opens the remove member modal. Staff only.
func removeMemberButtonHandler(a IApp, i *discordgo.InteractionCreate) error {
	if !hasStaffRole(a, i.GuildID, i.Member) {
		return respondEphemeral(a, i, messages.ErrStaffOnly)
	}
	return respondMemberModal(a, i, RemoveMemberModalID, "Remover Membro do Ticket")
}

func respondMemberModal(a IApp, i *discordgo.InteractionCreate, customID, title string) error {
	err := a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID,
			Title:    title,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    memberInputID,
							Label:       "Nome ou ID do usuário",
							Style:       discordgo.TextInputShort,
							Placeholder: "Digite o nome ou ID do usuário...",
							Required:    true,
							MaxLength:   100,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error responding with modal: %w", err)
	}
	return nil
}

// addMemberModalHandler grants the submitted member access to the ticket channel.
func addMemberModalHandler(a IApp, i *discordgo.InteractionCreate) error {
	query := modalInputValue(i)

	member, err := resolveMember(a, i.GuildID, query)
	if err != nil {
		return respondEphemeral(a, i, fmt.Sprintf(messages.ErrMemberNotFound, query))
	}

	// The same access the ticket creator gets, so the member can participate fully.
	err = a.Session().ChannelPermissionSet(i.ChannelID, member.User.ID,
		discordgo.PermissionOverwriteTypeMember, discordgo.PermissionAllText, discordgo.PermissionMentionEveryone)
	if err != nil {
		return fmt.Errorf("error granting channel access: %w", err)
	}

	auditMemberChange(a, i, entities.ActionMemberAdded, fmt.Sprintf("Adicionado: %s", member.User.Username))

	return respondChannel(a, i, fmt.Sprintf(messages.MemberAdded, member.User.ID))
}

// removeMemberModalHandler revokes the submitted member's access to the ticket channel.
func removeMemberModalHandler(a IApp, i *discordgo.InteractionCreate) error {
	query := modalInputValue(i)

	member, err := resolveMember(a, i.GuildID, query)
	if err != nil {
		return respondEphemeral(a, i, fmt.Sprintf(messages.ErrMemberNotFound, query))
	}

	if err := a.Session().ChannelPermissionDelete(i.ChannelID, member.User.ID); err != nil {
		return fmt.Errorf("error revoking channel access: %w", err)
	}

	auditMemberChange(a, i, entities.ActionMemberRemoved, fmt.Sprintf("Removido: %s", member.User.Username))

	return respondChannel(a, i, fmt.Sprintf(messages.MemberRemoved, member.User.ID))
}

// createCallButtonHandler provisions the ticket's companion voice channel on demand.
func createCallButtonHandler(a IApp, i *discordgo.InteractionCreate) error {
	voiceID, err := a.Engine().EnsureVoiceChannel(context.Background(), i.ChannelID)
	if err != nil {
		if errors.Is(err, dataaccess.ErrTicketNotFound) {
			return respondEphemeral(a, i, messages.ErrTicketNotFound)
		}
		if errors.Is(err, ticketing.ErrNoVoiceTemplate) {
			return respondEphemeral(a, i, messages.ErrNoVoiceChannel)
		}
		return fmt.Errorf("error ensuring voice channel: %w", err)
	}

	return respondChannel(a, i, fmt.Sprintf(messages.VoiceChannelCreated, voiceID))
}

func auditMemberChange(a IApp, i *discordgo.InteractionCreate, action entities.TicketAction, details string) {
	err := a.LogDal().AppendEntry(context.Background(), &entities.TicketLogEntry{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		UserID:    i.Member.User.ID,
		Action:    action,
		Details:   details,
		Timestamp: custom.Now(),
	})
	if err != nil {
		a.Log().Warn("Error writing member audit entry", slog.String(logging.KeyError, err.Error()))
	}
}

// resolveMember finds a guild member from a mention, an ID or a name query.
func resolveMember(a IApp, guildID, query string) (*discordgo.Member, error) {
	if query == "" {
		return nil, fmt.Errorf("empty member query")
	}

	if id, ok := parseUserID(query); ok {
		member, err := a.Session().GuildMember(guildID, id)
		if err != nil {
			return nil, fmt.Errorf("error getting guild member %s: %w", id, err)
		}
		return member, nil
	}

	members, err := a.Session().GuildMembersSearch(guildID, query, 1)
	if err != nil {
		return nil, fmt.Errorf("error searching guild members: %w", err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("no member matching %q", query)
	}
	return members[0], nil
}

// parseUserID extracts a user ID from a raw snowflake or a mention such as <@123> or
// <@!123>. The second return is false when the input is neither.
func parseUserID(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "<@") && strings.HasSuffix(input, ">") {
		input = strings.TrimSuffix(strings.TrimPrefix(input, "<@"), ">")
		input = strings.TrimPrefix(input, "!")
	}

	if input == "" {
		return "", false
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return input, true
}

// modalInputValue returns the trimmed value of the first text input in a submitted
// modal.
func modalInputValue(i *discordgo.InteractionCreate) string {
	for _, row := range i.ModalSubmitData().Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			if input, ok := component.(*discordgo.TextInput); ok {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}
