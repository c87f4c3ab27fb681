package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/vanguard/pkg/custom"
	"github.com/Jacobbrewer1/vanguard/pkg/entities"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/Jacobbrewer1/vanguard/pkg/messages"
	"golang.org/x/time/rate"
)

const (
	// PanelCmdName is the command for managing ticket panels.
	PanelCmdName = "panel"

	// PostCmdName is the sub command for posting a panel into the current channel.
	PostCmdName = "post"
)

// panelClickInterval is the minimum time between panel button presses per user.
const panelClickInterval = 5 * time.Second

// uiEvictInterval is how often expired UI state gets pruned.
const uiEvictInterval = time.Minute

var (
	// panelCmd is the command for managing ticket panels.
	panelCmd = &discordgo.ApplicationCommand{
		Name:        PanelCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for managing ticket panels.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        PostCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This posts a ticket panel into the current channel.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "panel",
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "The configured panel to post. Defaults to the main panel.",
						Required:    false,
					},
				},
			},
		},
	}
)

// panelCmdController resolves the panel subcommand into its processor.
func panelCmdController(_ IApp, cmd string) (commandProcessor, error) {
	switch cmd {
	case PostCmdName:
		return postPanelHandler, nil
	default:
		return nil, fmt.Errorf("unknown subcommand %s", cmd)
	}
}

// postPanelHandler handles /panel post. It renders the configured panel as an embed with
// one open button per panel option.
func postPanelHandler(a IApp, i *discordgo.InteractionCreate) error {
	if !hasManageChannels(i) {
		return respondEphemeral(a, i, messages.ErrMissingManageChannels)
	}

	panelName := "main"
	if opt, ok := commandOptions(i)["panel"]; ok {
		panelName = opt.StringValue()
	}

	cfg := a.ConfigDal().GetConfig(context.Background(), i.GuildID)

	panel, ok := cfg.Panels[panelName]
	if !ok {
		known := make([]string, 0, len(cfg.Panels))
		for name := range cfg.Panels {
			known = append(known, name)
		}
		sort.Strings(known)
		return respondEphemeral(a, i, fmt.Sprintf(messages.ErrUnknownPanel, panelName, known))
	}

	embed := &discordgo.MessageEmbed{
		Title:       panel.Title,
		Description: panel.Description,
		Color:       panel.Color,
	}
	if panel.BannerURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: panel.BannerURL}
	}

	// Keep the button order stable across reposts.
	optionNames := make([]string, 0, len(panel.Options))
	for name := range panel.Options {
		optionNames = append(optionNames, name)
	}
	sort.Strings(optionNames)

	buttons := make([]discordgo.MessageComponent, 0, len(optionNames))
	for _, name := range optionNames {
		opt := panel.Options[name]

		label := opt.Label
		if opt.Emoji != "" {
			label = fmt.Sprintf("%s %s", opt.Emoji, opt.Label)
		}

		buttons = append(buttons, discordgo.Button{
			Label:    label,
			Style:    buttonStyle(opt.Style),
			CustomID: OpenTicketButtonPrefix + ":" + name,
		})
	}

	msg := &discordgo.MessageSend{
		Embed: embed,
	}
	if len(buttons) > 0 {
		msg.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: buttons},
		}
	}

	if _, err := a.Session().ChannelMessageSendComplex(i.ChannelID, msg); err != nil {
		return fmt.Errorf("error sending panel message: %w", err)
	}

	if err := a.LogDal().AppendEntry(context.Background(), &entities.TicketLogEntry{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		UserID:    i.Member.User.ID,
		Action:    entities.ActionPanelCreated,
		Details:   fmt.Sprintf("Painel %s publicado em <#%s>", panelName, i.ChannelID),
		Timestamp: custom.Now(),
	}); err != nil {
		a.Log().Warn("Error writing panel audit entry", slog.String(logging.KeyError, err.Error()))
	}

	return respondEphemeral(a, i, fmt.Sprintf(messages.PanelPosted, panelName))
}

// buttonStyle maps a configured style name onto a discord button style.
func buttonStyle(style string) discordgo.ButtonStyle {
	switch style {
	case "green":
		return discordgo.SuccessButton
	case "red":
		return discordgo.DangerButton
	case "blurple":
		return discordgo.PrimaryButton
	case "gray", "grey":
		return discordgo.SecondaryButton
	default:
		return discordgo.PrimaryButton
	}
}

// pendingClose is one outstanding close confirmation.
type pendingClose struct {
	// UserID is the user that requested the close.
	UserID string

	// Expires is when the confirmation stops being valid.
	Expires time.Time
}

// uiState holds the process wide ephemeral interaction state: per user panel cooldowns
// and outstanding close confirmations. Both expire and get evicted on a timer, so an
// abandoned prompt does not pin memory.
type uiState struct {
	mu sync.Mutex

	// cooldowns is keyed by guildID:userID.
	cooldowns map[string]*rate.Limiter

	// lastSeen tracks when each cooldown key was last used, for eviction.
	lastSeen map[string]time.Time

	// pendingCloses is keyed by the ticket channel ID.
	pendingCloses map[string]pendingClose

	now func() time.Time
}

func newUIState() *uiState {
	return &uiState{
		cooldowns:     make(map[string]*rate.Limiter),
		lastSeen:      make(map[string]time.Time),
		pendingCloses: make(map[string]pendingClose),
		now:           time.Now,
	}
}

// AllowPanelClick reports whether the user may act on a panel button right now.
func (u *uiState) AllowPanelClick(guildID, userID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	key := guildID + ":" + userID
	limiter, ok := u.cooldowns[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(panelClickInterval), 1)
		u.cooldowns[key] = limiter
	}
	u.lastSeen[key] = u.now()

	return limiter.Allow()
}

// AddPendingClose registers a close confirmation for the channel.
func (u *uiState) AddPendingClose(channelID, userID string, timeout time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.pendingCloses[channelID] = pendingClose{
		UserID:  userID,
		Expires: u.now().Add(timeout),
	}
}

// TakePendingClose removes and returns the confirmation for the channel. The second
// return is false when there is none or it has expired.
func (u *uiState) TakePendingClose(channelID string) (pendingClose, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	pending, ok := u.pendingCloses[channelID]
	if !ok {
		return pendingClose{}, false
	}
	delete(u.pendingCloses, channelID)

	if u.now().After(pending.Expires) {
		return pendingClose{}, false
	}
	return pending, true
}

// Run evicts expired state until the context is cancelled.
func (u *uiState) Run(ctx context.Context) {
	t := time.NewTicker(uiEvictInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			u.evict()
		}
	}
}

func (u *uiState) evict() {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()

	for channelID, pending := range u.pendingCloses {
		if now.After(pending.Expires) {
			delete(u.pendingCloses, channelID)
		}
	}

	// A cooldown limiter that has not been touched for a while is fully replenished, so
	// dropping it is observationally the same as keeping it.
	for key, seen := range u.lastSeen {
		if now.Sub(seen) > 2*panelClickInterval {
			delete(u.lastSeen, key)
			delete(u.cooldowns, key)
		}
	}
}
