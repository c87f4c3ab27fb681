package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/vanguard/cmd/bot/config"
	"github.com/Jacobbrewer1/vanguard/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/vanguard/pkg/dataaccess"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/Jacobbrewer1/vanguard/pkg/request"
	"github.com/Jacobbrewer1/vanguard/pkg/ticketing"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IApp is the interface for the application.
type IApp interface {
	// Session returns the discord session.
	Session() *discordgo.Session

	// Log returns the logger.
	Log() *slog.Logger

	// ConfigDal returns the configuration data access layer.
	ConfigDal() dataaccess.ConfigDal

	// TicketDal returns the ticket registry data access layer.
	TicketDal() dataaccess.TicketDal

	// LogDal returns the audit log data access layer.
	LogDal() dataaccess.LogDal

	// Engine returns the ticket lifecycle engine.
	Engine() *ticketing.Engine

	// UIState returns the process wide ephemeral UI state.
	UIState() *uiState
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// configDal is the configuration data access layer.
	configDal dataaccess.ConfigDal

	// ticketDal is the ticket registry data access layer.
	ticketDal dataaccess.TicketDal

	// logDal is the audit log data access layer.
	logDal dataaccess.LogDal

	// engine is the ticket lifecycle engine.
	engine *ticketing.Engine

	// sweeper is the auto close sweeper.
	sweeper *ticketing.Sweeper

	// ui is the process wide ephemeral UI state.
	ui *uiState

	// background cancels the sweeper and UI eviction loops on shutdown.
	background context.CancelFunc
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger: l,
		r:      r,
	}
}

func (a *App) Run() error {
	// The data access layers and the engine need the Mongo connection, which is only
	// established once the configuration has been parsed.
	a.initCore()

	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	// Register slash commands.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.Info("Bot is now running.")

	// Start the background loops: the auto close sweeper and the UI state eviction.
	ctx, cancel := context.WithCancel(context.Background())
	a.background = cancel
	go a.sweeper.Run(ctx)
	go a.ui.Run(ctx)

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) initCore() {
	a.configDal = dataaccess.NewConfigDal(a.Logger)
	a.ticketDal = dataaccess.NewTicketDal(a.Logger)
	a.logDal = dataaccess.NewLogDal(a.Logger)

	rateDal := dataaccess.NewRateDal(a.Logger)
	limiter := ticketing.NewRateLimiter(a.Logger, a.configDal, a.ticketDal, rateDal, config.RateLimitFailClosed)

	a.engine = ticketing.NewEngine(
		a.Logger,
		a.configDal,
		a.ticketDal,
		a.logDal,
		limiter,
		newSessionChannels(a),
		ticketing.NewBackupWriter(config.BackupDir),
		closeChannelDelay,
	)

	a.sweeper = ticketing.NewSweeper(a.Logger, a.engine, a.ticketDal, a.configDal)
	a.ui = newUIState()
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	// Stop the background loops.
	if a.background != nil {
		a.background()
	}

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	if a.eventNotifier == nil {
		// Create event notifier. This is used to observe events. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	// The local configuration API consumed by the dashboard.
	a.registerDashboardRoutes()

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + config.MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) GetJoinedGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := a.s.UserGuilds(0, "", "")
	if err != nil {
		return nil, fmt.Errorf("error getting guilds: %w", err)
	}
	return guilds, nil
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Ticket activity tracking.
	a.s.AddHandler(messageCreateHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash Controllers
		map[string]commandController{
			ticketCmd.Name: ticketCmdController,
			panelCmd.Name:  panelCmdController,
		},
		// Button Controllers, keyed by the custom ID prefix.
		map[string]commandProcessor{
			OpenTicketButtonPrefix:   openTicketButtonHandler,
			CloseTicketButtonID:      closeTicketHandler,
			ConfirmCloseButtonPrefix: confirmCloseHandler,
			CancelCloseButtonPrefix:  cancelCloseHandler,
			AddMemberButtonID:        addMemberButtonHandler,
			RemoveMemberButtonID:     removeMemberButtonHandler,
			CreateCallButtonID:       createCallButtonHandler,
		},
		// Modal Controllers, keyed by the modal custom ID.
		map[string]commandProcessor{
			AddMemberModalID:    addMemberModalHandler,
			RemoveMemberModalID: removeMemberModalHandler,
		}))
	return nil
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) registerSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Register slash commands for each guild.
	for _, g := range guilds {
		// Register the ticket command.
		if _, err := a.Session().ApplicationCommandCreate(config.ApplicationId, g.ID, ticketCmd); err != nil {
			return fmt.Errorf("error creating ticket command for guild %s: %w", g.ID, err)
		}

		// Register the panel command.
		if _, err := a.Session().ApplicationCommandCreate(config.ApplicationId, g.ID, panelCmd); err != nil {
			return fmt.Errorf("error creating panel command for guild %s: %w", g.ID, err)
		}
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Delete slash commands for each guild.
	for _, guild := range guilds {
		// Delete the ticket command.
		if err := a.s.ApplicationCommandDelete(config.ApplicationId, guild.ID, ticketCmd.ID); err != nil {
			return fmt.Errorf("error deleting ticket command for guild %s: %w", guild.ID, err)
		}

		// Delete the panel command.
		if err := a.s.ApplicationCommandDelete(config.ApplicationId, guild.ID, panelCmd.ID); err != nil {
			return fmt.Errorf("error deleting panel command for guild %s: %w", guild.ID, err)
		}
	}
	return nil
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) ConfigDal() dataaccess.ConfigDal {
	return a.configDal
}

func (a *App) TicketDal() dataaccess.TicketDal {
	return a.ticketDal
}

func (a *App) LogDal() dataaccess.LogDal {
	return a.logDal
}

func (a *App) Engine() *ticketing.Engine {
	return a.engine
}

func (a *App) UIState() *uiState {
	return a.ui
}
