package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/vanguard/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/Jacobbrewer1/vanguard/pkg/request"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// commandController resolves a slash command into the processor for its subcommand.
type commandController func(a IApp, cmd string) (commandProcessor, error)

// commandProcessor processes a single interaction.
type commandProcessor func(a IApp, i *discordgo.InteractionCreate) error

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(handler Controller, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path // If the route does not define a path, use the URL path.
			}
		} else {
			path = r.URL.Path // If the route is nil, use the URL path.
		}

		defer func() {
			// Run the deferred function after the request has been handled, as the status code will not be available until then.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionHandler dispatches slash commands to their controllers, component presses
// to the processor registered for the custom ID prefix, and modal submissions likewise.
func interactionHandler(
	a IApp,
	controllers map[string]commandController,
	buttons map[string]commandProcessor,
	modals map[string]commandProcessor,
) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			slashCommandHandler(a, controllers, i)
		case discordgo.InteractionMessageComponent:
			buttonHandler(a, buttons, i)
		case discordgo.InteractionModalSubmit:
			modalHandler(a, modals, i)
		default:
			a.Log().Debug("Ignoring interaction", slog.String("type", fmt.Sprintf("%d", i.Type)))
		}
	}
}

func slashCommandHandler(a IApp, controllers map[string]commandController, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	a.Log().Debug("Handling interaction " + name)

	t := prometheus.NewTimer(monitoring.DiscordCommandDuration.WithLabelValues(name))
	defer t.ObserveDuration()

	controller, ok := controllers[name]
	if !ok {
		a.Log().Error("No controller found for command", slog.String("command", name))
		if err := respondSlashError(a, i); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	processor, err := controller(a, i.ApplicationCommandData().Options[0].Name)
	if err != nil {
		a.Log().Error(fmt.Sprintf("Error getting processor for command %s", name),
			slog.String(logging.KeyError, err.Error()))

		if err := respondSlashError(a, i); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	if err := processor(a, i); err != nil {
		a.Log().Error(fmt.Sprintf("Error processing command %s", name),
			slog.String(logging.KeyError, err.Error()))

		if err := respondSlashError(a, i); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
	}
}

func buttonHandler(a IApp, buttons map[string]commandProcessor, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	// Custom IDs carry their arguments after the prefix, e.g. "open_ticket:suporte".
	prefix := customID
	if idx := strings.Index(customID, ":"); idx >= 0 {
		prefix = customID[:idx]
	}

	processor, ok := buttons[prefix]
	if !ok {
		a.Log().Debug("No processor found for component", slog.String("custom_id", customID))
		return
	}

	if err := processor(a, i); err != nil {
		a.Log().Error(fmt.Sprintf("Error processing component %s", customID),
			slog.String(logging.KeyError, err.Error()))

		if err := respondSlashError(a, i); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
	}
}

func modalHandler(a IApp, modals map[string]commandProcessor, i *discordgo.InteractionCreate) {
	customID := i.ModalSubmitData().CustomID

	processor, ok := modals[customID]
	if !ok {
		a.Log().Debug("No processor found for modal", slog.String("custom_id", customID))
		return
	}

	if err := processor(a, i); err != nil {
		a.Log().Error(fmt.Sprintf("Error processing modal %s", customID),
			slog.String(logging.KeyError, err.Error()))

		if err := respondSlashError(a, i); err != nil {
			a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
	}
}
