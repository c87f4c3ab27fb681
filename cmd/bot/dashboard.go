package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Jacobbrewer1/vanguard/pkg/logging"
	"github.com/Jacobbrewer1/vanguard/pkg/request"
	"github.com/gorilla/mux"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for health check.
	PathHealth = "/health"

	// PathGuilds is the path listing guilds with a stored configuration.
	PathGuilds = "/api/guilds"

	// PathGuildConfig is the path for a guild's full configuration document.
	PathGuildConfig = "/api/config/{guildId}"

	// PathGuildConfigSection is the path for one section of a guild's configuration.
	PathGuildConfigSection = "/api/config/{guildId}/{section}"
)

// registerDashboardRoutes mounts the local configuration API consumed by the dashboard.
// It is served on the monitoring port and is not exposed publicly.
func (a *App) registerDashboardRoutes() {
	a.r.HandleFunc(PathGuilds, middlewareHttp(a.getGuildsHandler, a)).Methods(http.MethodGet)
	a.r.HandleFunc(PathGuildConfig, middlewareHttp(a.getConfigHandler, a)).Methods(http.MethodGet)
	a.r.HandleFunc(PathGuildConfig, middlewareHttp(a.postConfigHandler, a)).Methods(http.MethodPost)
	a.r.HandleFunc(PathGuildConfigSection, middlewareHttp(a.getConfigSectionHandler, a)).Methods(http.MethodGet)
}

// getGuildsHandler returns the IDs of every guild with a stored configuration document.
func (a *App) getGuildsHandler(w http.ResponseWriter, r *http.Request) {
	guildIDs, err := a.configDal.ListGuildIDs(r.Context())
	if err != nil {
		a.Error("Error listing guilds", slog.String(logging.KeyError, err.Error()))
		writeJSON(a.Logger, w, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
		return
	}

	writeJSON(a.Logger, w, http.StatusOK, map[string]any{
		"guilds": guildIDs,
	})
}

// getConfigHandler returns the full configuration document for a guild. A guild that has
// never been configured gets the defaults.
func (a *App) getConfigHandler(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildId"]

	doc, err := a.configDal.GetDocument(r.Context(), guildID)
	if err != nil {
		a.Error("Error getting configuration document",
			slog.String(logging.KeyGuildID, guildID),
			slog.String(logging.KeyError, err.Error()))
		writeJSON(a.Logger, w, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
		return
	}

	writeJSON(a.Logger, w, http.StatusOK, doc)
}

// getConfigSectionHandler returns one top level section of a guild's configuration.
func (a *App) getConfigSectionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	guildID := vars["guildId"]
	section := vars["section"]

	doc, err := a.configDal.GetDocument(r.Context(), guildID)
	if err != nil {
		a.Error("Error getting configuration document",
			slog.String(logging.KeyGuildID, guildID),
			slog.String(logging.KeyError, err.Error()))
		writeJSON(a.Logger, w, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
		return
	}

	value := doc.GetField(section)
	if value == nil {
		writeJSON(a.Logger, w, http.StatusNotFound, request.NewMessage(fmt.Sprintf("section %s not found", section)))
		return
	}

	writeJSON(a.Logger, w, http.StatusOK, value)
}

// configUpdate is the body of a configuration update request.
type configUpdate struct {
	// Section is the top level section being replaced.
	Section string `json:"section"`

	// Config is the new value for the section.
	Config any `json:"config"`
}

// postConfigHandler replaces one section of a guild's configuration document.
func (a *App) postConfigHandler(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildId"]

	body := new(configUpdate)
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		writeJSON(a.Logger, w, http.StatusBadRequest, request.NewMessageError("error parsing request body", err))
		return
	}

	if body.Section == "" {
		writeJSON(a.Logger, w, http.StatusBadRequest, request.NewMessage("section is required"))
		return
	}

	if err := a.configDal.SetField(r.Context(), guildID, []string{body.Section}, body.Config); err != nil {
		a.Error("Error updating configuration",
			slog.String(logging.KeyGuildID, guildID),
			slog.String(logging.KeyError, err.Error()))
		writeJSON(a.Logger, w, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
		return
	}

	a.Info("Configuration section updated",
		slog.String(logging.KeyGuildID, guildID),
		slog.String("section", body.Section))

	writeJSON(a.Logger, w, http.StatusOK, request.NewMessage("configuration updated"))
}

func writeJSON(l *slog.Logger, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		l.Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
	}
}
