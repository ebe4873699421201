package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HerbHall/niccommander/internal/config"
	"github.com/HerbHall/niccommander/internal/metrics"
	"github.com/HerbHall/niccommander/internal/plugin"
	"github.com/HerbHall/niccommander/internal/server"
	"go.uber.org/zap"
)

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

// Module exposes the prober over HTTP.
type Module struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	prober  *Prober
}

// New creates the probe module. m may be nil.
func New(m *metrics.Metrics) *Module {
	return &Module{metrics: m}
}

func (m *Module) Name() string    { return "probe" }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg config.Config, logger *zap.Logger) error {
	m.logger = logger
	backend, err := NewBackend(cfg.GetString("backend"))
	if err != nil {
		return err
	}
	m.prober = NewProber(backend, cfg.GetDuration("timeout"), cfg.GetInt("max_count"), logger, m.metrics)
	m.logger.Info("probe module initialized",
		zap.String("backend", cfg.GetString("backend")),
		zap.Duration("timeout", m.prober.timeout),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("probe module started")
	return nil
}

func (m *Module) Stop() error {
	m.logger.Info("probe module stopped")
	return nil
}

// Prober returns the module's prober.
func (m *Module) Prober() *Prober { return m.prober }

func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/ping", Handler: m.handlePing, Limited: true},
	}
}

// pingRequest is the JSON body for POST /ping.
type pingRequest struct {
	Host  string `json:"host" example:"192.168.1.1"`
	Count int    `json:"count,omitempty" example:"4"`
}

// handlePing pings one host and returns the PingResult.
//
//	@Summary		Ping host
//	@Tags			probe
//	@Accept			json
//	@Produce		json
//	@Param			body body pingRequest true "Target"
//	@Success		200 {object} models.PingResult
//	@Failure		400 {object} server.Problem
//	@Router			/probe/ping [post]
func (m *Module) handlePing(w http.ResponseWriter, r *http.Request) {
	var req pingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}

	result, err := m.prober.Ping(r.Context(), req.Host, req.Count)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			server.BadRequest(w, err.Error(), r.URL.Path)
			return
		}
		m.logger.Error("ping", zap.String("host", req.Host), zap.Error(err))
		server.InternalError(w, "ping failed", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, result)
}
