package nic

import (
	"context"
	"errors"
	"net/http"

	"github.com/HerbHall/niccommander/internal/config"
	"github.com/HerbHall/niccommander/internal/plugin"
	"github.com/HerbHall/niccommander/internal/server"
	"github.com/HerbHall/niccommander/pkg/models"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

// Module exposes interface snapshots over HTTP.
type Module struct {
	logger    *zap.Logger
	collector *Collector
	fs        afero.Fs
}

// New creates the nic module. A nil fs reads the real host filesystem.
func New(fsys afero.Fs) *Module {
	if fsys == nil {
		fsys = afero.NewReadOnlyFs(afero.NewOsFs())
	}
	return &Module{fs: fsys}
}

func (m *Module) Name() string    { return "nic" }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg config.Config, logger *zap.Logger) error {
	m.logger = logger
	links := NewLinkReader(m.fs, cfg.GetString("sysfs_root"))
	m.collector = NewCollector(NewSystemSource(links), cfg.GetInt("max_interfaces"), logger)
	m.logger.Info("nic module initialized", zap.Int("max_interfaces", m.collector.max))
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("nic module started")
	return nil
}

func (m *Module) Stop() error {
	m.logger.Info("nic module stopped")
	return nil
}

// Collector returns the module's snapshot collector.
func (m *Module) Collector() *Collector { return m.collector }

func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/interfaces", Handler: m.handleListInterfaces},
		{Method: "POST", Path: "/interfaces/{name}/toggle", Handler: m.handleToggle},
	}
}

// listResponse mirrors the dashboard's {"success": true, "nics": [...]} envelope.
type listResponse struct {
	Success bool                     `json:"success"`
	NICs    []models.InterfaceRecord `json:"nics"`
}

// handleListInterfaces returns a fresh snapshot of up to eight interfaces.
//
//	@Summary		List interfaces
//	@Tags			nic
//	@Produce		json
//	@Success		200 {object} listResponse
//	@Router			/nic/interfaces [get]
func (m *Module) handleListInterfaces(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, listResponse{
		Success: true,
		NICs:    m.collector.List(r.Context()),
	})
}

// handleToggle always refuses: changing link state needs privileges the
// service does not hold.
func (m *Module) handleToggle(w http.ResponseWriter, r *http.Request) {
	err := m.collector.Toggle(r.PathValue("name"))
	if errors.Is(err, ErrToggleUnsupported) {
		server.Forbidden(w, ErrToggleUnsupported.Error(), r.URL.Path)
		return
	}
	m.logger.Error("toggle interface", zap.Error(err))
	server.InternalError(w, "toggle failed", r.URL.Path)
}
