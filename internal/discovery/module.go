package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"slices"
	"strconv"

	"github.com/HerbHall/niccommander/internal/config"
	"github.com/HerbHall/niccommander/internal/metrics"
	"github.com/HerbHall/niccommander/internal/plugin"
	"github.com/HerbHall/niccommander/internal/probe"
	"github.com/HerbHall/niccommander/internal/server"
	"github.com/HerbHall/niccommander/internal/store"
	"github.com/HerbHall/niccommander/pkg/models"
	"go.uber.org/zap"
)

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

// Module exposes subnet sweeps and their history over HTTP.
type Module struct {
	logger  *zap.Logger
	db      *store.SQLiteStore
	metrics *metrics.Metrics
	scanner *Scanner
	history *History
}

// New creates the discovery module. db and m may be nil; without a database
// sweeps still run but are not recorded.
func New(db *store.SQLiteStore, m *metrics.Metrics) *Module {
	return &Module{db: db, metrics: m}
}

func (m *Module) Name() string    { return "discovery" }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg config.Config, logger *zap.Logger) error {
	m.logger = logger

	backend, err := probe.NewBackend(cfg.GetString("backend"))
	if err != nil {
		return err
	}
	opts := Options{
		Concurrency:  cfg.GetInt("concurrency"),
		HostTimeout:  cfg.GetDuration("host_timeout"),
		DNSTimeout:   cfg.GetDuration("dns_timeout"),
		ResolveFirst: cfg.GetBool("resolve_first"),
	}
	m.scanner = NewScanner(backend, net.DefaultResolver, opts, logger, m.metrics)

	if m.db != nil {
		m.history, err = NewHistory(context.Background(), m.db, cfg.GetInt("history_limit"))
		if err != nil {
			return err
		}
	}

	m.logger.Info("discovery module initialized",
		zap.Int("concurrency", m.scanner.opts.Concurrency),
		zap.Duration("host_timeout", m.scanner.opts.HostTimeout),
		zap.Bool("history", m.history != nil),
		zap.Int("history_limit", cfg.GetInt("history_limit")),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("discovery module started")
	return nil
}

func (m *Module) Stop() error {
	m.logger.Info("discovery module stopped")
	return nil
}

// Scanner returns the module's scanner.
func (m *Module) Scanner() *Scanner { return m.scanner }

func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/scan", Handler: m.handleScan, Limited: true},
		{Method: "GET", Path: "/scans", Handler: m.handleListScans},
		{Method: "GET", Path: "/scans/{id}", Handler: m.handleGetScan},
	}
}

// scanRequest is the JSON body for POST /scan.
type scanRequest struct {
	NetworkPrefix string `json:"network_prefix" example:"192.168.1"`
}

// scanResponse mirrors the dashboard's {"success": true, "devices": [...]} envelope.
type scanResponse struct {
	Success bool                    `json:"success"`
	ScanID  string                  `json:"scan_id,omitempty"`
	Devices []models.DiscoveredHost `json:"devices"`
}

// handleScan sweeps a /24 and returns the hosts that answered.
//
//	@Summary		Sweep subnet
//	@Tags			discovery
//	@Accept			json
//	@Produce		json
//	@Param			body body scanRequest true "Prefix such as 192.168.1"
//	@Success		200 {object} scanResponse
//	@Failure		400 {object} server.Problem
//	@Failure		503 {object} server.Problem
//	@Router			/discovery/scan [post]
func (m *Module) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if err := probe.ValidatePrefix(req.NetworkPrefix); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	ctx := r.Context()
	var rec *models.ScanRecord
	if m.history != nil {
		var err error
		if rec, err = m.history.Start(ctx, req.NetworkPrefix); err != nil {
			m.logger.Warn("record scan start", zap.Error(err))
		}
	}

	hosts, err := m.scanner.Discover(ctx, req.NetworkPrefix)
	if err != nil {
		status := models.ScanStatusFailed
		if ctx.Err() != nil {
			status = models.ScanStatusCancelled
		}
		m.finish(ctx, rec, status, len(hosts))

		switch {
		case errors.Is(err, probe.ErrInvalidRequest):
			server.BadRequest(w, err.Error(), r.URL.Path)
		case status == models.ScanStatusCancelled:
			m.logger.Warn("subnet sweep cancelled", zap.String("prefix", req.NetworkPrefix), zap.Error(err))
			server.Cancelled(w, "discovery stopped before every host was probed", r.URL.Path)
		default:
			m.logger.Error("subnet sweep", zap.String("prefix", req.NetworkPrefix), zap.Error(err))
			server.InternalError(w, "discovery failed", r.URL.Path)
		}
		return
	}
	sortByHostOctet(hosts)

	resp := scanResponse{Success: true, Devices: hosts}
	if rec != nil {
		resp.ScanID = rec.ID
	}
	m.finish(ctx, rec, models.ScanStatusCompleted, len(hosts))
	server.WriteJSON(w, http.StatusOK, resp)
}

// finish closes rec, if one was started, even when the request context is gone.
func (m *Module) finish(ctx context.Context, rec *models.ScanRecord, status models.ScanStatus, found int) {
	if rec == nil {
		return
	}
	if err := m.history.Finish(context.WithoutCancel(ctx), rec.ID, status, found); err != nil {
		m.logger.Warn("record scan result",
			zap.String("scan_id", rec.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

// handleListScans returns recorded sweeps, newest first.
func (m *Module) handleListScans(w http.ResponseWriter, r *http.Request) {
	if m.history == nil {
		server.WriteJSON(w, http.StatusOK, []models.ScanRecord{})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			server.BadRequest(w, "limit must be a non-negative integer", r.URL.Path)
			return
		}
		limit = n
	}
	scans, err := m.history.List(r.Context(), limit)
	if err != nil {
		m.logger.Warn("failed to list scans", zap.Error(err))
		server.InternalError(w, "failed to list scans", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, scans)
}

func (m *Module) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if m.history == nil {
		server.NotFound(w, "scan history is disabled", r.URL.Path)
		return
	}
	rec, err := m.history.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		server.NotFound(w, "scan "+id+" not found", r.URL.Path)
		return
	}
	if err != nil {
		m.logger.Warn("failed to get scan", zap.String("scan_id", id), zap.Error(err))
		server.InternalError(w, "failed to get scan", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, rec)
}

// sortByHostOctet orders hosts by their numeric address.
func sortByHostOctet(hosts []models.DiscoveredHost) {
	slices.SortFunc(hosts, func(a, b models.DiscoveredHost) int {
		return compareIP(a.IP, b.IP)
	})
}

func compareIP(a, b string) int {
	ia, ib := net.ParseIP(a).To4(), net.ParseIP(b).To4()
	if ia == nil || ib == nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	for i := range ia {
		if ia[i] != ib[i] {
			return int(ia[i]) - int(ib[i])
		}
	}
	return 0
}
