package plugin

import (
	"context"
	"net/http"

	"github.com/HerbHall/niccommander/internal/config"
	"go.uber.org/zap"
)

// Route represents an HTTP route exposed by a plugin.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc

	// Limited routes spawn processes or sweep the network and sit behind
	// the server's rate limiter.
	Limited bool
}

// Plugin defines the interface that all NIC Commander modules must implement.
type Plugin interface {
	// Name returns the plugin's unique identifier (e.g., "nic", "probe").
	Name() string

	// Version returns the plugin's semantic version.
	Version() string

	// Init initializes the plugin with its configuration subtree and logger.
	Init(cfg config.Config, logger *zap.Logger) error

	// Start begins the plugin's background operations.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the plugin.
	Stop() error

	// Routes returns the HTTP routes this plugin exposes.
	Routes() []Route
}
