package nic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HerbHall/niccommander/internal/config"
	"github.com/HerbHall/niccommander/internal/server"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newTestModule(t *testing.T) *Module {
	t.Helper()
	return &Module{
		logger:    zap.NewNop(),
		collector: NewCollector(ethSource(), 8, zap.NewNop()),
	}
}

func TestModuleInit(t *testing.T) {
	fs := afero.NewMemMapFs()
	v := viper.New()
	v.Set("max_interfaces", 3)
	v.Set("sysfs_root", "/fixtures")

	m := New(fs)
	if err := m.Init(config.New(v), zap.NewNop()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if m.Collector() == nil {
		t.Fatal("Collector() = nil after Init")
	}
	if m.Collector().max != 3 {
		t.Errorf("max = %d, want 3", m.Collector().max)
	}
}

func TestHandleListInterfaces(t *testing.T) {
	m := newTestModule(t)

	req := httptest.NewRequest("GET", "/interfaces", nil)
	w := httptest.NewRecorder()
	m.handleListInterfaces(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Success bool             `json:"success"`
		NICs    []map[string]any `json:"nics"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if len(resp.NICs) != 2 {
		t.Fatalf("nics len = %d, want 2", len(resp.NICs))
	}
	if resp.NICs[0]["mac"] != "N/A" {
		t.Errorf("lo mac = %v, want N/A", resp.NICs[0]["mac"])
	}
	if resp.NICs[1]["speed_mbps"] != float64(1000) {
		t.Errorf("eth0 speed_mbps = %v, want 1000", resp.NICs[1]["speed_mbps"])
	}
}

func TestHandleToggle_Forbidden(t *testing.T) {
	m := newTestModule(t)

	req := httptest.NewRequest("POST", "/interfaces/eth0/toggle", nil)
	req.SetPathValue("name", "eth0")
	w := httptest.NewRecorder()
	m.handleToggle(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	var p server.Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Detail != ErrToggleUnsupported.Error() {
		t.Errorf("detail = %q, want %q", p.Detail, ErrToggleUnsupported.Error())
	}
}

func TestRoutes(t *testing.T) {
	m := newTestModule(t)
	routes := m.Routes()
	if len(routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(routes))
	}
	for _, r := range routes {
		if r.Limited {
			t.Errorf("route %s %s should not be rate limited", r.Method, r.Path)
		}
	}
}
