package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/crucible"

	"github.com/astrasemi/qualitylens/internal/appid"
	"github.com/astrasemi/qualitylens/internal/insight"
)

// versionState is what /version reports beyond the runtime.
type versionState struct {
	version, commit, buildDate string

	identity *appidentity.Identity
	mode     string
}

var (
	versionMu sync.RWMutex
	current   = versionState{version: "dev", commit: "unknown", buildDate: "unknown", mode: "mock"}
)

// SetVersionInfo records the build stamp.
func SetVersionInfo(version, commit, buildDate string) {
	versionMu.Lock()
	defer versionMu.Unlock()
	current.version, current.commit, current.buildDate = version, commit, buildDate
}

// SetAppIdentity overrides the identity reported by /version. nil restores
// the static identity.
func SetAppIdentity(identity *appidentity.Identity) {
	versionMu.Lock()
	defer versionMu.Unlock()
	current.identity = identity
}

// SetInsightMode records whether insights come from a provider or the mock.
func SetInsightMode(mode string) {
	versionMu.Lock()
	defer versionMu.Unlock()
	current.mode = mode
}

// VersionResponse is the /version body.
type VersionResponse struct {
	App          AppInfo     `json:"app"`
	Insight      InsightInfo `json:"insight"`
	Dependencies DepInfo     `json:"dependencies"`
	Runtime      RuntimeInfo `json:"runtime"`
}

type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// InsightInfo advertises the request limits clients should validate against.
type InsightInfo struct {
	Endpoint             string `json:"endpoint"`
	Mode                 string `json:"mode"`
	MinObservationLength int    `json:"min_observation_length"`
	MaxObservationLength int    `json:"max_observation_length"`
	DefaultContext       string `json:"default_context"`
}

type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

func buildVersionResponse(state versionState) VersionResponse {
	name := appid.BinaryName
	if state.identity == nil {
		state.identity, _ = appid.Get(context.Background())
	}
	if state.identity != nil && state.identity.BinaryName != "" {
		name = state.identity.BinaryName
	}

	deps := crucible.GetVersion()
	return VersionResponse{
		App: AppInfo{
			Name:      name,
			Version:   state.version,
			Commit:    state.commit,
			BuildDate: state.buildDate,
			GoVersion: runtime.Version(),
		},
		Insight: InsightInfo{
			Endpoint:             insight.Endpoint,
			Mode:                 state.mode,
			MinObservationLength: insight.MinObservationLength,
			MaxObservationLength: insight.MaxObservationLength,
			DefaultContext:       insight.DefaultContext,
		},
		Dependencies: DepInfo{Gofulmen: deps.Gofulmen, Crucible: deps.Crucible},
		Runtime: RuntimeInfo{
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
	}
}

// VersionHandler serves /version.
func VersionHandler(w http.ResponseWriter, _ *http.Request) {
	versionMu.RLock()
	state := current
	versionMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(buildVersionResponse(state))
}
