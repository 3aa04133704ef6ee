// Package node wires the storage, state and engine shared by the binaries.
package node

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tokendrop/config"
	"tokendrop/core/events"
	"tokendrop/core/state"
	"tokendrop/core/types"
	"tokendrop/crypto"
	"tokendrop/native/distribution"
	"tokendrop/storage"
)

type Node struct {
	DB     *storage.LevelDB
	State  *state.Manager
	Engine *distribution.Engine
}

// Open opens the LevelDB store under cfg.DataDir and builds an engine over it.
func Open(cfg *config.Config, logger *slog.Logger) (*Node, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	mgr := state.NewManager(db)
	if err := state.EnsureStateVersion(mgr, cfg.AllowMigrate); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.AllowMigrate {
		logger.Warn("state version checks relaxed for migration", "expected", state.StateVersion)
	}
	engine := distribution.NewEngine()
	engine.SetState(mgr)
	engine.SetLogger(logger)
	engine.SetEmitter(LogEmitter{Logger: logger})
	engine.SetAddressValidator(distribution.PrefixValidator(crypto.AddressPrefix(cfg.AddressPrefix)))
	return &Node{DB: db, State: mgr, Engine: engine}, nil
}

func (n *Node) Close() {
	if n != nil && n.DB != nil {
		n.DB.Close()
	}
}

// HasCampaign reports whether a campaign has already been imported.
func (n *Node) HasCampaign() (bool, error) {
	_, ok, err := n.State.DistributionCampaignGet()
	return ok, err
}

// LogEmitter writes every event to the structured log.
type LogEmitter struct {
	Logger *slog.Logger
}

func (e LogEmitter) Emit(evt events.Event) {
	if e.Logger == nil || evt == nil {
		return
	}
	args := []any{"type", evt.EventType()}
	if payload, ok := evt.(interface{ Event() *types.Event }); ok && payload.Event() != nil {
		for key, value := range payload.Event().Attributes {
			args = append(args, key, value)
		}
	}
	e.Logger.Info("event", args...)
}

// ParseTime accepts RFC3339 or unix seconds. Empty means the wall clock.
func ParseTime(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now().Unix(), nil
	}
	if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0, errors.New("time must be RFC3339 or unix seconds")
	}
	return ts.Unix(), nil
}
