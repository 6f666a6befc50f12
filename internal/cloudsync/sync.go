// Package cloudsync is the optional remote collaborator: a Redis-backed
// snapshot of the full game state, used opportunistically. Every failure
// is logged and swallowed so the core always proceeds with the best
// available in-memory state.
package cloudsync

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"github.com/quarryhill/idle-advisor/internal/models"
	"github.com/quarryhill/idle-advisor/internal/store"
)

const dialTimeout = 5 * time.Second

// Snapshot is the JSON envelope stored remotely.
type Snapshot struct {
	ID         string              `json:"id"`
	SavedAt    time.Time           `json:"saved_at"`
	Generators []*models.Generator `json:"generators"`
	Research   []*models.Research  `json:"research"`
	Resources  []*models.Resource  `json:"resources"`
}

// Client talks to the remote store for one profile.
type Client struct {
	rdb    *redis.Client
	key    string
	logger *slog.Logger
}

// Connect opens a Redis client for the given profile. It returns nil
// (sync disabled) when addr is empty or the server is unreachable;
// callers treat a nil client as a no-op collaborator.
func Connect(addr, password, profile string) *Client {
	logger := slog.With("component", "cloudsync", "profile", profile)
	if addr == "" {
		logger.Debug("no redis address, cloud sync disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, cloud sync disabled", "error", err)
		return nil
	}

	return &Client{
		rdb:    rdb,
		key:    "idle-advisor:state:" + profile,
		logger: logger,
	}
}

// SyncToCloud uploads a snapshot of the full state. Best effort.
func (c *Client) SyncToCloud(ctx context.Context, generators []*models.Generator, research []*models.Research, resources []*models.Resource) {
	if c == nil {
		return
	}
	snap := Snapshot{
		ID:         xid.New().String(),
		SavedAt:    time.Now(),
		Generators: generators,
		Research:   research,
		Resources:  resources,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		c.logger.Warn("failed to encode snapshot", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, c.key, data, 0).Err(); err != nil {
		c.logger.Warn("failed to upload snapshot", "error", err)
		return
	}
	c.logger.Debug("snapshot uploaded", "id", snap.ID)
}

// SyncFromCloud fetches the remote snapshot, nil when absent or on any
// failure.
func (c *Client) SyncFromCloud(ctx context.Context) *Snapshot {
	if c == nil {
		return nil
	}
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		c.logger.Warn("failed to fetch snapshot", "error", err)
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Warn("corrupt remote snapshot", "error", err)
		return nil
	}
	return &snap
}

// LoadState assembles a game state from the local store and, when a
// fresher remote snapshot exists, prefers the cloud copy. An unreachable
// or empty remote never fails the load.
func LoadState(ctx context.Context, local *store.Store, c *Client) *models.GameState {
	gs := models.NewGameState()
	gs.Generators = local.LoadGenerators()
	gs.Research = local.LoadResearch()
	gs.Resources = local.LoadResources()

	snap := c.SyncFromCloud(ctx)
	if snap == nil {
		return gs
	}
	if !snap.SavedAt.After(local.SavedAt()) {
		return gs
	}

	gs.Generators = snap.Generators
	gs.Research = snap.Research
	gs.Resources = snap.Resources
	return gs
}
