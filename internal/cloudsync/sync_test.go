package cloudsync

import (
	"context"
	"testing"

	"github.com/quarryhill/idle-advisor/internal/models"
	"github.com/quarryhill/idle-advisor/internal/store"
)

// A nil client is the "sync disabled" collaborator: every operation is a
// no-op and loading falls back to local data.
func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	ctx := context.Background()

	c.SyncToCloud(ctx, nil, nil, nil) // must not panic
	if snap := c.SyncFromCloud(ctx); snap != nil {
		t.Errorf("snapshot = %v, want nil", snap)
	}
}

func TestLoadStateFallsBackToLocal(t *testing.T) {
	local := store.New(t.TempDir())
	local.SaveGenerators([]*models.Generator{
		{Name: "sawmill", Rate: 1, Count: 2, Cost: 10, CostRatio: 1.15},
	})

	gs := LoadState(context.Background(), local, nil)
	if len(gs.Generators) != 1 || gs.Generators[0].Name != "sawmill" {
		t.Errorf("generators = %v, want the local sawmill", gs.Generators)
	}
}

func TestLoadStateEmptyEverywhere(t *testing.T) {
	gs := LoadState(context.Background(), store.New(t.TempDir()), nil)
	if gs == nil {
		t.Fatal("state must never be nil")
	}
	if len(gs.Generators) != 0 || len(gs.Research) != 0 {
		t.Errorf("expected empty state, got %d generators, %d research", len(gs.Generators), len(gs.Research))
	}
}

func TestConnectDisabledWithoutAddr(t *testing.T) {
	if c := Connect("", "", "default"); c != nil {
		t.Errorf("expected nil client without an address, got %v", c)
	}
}
