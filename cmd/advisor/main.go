package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quarryhill/idle-advisor/internal/cloudsync"
	"github.com/quarryhill/idle-advisor/internal/display"
	"github.com/quarryhill/idle-advisor/internal/engine"
	"github.com/quarryhill/idle-advisor/internal/loader"
	"github.com/quarryhill/idle-advisor/internal/models"
	"github.com/quarryhill/idle-advisor/internal/store"
)

var (
	dataDir      string
	scenarioFile string
	redisAddr    string
	profile      string
	topN         int
	horizonStr   string
	jsonOutput   bool
	rateMult     float64
	costMult     float64
)

func main() {
	// .env is optional; explicit env wins either way.
	_ = godotenv.Load()
	initLogger()

	rootCmd := &cobra.Command{
		Use:   "advisor",
		Short: "Idle game upgrade advisor",
		Long: `Ranks purchasable upgrades (generator units and research) by a
scarcity-weighted cascade score and tells you what to buy next.`,
	}

	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", envOr("ADVISOR_DATA_DIR", "advisor-data"), "Path to the local state directory")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", os.Getenv("ADVISOR_REDIS_ADDR"), "Redis address for cloud sync (empty disables)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", envOr("ADVISOR_PROFILE", "default"), "Save profile name")

	rankCmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank all pending upgrades",
		RunE:  runRank,
	}
	rankCmd.Flags().IntVarP(&topN, "top", "t", 0, "Show only the top N upgrades")
	rankCmd.Flags().StringVar(&horizonStr, "horizon", "", "Only show upgrades affordable within this window, e.g. 1d12h")
	rankCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	rankCmd.Flags().StringVarP(&scenarioFile, "scenario", "s", "", "Load a scenario YAML instead of saved state")

	buyCmd := &cobra.Command{
		Use:   "buy <name>",
		Short: "Apply a purchase and show the new ranking",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuy,
	}

	prestigeCmd := &cobra.Command{
		Use:   "prestige",
		Short: "Reset all progress, rescaling base rates and costs",
		RunE:  runPrestige,
	}
	prestigeCmd.Flags().Float64Var(&rateMult, "rate-mult", 1.0, "Multiplier applied to base production rates")
	prestigeCmd.Flags().Float64Var(&costMult, "cost-mult", 1.0, "Multiplier applied to base costs")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Exchange state with the cloud collaborator",
	}
	syncCmd.AddCommand(
		&cobra.Command{Use: "push", Short: "Upload local state", RunE: runSyncPush},
		&cobra.Command{Use: "pull", Short: "Download remote state over local", RunE: runSyncPull},
	)

	rootCmd.AddCommand(rankCmd, buyCmd, prestigeCmd, syncCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogger() {
	level := slog.LevelInfo
	switch os.Getenv("ADVISOR_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	var handler slog.Handler
	if os.Getenv("ADVISOR_LOG_JSON") == "true" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadState prefers an explicit scenario file, then cloud data when it is
// fresher than the local save, then local data.
func loadState(ctx context.Context, st *store.Store, cloud *cloudsync.Client) (*models.GameState, error) {
	if scenarioFile != "" {
		return loader.LoadScenario(scenarioFile)
	}
	return cloudsync.LoadState(ctx, st, cloud), nil
}

func saveState(st *store.Store, gs *models.GameState, eng *engine.Engine) {
	st.SaveGenerators(gs.Generators)
	st.SaveResearch(gs.Research)
	st.SaveResources(gs.Resources)
	st.SaveWeights(eng.Weights())
}

func newEngine(st *store.Store) *engine.Engine {
	eng := engine.New()
	eng.RestoreWeights(st.LoadWeights())
	return eng
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st := store.New(dataDir)
	cloud := cloudsync.Connect(redisAddr, os.Getenv("ADVISOR_REDIS_PASSWORD"), profile)

	gs, err := loadState(ctx, st, cloud)
	if err != nil {
		return err
	}
	if len(gs.Generators) == 0 && len(gs.Research) == 0 {
		color.Yellow("No game state found; load one with --scenario")
		return nil
	}

	eng := newEngine(st)
	results := eng.RankedUpgrades(gs)
	saveState(st, gs, eng)

	if horizonStr != "" {
		horizon, err := display.ParseHorizon(horizonStr)
		if err != nil {
			return fmt.Errorf("invalid --horizon: %w", err)
		}
		results = affordableWithin(results, horizon)
	}

	if jsonOutput {
		return printJSON(results, topN)
	}
	printRanking(results, topN)
	return nil
}

func runBuy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st := store.New(dataDir)
	cloud := cloudsync.Connect(redisAddr, os.Getenv("ADVISOR_REDIS_PASSWORD"), profile)

	gs, err := loadState(ctx, st, cloud)
	if err != nil {
		return err
	}

	eng := newEngine(st)
	if err := eng.PurchaseByName(gs, args[0]); err != nil {
		return err
	}
	color.Green("✅ Purchased %s", args[0])

	results := eng.RankedUpgrades(gs)
	saveState(st, gs, eng)
	cloud.SyncToCloud(ctx, gs.Generators, gs.Research, gs.Resources)

	printRanking(results, 5)
	return nil
}

func runPrestige(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st := store.New(dataDir)
	cloud := cloudsync.Connect(redisAddr, os.Getenv("ADVISOR_REDIS_PASSWORD"), profile)

	gs, err := loadState(ctx, st, cloud)
	if err != nil {
		return err
	}

	eng := newEngine(st)
	eng.Prestige(gs, rateMult, costMult)
	saveState(st, gs, eng)
	cloud.SyncToCloud(ctx, gs.Generators, gs.Research, gs.Resources)

	color.Cyan("♻️  Prestige complete (rates ×%.2f, costs ×%.2f)", rateMult, costMult)
	return nil
}

func runSyncPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st := store.New(dataDir)
	cloud := cloudsync.Connect(redisAddr, os.Getenv("ADVISOR_REDIS_PASSWORD"), profile)
	if cloud == nil {
		return fmt.Errorf("cloud sync is not configured (set --redis or ADVISOR_REDIS_ADDR)")
	}

	gs := models.NewGameState()
	gs.Generators = st.LoadGenerators()
	gs.Research = st.LoadResearch()
	gs.Resources = st.LoadResources()

	cloud.SyncToCloud(ctx, gs.Generators, gs.Research, gs.Resources)
	color.Green("✅ Pushed %d generators, %d research", len(gs.Generators), len(gs.Research))
	return nil
}

func runSyncPull(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st := store.New(dataDir)
	cloud := cloudsync.Connect(redisAddr, os.Getenv("ADVISOR_REDIS_PASSWORD"), profile)
	if cloud == nil {
		return fmt.Errorf("cloud sync is not configured (set --redis or ADVISOR_REDIS_ADDR)")
	}

	snap := cloud.SyncFromCloud(ctx)
	if snap == nil {
		color.Yellow("No remote snapshot found")
		return nil
	}

	st.SaveGenerators(snap.Generators)
	st.SaveResearch(snap.Research)
	st.SaveResources(snap.Resources)
	color.Green("✅ Pulled snapshot %s from %s", snap.ID, snap.SavedAt.Format("2006-01-02 15:04:05"))
	return nil
}
