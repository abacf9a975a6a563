// Package app wires the simulation binary: logging router, navigation asset,
// agent manager, demo scenario, and the diagnostics HTTP surface.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"

	"agentmind/core/internal/behavior"
	"agentmind/core/internal/cleaners"
	"agentmind/core/internal/mind"
	"agentmind/core/internal/nav"
	"agentmind/core/internal/telemetry"
	"agentmind/core/logging"
	loggingSinks "agentmind/core/logging/sinks"
)

// Config carries the optional knobs of the simulation process. Every field
// can also be set through the environment; the environment wins.
type Config struct {
	Logger telemetry.Logger

	Addr        string
	TickRate    int
	AssetPath   string
	BehaviorDir string
}

const (
	defaultAddr     = ":8080"
	defaultTickRate = 15

	// Fresh dirt appears this often so the demo never settles.
	dirtSpawnInterval = 60
)

// Run starts the simulation and blocks until the context is cancelled or the
// HTTP server fails.
func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}
	applyEnv(&cfg, telemetryLogger)

	logConfig := logging.DefaultConfig()
	if raw := os.Getenv("LOG_SINKS"); raw != "" {
		logConfig.EnabledSinks = splitList(raw)
	}
	if raw := os.Getenv("LOG_JSON_PATH"); raw != "" {
		logConfig.JSON.FilePath = raw
	}

	sinks, stream, closeFiles, err := buildSinks(logConfig)
	if err != nil {
		return err
	}
	defer closeFiles()

	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, sinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			telemetryLogger.Printf("close logging router: %v", cerr)
		}
	}()

	metrics := logging.NewMetrics()
	manager := mind.NewManager(mind.ManagerConfig{
		Publisher:       router,
		Logger:          telemetryLogger,
		Metrics:         telemetry.WrapMetrics(metrics),
		TickRate:        cfg.TickRate,
		CatchupMaxTicks: 4,
	})

	positions, connections := demoLayout()
	if err := loadNavigation(manager, cfg.AssetPath, positions, connections, telemetryLogger); err != nil {
		return err
	}

	world, err := buildScenario(manager, cfg.BehaviorDir)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(1))
	manager.AfterTick = func(result mind.TickResult) {
		if result.Tick%dirtSpawnInterval == 0 {
			world.AddDirt(rng.Intn(len(positions)))
		}
	}

	stop := make(chan struct{})
	go manager.Run(stop)
	defer close(stop)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/state", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"tick":  manager.CurrentTick(),
			"world": world.Snapshot(),
		})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		stats := router.Stats()
		writeJSON(w, map[string]any{
			"counters":       metrics.Snapshot(),
			"events_total":   stats.EventsTotal,
			"events_dropped": stats.DroppedTotal,
		})
	})
	if stream != nil {
		mux.HandleFunc("/diagnostics/stream", stream.Handler())
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	telemetryLogger.Printf("simulation listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, logger telemetry.Logger) {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if raw := os.Getenv("SIM_ADDR"); raw != "" {
		cfg.Addr = raw
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaultTickRate
	}
	if raw := os.Getenv("SIM_TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TickRate = value
		} else {
			logger.Printf("invalid SIM_TICK_RATE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("NAV_ASSET_PATH"); raw != "" {
		cfg.AssetPath = raw
	}
	if raw := os.Getenv("BEHAVIOR_CONFIG_DIR"); raw != "" {
		cfg.BehaviorDir = raw
	}
}

func buildSinks(cfg logging.Config) ([]logging.NamedSink, *loggingSinks.Stream, func(), error) {
	var sinks []logging.NamedSink
	var stream *loggingSinks.Stream
	var files []*os.File

	closeFiles := func() {
		for _, file := range files {
			file.Close()
		}
	}

	if cfg.HasSink("console") {
		sinks = append(sinks, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout)})
	}
	if cfg.HasSink("json") && cfg.JSON.FilePath != "" {
		file, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			closeFiles()
			return nil, nil, nil, fmt.Errorf("open json log: %w", err)
		}
		files = append(files, file)
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(file, cfg.JSON.FlushInterval)})
	}
	if cfg.HasSink("stream") {
		stream = loggingSinks.NewStream(cfg.Stream, log.Default())
		sinks = append(sinks, logging.NamedSink{Name: "stream", Sink: stream})
	}
	return sinks, stream, closeFiles, nil
}

// loadNavigation prefers the persisted asset and falls back to a full build,
// persisting the result for the next start.
func loadNavigation(manager *mind.Manager, assetPath string, positions []nav.Vec3, connections []nav.Connection, logger telemetry.Logger) error {
	if assetPath == "" {
		return manager.RebuildNavigation(positions, connections)
	}

	store, err := nav.OpenAssetStore(assetPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if table, err := store.Load(); err == nil && table.Graph().NodeCount() > 0 {
		manager.SetNavigation(table.Graph(), table)
		logger.Printf("navigation asset loaded: %d nodes, %d routes", table.Graph().NodeCount(), table.Len())
		return nil
	} else if err != nil {
		logger.Printf("navigation asset unreadable, rebuilding: %v", err)
	}

	if err := manager.RebuildNavigation(positions, connections); err != nil {
		return err
	}
	if err := store.Save(manager.Table()); err != nil {
		logger.Printf("persist navigation asset: %v", err)
	}
	return nil
}

// buildScenario spawns the demo population: two cleaner robots plus one
// scripted patroller from the behavior library.
func buildScenario(manager *mind.Manager, behaviorDir string) (*cleaners.World, error) {
	world := cleaners.NewWorld(0)
	states := cleaners.NewStates(world, cleaners.DefaultLowBattery)

	cleaners.SpawnRobot(manager, world, states, "cleaner-1", nav.Vec3{X: 0}, 1.5)
	cleaners.SpawnRobot(manager, world, states, "cleaner-2", nav.Vec3{X: 3}, 1.5)
	world.AddDirt(5)
	world.AddDirt(10)

	library := behavior.GlobalLibrary.Clone()
	if behaviorDir != "" {
		external, err := behavior.LoadLibraryDir(behaviorDir)
		if err != nil {
			return nil, fmt.Errorf("load behavior configs: %w", err)
		}
		library.Merge(external)
	}
	if patrol := library.ConfigForType("patrol"); patrol != nil {
		hooks := world.AddRobot("patrol-1", nav.Vec3{X: 0}, cleaners.FullBattery)
		agent := manager.Spawn(mind.AgentConfig{
			ID:      "patrol-1",
			Hooks:   hooks,
			Initial: patrol.Initial(),
			Speed:   1,
		})
		patrol.ApplyDefaults(&agent.Blackboard)
	}
	return world, nil
}

// demoLayout is a 4x4 unit grid on the XZ plane with 4-way connectivity.
func demoLayout() ([]nav.Vec3, []nav.Connection) {
	const size = 4
	positions := make([]nav.Vec3, 0, size*size)
	for z := 0; z < size; z++ {
		for x := 0; x < size; x++ {
			positions = append(positions, nav.Vec3{X: float64(x), Z: float64(z)})
		}
	}
	connections := make([]nav.Connection, 0, 2*size*(size-1))
	for z := 0; z < size; z++ {
		for x := 0; x < size; x++ {
			index := z*size + x
			if x+1 < size {
				connections = append(connections, nav.Connection{A: index, B: index + 1})
			}
			if z+1 < size {
				connections = append(connections, nav.Connection{A: index, B: index + size})
			}
		}
	}
	return positions, connections
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
