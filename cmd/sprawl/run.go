package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"sprawl/internal/logging"
	"sprawl/internal/server"
	"sprawl/pkg/config"
	"sprawl/pkg/content"
	"sprawl/pkg/geo"
	"sprawl/pkg/placement"
	"sprawl/pkg/roads"
	"sprawl/pkg/sink"
	"sprawl/pkg/spawn"
	"sprawl/pkg/stream"
	"sprawl/pkg/world"
)

type runOptions struct {
	seed         uint64
	ticks        int
	hz           int
	observerPort int
	logLevel     string
	dev          bool
}

// runWorld drives the headless simulation: a single observer entity wanders
// a closed loop through the world while the scheduler streams chunks around
// it. Everything runs on one goroutine; only the debug observer (when
// enabled) runs beside it.
func runWorld(cfg *config.Config, opts runOptions) error {
	if opts.hz <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", opts.hz)
	}
	log, err := logging.New(opts.logLevel, opts.dev)
	if err != nil {
		return err
	}
	defer log.Sync()

	net := roads.NewNetwork(cfg, log, opts.seed)
	registry := spawn.NewRegistry(cfg, log)
	grid := placement.NewGrid(cfg.Streaming.PlacementCell, registry.Spacing)
	out := sink.NewMemory()
	mgr := stream.NewManager(cfg, log, net, grid, registry, out, opts.seed)

	var obs *server.Server
	if opts.observerPort > 0 {
		obs = server.New(opts.observerPort, cfg, log)
		go func() {
			if err := obs.Start(); err != nil {
				log.Error("observer stopped", zap.Error(err))
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Warm up the start area so the observer spawns into generated content.
	playerPos := geo.Origin
	for {
		before := mgr.Stats().Loads
		mgr.Tick(playerPos)
		if mgr.Stats().Loads == before && mgr.CountState(world.StateLoading) == 0 {
			break
		}
	}

	playerPos, err = registry.FindSafeSpawnPosition(playerPos, world.KindPlayer,
		cfg.World.ChunkEdge, cfg.Spawns.MaxAttempts)
	if err != nil {
		return fmt.Errorf("placing observer entity: %w", err)
	}
	player := out.CreateContent(content.Descriptor{Kind: world.KindPlayer, Pos: playerPos})
	registry.RegisterEntity(playerPos, world.KindPlayer, player)
	log.Info("observer spawned",
		zap.Float64("x", playerPos.X), zap.Float64("z", playerPos.Z))

	interval := time.Second / time.Duration(opts.hz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for tick := 0; opts.ticks == 0 || tick < opts.ticks; tick++ {
		select {
		case <-stop:
			log.Info("interrupted")
			return report(log, mgr, out, start)
		case <-ticker.C:
		}

		playerPos = wanderPos(cfg, time.Duration(tick)*interval)
		registry.UnregisterEntity(player)
		registry.RegisterEntity(playerPos, world.KindPlayer, player)

		mgr.Tick(playerPos)

		if obs != nil {
			obs.Publish(mgr.Snapshot())
		}
		if tick > 0 && tick%opts.hz == 0 {
			stats := mgr.Stats()
			log.Info("tick",
				zap.Uint64("ticks", stats.Ticks),
				zap.Int("loaded", mgr.CountState(world.StateLoaded)),
				zap.Uint64("descriptors", stats.Descriptors),
				zap.Int("entities", registry.Len()))
		}
	}

	return report(log, mgr, out, start)
}

// wanderPos traces a closed Lissajous loop that keeps the observer inside
// the world bound while crossing the arterial lattice at varying angles.
func wanderPos(cfg *config.Config, elapsed time.Duration) geo.Vec3 {
	t := elapsed.Seconds() * 0.02
	reach := cfg.World.AbsoluteBound * 0.7
	return geo.V(reach*math.Sin(t), 0, reach*math.Sin(2*t+math.Pi/3))
}

func report(log *zap.Logger, mgr *stream.Manager, out *sink.Memory, start time.Time) error {
	snap := mgr.Snapshot()
	log.Info("simulation finished",
		zap.Duration("wall", time.Since(start)),
		zap.Uint64("ticks", snap.Stats.Ticks),
		zap.Uint64("loads", snap.Stats.Loads),
		zap.Uint64("unloads", snap.Stats.Unloads),
		zap.Uint64("descriptors", snap.Stats.Descriptors),
		zap.Uint64("budget_stops", snap.Stats.BudgetStops),
		zap.Int("roads", snap.Roads),
		zap.Int("intersections", snap.Intersections),
		zap.Int("live_objects", out.Live()),
		zap.Int("stale_destroys", out.Stale))
	return nil
}

// writeDefaultProject creates a project directory holding the canonical
// world.yaml, refusing to clobber an existing one.
func writeDefaultProject(projectPath string) error {
	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		return err
	}
	target := filepath.Join(projectPath, "world.yaml")
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%s already exists", target)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", target)
	return nil
}
