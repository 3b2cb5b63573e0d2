package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"voxelminer.ai/internal/metrics"
	"voxelminer.ai/internal/persistence/indexdb"
	persistlog "voxelminer.ai/internal/persistence/log"
	"voxelminer.ai/internal/protocol"
	"voxelminer.ai/internal/sim/agent"
	"voxelminer.ai/internal/sim/catalogs"
	"voxelminer.ai/internal/sim/encoding"
	"voxelminer.ai/internal/sim/tasks"
	"voxelminer.ai/internal/sim/tuning"
	"voxelminer.ai/internal/sim/world/logic/movement"
	"voxelminer.ai/internal/sim/world/sandbox"
	"voxelminer.ai/internal/transport/observer"
)

func main() {
	var (
		configDir    = flag.String("configs", "./configs", "config directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		settingsPath = flag.String("settings", "", "path to settings.yaml (default: <configs>/settings.yaml)")
		catalogDir   = flag.String("catalogs", "", "directory with blocks.json and items.json (default: built-in)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		seed         = flag.Int64("seed", 0, "world seed (0 keeps the tuning seed)")
		observerAddr = flag.String("observer", "", "observer listen address (overrides tuning)")
		metricsAddr  = flag.String("metrics", "", "metrics listen address (overrides tuning)")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite index")
		fast         = flag.Bool("fast", false, "tick as fast as possible instead of at tick_rate_hz")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Default()
	}
	if *seed != 0 {
		tune.World.Seed = *seed
	}
	if *observerAddr != "" {
		tune.Serve.ObserverAddr = *observerAddr
	}
	if *metricsAddr != "" {
		tune.Serve.MetricsAddr = *metricsAddr
	}

	sp := strings.TrimSpace(*settingsPath)
	if sp == "" {
		sp = filepath.Join(*configDir, "settings.yaml")
	}
	settings, err := tuning.LoadSettings(sp)
	if err != nil {
		logger.Fatalf("load settings: %v", err)
	}

	var cats *catalogs.Catalogs
	if dir := strings.TrimSpace(*catalogDir); dir != "" {
		cats, err = catalogs.Load(dir)
	} else {
		cats, err = catalogs.LoadDefault()
	}
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	inv := make([]sandbox.Stack, 0, len(tune.Agent.Inventory))
	for _, s := range tune.Agent.Inventory {
		inv = append(inv, sandbox.Stack{Item: s.Item, Color: s.Color, Count: s.Count})
	}
	spawn := tune.Agent.Spawn
	w, err := sandbox.New(sandbox.Config{
		Catalogs:  cats,
		Gen:       sandbox.GenFromCatalog(cats, tune.World.Seed, tune.World.BoundaryR, tune.World.Height, tune.World.OreScalePermille),
		Spawn:     tasks.Vec3i{X: spawn[0], Y: spawn[1], Z: spawn[2]},
		Inventory: inv,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatalf("sandbox: %v", err)
	}

	session := agent.NewSession(cats, settings, w, tune.World.Seed)
	logger.Printf("session %s seed=%d rating=%+v", session.ID, tune.World.Seed, session.Engine.Config())

	traceDir := tune.Trace.Dir
	if traceDir == "" {
		traceDir = filepath.Join(*dataDir, "sessions")
	}
	trace := persistlog.NewTraceLogger(filepath.Join(traceDir, session.ID))
	defer trace.Close()

	recs := &agent.Recorders{Logger: logger}
	recs.Add(trace)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		dbPath := tune.Trace.IndexDB
		if dbPath == "" {
			dbPath = filepath.Join(*dataDir, "index", "miner.sqlite")
		}
		idx, err = indexdb.OpenSQLite(dbPath, logger)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune, settings.Values()); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
		recs.Add(idx)
	}

	hub := observer.NewHub(4096)
	recs.Add(hub)
	mets := metrics.New()
	recs.Add(mets)
	recs.Add(agent.LogRecorder{Logger: logger})

	welcome := protocol.WelcomeMsg{
		SessionID: session.ID,
		Catalogs: protocol.CatalogDigests{
			BlockPalette: protocol.PaletteDigest{Digest: cats.Blocks.PaletteDigest, Count: len(cats.Blocks.Palette)},
			ItemPalette:  protocol.PaletteDigest{Digest: cats.Items.PaletteDigest, Count: len(cats.Items.Palette)},
		},
	}
	servers := listen(tune.Serve, observer.NewServer(hub, welcome, logger), mets, logger)

	a := agent.New(w, session, agent.Params{
		Search: movement.SearchParams{
			MaxDistance: tune.Search.MaxDistance,
			MaxNodes:    tune.Search.MaxNodes,
		},
		TaskTimeoutTicks: tune.TaskTimeoutTicks,
		TorchEvery:       tune.TorchEvery,
		Recorder:         recs,
		Logger:           logger,
	})
	w.OnBlockChange(func(c sandbox.BlockChange) { a.RecordBlockChange(c.Pos, c.From, c.To) })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Second / time.Duration(tune.TickRateHz)
	if *fast {
		interval = 0
	}
	a.Start()
	reason := run(ctx, a, loopLimits{
		Interval:      interval,
		MaxTicks:      tune.Agent.MaxTicks,
		MaxIdleCycles: tune.Agent.MaxIdleCycles,
	}, func() {
		mets.SetQueueDepth(a.QueueLen())
		mets.SetCacheResolutions(session.Engine.Resolutions())
		if every := tune.Serve.ViewEvery; every > 0 && a.CurrentTick()%uint64(every) == 0 && hub.Subscribers() > 0 {
			pushView(hub, w, a.CurrentTick(), tune.Serve.ViewRadius)
		}
	}, logger)
	a.Stop(reason)

	st := w.Stats()
	logger.Printf("stopped at tick %d (%s): targets=%d dug=%d placed=%d moves=%d misses=%d inventory=%v",
		a.CurrentTick(), reason, a.Targets(), st.Dug, st.Placed, st.Moves, st.Misses, w.Inventory())
	logger.Printf("trace: %s digest: %s", trace.Path(), w.Digest())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if idx != nil {
		if err := idx.Flush(shutdownCtx); err != nil {
			logger.Printf("index flush: %v", err)
		}
		if s := idx.Stats(); s.DropTotal > 0 {
			logger.Printf("index dropped %d events", s.DropTotal)
		}
	}
	for _, srv := range servers {
		_ = srv.Shutdown(shutdownCtx)
	}
}

func pushView(hub *observer.Hub, w *sandbox.World, tick uint64, radius int) {
	origin, dim, ids := w.VoxelsAround(radius)
	_ = hub.SetView(protocol.VoxelsMsg{
		Tick:     tick,
		Origin:   [3]int{origin.X, origin.Y, origin.Z},
		Dim:      dim,
		Encoding: encoding.Pal16RLE,
		Data:     encoding.EncodePal16(ids),
	})
}

type loopLimits struct {
	Interval      time.Duration
	MaxTicks      int
	MaxIdleCycles int
}

// run drives the agent until a limit is hit or ctx is cancelled and returns why it
// stopped. after is called once per tick.
func run(ctx context.Context, a *agent.Agent, lim loopLimits, after func(), logger *log.Logger) string {
	var tick <-chan time.Time
	if lim.Interval > 0 {
		t := time.NewTicker(lim.Interval)
		defer t.Stop()
		tick = t.C
	}
	idle := 0
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return "interrupted"
			case <-tick:
			}
		}
		err := a.Tick(ctx)
		if after != nil {
			after()
		}
		switch {
		case err == nil:
			idle = 0
		case errors.Is(err, movement.ErrNoTarget):
			idle++
			if lim.MaxIdleCycles > 0 && idle >= lim.MaxIdleCycles {
				return "no targets left"
			}
		case errors.Is(err, context.Canceled):
			return "interrupted"
		default:
			logger.Printf("tick: %v", err)
			return "error: " + err.Error()
		}
		if lim.MaxTicks > 0 && a.CurrentTick() >= uint64(lim.MaxTicks) {
			return "tick limit"
		}
	}
}

// listen starts the observer and metrics endpoints. Both may share one address.
func listen(cfg tuning.ServeTuning, obs *observer.Server, mets *metrics.Collectors, logger *log.Logger) []*http.Server {
	muxes := map[string]*http.ServeMux{}
	mux := func(addr string) *http.ServeMux {
		m, ok := muxes[addr]
		if !ok {
			m = http.NewServeMux()
			muxes[addr] = m
		}
		return m
	}
	if cfg.ObserverAddr != "" {
		mux(cfg.ObserverAddr).HandleFunc("/v1/observe", obs.WSHandler())
	}
	if cfg.MetricsAddr != "" {
		mux(cfg.MetricsAddr).Handle("/metrics", mets.Handler())
	}

	var out []*http.Server
	for addr, m := range muxes {
		srv := &http.Server{Addr: addr, Handler: m, ReadHeaderTimeout: 5 * time.Second}
		out = append(out, srv)
		go func() {
			logger.Printf("listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("http %s: %v", srv.Addr, err)
			}
		}()
	}
	return out
}
