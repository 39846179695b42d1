package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dyluth/skirmish/internal/builtin"
	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/internal/config"
	"github.com/dyluth/skirmish/internal/guard"
	"github.com/dyluth/skirmish/internal/library"
	"github.com/dyluth/skirmish/internal/metrics"
	"github.com/dyluth/skirmish/internal/native"
	"github.com/dyluth/skirmish/internal/printer"
	"github.com/dyluth/skirmish/internal/registry"
	"github.com/dyluth/skirmish/internal/savestate"
	"github.com/dyluth/skirmish/internal/sim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// host is everything a match needs, wired from one configuration.
type host struct {
	cfg      *config.SkirmishConfig
	store    *catalog.Store
	watcher  *catalog.Watcher
	world    *sim.World
	registry *registry.Registry
	table    *library.Table
	null     *builtin.NullInterface
	gatherer *prometheus.Registry

	states savestate.Store
	redis  *savestate.RedisStore
	server *http.Server
}

// newHost builds the host for cfg. Redis is only contacted when configured.
func newHost(ctx context.Context, cfg *config.SkirmishConfig, matchID string) (*host, error) {
	store, err := openCatalog(cfg)
	if err != nil {
		return nil, err
	}

	h := &host{cfg: cfg, store: store, world: sim.NewWorld(), gatherer: prometheus.NewRegistry()}

	statics := native.NewStaticRegistry()
	h.null = builtin.Register(statics)
	opener := native.ChainOpener{statics, native.PluginOpener{}}

	m := metrics.New(h.gatherer)
	g := guard.New(cfg.Guard.Policy())
	h.table = library.NewTable(opener, g, m)

	for _, team := range cfg.Teams {
		h.world.AddTeam(team.Team, *team.AllyTeam)
	}

	var journal savestate.Journal
	if cfg.Redis != nil {
		h.redis, err = openStateStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		h.states = h.redis
		journal = savestate.NewRedisJournal(h.redis.Client())
	} else {
		h.states = savestate.NewMemoryStore()
		journal = &savestate.MemoryJournal{}
	}

	h.registry = registry.New(registry.Config{
		MatchID: matchID,
		Catalog: store,
		Table:   h.table,
		Guard:   g,
		Sim:     h.world,
		Journal: journal,
		Metrics: m,
	})

	if cfg.Catalog.Watch {
		h.watcher, err = catalog.NewWatcher(store, cfg.Catalog.DebounceDuration())
		if err != nil {
			h.Close()
			return nil, err
		}
		h.watcher.OnRescan = func(err error) {
			if err == nil {
				log.Printf("[Host] Catalog rescanned: %d AIs", len(store.Catalog().AIs()))
			}
		}
		if err := h.watcher.Start(ctx); err != nil {
			h.Close()
			return nil, fmt.Errorf("failed to watch module roots: %w", err)
		}
	}

	if cfg.Metrics != nil {
		h.serveMetrics(cfg.Metrics.Addr)
	}
	return h, nil
}

func (h *host) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	h.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("[Host] Serving metrics on %s/metrics", addr)
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[Host] Metrics server stopped: %v", err)
		}
	}()
}

// Close stops the watcher and the metrics server and closes Redis.
// Tear the registry down first.
func (h *host) Close() {
	if h.watcher != nil {
		h.watcher.Stop()
	}
	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.server.Shutdown(ctx)
	}
	if h.redis != nil {
		h.redis.Close()
	}
}

// openStateStore connects to the configured Redis.
func openStateStore(ctx context.Context, cfg *config.SkirmishConfig) (*savestate.RedisStore, error) {
	if cfg.Redis == nil {
		return nil, printer.Error(
			"no Redis configured",
			"Saved states and the lifecycle journal live in Redis.",
			[]string{"Add a redis section to skirmish.yml:\n  redis:\n    addr: localhost:6379"},
		)
	}
	rs := savestate.NewRedisStore(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Redis.TTLDuration())
	if err := rs.Ping(ctx); err != nil {
		rs.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.Redis.Addr),
			map[string]string{"Error": err.Error()},
			[]string{"Check Redis is running and reachable"},
		)
	}
	return rs, nil
}

// matchOrConfig returns the --match flag value, falling back to the configured match.
func matchOrConfig(flag string, cfg *config.SkirmishConfig) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.MatchID != "" {
		return cfg.MatchID, nil
	}
	return "", printer.Error(
		"no match given",
		"Neither --match nor match_id in skirmish.yml names a match.",
		[]string{"Pass the match ID printed by skirmish run:\n  --match <id>"},
	)
}
