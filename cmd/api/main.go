package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/srinathgs/mysqlstore"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/analytics"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/api"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/catalog"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/config"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/db"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/ledger"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/metrics"
	"github.com/armaanamatya/3380-coogmusic-sub001/internal/user"
)

const sweepInterval = time.Minute

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	cfg, err := config.Load(*configPath)
	if err != nil {
		e.Logger.Fatalf("failed to load config: %v", err)
		return
	}
	if cfg.Env == "development" {
		e.Debug = true
		e.Logger.SetLevel(log.DEBUG)
	}

	pool, err := db.Connect(cfg)
	if err != nil {
		e.Logger.Fatalf("failed to connect db: %v", err)
		return
	}
	defer pool.Close()

	sessionStore, err := mysqlstore.NewMySQLStoreFromConnection(
		pool.DB, "sessions", "/", 86400, []byte(cfg.SessionSecret),
	)
	if err != nil {
		e.Logger.Fatalf("failed to initialize session store: %v", err)
		return
	}

	m := metrics.NewMetrics()
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		e.Logger.Fatalf("failed to register metrics: %v", err)
		return
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	users := user.NewMySQLRepository(pool)
	logins := ledger.NewMySQLRepository(pool)
	cat := catalog.NewMySQLRepository(pool)
	aggregator := analytics.NewAggregator(analytics.NewMySQLStore(pool))

	inactivityTimeout := time.Duration(cfg.InactivityTimeoutSeconds) * time.Second
	h := api.NewHandler(users, logins, cat, aggregator, sessionStore, m, inactivityTimeout)
	h.Register(e)

	go sweepLoop(e, logins, m, inactivityTimeout)

	e.Logger.Infof("starting coogmusic server on :%d ...", cfg.Port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}

// sweepLoop closes logins that have been open past the inactivity
// timeout. The admin endpoint can also trigger a sweep on demand.
func sweepLoop(e *echo.Echo, logins ledger.Repository, m *metrics.Metrics, timeout time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		closed, err := logins.SweepInactive(ctx, timeout, time.Now())
		cancel()
		if err != nil {
			e.Logger.Errorf("error SweepInactive: %s", err)
			continue
		}
		if closed > 0 {
			m.AddSweptLogins(closed)
			e.Logger.Infof("inactivity sweep closed %d logins", closed)
		}
	}
}
