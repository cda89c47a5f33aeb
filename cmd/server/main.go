package main

import (
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"holdemtable-server/internal/config"
	"holdemtable-server/internal/mux"
	"holdemtable-server/pkg/engine"
	"holdemtable-server/pkg/game/balance"
	storeredis "holdemtable-server/pkg/game/store/redis"
	"holdemtable-server/pkg/room"
)

const readTimeout = time.Second * 5
const writeTimeout = time.Second * 10

// Version is the server version
var Version = "v0.0.0-dev"

var addr = flag.String("addr", ":5000", "the listen address")

func main() {
	flag.Parse()
	setupLogger()

	cfg := config.Instance()

	storeCfg := storeredis.DefaultConfig()
	storeCfg.URL = cfg.Redis.URL
	if cfg.Redis.PoolSize > 0 {
		storeCfg.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.MinIdleConns > 0 {
		storeCfg.MinIdleConns = cfg.Redis.MinIdleConns
	}

	store, err := storeredis.New(storeCfg)
	if err != nil {
		logrus.WithError(err).Fatal("could not connect to redis")
	}
	defer func() { _ = store.Close() }()

	broadcaster := room.NewBroadcaster()

	opts := engine.DefaultOptions()
	if cfg.Game.SmallBlind > 0 {
		opts.SmallBlind = cfg.Game.SmallBlind
	}
	if cfg.Game.BigBlind > 0 {
		opts.BigBlind = cfg.Game.BigBlind
	}
	if cfg.Game.BuyIn > 0 {
		opts.BuyIn = cfg.Game.BuyIn
	}
	if cfg.Game.StartDelaySeconds > 0 {
		opts.StartDelay = time.Duration(cfg.Game.StartDelaySeconds) * time.Second
	}
	if cfg.Game.ActionTimeoutSeconds > 0 {
		opts.ActionTimeout = time.Duration(cfg.Game.ActionTimeoutSeconds) * time.Second
	}

	eng := engine.New(store, balance.NewRedisStore(store.Client()), broadcaster, opts, logrus.StandardLogger())
	defer eng.Stop()

	c := cors.New(cors.Options{
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      loggingHandler(c.Handler(mux.NewMux(Version, eng, broadcaster))),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	logrus.WithField("addr", srv.Addr).Info("listening")
	logrus.Fatal(srv.ListenAndServe())
}

func loggingHandler(next http.Handler) http.Handler {
	if config.Instance().Log.DisableAccessLogs {
		return next
	}

	return handlers.CombinedLoggingHandler(os.Stdout, next)
}

func setupLogger() {
	if lvl := config.Instance().Log.Level; lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			logrus.WithError(err).Fatal("could not parse level")
		}

		logrus.SetLevel(level)
	}

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
