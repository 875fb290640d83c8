package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("ARENA_ADDR", ":3000"), "HTTP listen address")
	dbPath := flag.String("db", envOr("ARENA_DB", "arena.db"), "Path to the results database")
	logPath := flag.String("log", envOr("ARENA_LOG", "arena.log"), "Path to the log file")
	baseURL := flag.String("base-url", envOr("ARENA_BASE_URL", "http://localhost:3000"), "Public base URL for join links")
	flag.Parse()

	InitLogger(*logPath)
	defer SyncLogger()

	db, err := OpenDB(*dbPath)
	if err != nil {
		Log.Fatalw("open database", "path", *dbPath, "err", err)
	}
	defer db.Close()

	reporter := NewReporter(db, os.Getenv("ARENA_RESULTS_URL"))
	defer reporter.Close()

	tokens := NewTokenService([]byte(os.Getenv("ARENA_JWT_SECRET")))

	rooms := NewRoomManager(reporter)
	go rooms.Run()
	defer rooms.Stop()

	hub := NewHub(rooms, tokens)
	go hub.Run()

	prov := NewProvisionServer(rooms, tokens, os.Getenv("ARENA_PROVISION_KEY_HASH"), *baseURL)
	mux := SetupRoutes(hub, prov)

	server := &http.Server{Addr: *addr, Handler: mux}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		Log.Infow("server starting", "addr", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			Log.Fatalw("listen", "err", err)
		}
	}()

	<-stop
	Log.Infow("shutting down")
	server.Close()
}
