package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"eve-chainmap/internal/api"
	"eve-chainmap/internal/auth"
	"eve-chainmap/internal/db"
	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/model"
)

func serveCmd() *cobra.Command {
	var (
		listen  string
		dbPath  string
		secret  string
		home    string
		mapFile string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the shared map server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sc := cfg.Server
			flags := cmd.Flags()
			if flags.Changed("listen") {
				sc.Listen = listen
			}
			if flags.Changed("db") {
				sc.DBPath = dbPath
			}
			if flags.Changed("secret") {
				sc.CookieSecret = secret
			}
			if flags.Changed("home") {
				sc.HomeSystem = home
			}

			logger.Banner(version)

			database, err := db.Open(sc.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			if sc.LogRetentionDays > 0 {
				n, err := database.ClearLog(sc.LogRetentionDays)
				if err != nil {
					logger.Warn("DB", fmt.Sprintf("Trim action log: %v", err))
				} else if n > 0 {
					logger.Info("DB", fmt.Sprintf("Trimmed %d log entries older than %d days", n, sc.LogRetentionDays))
				}
			}

			universe, err := database.LoadUniverse()
			if err != nil {
				return fmt.Errorf("load universe: %w", err)
			}

			var signer *auth.Signer
			if sc.CookieSecret == "" {
				logger.Warn("AUTH", "No cookie_secret; every pilot is logged as anonymous. Generate one with `chainmap cookie --generate`")
			} else {
				signer = auth.NewSigner(sc.CookieSecret)
			}
			srv := api.NewServer(sc, database, universe, signer)

			if mapFile != "" {
				data, err := os.ReadFile(mapFile)
				if err != nil {
					return fmt.Errorf("read map: %w", err)
				}
				m, err := model.DecodeMap(data)
				if err != nil {
					return fmt.Errorf("decode map %s: %w", mapFile, err)
				}
				srv.SetMap(m)
				logger.Success("MAP", fmt.Sprintf("Loaded %d systems from %s", m.Len(), mapFile))
			}

			logger.Section("Server")
			logger.Stats("Database", sc.DBPath)
			logger.Stats("Systems", universe.Len())
			logger.Stats("Home system", orNone(sc.HomeSystem))
			logger.Stats("Log retention", fmt.Sprintf("%d days", sc.LogRetentionDays))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return listenAndServe(ctx, sc.Listen, srv.Handler())
		},
	}
	f := cmd.Flags()
	f.StringVar(&listen, "listen", "", "Listen address (host:port)")
	f.StringVar(&dbPath, "db", "", "SQLite database path")
	f.StringVar(&secret, "secret", "", "Cookie signing secret")
	f.StringVar(&home, "home", "", "Home system, added with class home")
	f.StringVar(&mapFile, "map", "", "Start from a map JSON file")
	return cmd
}

// listenAndServe runs the HTTP server until ctx ends, then drains it.
func listenAndServe(ctx context.Context, addr string, h http.Handler) error {
	hs := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		logger.Server(addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("HTTP", "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Hijacked WebSocket connections are not tracked by Shutdown; they end
	// when the process exits.
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
