package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"eve-chainmap/internal/channel"
	"eve-chainmap/internal/config"
	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/render"
	"eve-chainmap/internal/session"
	"eve-chainmap/internal/tui"
)

func connectCmd() *cobra.Command {
	var (
		server    string
		transport string
		cookie    string
		logFile   string
		headless  bool
	)
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Open the chain map in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.Client.ServerURL = server
			}
			if flags.Changed("transport") {
				cfg.Client.Transport = transport
			}
			if flags.Changed("cookie") {
				cfg.Client.Cookie = cookie
			}
			if flags.Changed("log-file") {
				cfg.Client.LogFile = logFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if headless {
				return runHeadless(ctx, cfg.Client)
			}
			return runTUI(ctx, cfg.Client)
		},
	}
	f := cmd.Flags()
	f.StringVar(&server, "server", "", "Map server base URL (http or https)")
	f.StringVar(&transport, "transport", config.TransportAuto, "Transport: auto, ws or poll")
	f.StringVar(&cookie, "cookie", "", "Cookie header sent with HELO")
	f.StringVar(&logFile, "log-file", "", "Log file used while the TUI owns the screen")
	f.BoolVar(&headless, "headless", false, "Follow the map without a UI, logging every update")
	return cmd
}

// runTUI points the logger at a file for the lifetime of the screen.
func runTUI(ctx context.Context, c config.ClientConfig) error {
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	logger.SetOutput(f)
	defer logger.SetOutput(nil)

	ch, err := channel.Connect(ctx, channel.OptionsFromConfig(c))
	if err != nil {
		return err
	}
	defer ch.Close()

	sess := session.New(ch, nil)
	p := tui.Program(tui.New(sess, ch, render.NewGrid(true)))
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err = p.Run()
	return err
}

func runHeadless(ctx context.Context, c config.ClientConfig) error {
	logger.Banner(version)
	ch, err := channel.Connect(ctx, channel.OptionsFromConfig(c))
	if err != nil {
		return err
	}
	defer ch.Close()

	sess := session.New(ch, nil)
	seen := 0
	err = sess.Run(ctx, ch, func(s *session.Session) {
		if !s.HasMap() || s.Map().Len() == seen {
			return
		}
		seen = s.Map().Len()
		logger.Info("MAP", fmt.Sprintf("%d systems, %d roots", seen, len(s.Map().Roots())))
	})
	if ctx.Err() != nil {
		logger.Info("CLI", "Disconnected")
		return nil
	}
	return err
}
