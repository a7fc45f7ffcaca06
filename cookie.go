package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"eve-chainmap/internal/auth"
)

func cookieCmd() *cobra.Command {
	var (
		secret   string
		generate bool
	)
	cmd := &cobra.Command{
		Use:   "cookie [name]",
		Short: "Print a signed login cookie for a pilot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if generate {
				fmt.Fprintln(out, auth.GenerateSecret())
				return nil
			}
			if len(args) == 0 {
				return errors.New("cookie: pilot name required")
			}
			if !cmd.Flags().Changed("secret") {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				secret = cfg.Server.CookieSecret
			}
			if secret == "" {
				return errors.New("cookie: no cookie_secret configured; the server accepts anyone as anonymous")
			}
			fmt.Fprintln(out, auth.NewSigner(secret).Cookie(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to server.cookie_secret)")
	cmd.Flags().BoolVar(&generate, "generate", false, "Print a fresh random secret instead")
	return cmd
}
