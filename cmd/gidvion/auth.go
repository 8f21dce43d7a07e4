package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a backend access token",
		Long:  "Authentication happens in the browser against the backend's OAuth flow; paste the issued token here. The token is kept in the local database until logout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if token == "" {
				fmt.Fprint(os.Stderr, "token: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return fmt.Errorf("empty token")
			}

			if err := store.SetAuthToken(cmd.Context(), "Bearer", token); err != nil {
				return err
			}

			// Confirm the token actually works before claiming success.
			client := newAPIClient(cfg, store)
			user, err := client.CurrentUser(cmd.Context())
			if err != nil {
				return fmt.Errorf("token rejected by backend: %w", err)
			}
			logger.Info("logged in", "user", user.Username, "provider", user.AuthProvider)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (prompted when omitted)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.ClearAuth(cmd.Context()); err != nil {
				return err
			}
			logger.Info("logged out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, _, ok := store.AuthToken(); !ok {
				return fmt.Errorf("not logged in")
			}
			client := newAPIClient(cfg, store)
			user, err := client.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> via %s\n", user.Username, user.Email, user.AuthProvider)
			return nil
		},
	}
}
