package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gidvion/internal/domain"
)

func builderCmd() *cobra.Command {
	var stackID, email string
	cmd := &cobra.Command{
		Use:   "builder [prompt...]",
		Short: "Submit a project-builder request",
		Long:  "Queues a project build on the backend. The result arrives by email; nothing is polled locally.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newAPIClient(cfg, store)
			req := domain.BuilderRequest{
				StackID: stackID,
				Prompt:  strings.Join(args, " "),
				Email:   email,
			}
			if err := client.SubmitBuild(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Println("build submitted; results will be sent to", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&stackID, "stack", "", "stack identifier")
	cmd.Flags().StringVar(&email, "email", "", "delivery email address")
	cmd.MarkFlagRequired("stack")
	cmd.MarkFlagRequired("email")
	return cmd
}
