package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func conversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Manage server-side conversations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newAPIClient(cfg, store)
			convs, err := client.Conversations(cmd.Context())
			if err != nil {
				return err
			}
			if len(convs) == 0 {
				fmt.Println("no conversations")
				return nil
			}
			for _, c := range convs {
				fmt.Printf("%-36s  %-20s  %s\n", c.ID, c.Model, c.Name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "new [name] [model]",
		Short: "Create a conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newAPIClient(cfg, store)
			conv, err := client.CreateConversation(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(conv.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newAPIClient(cfg, store)
			if err := client.DeleteConversation(cmd.Context(), args[0]); err != nil {
				return err
			}
			// The local transcript cache goes with it.
			if err := store.DropTranscript(cmd.Context(), args[0]); err != nil {
				logger.Warn("cannot drop cached transcript", "err", err)
			}
			logger.Info("conversation deleted", "id", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "messages [id]",
		Short: "Print a conversation's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newAPIClient(cfg, store)
			msgs, err := client.ConversationMessages(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Printf("%s: %s\n", m.Sender, m.Content)
			}
			return nil
		},
	})

	return cmd
}
