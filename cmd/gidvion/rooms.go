package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gidvion/internal/domain"
	"gidvion/internal/room"
)

func roomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Ephemeral room chat",
	}
	cmd.AddCommand(roomCreateCmd())
	cmd.AddCommand(roomJoinCmd())
	cmd.AddCommand(roomSendCmd())
	cmd.AddCommand(roomInfoCmd())
	cmd.AddCommand(roomInviteCmd())
	cmd.AddCommand(roomHistoryCmd())
	return cmd
}

func roomCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a room and print its join code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			setupLogger(cfg)
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newAPIClient(cfg, store)
			info, err := client.CreateRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("room %q created, join code %s", info.Name, info.Code)
			if !info.ExpiresAt.IsZero() {
				fmt.Printf(", expires %s", info.ExpiresAt.Format("2006-01-02 15:04"))
			}
			fmt.Println()
			return nil
		},
	}
}

func roomJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join [code]",
		Short: "Join a room by code and chat live",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoomJoin(args[0])
		},
	}
}

func runRoomJoin(code string) error {
	cfg := loadConfig()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client := newAPIClient(cfg, store)
	info, err := client.JoinRoom(ctx, code)
	if err != nil {
		return err
	}

	sender := "anonymous"
	if user, err := client.CurrentUser(ctx); err == nil {
		sender = user.Username
	}

	dropped := make(chan error, 1)
	conn := room.New(room.Config{
		BaseURL: cfg.Backend.WebSocketURL,
		Logger:  logger,
		OnMessage: func(msg domain.RoomMessage) {
			fmt.Printf("\r%s: %s\n> ", msg.Sender, msg.Content)
		},
		OnClose: func(err error) {
			dropped <- err
		},
	})
	if err := conn.Connect(ctx, info.ID); err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("joined %q (%d members). Ctrl+D to leave.\n", info.Name, info.Members)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			return nil
		case err := <-dropped:
			if err != nil {
				return fmt.Errorf("room connection lost: %w", err)
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			conn.Send(domain.RoomMessage{RoomID: info.ID, Sender: sender, Content: text})
		}
	}
}

func roomSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send [room-id] [message...]",
		Short: "Send one message to a room without staying connected",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			setupLogger(cfg)
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newAPIClient(cfg, store)
			sender := "anonymous"
			if user, err := client.CurrentUser(cmd.Context()); err == nil {
				sender = user.Username
			}
			msg := domain.RoomMessage{
				RoomID:  args[0],
				Sender:  sender,
				Content: strings.Join(args[1:], " "),
			}
			return client.SendRoomMessage(cmd.Context(), args[0], msg)
		},
	}
}

func roomInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [code]",
		Short: "Show a room's details by join code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			setupLogger(cfg)
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newAPIClient(cfg, store)
			info, err := client.RoomInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("id:      %s\n", info.ID)
			fmt.Printf("name:    %s\n", info.Name)
			fmt.Printf("code:    %s\n", info.Code)
			fmt.Printf("members: %d\n", info.Members)
			if !info.ExpiresAt.IsZero() {
				fmt.Printf("expires: %s\n", info.ExpiresAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func roomInviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite [room-id] [email]",
		Short: "Invite someone to a room by email",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			setupLogger(cfg)
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newAPIClient(cfg, store)
			if err := client.InviteToRoom(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("invitation sent to", args[1])
			return nil
		},
	}
}

func roomHistoryCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "history [room-id]",
		Short: "Print recent room messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			setupLogger(cfg)
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			client := newAPIClient(cfg, store)
			msgs, err := client.RoomMessages(cmd.Context(), args[0], limit, offset)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				stamp := ""
				if !m.Timestamp.IsZero() {
					stamp = m.Timestamp.Format("15:04 ")
				}
				fmt.Printf("%s%s: %s\n", stamp, m.Sender, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "messages to fetch")
	cmd.Flags().IntVar(&offset, "offset", 0, "messages to skip")
	return cmd
}
