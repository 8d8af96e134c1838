package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/TymekV/simple-chat/internal/client"
	"github.com/TymekV/simple-chat/internal/config"
	"github.com/TymekV/simple-chat/internal/conn"
	"github.com/TymekV/simple-chat/internal/domain"
	"github.com/TymekV/simple-chat/internal/identity"
	"github.com/TymekV/simple-chat/internal/storage"
	"github.com/TymekV/simple-chat/internal/transport"
	"github.com/TymekV/simple-chat/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()
	l.Info().Str("server", cfg.Server.URL).Msg("starting simple-chat client")

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to open local store")
	}
	defer store.Close()

	ident, err := identity.Load(store)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to load identity")
	}

	var c *client.Client
	c = client.New(client.Options{
		ServerURL: cfg.Server.URL,
		Socket: transport.Config{
			PingInterval:   cfg.Socket.PingInterval,
			PongWait:       cfg.Socket.PongWait,
			WriteWait:      cfg.Socket.WriteWait,
			MaxMessageSize: cfg.Socket.MaxMessageSize,
		},
		ReconnectAttempts: cfg.Client.ReconnectAttempts,
		ReconnectDelay:    cfg.Client.ReconnectDelay,
		TypingExpiry:      cfg.Client.TypingExpiry,
		GroupWindow:       cfg.Client.GroupWindow,
		Identity:          ident,
		Store:             store,
		OnRoomEvent: func(ev domain.RoomEvent) {
			printEvent(c, ev)
		},
		OnStatusChange: func(status conn.Status) {
			fmt.Printf("* connection: %s\n", status)
		},
	})
	defer c.Close()

	c.Connect()

	go readLoop(c)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down")
}

func printEvent(c *client.Client, ev domain.RoomEvent) {
	sender := c.SenderName(ev.From)
	switch {
	case ev.Data.Message != nil:
		fmt.Printf("[%s] %s: %s\n", ev.Timestamp.Format("15:04"), sender, ev.Data.Message.Content)
	case ev.Data.Image != nil:
		fmt.Printf("[%s] %s sent an image: %s\n", ev.Timestamp.Format("15:04"), sender, ev.Data.Image.Filename)
	case ev.Data.UserJoin != nil:
		fmt.Printf("* %s joined\n", sender)
	case ev.Data.UserLeave != nil:
		fmt.Printf("* %s left\n", sender)
	case ev.Data.Reaction != nil:
		fmt.Printf("* %s reacted %s\n", sender, ev.Data.Reaction.Reaction)
	}
}

func readLoop(c *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			c.SendMessage(line, nil)
			continue
		}
		handleCommand(c, line)
	}
}

func handleCommand(c *client.Client, line string) {
	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "rooms":
		for _, room := range c.Rooms() {
			fmt.Printf("  %s  %s (%d members)\n", room.ID, room.Name, room.MemberCount)
		}

	case "refresh":
		c.LoadRoomList()

	case "join":
		if arg == "" {
			fmt.Println("usage: /join <room-id>")
			return
		}
		c.JoinRoom(arg)
		fmt.Printf("* joined %s\n", arg)

	case "leave":
		c.LeaveRoom()

	case "create":
		if arg == "" {
			fmt.Println("usage: /create <name>")
			return
		}
		c.CreateRoom(arg)

	case "members":
		room := c.CurrentRoom()
		if room == "" {
			fmt.Println("not in a room")
			return
		}
		c.RequestMembers(room)
		for _, m := range c.Members() {
			name := m.UserID
			if m.Username != nil {
				name = *m.Username
			}
			fmt.Printf("  %s\n", name)
		}

	case "name":
		if arg == "" {
			fmt.Println("usage: /name <username>")
			return
		}
		c.SetUsername(arg)

	case "edit":
		id, text, ok := strings.Cut(arg, " ")
		if !ok {
			fmt.Println("usage: /edit <message-id> <new content>")
			return
		}
		c.EditMessage(id, text)

	case "delete":
		c.DeleteMessage(arg)

	case "react":
		id, emoji, ok := strings.Cut(arg, " ")
		if !ok {
			fmt.Println("usage: /react <message-id> <emoji>")
			return
		}
		c.AddReaction(id, emoji)

	case "unreact":
		id, emoji, ok := strings.Cut(arg, " ")
		if !ok {
			fmt.Println("usage: /unreact <message-id> <emoji>")
			return
		}
		c.RemoveReaction(id, emoji)

	case "star":
		c.StarMessage(arg)

	case "unstar":
		c.UnstarMessage(arg)

	case "starred":
		for _, id := range c.StarredMessageIDs() {
			fmt.Printf("  %s\n", id)
		}

	case "search":
		if arg == "" {
			fmt.Println("usage: /search <query>")
			return
		}
		for _, g := range c.Search(arg, "") {
			for _, ev := range g.Messages {
				if ev.Data.Message != nil {
					fmt.Printf("  [%s] %s: %s\n",
						ev.Timestamp.Format("15:04"), c.SenderName(ev.From), ev.Data.Message.Content)
				}
			}
		}

	case "history":
		for _, q := range c.SearchHistory(10) {
			fmt.Printf("  %s\n", q)
		}

	case "typing":
		for _, ind := range c.TypingUsers() {
			name := ind.UserID
			if ind.Username != nil {
				name = *ind.Username
			}
			fmt.Printf("  %s is typing\n", name)
		}

	case "status":
		fmt.Printf("  status=%s session=%s room=%s\n", c.Status(), c.SessionID(), c.CurrentRoom())

	default:
		fmt.Printf("unknown command: /%s\n", cmd)
	}
}
