package main

import (
	"bufio"
	"chatbox-backend/internal/client"
	"chatbox-backend/internal/logging"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gookit/color"
	"go.uber.org/zap"
)

func main() {
	apiAddr := flag.String("api", "http://localhost:8080", "chat server address")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	name := flag.String("name", "", "display name; when set, the account is created before logging in")
	width := flag.Int("width", 80, "terminal width used to right-align own messages")
	colors := flag.Bool("colors", true, "colorize output")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.New(*logLevel, "text")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewAPI(*apiAddr, nil, logger)

	if *name != "" {
		if _, err := api.Signup(ctx, *name, *email, *password); err != nil {
			logger.Fatal("Signup failed", zap.Error(err))
		}
	}

	logger.Info("Logging in", zap.String("email", *email))
	auth, err := api.Login(ctx, *email, *password)
	if err != nil {
		logger.Fatal("Login failed", zap.Error(err))
	}

	notifier, err := client.NewNotifier(api, logger)
	if err != nil {
		logger.Fatal("Invalid server address", zap.Error(err))
	}

	viewer := client.Viewer{ID: auth.User.ID, Name: auth.User.Name}
	alertStyle := color.New(color.FgYellow, color.OpBold)
	box := client.NewChatBox(api, notifier, viewer, client.ChatBoxOptions{
		Renderer: client.NewTerminalRenderer(os.Stdout, *width, *colors),
		Alert: func(msg string) {
			if *colors {
				msg = alertStyle.Render(msg)
			}
			fmt.Println(msg)
		},
	}, logger)

	if err := box.Mount(ctx); err != nil {
		logger.Fatal("Could not connect to notifications", zap.Error(err))
	}
	defer box.Unmount()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Printf("Signed in as %s. Type a message and press enter, /quit to leave.\n", viewer.Name)
	for {
		select {
		case <-ctx.Done():
			return
		case <-box.Done():
			logger.Warn("Notification stream closed by the server")
			fmt.Println("Disconnected from the server.")
			return
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				return
			}
			box.SetDraft(line)
			if err := box.Submit(ctx); err != nil && !errors.Is(err, client.ErrEmptyMessage) {
				logger.Warn("Submit failed", zap.Error(err))
			}
		}
	}
}
