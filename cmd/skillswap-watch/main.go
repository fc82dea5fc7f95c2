// Command skillswap-watch logs in to a SkillSwap server and keeps polling
// session-check, printing a warning before the session runs out.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"skillswap-backend/internal/client"
	"skillswap-backend/internal/logging"

	"golang.org/x/term"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8000/api", "API base URL")
	username := flag.String("user", "", "username or email")
	interval := flag.Duration("interval", time.Minute, "session-check polling interval")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logging.New(os.Stderr, "text", *logLevel)

	if err := run(*baseURL, *username, *interval, log); err != nil {
		fmt.Fprintf(os.Stderr, "skillswap-watch: %v\n", err)
		os.Exit(1)
	}
}

func run(baseURL, username string, interval time.Duration, log logging.Logger) error {
	stdin := bufio.NewReader(os.Stdin)
	if username == "" {
		var err error
		if username, err = prompt(stdin, "Username or email: "); err != nil {
			return err
		}
	}
	password, err := getPassword(stdin)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	c, err := client.New(baseURL, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := client.NewSessionWatcher(c, interval)
	resp, err := w.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	log.Info(ctx, "logged in", "user", resp.User.Username, "expires_at", resp.ExpiresAt)

	w.OnExpiringSoon = func(remaining time.Duration) {
		log.Warn(ctx, "session expiring soon", "remaining", remaining)
	}
	w.OnError = func(err error) {
		if errors.Is(err, client.ErrUnreachable) {
			log.Warn(ctx, "server unreachable, will retry", "error", err)
			return
		}
		log.Error(ctx, "session check failed", "error", err)
	}
	w.OnExpired = func() {
		log.Warn(ctx, "session expired")
		stop()
	}

	w.Run(ctx)

	if w.Authenticated() {
		logoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.Logout(logoutCtx); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		log.Info(logoutCtx, "logged out")
	}
	return nil
}

func prompt(r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// getPassword reads without echo from a terminal, or a plain line when
// stdin is piped.
func getPassword(r *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(r, "")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
