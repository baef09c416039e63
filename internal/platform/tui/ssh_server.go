package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/wingo/internal/config"
	"github.com/vovakirdan/wingo/internal/game"
	"github.com/vovakirdan/wingo/internal/registry"
	"github.com/vovakirdan/wingo/internal/session"
	"github.com/vovakirdan/wingo/internal/storage"
)

// playerBackend is the store every SSH player gets, one directory each.
const playerBackend = "file"

// SSHServer wraps a Wish SSH server that hands every connection its own
// session over a per-user store.
type SSHServer struct {
	config  config.SSHConfig
	game    config.GameConfig
	svc     *game.Service
	server  *ssh.Server
	logger  *log.Logger
	dataDir string

	mu     sync.Mutex
	active map[string]bool
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg config.Config, svc *game.Service, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "wingo-ssh",
		})
	}

	dataDir, err := storage.ExpandHome(cfg.SSH.DataDir)
	if err != nil {
		return nil, err
	}
	hostKeyPath, err := storage.ExpandHome(cfg.SSH.HostKeyPath)
	if err != nil {
		return nil, err
	}

	// Ensure host key directory exists
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	srv := &SSHServer{
		config:  cfg.SSH,
		game:    cfg.Game,
		svc:     svc,
		logger:  logger,
		dataDir: dataDir,
		active:  make(map[string]bool),
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.SSH.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}
	if cfg.SSH.IdleTimeout > 0 {
		opts = append(opts, wish.WithIdleTimeout(cfg.SSH.IdleTimeout))
	}
	if cfg.SSH.MaxTimeout > 0 {
		opts = append(opts, wish.WithMaxTimeout(cfg.SSH.MaxTimeout))
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	_, _, ok := sshSession.Pty()
	if !ok {
		wish.Fatalln(sshSession, "wingo needs an interactive terminal (ssh -t)")
		return nil, nil
	}

	user := sshSession.User()
	dir, err := s.playerDir(user)
	if err != nil {
		wish.Fatalln(sshSession, err.Error())
		return nil, nil
	}
	if !s.acquire(user) {
		wish.Fatalln(sshSession, "you are already playing from another connection")
		return nil, nil
	}

	store, err := registry.Open(playerBackend, dir)
	if err != nil {
		s.release(user)
		s.logger.Error("cannot open player store", "user", user, "error", err)
		wish.Fatalln(sshSession, "cannot open your save data")
		return nil, nil
	}
	sess, err := session.New(s.svc, store, s.logger.With("user", user))
	if err != nil {
		store.Close()
		s.release(user)
		s.logger.Error("cannot load player session", "user", user, "error", err)
		wish.Fatalln(sshSession, "cannot load your save data")
		return nil, nil
	}

	go func() {
		<-sshSession.Context().Done()
		if err := store.Close(); err != nil {
			s.logger.Warn("closing player store", "user", user, "error", err)
		}
		s.release(user)
	}()

	opts := Options{
		Biome:      s.game.Biome,
		Difficulty: s.game.Difficulty,
		Autoplay:   s.game.AutoplayInterval,
		User:       user,
	}
	if hr, ok := store.(registry.HistoryReader); ok {
		opts.History = hr
	}
	return NewModel(sess, opts), []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// playerDir maps an SSH user name to its save directory.
func (s *SSHServer) playerDir(user string) (string, error) {
	if user == "" || user == "." || user == ".." || strings.ContainsAny(user, `/\`) {
		return "", fmt.Errorf("invalid user name %q", user)
	}
	return filepath.Join(s.dataDir, user), nil
}

func (s *SSHServer) acquire(user string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[user] {
		return false
	}
	s.active[user] = true
	return true
}

func (s *SSHServer) release(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, user)
}

// loggingMiddleware logs session start and end.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the server and blocks until interrupted.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address, "data", s.dataDir)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-done:
		s.logger.Info("shutting down...")
		return s.Shutdown()
	case err := <-errc:
		return fmt.Errorf("ssh server: %w", err)
	}
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
