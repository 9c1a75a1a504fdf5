package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/castaway/internal/backend"
	"github.com/atomicstack/castaway/internal/config"
	"github.com/atomicstack/castaway/internal/controller"
	"github.com/atomicstack/castaway/internal/feed"
	"github.com/atomicstack/castaway/internal/logging/events"
	"github.com/atomicstack/castaway/internal/message"
	"github.com/atomicstack/castaway/internal/player"
	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/state"
	"github.com/atomicstack/castaway/internal/storage"
	"github.com/atomicstack/castaway/internal/ui"
)

const syncSpacing = 200 * time.Millisecond

// Session holds everything the terminal program runs against.
type Session struct {
	Podcasts   *state.Store[podcast.Podcast]
	Channels   message.Channels
	Repo       *storage.Repository
	Workers    *backend.Workers
	Controller *controller.Controller
}

// Open loads the library from disk and starts the background workers. The
// controller is created but not started.
func Open(ctx context.Context, cfg config.Config) (*Session, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.Storage.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}

	repo, err := storage.NewRepository(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	if err := repo.Init(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	pods, err := repo.ListPodcasts(ctx)
	if err != nil {
		repo.Close()
		return nil, err
	}
	podcasts := state.NewStore(pods)
	events.App.Loaded(cfg.Storage.DBPath, len(pods))

	play, err := player.New(cfg.Player)
	if err != nil {
		repo.Close()
		return nil, err
	}
	fetcher := feed.NewFetcher(nil, cfg.Workers.HTTPTimeout)
	workers, err := backend.New(backend.Options{
		DownloadDir:  cfg.Storage.DownloadDir,
		MaxSyncs:     cfg.Workers.MaxSyncs,
		MaxDownloads: cfg.Workers.MaxDownloads,
		SyncSpacing:  syncSpacing,
		Client:       &http.Client{},
		Watch:        true,
	}, fetcher, repo)
	if err != nil {
		repo.Close()
		return nil, err
	}

	ch := message.NewChannels()
	ctrl := controller.New(podcasts, ch, repo, workers, play, controller.Options{
		MessageDuration: cfg.UI.MessageDuration,
		AutoPick:        cfg.UI.AutoPick,
	})
	return &Session{
		Podcasts:   podcasts,
		Channels:   ch,
		Repo:       repo,
		Workers:    workers,
		Controller: ctrl,
	}, nil
}

// Close stops the workers, waits for them and releases the database.
func (s *Session) Close() error {
	s.Workers.Stop()
	s.Workers.Wait()
	s.Channels.Close()
	return s.Repo.Close()
}

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg config.Config) (err error) {
	defer func() { events.App.Stop(err) }()

	ctx := context.Background()
	sess, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); err == nil {
			err = cerr
		}
	}()

	done := make(chan error, 1)
	go func() { done <- sess.Controller.Run(ctx) }()

	model := ui.NewModel(sess.Podcasts, sess.Channels, 0, 0)
	model.SetMessageDuration(cfg.UI.MessageDuration)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := program.Run()

	// The controller exits on Quit, or here once its intent queue closes.
	sess.Channels.Intents.Close()
	ctrlErr := <-done

	switch {
	case runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled):
		return runErr
	case model.Err() != nil:
		return model.Err()
	default:
		return ctrlErr
	}
}
