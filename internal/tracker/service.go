// Package tracker runs the commands behind every user action: building and
// refreshing character groups, editing todo templates and recording
// completion. It owns the in-memory State and keeps it in step with the
// document store.
package tracker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dukerupert/dailyboard/internal/credential"
	"github.com/dukerupert/dailyboard/internal/docstore"
	"github.com/dukerupert/dailyboard/internal/model"
	"github.com/dukerupert/dailyboard/internal/store"
)

// refreshTimeout bounds a shared refresh once its first caller has gone.
const refreshTimeout = time.Minute

// Roster looks up characters in the game API.
type Roster interface {
	Siblings(ctx context.Context, name string) ([]model.Character, error)
	ValidateToken(ctx context.Context, token string) error
}

type Service struct {
	groups     *store.CharacterGroupStore
	todos      *store.TodoStore
	expedition *store.ExpeditionStore
	progress   *store.TodoStateStore
	roster     Roster
	tokens     credential.Store
	logger     *slog.Logger
	now        func() time.Time

	state     *State
	locks     keyedMutex
	refreshes singleflight.Group
}

func NewService(docs *docstore.Store, roster Roster, tokens credential.Store, logger *slog.Logger) *Service {
	return &Service{
		groups:     store.NewCharacterGroupStore(docs),
		todos:      store.NewTodoStore(docs),
		expedition: store.NewExpeditionStore(docs),
		progress:   store.NewTodoStateStore(docs),
		roster:     roster,
		tokens:     tokens,
		logger:     logger.With("component", "tracker"),
		now:        time.Now,
		state:      NewState(),
	}
}

func (s *Service) State() *State {
	return s.state
}

// Load reads everything from the store into State. A failed read is logged
// and replaced by an empty result so the rest still loads; only context
// cancellation is returned.
func (s *Service) Load(ctx context.Context) error {
	var (
		groups     []model.CharacterGroup
		todoGroups []model.TodoGroup
		expedition []model.TodoItem
		characters map[string]model.CharacterTodoState
		expProg    map[string]model.ExpeditionState
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		groups, err = s.groups.List(gctx)
		return s.loadFailed(gctx, "character groups", err)
	})
	g.Go(func() error {
		var err error
		todoGroups, err = s.todos.List(gctx)
		return s.loadFailed(gctx, "todo groups", err)
	})
	g.Go(func() error {
		var err error
		expedition, err = s.expedition.List(gctx)
		return s.loadFailed(gctx, "expedition todos", err)
	})
	g.Go(func() error {
		var err error
		characters, err = s.progress.ListCharacterStates(gctx)
		return s.loadFailed(gctx, "character todo state", err)
	})
	g.Go(func() error {
		var err error
		expProg, err = s.progress.ListExpeditionStates(gctx)
		return s.loadFailed(gctx, "expedition todo state", err)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.state.replace(groups, todoGroups, expedition, characters, expProg)
	s.logger.Info("state loaded",
		"groups", len(groups),
		"todo_groups", len(todoGroups),
		"expedition_items", len(expedition),
	)
	return nil
}

func (s *Service) loadFailed(ctx context.Context, what string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Error("load failed, using empty result", "data", what, "error", err)
	return nil
}
