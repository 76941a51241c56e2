package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"vitrina/internal"
	"vitrina/internal/catalog"
	"vitrina/internal/storage"
)

// Session runs catalog operations against a store one turn at a time: load the
// latest snapshot, apply the operation through an editor, save on top of the
// version that was loaded.
type Session struct {
	mu     sync.Mutex
	store  storage.Store
	logger *zap.Logger
}

type Turn struct {
	Catalog internal.Catalog
	Version string
}

func NewSession(store storage.Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: store, logger: logger}
}

func (s *Session) Current(ctx context.Context) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return Turn{}, err
	}
	return Turn{Catalog: catalog.Reconcile(snap.Tree), Version: snap.Version}, nil
}

func (s *Session) Update(ctx context.Context, op string, fn func(ed *catalog.Editor) error) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	snap, err := s.store.Load(ctx)
	if err != nil {
		return Turn{}, err
	}
	ed := catalog.NewEditor(snap.Tree)
	if err := fn(ed); err != nil {
		return Turn{}, err
	}
	return s.save(ctx, op, ed.Snapshot(), snap.Version, start)
}

// Replace stores raw as the whole catalog. Versioned stores refuse it when
// baseVersion is no longer the latest version.
func (s *Session) Replace(ctx context.Context, raw any, baseVersion string) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(ctx, "replace", catalog.Reconcile(raw), baseVersion, time.Now())
}

func (s *Session) save(ctx context.Context, op string, c internal.Catalog, baseVersion string, start time.Time) (Turn, error) {
	version, err := s.store.Save(ctx, c, baseVersion)
	if err != nil {
		s.logger.Warn("catalog save failed",
			zap.String("op", op),
			zap.String("base_version", baseVersion),
			zap.Error(err),
		)
		return Turn{}, err
	}
	s.logger.Info("catalog saved",
		zap.String("op", op),
		zap.String("version", version),
		zap.Int("categories", len(c.Categories)),
		zap.Int("products", c.ProductCount()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Turn{Catalog: c, Version: version}, nil
}
