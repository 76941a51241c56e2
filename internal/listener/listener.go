package listener

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vitrina/internal/exporter"
	"vitrina/internal/pipeline"
	"vitrina/internal/share"
)

// Service watches the store and republishes the catalog every time a new
// version shows up: export files, and a mail draft when drafts is set.
type Service struct {
	session  *pipeline.Session
	exporter *exporter.Exporter
	drafts   share.DraftStore
	msg      share.Message
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	lastExported string
	lastShared   string
}

type Options struct {
	Drafts   share.DraftStore
	Message  share.Message
	Interval time.Duration
	Logger   *zap.Logger
}

func NewService(session *pipeline.Session, ex *exporter.Exporter, opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		session:  session,
		exporter: ex,
		drafts:   opts.Drafts,
		msg:      opts.Message,
		interval: opts.Interval,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.logger.Warn("listener cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

// RunCycle publishes the stored catalog if its version changed since the last
// successful cycle. Nothing is published before the first save. A version is
// exported once; a failed share is retried on the next cycle without writing
// the files again.
func (s *Service) RunCycle(ctx context.Context) (bool, error) {
	turn, err := s.session.Current(ctx)
	if err != nil {
		return false, err
	}
	if turn.Version == "" || turn.Version == s.lastShared {
		return false, nil
	}

	fields := []zap.Field{zap.String("version", turn.Version)}
	if turn.Version != s.lastExported {
		res, err := s.exporter.Write(ctx, turn.Catalog, exporter.Stamp(s.now()))
		if err != nil {
			return false, err
		}
		s.lastExported = turn.Version
		fields = append(fields, zap.String("stamp", res.Stamp), zap.Int("files", len(res.Files)))
	}

	if s.drafts != nil {
		msg := s.msg
		msg.Date = s.now()
		draftID, err := share.Share(ctx, s.drafts, s.exporter, turn.Catalog, msg)
		if err != nil {
			return false, err
		}
		fields = append(fields, zap.String("draft", draftID))
	}

	s.lastShared = turn.Version
	s.logger.Info("catalog published", fields...)
	return true, nil
}
