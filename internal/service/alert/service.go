package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KNICEX/stock-alert/internal/domain"
	"github.com/KNICEX/stock-alert/internal/repo"
	"github.com/KNICEX/stock-alert/pkg/clock"
	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	defaultMinBackoff  = 20 * time.Millisecond
	defaultMaxBackoff  = 500 * time.Millisecond
)

// Service validates and applies alert mutations. Every call is one unit of
// work against the repo, retried from a fresh load when a concurrent writer
// got there first.
type Service struct {
	repo   repo.AlertRepo
	clock  clock.Clock
	logger *zap.Logger
	newID  func() string

	maxAttempts int
	minBackoff  time.Duration
	maxBackoff  time.Duration
}

type Option func(s *Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRetry bounds conflict retries. maxAttempts counts the first try.
func WithRetry(maxAttempts int, minBackoff, maxBackoff time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		s.minBackoff = minBackoff
		s.maxBackoff = maxBackoff
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func NewService(alertRepo repo.AlertRepo, opts ...Option) *Service {
	svc := &Service{
		repo:        alertRepo,
		clock:       clock.Real(),
		logger:      zap.NewNop(),
		newID:       uuid.NewString,
		maxAttempts: defaultMaxAttempts,
		minBackoff:  defaultMinBackoff,
		maxBackoff:  defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) CreateAlert(ctx context.Context, p CreateParams) (AlertView, error) {
	a, err := domain.NewAlert(s.newID(), p.CreatedBy, p.fields(), s.clock.Now())
	if err != nil {
		return AlertView{}, err
	}

	uow := s.repo.Begin()
	uow.Add(a)
	if err := s.commit(ctx, uow); err != nil {
		return AlertView{}, fmt.Errorf("create alert: %w", err)
	}

	s.logger.Info("alert created",
		zap.String("alert_id", a.ID()),
		zap.String("symbol", a.Symbol()),
		zap.String("direction", string(a.Direction())),
		zap.String("target_price", a.TargetPrice().String()),
	)
	return toView(a), nil
}

func (s *Service) UpdateAlert(ctx context.Context, id string, p UpdateParams) (AlertView, error) {
	fields := p.fields().Normalize()
	if err := domain.Merge(domain.ValidateID(id), fields.Validate()); err != nil {
		return AlertView{}, err
	}

	var view AlertView
	err := s.retry(ctx, "update", id, func() error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Update(fields); err != nil {
			return err
		}
		uow := s.repo.Begin()
		uow.MarkDirty(a)
		if err := s.commit(ctx, uow); err != nil {
			return err
		}
		view = toView(a)
		return nil
	})
	if err != nil {
		return AlertView{}, err
	}

	s.logger.Info("alert updated", zap.String("alert_id", id), zap.String("symbol", view.Symbol))
	return view, nil
}

func (s *Service) DeleteAlert(ctx context.Context, id string) error {
	if domain.ValidateID(id) != nil {
		return domain.NotFound(id)
	}

	err := s.retry(ctx, "delete", id, func() error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		uow := s.repo.Begin()
		uow.Remove(a)
		return s.commit(ctx, uow)
	})
	if err != nil {
		return err
	}

	s.logger.Info("alert deleted", zap.String("alert_id", id))
	return nil
}

// DeactivateAlert pauses evaluation of an active alert.
func (s *Service) DeactivateAlert(ctx context.Context, id string) (AlertView, error) {
	return s.transition(ctx, "deactivate", id, (*domain.Alert).Deactivate)
}

// ReactivateAlert resumes evaluation. Triggered alerts cannot be reactivated.
func (s *Service) ReactivateAlert(ctx context.Context, id string) (AlertView, error) {
	return s.transition(ctx, "reactivate", id, (*domain.Alert).Reactivate)
}

func (s *Service) transition(ctx context.Context, op, id string, apply func(a *domain.Alert) error) (AlertView, error) {
	if domain.ValidateID(id) != nil {
		return AlertView{}, domain.NotFound(id)
	}

	var view AlertView
	err := s.retry(ctx, op, id, func() error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(a); err != nil {
			return err
		}
		uow := s.repo.Begin()
		uow.MarkDirty(a)
		if err := s.commit(ctx, uow); err != nil {
			return err
		}
		view = toView(a)
		return nil
	})
	if err != nil {
		return AlertView{}, err
	}

	s.logger.Info("alert "+op+"d", zap.String("alert_id", id))
	return view, nil
}

func (s *Service) GetAlert(ctx context.Context, id string) (AlertView, error) {
	if domain.ValidateID(id) != nil {
		return AlertView{}, domain.NotFound(id)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return AlertView{}, err
	}
	return toView(a), nil
}

func (s *Service) ListAlerts(ctx context.Context, activeOnly bool) ([]AlertView, error) {
	alerts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		alerts = lo.Filter(alerts, func(a *domain.Alert, _ int) bool {
			return a.IsActive()
		})
	}
	return lo.Map(alerts, func(a *domain.Alert, _ int) AlertView {
		return toView(a)
	}), nil
}

// commit refuses to start once ctx is done; a started commit always runs to
// completion.
func (s *Service) commit(ctx context.Context, uow repo.UnitOfWork) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return uow.Commit(context.WithoutCancel(ctx))
}

func (s *Service) retry(ctx context.Context, op, id string, fn func() error) error {
	b := &backoff.Backoff{
		Min:    s.minBackoff,
		Max:    s.maxBackoff,
		Factor: 2,
		Jitter: true,
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
		if attempt >= s.maxAttempts {
			s.logger.Warn("alert write conflict, giving up",
				zap.String("op", op),
				zap.String("alert_id", id),
				zap.Int("attempts", attempt),
			)
			return fmt.Errorf("%s alert %s after %d attempts: %w", op, id, attempt, err)
		}

		wait := b.Duration()
		s.logger.Debug("alert write conflict, retrying",
			zap.String("op", op),
			zap.String("alert_id", id),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(wait):
		}
	}
}
