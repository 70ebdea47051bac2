// Package ledger reconstructs member balances from the event log and builds
// the overview and timeline read models on top of them.
package ledger

import (
	"context"
	"time"

	"aura/internal/log"
)

const (
	DefaultRecentEventsLimit = 20
	DefaultOverviewDays      = 14
)

// Service is the aggregation engine. It holds no mutable state; every read
// recomputes from the stores.
type Service struct {
	events   EventStore
	members  MemberRegistry
	notifier Notifier
	logger   *log.Logger

	loc          *time.Location
	now          func() time.Time
	recentLimit  int
	overviewDays int
}

type Option func(*Service)

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

func WithRecentEventsLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

func WithOverviewDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.overviewDays = days
		}
	}
}

func NewService(events EventStore, members MemberRegistry, opts ...Option) *Service {
	s := &Service{
		events:       events,
		members:      members,
		logger:       log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
		loc:          time.UTC,
		now:          time.Now,
		recentLimit:  DefaultRecentEventsLimit,
		overviewDays: DefaultOverviewDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OverviewDays is the length of the default reporting window in days.
func (s *Service) OverviewDays() int {
	return s.overviewDays
}

// Location returns the time zone used for day boundaries.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) logFailure(ctx context.Context, op string, err error) {
	s.logger.ErrorContext(ctx, "Ledger operation failed",
		log.FieldOperation, op,
		log.FieldError, err)
}
