package things

import (
	"context"
)

// ThingRepository exposes generic persistence operations over Thing
type ThingRepository interface {
	// Save inserts a new thing when ID is zero, otherwise it replaces the
	// stored record.
	Save(ctx context.Context, thing *Thing) (*Thing, error)
	// FindByID returns false with a nil error when no record has id
	FindByID(ctx context.Context, id int64) (*Thing, bool, error)
	FindAll(ctx context.Context) ([]*Thing, error)
	FindAllByID(ctx context.Context, ids []int64) ([]*Thing, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
	DeleteByID(ctx context.Context, id int64) error
	Delete(ctx context.Context, thing *Thing) error
}

// DecisionObserver is notified of every authorization decision taken by a
// secured repository.
type DecisionObserver interface {
	Observe(ctx context.Context, op Operation, allowed bool)
}

// DecisionObserverFunc adapts a function to the DecisionObserver interface
type DecisionObserverFunc func(ctx context.Context, op Operation, allowed bool)

// Observe implements DecisionObserver
func (f DecisionObserverFunc) Observe(ctx context.Context, op Operation, allowed bool) {
	if f != nil {
		f(ctx, op, allowed)
	}
}

type noopObserver struct{}

func (noopObserver) Observe(context.Context, Operation, bool) {}

// SecuredOption configures a secured repository
type SecuredOption func(*securedThings)

// WithDecisionObserver registers an observer for allow/deny decisions
func WithDecisionObserver(observer DecisionObserver) SecuredOption {
	return func(s *securedThings) {
		if observer != nil {
			s.observer = observer
		}
	}
}

type securedThings struct {
	store    ThingRepository
	policy   Policy
	observer DecisionObserver
}

var _ ThingRepository = (*securedThings)(nil)

// NewSecuredThings wraps store so every operation first passes the rules the
// policy declares for it. Denied calls never reach the store.
func NewSecuredThings(store ThingRepository, policy Policy, opts ...SecuredOption) ThingRepository {
	s := &securedThings{
		store:    store,
		policy:   policy,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// authorize evaluates the type level rules and the method level rules
// independently; both have to pass.
func (s *securedThings) authorize(ctx context.Context, op Operation) error {
	err := Check(ctx, op, s.policy.TypeRules()...)
	if err == nil {
		err = Check(ctx, op, s.policy.MethodRules(op)...)
	}
	if s.policy.IsGuarded(op) {
		s.observer.Observe(ctx, op, err == nil)
	}
	return err
}

func (s *securedThings) Save(ctx context.Context, thing *Thing) (*Thing, error) {
	if err := s.authorize(ctx, OpSave); err != nil {
		return nil, err
	}
	return s.store.Save(ctx, thing)
}

func (s *securedThings) FindByID(ctx context.Context, id int64) (*Thing, bool, error) {
	if err := s.authorize(ctx, OpFindByID); err != nil {
		return nil, false, err
	}
	return s.store.FindByID(ctx, id)
}

func (s *securedThings) FindAll(ctx context.Context) ([]*Thing, error) {
	if err := s.authorize(ctx, OpFindAll); err != nil {
		return nil, err
	}
	return s.store.FindAll(ctx)
}

func (s *securedThings) FindAllByID(ctx context.Context, ids []int64) ([]*Thing, error) {
	if err := s.authorize(ctx, OpFindAllByID); err != nil {
		return nil, err
	}
	return s.store.FindAllByID(ctx, ids)
}

func (s *securedThings) ExistsByID(ctx context.Context, id int64) (bool, error) {
	if err := s.authorize(ctx, OpExistsByID); err != nil {
		return false, err
	}
	return s.store.ExistsByID(ctx, id)
}

func (s *securedThings) Count(ctx context.Context) (int, error) {
	if err := s.authorize(ctx, OpCount); err != nil {
		return 0, err
	}
	return s.store.Count(ctx)
}

func (s *securedThings) DeleteByID(ctx context.Context, id int64) error {
	if err := s.authorize(ctx, OpDeleteByID); err != nil {
		return err
	}
	return s.store.DeleteByID(ctx, id)
}

func (s *securedThings) Delete(ctx context.Context, thing *Thing) error {
	if err := s.authorize(ctx, OpDelete); err != nil {
		return err
	}
	return s.store.Delete(ctx, thing)
}
