package things_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	things "github.com/goliatone/go-things"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type decision struct {
	op      things.Operation
	allowed bool
}

type recordingObserver struct {
	mu        sync.Mutex
	decisions []decision
}

func (o *recordingObserver) Observe(_ context.Context, op things.Operation, allowed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decisions = append(o.decisions, decision{op: op, allowed: allowed})
}

func TestSecuredThings_DeniedCallsNeverReachStore(t *testing.T) {
	store := new(MockThingRepository)
	repo := things.NewSecuredThings(store, things.DefaultThingPolicy())
	ctx := userCtx()

	_, err := repo.Save(ctx, things.NewThing("widget"))
	assert.True(t, things.IsAccessDenied(err))

	thing, found, err := repo.FindByID(ctx, 1)
	assert.True(t, things.IsAccessDenied(err))
	assert.Nil(t, thing)
	assert.False(t, found)

	_, err = repo.FindAll(ctx)
	assert.True(t, things.IsAccessDenied(err))

	_, err = repo.FindAllByID(ctx, []int64{1, 2})
	assert.True(t, things.IsAccessDenied(err))

	exists, err := repo.ExistsByID(ctx, 1)
	assert.True(t, things.IsAccessDenied(err))
	assert.False(t, exists)

	count, err := repo.Count(ctx)
	assert.True(t, things.IsAccessDenied(err))
	assert.Zero(t, count)

	assert.True(t, things.IsAccessDenied(repo.DeleteByID(ctx, 1)))
	assert.True(t, things.IsAccessDenied(repo.Delete(ctx, &things.Thing{ID: 1})))

	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "FindAll", mock.Anything)
	store.AssertNotCalled(t, "FindAllByID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ExistsByID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Count", mock.Anything)
	store.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSecuredThings_AnonymousCallerIsUnauthenticated(t *testing.T) {
	store := new(MockThingRepository)
	repo := things.NewSecuredThings(store, things.DefaultThingPolicy())

	_, _, err := repo.FindByID(context.Background(), 1)
	assert.True(t, errors.Is(err, things.ErrUnauthenticated))
	assert.False(t, things.IsAccessDenied(err))

	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestSecuredThings_AllowedCallsDelegate(t *testing.T) {
	store := new(MockThingRepository)
	repo := things.NewSecuredThings(store, things.DefaultThingPolicy())
	ctx := bogusCtx()

	widget := &things.Thing{ID: 7, Name: strPtr("widget")}

	store.On("FindByID", ctx, int64(7)).Return(widget, true, nil).Once()
	store.On("FindByID", ctx, int64(8)).Return(nil, false, nil).Once()
	store.On("Count", ctx).Return(1, nil).Once()

	thing, found, err := repo.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, widget, thing)

	thing, found, err = repo.FindByID(ctx, 8)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, thing)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	store.AssertExpectations(t)
}

func TestSecuredThings_TypeAndMethodRulesAreBothEnforced(t *testing.T) {
	store := new(MockThingRepository)

	// USER passes the type level rule but not the method level one
	policy := things.NewPolicy(things.HasRole(things.RoleUser)).
		WithMethod(things.OpFindByID, things.HasRole(things.RoleBogus))
	repo := things.NewSecuredThings(store, policy)
	ctx := userCtx()

	store.On("Count", ctx).Return(3, nil).Once()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, _, err = repo.FindByID(ctx, 1)
	assert.True(t, things.IsAccessDenied(err))

	// a method rule does not override a failing type rule
	policy = things.NewPolicy(things.HasRole(things.RoleBogus)).
		WithMethod(things.OpFindByID, things.HasRole(things.RoleUser))
	repo = things.NewSecuredThings(store, policy)

	_, _, err = repo.FindByID(ctx, 1)
	assert.True(t, things.IsAccessDenied(err))

	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestSecuredThings_EmptyPolicyLetsCallsThrough(t *testing.T) {
	store := new(MockThingRepository)
	repo := things.NewSecuredThings(store, things.NewPolicy())
	ctx := context.Background()

	store.On("ExistsByID", ctx, int64(1)).Return(true, nil).Once()

	exists, err := repo.ExistsByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	store.AssertExpectations(t)
}

func TestSecuredThings_StoreErrorsPassThrough(t *testing.T) {
	store := new(MockThingRepository)
	repo := things.NewSecuredThings(store, things.DefaultThingPolicy())
	ctx := bogusCtx()

	store.On("DeleteByID", ctx, int64(99)).Return(things.ErrThingNotFound).Once()

	err := repo.DeleteByID(ctx, 99)
	assert.True(t, errors.Is(err, things.ErrThingNotFound))

	store.AssertExpectations(t)
}

func TestSecuredThings_ObserverSeesDecisions(t *testing.T) {
	store := new(MockThingRepository)
	observer := &recordingObserver{}

	policy := things.NewPolicy().WithMethod(things.OpFindByID, things.HasRole(things.RoleBogus))
	repo := things.NewSecuredThings(store, policy, things.WithDecisionObserver(observer))

	store.On("FindByID", mock.Anything, int64(1)).Return(nil, false, nil).Once()
	store.On("Count", mock.Anything).Return(0, nil).Once()

	_, _, err := repo.FindByID(userCtx(), 1)
	assert.Error(t, err)

	_, _, err = repo.FindByID(bogusCtx(), 1)
	assert.NoError(t, err)

	// unguarded operations are not reported
	_, err = repo.Count(userCtx())
	assert.NoError(t, err)

	assert.Equal(t, []decision{
		{op: things.OpFindByID, allowed: false},
		{op: things.OpFindByID, allowed: true},
	}, observer.decisions)

	store.AssertExpectations(t)
}

func TestDecisionObserverFunc(t *testing.T) {
	var got []bool
	fn := things.DecisionObserverFunc(func(_ context.Context, _ things.Operation, allowed bool) {
		got = append(got, allowed)
	})
	fn.Observe(context.Background(), things.OpCount, true)
	assert.Equal(t, []bool{true}, got)

	var nilFn things.DecisionObserverFunc
	assert.NotPanics(t, func() {
		nilFn.Observe(context.Background(), things.OpCount, false)
	})
}

// The scenarios below run the gate in front of the real store.

func TestSecuredThings_DefaultPrincipalIsDeniedFindByID(t *testing.T) {
	db := setupThingsDB(t)
	store := things.NewThingsRepository(db)
	repo := things.NewSecuredThings(store, things.DefaultThingPolicy())

	provider := newTestProvider(t, things.DefaultPrincipalConfig())
	identity, err := provider.VerifyIdentity(context.Background(), "user", "password")
	require.NoError(t, err)

	ctx := things.WithCaller(context.Background(), things.CallerFromIdentity(identity))

	_, _, err = repo.FindByID(ctx, 1)
	require.Error(t, err)
	assert.True(t, things.IsAccessDenied(err))
}

func TestSecuredThings_DenialDoesNotLeakExistence(t *testing.T) {
	db := setupThingsDB(t)
	store := things.NewThingsRepository(db)
	repo := things.NewSecuredThings(store, things.DefaultThingPolicy())

	saved, err := store.Save(context.Background(), things.NewThing("widget"))
	require.NoError(t, err)

	ctx := userCtx()

	_, foundExisting, errExisting := repo.FindByID(ctx, saved.ID)
	_, foundMissing, errMissing := repo.FindByID(ctx, saved.ID+1000)

	require.Error(t, errExisting)
	require.Error(t, errMissing)
	assert.False(t, foundExisting)
	assert.False(t, foundMissing)
	assert.Equal(t, errExisting.Error(), errMissing.Error())
	assert.True(t, things.IsAccessDenied(errExisting))
	assert.True(t, things.IsAccessDenied(errMissing))
}

func TestSecuredThings_BogusCallerReadsThings(t *testing.T) {
	db := setupThingsDB(t)
	repo := things.NewSecuredThings(things.NewThingsRepository(db), things.DefaultThingPolicy())
	ctx := bogusCtx()

	saved, err := repo.Save(ctx, things.NewThing("widget"))
	require.NoError(t, err)
	require.Greater(t, saved.ID, int64(0))

	thing, found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "widget", thing.GetName())

	thing, found, err = repo.FindByID(ctx, saved.ID+1000)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, thing)
}

func TestSecuredThings_ConcurrentFindByID(t *testing.T) {
	db := setupThingsDB(t)
	store := things.NewThingsRepository(db)

	saved, err := store.Save(context.Background(), things.NewThing("widget"))
	require.NoError(t, err)

	observer := &recordingObserver{}
	repo := things.NewSecuredThings(store, things.DefaultThingPolicy(), things.WithDecisionObserver(observer))

	const workers = 32

	type outcome struct {
		bogus  bool
		found  bool
		denied bool
		err    error
	}

	results := make(chan outcome, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(bogus bool) {
			defer wg.Done()
			ctx := userCtx()
			if bogus {
				ctx = bogusCtx()
			}
			_, found, err := repo.FindByID(ctx, saved.ID)
			results <- outcome{bogus: bogus, found: found, denied: things.IsAccessDenied(err), err: err}
		}(i%2 == 0)
	}
	wg.Wait()
	close(results)

	for res := range results {
		if res.bogus {
			assert.NoError(t, res.err)
			assert.True(t, res.found)
			continue
		}
		assert.True(t, res.denied)
		assert.False(t, res.found)
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.Len(t, observer.decisions, workers)
}

func strPtr(s string) *string {
	return &s
}
