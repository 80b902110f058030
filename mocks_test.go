package things_test

import (
	"context"
	"fmt"
	"testing"

	things "github.com/goliatone/go-things"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// MockThingRepository implements things.ThingRepository
type MockThingRepository struct {
	mock.Mock
}

func (m *MockThingRepository) Save(ctx context.Context, thing *things.Thing) (*things.Thing, error) {
	args := m.Called(ctx, thing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*things.Thing), args.Error(1)
}

func (m *MockThingRepository) FindByID(ctx context.Context, id int64) (*things.Thing, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*things.Thing), args.Bool(1), args.Error(2)
}

func (m *MockThingRepository) FindAll(ctx context.Context) ([]*things.Thing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*things.Thing), args.Error(1)
}

func (m *MockThingRepository) FindAllByID(ctx context.Context, ids []int64) ([]*things.Thing, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*things.Thing), args.Error(1)
}

func (m *MockThingRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockThingRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockThingRepository) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockThingRepository) Delete(ctx context.Context, thing *things.Thing) error {
	args := m.Called(ctx, thing)
	return args.Error(0)
}

// MockIdentityProvider implements things.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, username, password string) (things.Identity, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(things.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, username string) (things.Identity, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(things.Identity), args.Error(1)
}

// TestIdentity is a static things.Identity
type TestIdentity struct {
	id       string
	username string
	roles    []string
}

func (i TestIdentity) ID() string       { return i.id }
func (i TestIdentity) Username() string { return i.username }
func (i TestIdentity) Roles() []string  { return i.roles }

type configStub struct{}

func (configStub) GetSigningKey() string   { return "test-signing-key" }
func (configStub) GetTokenExpiration() int { return 24 }
func (configStub) GetIssuer() string       { return "issuer" }
func (configStub) GetAudience() []string   { return []string{"aud"} }

type captureLogger struct {
	calls []string
}

func (l *captureLogger) Debug(msg string, args ...any) { l.calls = append(l.calls, "debug:"+msg) }
func (l *captureLogger) Info(msg string, args ...any)  { l.calls = append(l.calls, "info:"+msg) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.calls = append(l.calls, "warn:"+msg) }
func (l *captureLogger) Error(msg string, args ...any) { l.calls = append(l.calls, "error:"+msg) }

func userCtx() context.Context {
	return things.WithCaller(context.Background(), things.Caller{
		ID:       "user-id",
		Username: "user",
		Roles:    []string{things.RoleUser},
	})
}

func bogusCtx() context.Context {
	return things.WithCaller(context.Background(), things.Caller{
		ID:       "bogus-id",
		Username: "bogus",
		Roles:    []string{things.RoleUser, things.RoleBogus},
	})
}

func setupThingsDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := things.OpenSQLite(context.Background(), dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func newTestProvider(t *testing.T, cfg things.PrincipalConfig) *things.InMemoryIdentityProvider {
	t.Helper()
	provider, err := things.NewIdentityProvider(cfg, things.WithPasswordHashCost(bcrypt.MinCost))
	require.NoError(t, err)
	return provider
}
