package things

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// PrincipalConfig describes the single principal known to the identity
// provider. It is built once at startup and handed to NewIdentityProvider.
type PrincipalConfig struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// DefaultPrincipalConfig returns the stock user/password principal holding
// only the USER role
func DefaultPrincipalConfig() PrincipalConfig {
	return PrincipalConfig{
		Username: "user",
		Password: "password",
		Roles:    []string{RoleUser},
	}
}

// Validate will run validation rules
func (c PrincipalConfig) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&c,
			validation.Field(&c.Username, validation.Required),
			validation.Field(&c.Password, validation.Required),
			validation.Field(&c.Roles, validation.Required),
		)
	}, "invalid principal configuration")
}

// IdentityProviderOption configures the in-memory identity provider
type IdentityProviderOption func(*InMemoryIdentityProvider)

// WithPasswordHashCost overrides the bcrypt cost used to hash the configured
// password
func WithPasswordHashCost(cost int) IdentityProviderOption {
	return func(p *InMemoryIdentityProvider) {
		p.hashCost = cost
	}
}

// WithIdentityLogger sets the provider logger
func WithIdentityLogger(logger Logger) IdentityProviderOption {
	return func(p *InMemoryIdentityProvider) {
		p.logger = normalizeLogger(logger)
	}
}

// InMemoryIdentityProvider holds exactly one principal. It is immutable
// after construction and safe for concurrent use.
type InMemoryIdentityProvider struct {
	identity     authIdentity
	passwordHash string
	hashCost     int
	logger       Logger
}

var _ IdentityProvider = (*InMemoryIdentityProvider)(nil)

// NewIdentityProvider validates cfg and stores the principal with its
// password hashed
func NewIdentityProvider(cfg PrincipalConfig, opts ...IdentityProviderOption) (*InMemoryIdentityProvider, error) {
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Roles = NewRoleSet(cfg.Roles...).Slice()

	if verr := cfg.Validate(); verr != nil {
		return nil, verr.WithTextCode(TextCodeInvalidPrincipal)
	}

	p := &InMemoryIdentityProvider{
		hashCost: passwordHashCost(),
		logger:   noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	hash, err := HashPasswordWithCost(cfg.Password, p.hashCost)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash principal password")
	}

	p.passwordHash = hash
	p.identity = authIdentity{
		id:       principalID(cfg.Username),
		username: cfg.Username,
		roles:    cfg.Roles,
	}

	p.logger.Debug("identity provider ready", "username", cfg.Username, "roles", cfg.Roles)

	return p, nil
}

// VerifyIdentity compares the credentials against the configured principal.
// Unknown usernames and wrong passwords produce the same error, and the hash
// comparison runs in both cases.
func (p *InMemoryIdentityProvider) VerifyIdentity(ctx context.Context, username, password string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled during identity verification")
	}

	known := strings.TrimSpace(username) == p.identity.username
	if err := ComparePasswordAndHash(password, p.passwordHash); err != nil || !known {
		p.logger.Debug("identity verification failed", "username", username)
		return nil, ErrInvalidCredentials
	}

	return p.identity, nil
}

// FindIdentityByIdentifier returns the principal when username matches
func (p *InMemoryIdentityProvider) FindIdentityByIdentifier(ctx context.Context, username string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled during identity lookup")
	}

	if strings.TrimSpace(username) != p.identity.username {
		return nil, ErrIdentityNotFound
	}

	return p.identity, nil
}

type authIdentity struct {
	id       string
	username string
	roles    []string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Roles() []string {
	out := make([]string, len(a.roles))
	copy(out, a.roles)
	return out
}

var _ Identity = authIdentity{}

func principalID(username string) string {
	if id, err := hashid.NewUUID(username); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(username)).String()
}
