package things

import (
	"context"
	"reflect"
)

// Authenticator turns credentials and bearer tokens into callers
type Authenticator struct {
	provider     IdentityProvider
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Authenticator {
	return &Authenticator{
		provider: provider,
		tokenService: NewTokenService(
			[]byte(opts.GetSigningKey()),
			opts.GetTokenExpiration(),
			opts.GetIssuer(),
			opts.GetAudience(),
			nil,
		),
		logger: noopLogger{},
	}
}

// WithLogger sets the logger
func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	a.logger = normalizeLogger(logger)
	return a
}

// WithTokenService replaces the token service
func (a *Authenticator) WithTokenService(ts TokenService) *Authenticator {
	if ts != nil {
		a.tokenService = ts
	}
	return a
}

// TokenService returns the TokenService instance used by this Authenticator
func (a *Authenticator) TokenService() TokenService {
	return a.tokenService
}

// Login verifies the credentials and returns a signed token
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	identity, err := a.verify(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, err := a.tokenService.Generate(identity)
	if err != nil {
		a.logger.Error("login failed to generate token", "username", username, "error", err)
		return "", err
	}

	a.logger.Info("login succeeded", "username", identity.Username())

	return token, nil
}

// CallerFromToken validates a bearer token and returns its caller
func (a *Authenticator) CallerFromToken(ctx context.Context, token string) (Caller, error) {
	claims, err := a.tokenService.Validate(token)
	if err != nil {
		a.logger.Debug("bearer token rejected", "error", err)
		return Caller{}, err
	}

	caller := claims.Caller()
	if caller.IsAnonymous() {
		return Caller{}, ErrUnableToMapClaims
	}

	return caller, nil
}

// CallerFromCredentials verifies username and password directly, as used by
// HTTP basic authentication
func (a *Authenticator) CallerFromCredentials(ctx context.Context, username, password string) (Caller, error) {
	identity, err := a.verify(ctx, username, password)
	if err != nil {
		return Caller{}, err
	}
	return CallerFromIdentity(identity), nil
}

func (a *Authenticator) verify(ctx context.Context, username, password string) (Identity, error) {
	identity, err := a.provider.VerifyIdentity(ctx, username, password)
	if err != nil {
		a.logger.Warn("verify identity error", "username", username, "error", err)
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		a.logger.Error("verify identity returned an empty identity", "username", username)
		return nil, ErrIdentityNotFound
	}

	return identity, nil
}
