package callerware

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	things "github.com/goliatone/go-things"
)

var (
	defaultTokenLookup = "header:" + fiber.HeaderAuthorization

	ErrTokenMissing          = errors.New("missing bearer token")
	ErrBasicMissingOrInvalid = errors.New("missing or malformed basic credentials")
)

// CallerResolver turns request credentials into a caller. It mirrors the
// methods of things.Authenticator.
type CallerResolver interface {
	CallerFromToken(ctx context.Context, token string) (things.Caller, error)
	CallerFromCredentials(ctx context.Context, username, password string) (things.Caller, error)
}

// ResolvedListener is invoked after a caller has been resolved, before the
// request proceeds.
type ResolvedListener func(c *fiber.Ctx, caller things.Caller) error

type Config struct {
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	// Resolver is required
	Resolver    CallerResolver
	ContextKey  string
	TokenLookup string
	AuthScheme  string
	// AllowBasic enables "Authorization: Basic" credentials next to bearer
	// tokens.
	AllowBasic bool
	// RequireCaller rejects requests that carry no credentials. When false
	// they continue as anonymous and guarded operations decide.
	RequireCaller bool

	ResolvedListeners []ResolvedListener
}

// New resolves the caller of each request and stores it both in the fiber
// locals under ContextKey and in the user context, where the authorization
// gate reads it.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		ctx := c.UserContext()

		var caller things.Caller
		var err error

		if username, password, ok, berr := basicFromHeader(c); cfg.AllowBasic && ok {
			if berr != nil {
				return cfg.ErrorHandler(c, berr)
			}
			caller, err = cfg.Resolver.CallerFromCredentials(ctx, username, password)
		} else {
			raw, terr := ExtractRawTokenFromContext(c, extractors)
			if terr != nil {
				if cfg.RequireCaller {
					return cfg.ErrorHandler(c, things.ErrUnauthenticated)
				}
				return c.Next()
			}
			caller, err = cfg.Resolver.CallerFromToken(ctx, raw)
		}

		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if err := cfg.runResolvedListeners(c, caller); err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, caller)
		c.SetUserContext(things.WithCaller(ctx, caller))

		return cfg.SuccessHandler(c)
	}
}

// CallerFromLocals returns the caller stored by the middleware
func CallerFromLocals(c *fiber.Ctx, key ...string) (things.Caller, bool) {
	k := "caller"
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	caller, ok := c.Locals(k).(things.Caller)
	if !ok || caller.IsAnonymous() {
		return things.Caller{}, false
	}
	return caller, true
}

func ExtractRawTokenFromContext(c *fiber.Ctx, extractors []TokenExtractor) (string, error) {
	raw, err := "", ErrTokenMissing

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, ErrBasicMissingOrInvalid) {
				return c.Status(fiber.StatusBadRequest).SendString(err.Error())
			}
			return c.Status(fiber.StatusUnauthorized).SendString("Invalid or expired credentials")
		}
	}

	if cfg.Resolver == nil {
		panic("THINGS: caller middleware configuration: Resolver is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "caller"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) runResolvedListeners(c *fiber.Ctx, caller things.Caller) error {
	for _, listener := range cfg.ResolvedListeners {
		if listener == nil {
			continue
		}
		if err := listener(c, caller); err != nil {
			return err
		}
	}
	return nil
}

func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:jwt,query:access_token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		}
	}

	return extractors
}

type TokenExtractor func(c *fiber.Ctx) (string, error)

// tokenFromHeader returns a function that extracts token from the request header.
func tokenFromHeader(header string, authScheme string) TokenExtractor {
	authScheme = strings.TrimSpace(authScheme)
	l := len(authScheme)
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissing
	}
}

// tokenFromQuery returns a function that extracts token from the query string.
func tokenFromQuery(param string) TokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrTokenMissing
		}
		return token, nil
	}
}

// tokenFromCookie returns a function that extracts token from the named cookie.
func tokenFromCookie(name string) TokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissing
		}
		return token, nil
	}
}

// basicFromHeader reports ok when the Authorization header uses the Basic
// scheme. err is set when the scheme matches but the payload is unusable.
func basicFromHeader(c *fiber.Ctx) (username, password string, ok bool, err error) {
	const scheme = "Basic "

	a := c.Get(fiber.HeaderAuthorization)
	if len(a) < len(scheme) || !strings.EqualFold(a[:len(scheme)], scheme) {
		return "", "", false, nil
	}

	raw, derr := base64.StdEncoding.DecodeString(strings.TrimSpace(a[len(scheme):]))
	if derr != nil {
		return "", "", true, ErrBasicMissingOrInvalid
	}

	username, password, found := strings.Cut(string(raw), ":")
	if !found || username == "" {
		return "", "", true, ErrBasicMissingOrInvalid
	}

	return username, password, true, nil
}
