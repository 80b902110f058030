package config

import (
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	things "github.com/goliatone/go-things"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment key, e.g. THINGS_ADDR
const Prefix = "THINGS"

const redacted = "********"

// Config holds runtime configuration for the service
type Config struct {
	Addr  string `envconfig:"ADDR" default:":8080" json:"addr"`
	DSN   string `envconfig:"DSN" default:"file::memory:?cache=shared" json:"dsn"`
	Debug bool   `envconfig:"DEBUG" default:"false" json:"debug"`

	SigningKey      string   `envconfig:"SIGNING_KEY" default:"change-me" json:"signing_key"`
	TokenExpiration int      `envconfig:"TOKEN_EXPIRATION" default:"24" json:"token_expiration"`
	Issuer          string   `envconfig:"ISSUER" default:"go-things" json:"issuer"`
	Audience        []string `envconfig:"AUDIENCE" json:"audience"`

	UserName     string   `envconfig:"USER_NAME" default:"user" json:"user_name"`
	UserPassword string   `envconfig:"USER_PASSWORD" default:"password" json:"user_password"`
	UserRoles    []string `envconfig:"USER_ROLES" default:"USER" json:"user_roles"`
}

var _ things.Config = (*Config)(nil)

// Load reads the given dotenv files, when present, and then the environment.
// Variables already set in the environment win over dotenv values.
func Load(files ...string) (*Config, error) {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read env file").
				WithMetadata(map[string]any{"file": file})
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to process environment")
	}

	if verr := cfg.Validate(); verr != nil {
		return nil, verr
	}

	return &cfg, nil
}

// Validate will run validation rules
func (c Config) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&c,
			validation.Field(&c.Addr, validation.Required),
			validation.Field(&c.DSN, validation.Required),
			validation.Field(&c.SigningKey, validation.Required),
			validation.Field(&c.TokenExpiration, validation.Required, validation.Min(1)),
		)
	}, "invalid configuration")
}

func (c Config) GetSigningKey() string {
	return c.SigningKey
}

func (c Config) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c Config) GetIssuer() string {
	return c.Issuer
}

func (c Config) GetAudience() []string {
	out := make([]string, 0, len(c.Audience))
	for _, a := range c.Audience {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c Config) GetAddr() string {
	return c.Addr
}

func (c Config) GetDSN() string {
	return c.DSN
}

func (c Config) GetDebug() bool {
	return c.Debug
}

// Principal returns the single principal the identity provider is built from
func (c Config) Principal() things.PrincipalConfig {
	roles := make([]string, len(c.UserRoles))
	copy(roles, c.UserRoles)
	return things.PrincipalConfig{
		Username: c.UserName,
		Password: c.UserPassword,
		Roles:    roles,
	}
}

// Redacted returns a copy safe to print
func (c Config) Redacted() Config {
	if c.SigningKey != "" {
		c.SigningKey = redacted
	}
	if c.UserPassword != "" {
		c.UserPassword = redacted
	}
	return c
}

// IsMemoryDSN reports whether the DSN points to an in-memory database
func (c Config) IsMemoryDSN() bool {
	return strings.Contains(c.DSN, ":memory:") || strings.Contains(c.DSN, "mode=memory")
}
