package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// MaxBodyLengthLimit is the width of chat_messages.body (VARCHAR(2000)).
const MaxBodyLengthLimit = 2000

type Config struct {
	Port      string `env:"PORT,default=8080"`
	DSN       string `env:"DB_DSN,required=true"`
	JWTSecret string `env:"JWT_SECRET,required=true"`
	JWTTTLHrs int    `env:"JWT_TTL_HOURS,default=24"`
	Env       string `env:"ENV,default=dev"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`

	MigrationsDir  string `env:"MIGRATIONS_DIR,default=migrations"`
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*"`

	// chat gateway
	MaxBodyLength     int           `env:"CHAT_MAX_BODY_LENGTH,default=2000"`
	AppendTimeout     time.Duration `env:"CHAT_APPEND_TIMEOUT,default=5s"`
	MembershipTimeout time.Duration `env:"CHAT_MEMBERSHIP_TIMEOUT,default=3s"`
	SendBuffer        int           `env:"CHAT_SEND_BUFFER,default=256"`
	PresenceEnabled   bool          `env:"CHAT_PRESENCE_ENABLED,default=false"`

	// websocket transport
	MaxFrameBytes int64         `env:"WS_MAX_FRAME_BYTES,default=65536"`
	PongWait      time.Duration `env:"WS_PONG_WAIT,default=60s"`
	WriteWait     time.Duration `env:"WS_WRITE_WAIT,default=10s"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if _, err := env.UnmarshalFromEnviron(&c); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.DSN == "" || c.JWTSecret == "" {
		return fmt.Errorf("DB_DSN and JWT_SECRET are required")
	}
	if c.JWTTTLHrs <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive, got %d", c.JWTTTLHrs)
	}
	if c.MaxBodyLength <= 0 || c.MaxBodyLength > MaxBodyLengthLimit {
		return fmt.Errorf("CHAT_MAX_BODY_LENGTH must be between 1 and %d, got %d", MaxBodyLengthLimit, c.MaxBodyLength)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("CHAT_SEND_BUFFER must be positive, got %d", c.SendBuffer)
	}
	if c.AppendTimeout <= 0 || c.MembershipTimeout <= 0 {
		return fmt.Errorf("chat timeouts must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Origins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// PingPeriod is how often the websocket writer pings; it must stay below PongWait.
func (c *Config) PingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}
