// Package config provides configuration management for the icecarve server.
//
// Configuration is parsed from CLI flags and environment variables with
// sensible defaults. The Config struct is passed to components during
// initialization.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/hurricanerix/icecarve/internal/llm"
)

const (
	// Version is the icecarve application version
	Version = "0.1.0"

	// DefaultEnvFile is loaded from the working directory before parsing.
	DefaultEnvFile = ".env"

	// Default values for CLI flags
	defaultHost           = "0.0.0.0"
	defaultPort           = 5000
	defaultUploadDir      = "static/uploads"
	defaultSessionScope   = "global"
	defaultStateUpdates   = "off"
	defaultRequestTimeout = time.Duration(llm.DefaultTimeout) * time.Second
	defaultLogLevel       = "info"

	// Validation constraints
	minPort = 1
	maxPort = 65535
)

// Session scopes
const (
	SessionScopeGlobal = "global"
	SessionScopeCookie = "cookie"
)

// State update modes
const (
	StateUpdatesOff      = "off"
	StateUpdatesMetadata = "metadata"
)

var (
	// ErrMissingAPIKey is returned when no model provider key is configured
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set (use --api-key or the environment)")
	// ErrInvalidPort is returned when port is out of valid range
	ErrInvalidPort = errors.New("port must be between 1 and 65535")
	// ErrInvalidLogLevel is returned when log level is not recognized
	ErrInvalidLogLevel = errors.New("log-level must be one of: debug, info, warn, error")
	// ErrInvalidSessionScope is returned when session scope is not recognized
	ErrInvalidSessionScope = errors.New("session-scope must be one of: global, cookie")
	// ErrInvalidStateUpdates is returned when the state update mode is not recognized
	ErrInvalidStateUpdates = errors.New("state-updates must be one of: off, metadata")
	// ErrInvalidTimeout is returned when the request timeout is not positive
	ErrInvalidTimeout = errors.New("request-timeout must be greater than zero")
	// ErrShowHelp is returned when --help flag is requested
	ErrShowHelp = errors.New("help requested")
	// ErrShowVersion is returned when --version flag is requested
	ErrShowVersion = errors.New("version requested")
)

// Config holds all configuration values for the icecarve server.
type Config struct {
	// Server configuration
	Host string
	Port int

	// Model provider configuration
	APIKey       string
	BaseURL      string
	ChatModel    string
	VisionModel  string
	ImageModel   string
	ImageSize    string
	ImageQuality string

	// RequestTimeout bounds each chatbot request's remote calls.
	RequestTimeout time.Duration

	// Storage and sessions
	UploadDir    string
	SessionScope string
	StateUpdates string

	// Logging configuration
	LogLevel string

	// Internal flags
	showHelp    bool
	showVersion bool
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoadEnvFile loads variables from path into the process environment.
// Variables already set are not overridden. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Parse parses CLI flags into a Config struct. args excludes the program
// name. Flags fall back to their environment variables, then defaults.
// If --help or --version is requested, the text is written to output and
// ErrShowHelp or ErrShowVersion is returned.
func Parse(args []string, output io.Writer) (*Config, error) {
	c := &Config{}

	app := &cli.App{
		Name:            "icecarve",
		Usage:           "Conversational ice sculpture designer",
		UsageText:       "icecarve [FLAGS]",
		HideHelp:        true,
		HideHelpCommand: true,
		Writer:          output,
		ErrWriter:       output,
		Flags:           c.flags(),
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return err
		},
		Action: func(ctx *cli.Context) error {
			if c.showHelp {
				if err := cli.ShowAppHelp(ctx); err != nil {
					return err
				}
				return ErrShowHelp
			}
			if c.showVersion {
				fmt.Fprintf(output, "icecarve %s\n", Version)
				return ErrShowVersion
			}
			if ctx.NArg() > 0 {
				return fmt.Errorf("unexpected argument %q", ctx.Args().First())
			}
			return c.validate()
		},
	}

	if err := app.Run(append([]string{app.Name}, args...)); err != nil {
		return nil, err
	}
	if c.showHelp {
		return nil, ErrShowHelp
	}
	return c, nil
}

func (c *Config) flags() []cli.Flag {
	return []cli.Flag{
		// Server flags
		&cli.StringFlag{
			Name:        "host",
			Usage:       "Interface to listen on",
			EnvVars:     []string{"HOST"},
			Value:       defaultHost,
			Destination: &c.Host,
		},
		&cli.IntFlag{
			Name:        "port",
			Usage:       "HTTP server port",
			EnvVars:     []string{"PORT"},
			Value:       defaultPort,
			Destination: &c.Port,
		},

		// Model provider flags
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "Model provider API key",
			EnvVars:     []string{"OPENAI_API_KEY"},
			Destination: &c.APIKey,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "OpenAI-compatible API base URL",
			EnvVars:     []string{"OPENAI_BASE_URL"},
			Value:       llm.DefaultBaseURL,
			Destination: &c.BaseURL,
		},
		&cli.StringFlag{
			Name:        "chat-model",
			Usage:       "Model for text conversation",
			Value:       llm.DefaultChatModel,
			Destination: &c.ChatModel,
		},
		&cli.StringFlag{
			Name:        "vision-model",
			Usage:       "Model for uploaded image analysis",
			Value:       llm.DefaultVisionModel,
			Destination: &c.VisionModel,
		},
		&cli.StringFlag{
			Name:        "image-model",
			Usage:       "Model for sculpture rendering",
			Value:       llm.DefaultImageModel,
			Destination: &c.ImageModel,
		},
		&cli.StringFlag{
			Name:        "image-size",
			Usage:       "Rendered image size",
			Value:       llm.DefaultImageSize,
			Destination: &c.ImageSize,
		},
		&cli.StringFlag{
			Name:        "image-quality",
			Usage:       "Rendered image quality",
			Value:       llm.DefaultImageQuality,
			Destination: &c.ImageQuality,
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Usage:       "Upper bound on the remote calls of one request",
			Value:       defaultRequestTimeout,
			Destination: &c.RequestTimeout,
		},

		// Storage and session flags
		&cli.StringFlag{
			Name:        "upload-dir",
			Usage:       "Directory for staging uploaded images",
			Value:       defaultUploadDir,
			Destination: &c.UploadDir,
		},
		&cli.StringFlag{
			Name:        "session-scope",
			Usage:       "Session mapping: global (one shared session) or cookie",
			Value:       defaultSessionScope,
			Destination: &c.SessionScope,
		},
		&cli.StringFlag{
			Name:        "state-updates",
			Usage:       "Sculpture state updates from replies: off or metadata",
			Value:       defaultStateUpdates,
			Destination: &c.StateUpdates,
		},

		// Logging flags
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			EnvVars:     []string{"LOG_LEVEL"},
			Value:       defaultLogLevel,
			Destination: &c.LogLevel,
		},

		// Special flags
		&cli.BoolFlag{
			Name:        "help",
			Aliases:     []string{"h"},
			Usage:       "Show help message",
			Destination: &c.showHelp,
		},
		&cli.BoolFlag{
			Name:        "version",
			Usage:       "Show version information",
			Destination: &c.showVersion,
		},
	}
}

// validate checks that all configuration values are within valid ranges
func (c *Config) validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	if c.Port < minPort || c.Port > maxPort {
		return ErrInvalidPort
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	switch c.SessionScope {
	case SessionScopeGlobal, SessionScopeCookie:
	default:
		return ErrInvalidSessionScope
	}

	switch c.StateUpdates {
	case StateUpdatesOff, StateUpdatesMetadata:
	default:
		return ErrInvalidStateUpdates
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}
