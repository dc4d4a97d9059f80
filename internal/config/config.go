package config

import (
	"errors"
	"net/url"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

const (
	DefaultWorkdir     = "cypress"
	DefaultMessageText = "I've got test results coming in from Cypress. Hold tight ..."
	DefaultAPIURL      = "https://graph.facebook.com/v11.0"
)

// Options mirrors the action inputs. GitHub exposes each input as an
// INPUT_<NAME> environment variable, so every flag can come from either.
type Options struct {
	Token       string `long:"token" env:"INPUT_TOKEN" description:"Messaging API access token"`
	Channel     string `long:"channel" env:"INPUT_CHANNEL" description:"Thread key that receives the artifacts"`
	Workdir     string `long:"workdir" env:"INPUT_WORKDIR" description:"Directory scanned for videos and screenshots (default: cypress)"`
	MessageText string `long:"message-text" env:"INPUT_MESSAGE-TEXT" description:"Status message posted before the uploads"`
	APIURL      string `long:"api-url" env:"INPUT_API-URL" description:"Messaging API base URL (default: https://graph.facebook.com/v11.0)"`
	Debug       bool   `long:"debug" env:"RUNNER_DEBUG" description:"Enable verbose debug output"`
}

type APIEndpoints struct {
	BaseURL     string
	MessagesURL string
}

const messagesPath = "/me/messages"

// ParseOptions reads flags from args, falling back to the environment and an
// optional .env file, then fills in defaults for anything left blank.
func ParseOptions(args []string) (Options, error) {
	_ = godotenv.Load()
	opts := Options{}
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return Options{}, err
	}
	return ApplyDefaults(opts), nil
}

// ApplyDefaults treats blank inputs as unset. Token and channel are passed
// through untouched; the remote API rejects empty values on its own.
func ApplyDefaults(opts Options) Options {
	if strings.TrimSpace(opts.Workdir) == "" {
		opts.Workdir = DefaultWorkdir
	}
	if strings.TrimSpace(opts.MessageText) == "" {
		opts.MessageText = DefaultMessageText
	}
	if strings.TrimSpace(opts.APIURL) == "" {
		opts.APIURL = DefaultAPIURL
	}
	return opts
}

func BuildEndpoints(rawAPIURL string) (APIEndpoints, error) {
	base, err := buildAPIBaseURL(rawAPIURL)
	if err != nil {
		return APIEndpoints{}, err
	}
	return APIEndpoints{
		BaseURL:     base,
		MessagesURL: base + messagesPath,
	}, nil
}

func buildAPIBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	parsed, err := url.Parse(value)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("expected absolute URL like https://graph.facebook.com/v11.0")
	}
	if !strings.EqualFold(parsed.Scheme, "http") && !strings.EqualFold(parsed.Scheme, "https") {
		return "", errors.New("API URL scheme must be http or https")
	}

	// Keep the version path, but drop a pasted messages endpoint and any query.
	parsed.Path = strings.TrimSuffix(strings.TrimRight(parsed.Path, "/"), messagesPath)
	parsed.RawPath = ""
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return strings.TrimRight(parsed.String(), "/"), nil
}
