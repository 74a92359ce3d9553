// Package credentials stores the ClickUp API token in the OS keyring and
// resolves it at startup, with the environment taking precedence.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service is the keyring service name the token is stored under.
	Service = "clickup-mcp"
	// EnvToken overrides the keyring when set.
	EnvToken = "CLICKUP_API_TOKEN"

	defaultAccount = "default"
)

// ErrNotFound means no token is configured anywhere.
var ErrNotFound = errors.New("no ClickUp API token configured")

// ErrKeyringNotAvailable is returned when the OS has no usable keyring,
// for example a headless container without a Secret Service.
var ErrKeyringNotAvailable = errors.New("system keyring not available")

// Source says where a token came from.
type Source string

const (
	SourceEnv     Source = "environment"
	SourceKeyring Source = "keyring"
	SourceNone    Source = "none"
)

// Keyring is the subset of go-keyring used here.
type Keyring interface {
	Set(service, account, secret string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

type systemKeyring struct{}

func (systemKeyring) Set(service, account, secret string) error {
	return wrapKeyringErr(keyring.Set(service, account, secret))
}

func (systemKeyring) Get(service, account string) (string, error) {
	s, err := keyring.Get(service, account)
	return s, wrapKeyringErr(err)
}

func (systemKeyring) Delete(service, account string) error {
	return wrapKeyringErr(keyring.Delete(service, account))
}

func wrapKeyringErr(err error) error {
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "org.freedesktop.secrets") || strings.Contains(msg, "dbus") {
		return fmt.Errorf("%w: %v", ErrKeyringNotAvailable, err)
	}
	return err
}

// Manager reads and writes the token.
type Manager struct {
	keyring Keyring
	account string
	getenv  func(string) string
}

// Option configures a Manager.
type Option func(*Manager)

// WithKeyring replaces the OS keyring.
func WithKeyring(k Keyring) Option {
	return func(m *Manager) { m.keyring = k }
}

// WithAccount stores the token under a named profile instead of "default".
func WithAccount(account string) Option {
	return func(m *Manager) {
		if account != "" {
			m.account = account
		}
	}
}

// WithGetenv replaces os.Getenv.
func WithGetenv(f func(string) string) Option {
	return func(m *Manager) { m.getenv = f }
}

// NewManager returns a Manager backed by the OS keyring.
func NewManager(opts ...Option) *Manager {
	m := &Manager{keyring: systemKeyring{}, account: defaultAccount, getenv: os.Getenv}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns the token and where it came from. A keyring that is
// unavailable is treated like an empty one.
func (m *Manager) Token() (string, Source, error) {
	if v := strings.TrimSpace(m.getenv(EnvToken)); v != "" {
		return v, SourceEnv, nil
	}
	v, err := m.keyring.Get(Service, m.account)
	switch {
	case err == nil && v != "":
		return v, SourceKeyring, nil
	case err == nil, errors.Is(err, keyring.ErrNotFound), errors.Is(err, ErrKeyringNotAvailable):
		return "", SourceNone, ErrNotFound
	default:
		return "", SourceNone, fmt.Errorf("reading keyring: %w", err)
	}
}

// Set stores token in the keyring.
func (m *Manager) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token must not be empty")
	}
	if err := m.keyring.Set(Service, m.account, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// Delete removes the stored token. Deleting a missing token is not an error.
func (m *Manager) Delete() error {
	err := m.keyring.Delete(Service, m.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

// Mask hides all but the last four characters of a token.
func Mask(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
