package admingate

import (
	"errors"
	"time"

	"github.com/thestare/admingate/identity"
)

// Config defines a public type used by admingate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session  SessionConfig
	Provider ProviderConfig
	Poll     PollConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by admingate APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	Duration            time.Duration
	RoleRefreshInterval time.Duration
	StorageKey          string
	Retention           time.Duration
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig defines a public type used by admingate APIs.
//
// ProviderConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ProviderConfig struct {
	RequestTimeout time.Duration
	AllowedRoles   []identity.Role
}

// PollConfig defines a public type used by admingate APIs.
//
// PollConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PollConfig struct {
	Interval time.Duration
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by admingate APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	EnableSignInThrottle bool
	EnableIPThrottle     bool
	MaxSignInAttempts    int
	SignInCooldown       time.Duration
}

// AuditConfig defines a public type used by admingate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by admingate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the stock configuration: 8h sessions, 5m role
// refresh, 60s revalidation poll, 10s provider timeout, admin and
// super_admin allowed.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Duration:            8 * time.Hour,
			RoleRefreshInterval: 5 * time.Minute,
			StorageKey:          "admingate:session",
			Retention:           24 * time.Hour,
		},
		Provider: ProviderConfig{
			RequestTimeout: 10 * time.Second,
			AllowedRoles:   []identity.Role{identity.RoleAdmin, identity.RoleSuperAdmin},
		},
		Poll: PollConfig{
			Interval: 60 * time.Second,
		},
		Security: SecurityConfig{
			EnableSignInThrottle: false,
			EnableIPThrottle:     false,
			MaxSignInAttempts:    5,
			SignInCooldown:       15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if len(cfg.Provider.AllowedRoles) > 0 {
		out.Provider.AllowedRoles = make([]identity.Role, len(cfg.Provider.AllowedRoles))
		copy(out.Provider.AllowedRoles, cfg.Provider.AllowedRoles)
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Session
	if c.Session.Duration <= 0 {
		return errors.New("Session Duration must be > 0")
	}
	if c.Session.RoleRefreshInterval <= 0 {
		return errors.New("Session RoleRefreshInterval must be > 0")
	}
	if c.Session.RoleRefreshInterval >= c.Session.Duration {
		return errors.New("Session RoleRefreshInterval must be shorter than Duration")
	}
	if c.Session.StorageKey == "" {
		return errors.New("Session StorageKey is required")
	}
	if c.Session.Retention < c.Session.Duration {
		return errors.New("Session Retention must cover Duration")
	}

	// Provider
	if c.Provider.RequestTimeout <= 0 {
		return errors.New("Provider RequestTimeout must be > 0")
	}
	if len(c.Provider.AllowedRoles) == 0 {
		return errors.New("Provider AllowedRoles must not be empty")
	}
	for _, role := range c.Provider.AllowedRoles {
		if _, ok := identity.ParseRole(string(role)); !ok {
			return errors.New("Provider AllowedRoles contains unknown role")
		}
	}

	// Poll
	if c.Poll.Interval <= 0 {
		return errors.New("Poll Interval must be > 0")
	}
	if c.Poll.Interval > c.Session.RoleRefreshInterval {
		return errors.New("Poll Interval must not exceed RoleRefreshInterval")
	}

	// Security
	if c.Security.EnableSignInThrottle {
		if c.Security.MaxSignInAttempts <= 0 {
			return errors.New("MaxSignInAttempts must be > 0 when sign-in throttle is enabled")
		}
		if c.Security.SignInCooldown <= 0 {
			return errors.New("SignInCooldown must be > 0 when sign-in throttle is enabled")
		}
	}
	if c.Security.EnableIPThrottle && !c.Security.EnableSignInThrottle {
		return errors.New("EnableIPThrottle requires EnableSignInThrottle")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
