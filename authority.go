package admingate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/thestare/admingate/identity"
	"github.com/thestare/admingate/internal/rate"
	"github.com/thestare/admingate/session"
)

// Authority is the admin session authority. It owns the cached session
// record, consults the identity provider for authoritative role checks, and
// answers every access question fail-closed: when the cache, the store, or
// the provider cannot prove admin access, access is denied.
//
// Construct an Authority with [New] and its builder methods. An Authority
// is safe for concurrent use.
type Authority struct {
	config   Config
	store    session.Store
	provider identity.Provider
	limiter  *rate.Limiter
	audit    *auditDispatcher
	metrics  *Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// backendTimeout bounds the fire-and-forget provider sign-out that runs
// outside a caller's context.
const backendTimeout = 10 * time.Second

// IsAdmin describes the isadmin operation and its observable behavior.
//
// IsAdmin reports whether the cached session currently grants admin access.
// It never returns an error: store failures, provider failures, expired
// sessions, and revoked roles all read as false.
func (a *Authority) IsAdmin(ctx context.Context) bool {
	if a == nil {
		return false
	}

	start := a.now()
	defer func() {
		a.metrics.Observe(MetricIsAdminLatency, a.now().Sub(start))
	}()

	rec, err := a.store.Read(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("session read failed")
		return false
	}
	if rec == nil {
		return false
	}

	now := a.now()
	if rec.Expired(now) {
		a.expireSession(ctx, rec)
		return false
	}
	if !rec.Authenticated || rec.UserID == "" {
		return false
	}

	if a.roleCheckFresh(rec, now) {
		a.metrics.Inc(MetricRoleCheckCached)
		return true
	}

	return a.refreshRole(ctx, rec)
}

// SignIn describes the signin operation and its observable behavior.
//
// SignIn may return an error when input validation, dependency calls, or security checks fail.
// SignIn authenticates against the identity provider, verifies the role is
// allowed, and establishes the cached session. Credential rejections of any
// shape surface as [ErrInvalidCredentials] so callers cannot probe which
// identifiers exist.
func (a *Authority) SignIn(ctx context.Context, identifier, secret string) error {
	if a == nil {
		return ErrAuthorityNotReady
	}

	ip := clientIPFromContext(ctx)

	if a.limiter != nil {
		if err := a.limiter.CheckSignIn(ctx, identifier, ip); err != nil {
			if errors.Is(err, rate.ErrLimited) {
				a.metrics.Inc(MetricSignInRateLimited)
				a.emitAudit(ctx, AuditEvent{
					EventType: AuditSignInRateLimited,
					IP:        ip,
				})
				return ErrSignInRateLimited
			}
			return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
		}
	}

	callCtx, cancel := a.providerContext(ctx)
	userID, err := a.provider.Authenticate(callCtx, identifier, secret)
	cancel()
	if err != nil {
		if errors.Is(err, identity.ErrUnavailable) {
			a.logger.Warn().Err(err).Msg("authenticate failed")
			return ErrProviderUnavailable
		}

		// Unknown identifier, wrong secret, and any other provider
		// rejection all collapse into the same answer.
		a.recordSignInFailure(ctx, identifier, ip)
		return ErrInvalidCredentials
	}

	callCtx, cancel = a.providerContext(ctx)
	role, err := a.provider.QueryRole(callCtx, userID)
	cancel()
	if err != nil {
		a.logger.Warn().Err(err).Str("user_id", userID).Msg("role check after sign-in failed")
		a.backendSignOut()
		return ErrProviderUnavailable
	}
	if !a.roleAllowed(role) {
		a.metrics.Inc(MetricRoleDenied)
		a.emitAudit(ctx, AuditEvent{
			EventType: AuditRoleDenied,
			UserID:    userID,
			IP:        ip,
		})
		a.backendSignOut()
		return ErrInsufficientRole
	}

	now := a.now()
	rec := session.Record{
		Authenticated:   true,
		UserID:          userID,
		ExpiresAt:       now.Add(a.config.Session.Duration).Unix(),
		LastRoleCheckAt: now.Unix(),
	}
	if err := a.store.Write(ctx, rec.AsPatch()); err != nil {
		a.logger.Error().Err(err).Msg("session write failed")
		a.backendSignOut()
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	if a.limiter != nil {
		if err := a.limiter.Reset(ctx, identifier, ip); err != nil {
			a.logger.Warn().Err(err).Msg("throttle reset failed")
		}
	}

	a.metrics.Inc(MetricSignInSuccess)
	a.emitAudit(ctx, AuditEvent{
		EventType: AuditSignInSuccess,
		UserID:    userID,
		IP:        ip,
		Success:   true,
	})

	return nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout clears the cached session. The provider-side sign-out runs in the
// background: its failure is logged but never blocks or fails the local
// logout.
func (a *Authority) Logout(ctx context.Context) error {
	if a == nil {
		return ErrAuthorityNotReady
	}

	rec, err := a.store.Read(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("session read failed")
	}

	if err := a.store.Clear(ctx); err != nil {
		a.logger.Error().Err(err).Msg("session clear failed")
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	a.backendSignOut()

	var userID string
	if rec != nil {
		userID = rec.UserID
	}
	a.metrics.Inc(MetricLogout)
	a.emitAudit(ctx, AuditEvent{
		EventType: AuditLogout,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   true,
	})

	return nil
}

// ExtendSession describes the extendsession operation and its observable behavior.
//
// ExtendSession pushes the expiry of a live authenticated session out by the
// configured session duration. It returns false for absent, expired, or
// unauthenticated sessions and when the store rejects the write.
func (a *Authority) ExtendSession(ctx context.Context) bool {
	if a == nil {
		return false
	}

	rec, err := a.store.Read(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("session read failed")
		return false
	}
	if rec == nil {
		return false
	}

	now := a.now()
	if rec.Expired(now) || !rec.Authenticated {
		return false
	}

	expiresAt := now.Add(a.config.Session.Duration).Unix()
	if err := a.store.Write(ctx, session.Patch{ExpiresAt: &expiresAt}); err != nil {
		a.logger.Warn().Err(err).Msg("session extend failed")
		return false
	}

	a.metrics.Inc(MetricSessionExtended)
	a.emitAudit(ctx, AuditEvent{
		EventType: AuditSessionExtended,
		UserID:    rec.UserID,
		Success:   true,
	})

	return true
}

// SessionInfo describes the sessioninfo operation and its observable behavior.
//
// SessionInfo is a pure read of the cached record: it never consults the
// identity provider and never mutates the cache. Absent, unreadable, and
// expired sessions all report Authenticated=false.
func (a *Authority) SessionInfo(ctx context.Context) SessionInfo {
	if a == nil {
		return SessionInfo{}
	}

	rec, err := a.store.Read(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("session read failed")
		return SessionInfo{}
	}
	if rec == nil {
		return SessionInfo{}
	}

	now := a.now()
	if rec.Expired(now) || !rec.Authenticated {
		return SessionInfo{}
	}

	return SessionInfo{
		Authenticated: true,
		UserID:        rec.UserID,
		TimeRemaining: rec.TimeRemaining(now),
	}
}

// Metrics returns the Authority's metric registry. A built Authority always
// has one; with metrics disabled every counter reads zero. A nil Authority
// returns nil, which the registry's methods tolerate.
func (a *Authority) Metrics() *Metrics {
	if a == nil {
		return nil
	}
	return a.metrics
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (a *Authority) AuditDropped() uint64 {
	if a == nil {
		return 0
	}
	return a.audit.Dropped()
}

// Close drains and stops the audit dispatcher. The Authority must not be
// used after Close.
func (a *Authority) Close() {
	if a == nil {
		return
	}
	a.audit.Close()
}

// roleCheckFresh reports whether the last successful role check is within
// the refresh interval.
func (a *Authority) roleCheckFresh(rec *session.Record, now time.Time) bool {
	if rec.LastRoleCheckAt == 0 {
		return false
	}
	checkedAt := time.Unix(rec.LastRoleCheckAt, 0)
	return now.Sub(checkedAt) < a.config.Session.RoleRefreshInterval
}

// refreshRole re-verifies the role with the provider. LastRoleCheckAt only
// advances on a successful round-trip; any failed or negative check clears
// the session, so the next caller is denied locally and a new sign-in is
// required to restore access.
func (a *Authority) refreshRole(ctx context.Context, rec *session.Record) bool {
	callCtx, cancel := a.providerContext(ctx)
	role, err := a.provider.QueryRole(callCtx, rec.UserID)
	cancel()
	if err != nil {
		a.metrics.Inc(MetricRoleCheckFailure)
		a.logger.Warn().Err(err).Str("user_id", rec.UserID).Msg("role check failed")
		if err := a.store.Clear(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("session clear failed")
		}
		return false
	}

	if !a.roleAllowed(role) {
		a.metrics.Inc(MetricRoleRevoked)
		a.emitAudit(ctx, AuditEvent{
			EventType: AuditRoleRevoked,
			UserID:    rec.UserID,
		})
		if err := a.store.Clear(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("session clear failed")
		}
		a.backendSignOut()
		return false
	}

	a.metrics.Inc(MetricRoleCheckSuccess)

	checkedAt := a.now().Unix()
	if err := a.store.Write(ctx, session.Patch{LastRoleCheckAt: &checkedAt}); err != nil {
		// The role is verified for this call; the stale timestamp only
		// means the next call re-verifies.
		a.logger.Warn().Err(err).Msg("role check timestamp write failed")
	}

	return true
}

func (a *Authority) roleAllowed(role identity.Role) bool {
	for _, allowed := range a.config.Provider.AllowedRoles {
		if role == allowed {
			return true
		}
	}
	return false
}

func (a *Authority) expireSession(ctx context.Context, rec *session.Record) {
	a.metrics.Inc(MetricSessionExpired)
	a.emitAudit(ctx, AuditEvent{
		EventType: AuditSessionExpired,
		UserID:    rec.UserID,
	})
	if err := a.store.Clear(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("session clear failed")
	}
}

func (a *Authority) recordSignInFailure(ctx context.Context, identifier, ip string) {
	a.metrics.Inc(MetricSignInFailure)
	a.emitAudit(ctx, AuditEvent{
		EventType: AuditSignInFailure,
		IP:        ip,
		Error:     ErrInvalidCredentials.Error(),
	})
	if a.limiter != nil {
		if err := a.limiter.RecordFailure(ctx, identifier, ip); err != nil && !errors.Is(err, rate.ErrLimited) {
			a.logger.Warn().Err(err).Msg("throttle record failed")
		}
	}
}

// backendSignOut discards the provider-side identity without blocking the
// caller. Used when a sign-in is rolled back and on logout.
func (a *Authority) backendSignOut() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		if err := a.provider.SignOut(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("provider sign-out failed")
		}
	}()
}

func (a *Authority) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, a.config.Provider.RequestTimeout)
}

func (a *Authority) emitAudit(ctx context.Context, event AuditEvent) {
	if a.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = a.now()
	}
	a.audit.Emit(ctx, event)
}
