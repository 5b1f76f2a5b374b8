package admingate

import (
	"context"
	"errors"
	"testing"

	"github.com/thestare/admingate/identity"
)

func TestSignInEstablishesSession(t *testing.T) {
	ta := newTestAuthority(t, nil)
	ta.addAdmin()

	ta.signIn(t)

	rec := ta.store.record()
	if rec == nil {
		t.Fatal("expected session record after sign-in")
	}
	if !rec.Authenticated || rec.UserID != "u-admin" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	wantExpiry := ta.clock.Now().Add(ta.authority.config.Session.Duration).Unix()
	if rec.ExpiresAt != wantExpiry {
		t.Fatalf("ExpiresAt = %d, want %d", rec.ExpiresAt, wantExpiry)
	}
	if rec.LastRoleCheckAt != ta.clock.Now().Unix() {
		t.Fatalf("LastRoleCheckAt = %d, want %d", rec.LastRoleCheckAt, ta.clock.Now().Unix())
	}
}

func TestSignInSuperAdminAllowed(t *testing.T) {
	ta := newTestAuthority(t, nil)
	ta.provider.add("root@example.com", "rootsecret99", "u-root", identity.RoleSuperAdmin)

	if err := ta.authority.SignIn(context.Background(), "root@example.com", "rootsecret99"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !ta.authority.IsAdmin(context.Background()) {
		t.Fatal("expected super_admin to have admin access")
	}
}

func TestSignInRejectionsIndistinguishable(t *testing.T) {
	ta := newTestAuthority(t, nil)
	ta.addAdmin()
	ctx := context.Background()

	errUnknown := ta.authority.SignIn(ctx, "nobody@example.com", "whatever")
	errWrong := ta.authority.SignIn(ctx, "admin@example.com", "wrong secret")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("unknown identifier: got %v", errUnknown)
	}
	if !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Fatalf("wrong secret: got %v", errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatal("sign-in rejections must not reveal whether the account exists")
	}
	if rec := ta.store.record(); rec != nil {
		t.Fatalf("no session may be written on rejection, got %+v", rec)
	}
}

func TestSignInInsufficientRoleRollsBack(t *testing.T) {
	ta := newTestAuthority(t, nil)
	ta.provider.add("mod@example.com", "modsecret123", "u-mod", identity.RoleModerator)

	err := ta.authority.SignIn(context.Background(), "mod@example.com", "modsecret123")
	if !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole, got %v", err)
	}

	// Backend identity must not stay established.
	ta.provider.waitSignOut(t)

	if rec := ta.store.record(); rec != nil {
		t.Fatalf("no session may be written on role denial, got %+v", rec)
	}
}

func TestSignInProviderUnavailable(t *testing.T) {
	ta := newTestAuthority(t, nil)
	ta.addAdmin()
	ta.provider.failAuth = identity.ErrUnavailable

	err := ta.authority.SignIn(context.Background(), "admin@example.com", "opensesame123")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if rec := ta.store.record(); rec != nil {
		t.Fatalf("no session may be written on provider failure, got %+v", rec)
	}
}

func TestSignInRoleCheckFailureRollsBack(t *testing.T) {
	ta := newTestAuthority(t, nil)
	ta.addAdmin()
	ta.provider.failRole = identity.ErrUnavailable

	err := ta.authority.SignIn(context.Background(), "admin@example.com", "opensesame123")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	ta.provider.waitSignOut(t)

	if rec := ta.store.record(); rec != nil {
		t.Fatalf("no session may survive a failed post-auth role check, got %+v", rec)
	}
}

func TestSignInStoreWriteFailureRollsBack(t *testing.T) {
	ta := newTestAuthority(t, nil)
	ta.addAdmin()
	ta.store.failWrite = errors.New("redis down")

	err := ta.authority.SignIn(context.Background(), "admin@example.com", "opensesame123")
	if !errors.Is(err, ErrSessionUnavailable) {
		t.Fatalf("expected ErrSessionUnavailable, got %v", err)
	}

	ta.provider.waitSignOut(t)
}

func TestSignInWithAllowedRolesOverride(t *testing.T) {
	ta := newTestAuthority(t, func(cfg *Config) {
		cfg.Provider.AllowedRoles = []identity.Role{identity.RoleSuperAdmin}
	})
	ta.addAdmin()

	err := ta.authority.SignIn(context.Background(), "admin@example.com", "opensesame123")
	if !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("expected plain admin to be denied, got %v", err)
	}
}

func TestSignInMetrics(t *testing.T) {
	ta := newTestAuthority(t, func(cfg *Config) {
		cfg.Metrics.Enabled = true
	})
	ta.addAdmin()
	ctx := context.Background()

	ta.authority.SignIn(ctx, "admin@example.com", "wrong")
	ta.signIn(t)

	m := ta.authority.Metrics()
	if got := m.Value(MetricSignInFailure); got != 1 {
		t.Errorf("MetricSignInFailure = %d, want 1", got)
	}
	if got := m.Value(MetricSignInSuccess); got != 1 {
		t.Errorf("MetricSignInSuccess = %d, want 1", got)
	}
}
