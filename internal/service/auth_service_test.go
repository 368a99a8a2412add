package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"kasa-pos/internal/model"
	"kasa-pos/pkg/jwt"
)

func newAuth(t *testing.T, f *fixture) AuthService {
	t.Helper()
	svc := NewAuthService(f.users, jwt.NewSigner("test-secret", time.Hour), f.log)
	if _, err := svc.EnsureAdmin(context.Background(), "admin", "123456"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return svc
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(t, f)

	created, err := svc.EnsureAdmin(context.Background(), "admin", "other")
	if err != nil || created {
		t.Fatalf("created = %v, err = %v", created, err)
	}
	var n int64
	f.db.Model(&model.User{}).Count(&n)
	if n != 1 {
		t.Fatalf("users = %d", n)
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(t, f)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password: err = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "123456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: err = %v", err)
	}

	resp, err := svc.Login(ctx, "admin", "123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" || resp.User.Role != model.RoleAdmin || len(resp.Privileges) == 0 {
		t.Fatalf("login response = %+v", resp)
	}

	sess, err := svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if sess.Username != "admin" || !sess.IsAdmin() || !sess.Can(model.PrivSaleDelete) {
		t.Fatalf("session = %+v", sess)
	}

	me, err := svc.Me(ctx, sess)
	if err != nil || me.LastLoginAt == nil {
		t.Fatalf("me = %+v, err = %v", me, err)
	}
}

func TestNewLoginRevokesOldToken(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(t, f)
	ctx := context.Background()

	first, _ := svc.Login(ctx, "admin", "123456")
	second, err := svc.Login(ctx, "admin", "123456")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Authenticate(ctx, first.Token); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("old token: err = %v", err)
	}
	if _, err := svc.Authenticate(ctx, second.Token); err != nil {
		t.Fatalf("new token: %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(t, f)
	ctx := context.Background()

	resp, _ := svc.Login(ctx, "admin", "123456")
	sess, err := svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, sess); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("after logout: err = %v", err)
	}
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(t, f)
	if _, err := svc.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, jwt.ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(t, f)
	ctx := context.Background()

	resp, _ := svc.Login(ctx, "admin", "123456")
	sess, _ := svc.Authenticate(ctx, resp.Token)

	if err := svc.ChangePassword(ctx, sess, "bad", "abcdef"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("wrong old password: err = %v", err)
	}
	if err := svc.ChangePassword(ctx, sess, "123456", "abc"); err == nil {
		t.Fatal("short password should fail")
	}
	if err := svc.ChangePassword(ctx, sess, "123456", "s3cret!"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := svc.Login(ctx, "admin", "s3cret!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
