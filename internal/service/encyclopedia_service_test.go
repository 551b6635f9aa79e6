package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/plantcare/internal/db"
)

func TestEncyclopediaServiceGetByNameRendersMarkdown(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	if _, err := db.EnsureEncyclopedia(gdb); err != nil {
		t.Fatalf("seed encyclopedia: %v", err)
	}

	svc := NewEncyclopediaService(gdb)
	ctx := context.Background()

	entries, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != len(db.DefaultEncyclopediaEntries()) {
		t.Fatalf("expected %d entries, got %d", len(db.DefaultEncyclopediaEntries()), len(entries))
	}

	view, err := svc.GetByName(ctx, "  monstera ")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if view.Entry.Name != "Monstera" {
		t.Fatalf("unexpected entry: %s", view.Entry.Name)
	}
	if !strings.Contains(string(view.CareRulesHTML), "<") {
		t.Fatalf("expected rendered html, got %q", view.CareRulesHTML)
	}

	if _, err := svc.GetByName(ctx, "Baobab"); !errors.Is(err, ErrEncyclopediaNotFound) {
		t.Fatalf("expected ErrEncyclopediaNotFound, got %v", err)
	}
}

func TestEncyclopediaServiceRenderSanitizes(t *testing.T) {
	svc := NewEncyclopediaService(nil)

	html, err := svc.Render("**Water** weekly\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "<strong>Water</strong>") {
		t.Fatalf("expected bold text, got %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("script tag survived sanitizing: %q", out)
	}
}

func TestUserServiceRegisterAndAuthenticate(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(gdb)
	ctx := context.Background()

	user, err := svc.Register(ctx, " alice ", "secret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Login != "alice" || user.Role != db.RoleUser || user.Password == "secret-pass" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := svc.Register(ctx, "alice", "another-pass"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := svc.Register(ctx, "bob", "123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected short password to be rejected, got %v", err)
	}

	if _, err := svc.Authenticate(ctx, "alice", "secret-pass"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "secret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown login, got %v", err)
	}
}
