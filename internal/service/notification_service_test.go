package service

import (
	"context"
	"errors"
	"testing"

	"github.com/plantcare/internal/locale"
	"go.uber.org/zap"
)

func TestSystemSettingServiceDefaultsAndUpdates(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(gdb, SystemSettings{Language: "fr"})
	ctx := context.Background()

	settings, err := svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.NotificationsGranted {
		t.Fatalf("expected notifications denied by default")
	}
	if settings.Language != locale.LanguageRussian {
		t.Fatalf("expected fallback language ru, got %q", settings.Language)
	}

	if err := svc.SetNotificationPermission(ctx, true); err != nil {
		t.Fatalf("grant permission: %v", err)
	}
	if err := svc.SetLanguage(ctx, "en-US"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if err := svc.SetLanguage(ctx, "klingon"); err == nil {
		t.Fatalf("expected unsupported language to fail")
	}

	settings, err = svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if !settings.NotificationsGranted || settings.Language != locale.LanguageEnglish {
		t.Fatalf("unexpected settings after update: %+v", settings)
	}

	if err := svc.SetNotificationPermission(ctx, false); err != nil {
		t.Fatalf("revoke permission: %v", err)
	}
	settings, _ = svc.GetSettings(ctx)
	if settings.NotificationsGranted {
		t.Fatalf("expected permission to be revoked")
	}
}

func TestNotificationServiceRespectsPermission(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	settings := NewSystemSettingService(gdb, SystemSettings{})
	svc := NewNotificationService(gdb, settings, zap.NewNop())
	ctx := context.Background()

	if err := svc.Notify(ctx, TierToday, "title", "body"); err != nil {
		t.Fatalf("notify without permission should be silent, got %v", err)
	}
	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no notifications without permission, got %d", len(items))
	}
}

func TestNotificationServiceReplacesSlot(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	settings := NewSystemSettingService(gdb, SystemSettings{NotificationsGranted: true})
	svc := NewNotificationService(gdb, settings, nil)
	ctx := context.Background()

	if err := svc.Notify(ctx, TierTomorrow, "first", "one"); err != nil {
		t.Fatalf("first notify: %v", err)
	}
	if err := svc.Notify(ctx, TierTomorrow, "second", "two"); err != nil {
		t.Fatalf("second notify: %v", err)
	}
	if err := svc.Notify(ctx, TierToday, "today", "now"); err != nil {
		t.Fatalf("today notify: %v", err)
	}

	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(items))
	}
	if items[0].Slot != 1001 || items[1].Slot != 1002 {
		t.Fatalf("unexpected slots: %d, %d", items[0].Slot, items[1].Slot)
	}
	if items[1].Title != "second" || items[1].Body != "two" {
		t.Fatalf("expected tomorrow slot to hold latest reminder, got %+v", items[1])
	}

	if err := svc.Dismiss(ctx, TierToday); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	items, _ = svc.List(ctx)
	if len(items) != 1 {
		t.Fatalf("expected 1 slot after dismiss, got %d", len(items))
	}

	if err := svc.Notify(ctx, Tier("weekly"), "x", "y"); !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
}

func TestParseTier(t *testing.T) {
	for _, tier := range Tiers() {
		got, err := ParseTier(string(tier))
		if err != nil || got != tier {
			t.Fatalf("parse %q: got %q, %v", tier, got, err)
		}
	}
	if _, err := ParseTier("later"); !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
	if !TierToday.Urgent() || TierTomorrow.Urgent() {
		t.Fatalf("only today tier should be urgent")
	}
}
