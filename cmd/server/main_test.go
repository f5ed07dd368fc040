package main

import (
	"context"
	"testing"

	"pharmapos/internal/config"
	"pharmapos/internal/store/memory"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{SessionSecret: "short", ShopPassword: "shop-pass-123"})
	if err == nil {
		t.Fatalf("expected short secret to be rejected")
	}

	secret := "0123456789abcdef0123456789abcdef"
	for _, password := range []string{"", "short", "password1", "zzzzzzzz", "abcdefgh", "98765432"} {
		if err := validateSecurityConfig(config.Config{SessionSecret: secret, ShopPassword: password}); err == nil {
			t.Fatalf("expected weak password %q to be rejected", password)
		}
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{SessionSecret: "0123456789abcdef0123456789abcdef", ShopPassword: "napa-739154"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestOpenGatewaySelectsDriver(t *testing.T) {
	ctx := context.Background()

	gw, err := openGateway(ctx, config.Config{StoreDriver: "memory"})
	if err != nil {
		t.Fatalf("memory driver: %v", err)
	}
	if _, ok := gw.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", gw)
	}

	path := t.TempDir() + "/shop.db"
	gw, err = openGateway(ctx, config.Config{StoreDriver: "bolt", BoltPath: path})
	if err != nil {
		t.Fatalf("bolt driver: %v", err)
	}
	_ = gw.Close()

	if _, err := openGateway(ctx, config.Config{StoreDriver: "postgres"}); err == nil {
		t.Fatalf("expected postgres without DATABASE_URL to fail")
	}
	if _, err := openGateway(ctx, config.Config{StoreDriver: "sqlite"}); err == nil {
		t.Fatalf("expected unknown driver to fail")
	}
}
