package storage_test

import (
	"testing"

	"github.com/JaimeStill/attest/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "disbursements" {
		t.Errorf("container_name: got %s, want disbursements", cfg.ContainerName)
	}
	if cfg.KeyPrefix != "plans" {
		t.Errorf("key_prefix: got %s, want plans", cfg.KeyPrefix)
	}
	if cfg.Enabled() {
		t.Error("storage should be disabled without a connection string")
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_CONTAINER", "outbox")
	t.Setenv("TEST_CONN", "override-connection")
	t.Setenv("TEST_PREFIX", "instructions")

	env := &storage.Env{
		ContainerName:    "TEST_CONTAINER",
		ConnectionString: "TEST_CONN",
		KeyPrefix:        "TEST_PREFIX",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "outbox" {
		t.Errorf("container_name: got %s, want outbox", cfg.ContainerName)
	}
	if cfg.ConnectionString != "override-connection" {
		t.Errorf("connection_string: got %s, want override-connection", cfg.ConnectionString)
	}
	if cfg.KeyPrefix != "instructions" {
		t.Errorf("key_prefix: got %s, want instructions", cfg.KeyPrefix)
	}
}

func TestFinalizeRejectsTraversalPrefix(t *testing.T) {
	cfg := storage.Config{KeyPrefix: "../plans"}
	if err := cfg.Finalize(nil); err == nil {
		t.Fatal("expected error for key_prefix with parent segment")
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{
		ContainerName:    "disbursements",
		ConnectionString: "base-conn",
	}

	overlay := storage.Config{ConnectionString: "overlay-conn"}
	base.Merge(&overlay)

	if base.ContainerName != "disbursements" {
		t.Errorf("container_name should remain disbursements, got %s", base.ContainerName)
	}
	if base.ConnectionString != "overlay-conn" {
		t.Errorf("connection_string: got %s, want overlay-conn", base.ConnectionString)
	}
}

func TestServiceURL(t *testing.T) {
	t.Run("enables storage", func(t *testing.T) {
		cfg := storage.Config{ServiceURL: "https://attest.blob.core.windows.net"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if !cfg.Enabled() {
			t.Error("service url should enable storage")
		}
	})

	t.Run("requires https", func(t *testing.T) {
		cfg := storage.Config{ServiceURL: "http://attest.blob.core.windows.net"}
		if err := cfg.Finalize(nil); err == nil {
			t.Fatal("expected error for non-https service url")
		}
	})

	t.Run("ignored when connection string set", func(t *testing.T) {
		cfg := storage.Config{ConnectionString: "conn", ServiceURL: "http://local"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
	})
}
