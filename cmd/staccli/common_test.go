package main

import (
	"testing"
	"time"

	"github.com/terrastac/dataplane/internal/config"
)

func TestApplyStoreOpts(t *testing.T) {
	var cfg config.StoreConfig
	applyStoreOpts(&cfg, map[string]string{
		"region":            "us-west-2",
		"access-key-id":     "AKIAEXAMPLE",
		"secret-access-key": "shh",
		"skip-signature":    "true",
		"azure-account-url": "https://example.blob.core.windows.net",
		"http-timeout":      "5s",
	})

	if cfg.S3.Region != "us-west-2" {
		t.Errorf("expected region to be set, got %q", cfg.S3.Region)
	}
	if cfg.S3.AccessKeyID != "AKIAEXAMPLE" {
		t.Errorf("expected access key id to be set, got %q", cfg.S3.AccessKeyID)
	}
	if !cfg.S3.SkipSignature {
		t.Error("expected skip-signature to parse as true")
	}
	if cfg.Azure.AccountURL != "https://example.blob.core.windows.net" {
		t.Errorf("expected azure account url to be set, got %q", cfg.Azure.AccountURL)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("expected http timeout 5s, got %s", cfg.HTTPTimeout)
	}
}

func TestApplyStoreOptsIgnoresUnknownKeys(t *testing.T) {
	var cfg config.StoreConfig
	applyStoreOpts(&cfg, map[string]string{"nonsense": "value"})
	if cfg.S3.Region != "" || cfg.Azure.AccountURL != "" {
		t.Error("expected unknown opt keys to leave config untouched")
	}
}
