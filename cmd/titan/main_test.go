package main

import (
	"strings"
	"testing"

	"github.com/titanlabs/titan/pkg/licensing"
)

func TestParseGlobalFlags(t *testing.T) {
	flags, rest, err := parseGlobalFlags([]string{"--json", "--config", "titan.yaml", "list"})
	if err != nil {
		t.Fatalf("parseGlobalFlags failed: %v", err)
	}
	if !flags.JSON || flags.ConfigPath != "titan.yaml" {
		t.Errorf("unexpected flags: %+v", flags)
	}
	if len(rest) != 1 || rest[0] != "list" {
		t.Errorf("unexpected remaining args: %v", rest)
	}
}

func TestParseGlobalFlagsUnknown(t *testing.T) {
	if _, _, err := parseGlobalFlags([]string{"--bogus"}); err == nil {
		t.Fatal("expected error for unknown global flag")
	}
}

func TestCurrentLicenseDefaultsToCommunity(t *testing.T) {
	gate := licensing.NewGate()

	info := currentLicense(licensing.TierCommunity, gate)
	if info.Tier != licensing.TierCommunity {
		t.Errorf("expected community tier, got %v", info.Tier)
	}
	if info.HasFeature(licensing.FeatureAnomalyDetection) {
		t.Errorf("community license must not grant anomaly detection")
	}

	ent := currentLicense(licensing.TierEnterprise, gate)
	if !ent.HasFeature(licensing.FeatureAnomalyDetection) {
		t.Errorf("enterprise license must grant anomaly detection")
	}
	if ent.MaxUsers != gate.Limit(licensing.TierEnterprise, licensing.LimitUsers) {
		t.Errorf("max users should come from the gate, got %d", ent.MaxUsers)
	}
}

func TestGeneratedKeyValidates(t *testing.T) {
	gate := licensing.NewGate()

	key := licensing.GenerateKey(licensing.TierEnterprise, "Acme Corp", nil)
	if !strings.HasPrefix(key, "TITAN-ENT-ACME-") {
		t.Fatalf("unexpected key %q", key)
	}

	info, err := licensing.ValidateKey(key, "Acme Corp", gate)
	if err != nil {
		t.Fatalf("ValidateKey failed: %v", err)
	}
	if info.Tier != licensing.TierEnterprise || info.Organization != "Acme Corp" {
		t.Errorf("unexpected license info: %+v", info)
	}
}

func TestParseExpiry(t *testing.T) {
	if expiry, err := parseExpiry(""); err != nil || expiry != nil {
		t.Errorf("empty expiry should mean perpetual, got %v, %v", expiry, err)
	}
	expiry, err := parseExpiry("2027-06-30")
	if err != nil {
		t.Fatalf("parseExpiry failed: %v", err)
	}
	if expiry.Year() != 2027 || expiry.Month() != 6 {
		t.Errorf("unexpected expiry %v", expiry)
	}
	if _, err := parseExpiry("30/06/2027"); err == nil {
		t.Error("expected error for malformed date")
	}
}
