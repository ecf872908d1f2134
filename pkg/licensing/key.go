package licensing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// License key format: TITAN-TIER-ORG-HASH. A hash-based scheme good enough
// for self-hosted deployments; hosted installs validate against the
// license server instead.

// GenerateKey builds a license key for the tier and organization. A nil
// expiry issues a perpetual key.
func GenerateKey(tier Tier, organization string, expiry *time.Time) string {
	expiryTag := "perpetual"
	if expiry != nil {
		expiryTag = expiry.Format("2006-01-02")
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", tier, organization, expiryTag)))
	hash := strings.ToUpper(hex.EncodeToString(sum[:])[:16])

	tierCode := strings.ToUpper(string(tier)[:3])
	orgCode := orgTag(organization)
	return fmt.Sprintf("TITAN-%s-%s-%s", tierCode, orgCode, hash)
}

// ValidateKey parses a license key and returns the license it grants, or
// an error for malformed keys. Feature lists come from the gate so the
// deployed matrix and issued licenses stay in sync.
func ValidateKey(key, organization string, gate *Gate) (*Info, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != "TITAN" {
		return nil, fmt.Errorf("invalid license key format")
	}

	var tier Tier
	switch strings.ToLower(parts[1]) {
	case "com":
		tier = TierCommunity
	case "pro":
		tier = TierProfessional
	case "ent":
		tier = TierEnterprise
	default:
		return nil, fmt.Errorf("unknown license tier code %q", parts[1])
	}

	return &Info{
		Tier:         tier,
		Organization: organization,
		IssuedDate:   time.Now(),
		MaxUsers:     gate.Limit(tier, LimitUsers),
		Features:     gate.Features(tier),
	}, nil
}

// CommunityLicense is the default license for installs without a key.
func CommunityLicense(gate *Gate) *Info {
	return &Info{
		Tier:         TierCommunity,
		Organization: "Community User",
		IssuedDate:   time.Now(),
		MaxUsers:     gate.Limit(TierCommunity, LimitUsers),
		Features:     gate.Features(TierCommunity),
	}
}

func orgTag(organization string) string {
	tag := strings.ToUpper(organization)
	if len(tag) > 4 {
		tag = tag[:4]
	}
	for len(tag) < 4 {
		tag += "X"
	}
	return tag
}
