package licensing

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/titanlabs/titan/pkg/errors"
)

// Grant holds the feature switches and numeric limits for one tier.
type Grant struct {
	Features map[string]bool `yaml:"features"`
	Limits   map[string]int  `yaml:"limits"`
}

// Gate answers feature and limit questions per tier. A nil matrix entry
// falls back to the community grant.
type Gate struct {
	matrix map[Tier]Grant
}

// NewGate returns a gate with the built-in tier matrix.
func NewGate() *Gate {
	return &Gate{matrix: defaultMatrix()}
}

// LoadGate reads a YAML tier matrix and overlays it on the built-in
// defaults, so a deployment can flip individual switches without
// restating every tier.
func LoadGate(path string) (*Gate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read license matrix: %w", err)
	}

	var overlay map[Tier]Grant
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse license matrix: %w", err)
	}

	matrix := defaultMatrix()
	for tier, grant := range overlay {
		if _, err := ParseTier(string(tier)); err != nil {
			return nil, fmt.Errorf("license matrix: %w", err)
		}
		base := matrix[tier]
		for k, v := range grant.Features {
			base.Features[k] = v
		}
		for k, v := range grant.Limits {
			base.Limits[k] = v
		}
		matrix[tier] = base
	}
	return &Gate{matrix: matrix}, nil
}

// Enabled reports whether the feature is granted at the tier.
func (g *Gate) Enabled(tier Tier, feature string) bool {
	return g.grant(tier).Features[feature]
}

// Limit returns the numeric limit for the tier, zero meaning unlimited.
func (g *Gate) Limit(tier Tier, name string) int {
	return g.grant(tier).Limits[name]
}

// Features lists the enabled feature names for a tier, sorted.
func (g *Gate) Features(tier Tier) []string {
	grant := g.grant(tier)
	out := make([]string, 0, len(grant.Features))
	for name, on := range grant.Features {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Require fails with CodeUnlicensed when the feature is not granted at
// the tier.
func (g *Gate) Require(tier Tier, feature string) error {
	if g.Enabled(tier, feature) {
		return nil
	}
	return errors.New(errors.CodeUnlicensed, "feature requires a higher license tier", nil).
		WithContext("feature", feature).
		WithContext("current_tier", string(tier))
}

func (g *Gate) grant(tier Tier) Grant {
	if grant, ok := g.matrix[tier]; ok {
		return grant
	}
	return g.matrix[TierCommunity]
}

func defaultMatrix() map[Tier]Grant {
	return map[Tier]Grant{
		TierCommunity: {
			Features: map[string]bool{
				FeatureBasicReports:   true,
				FeatureBasicSearch:    true,
				FeatureBasicTemplates: true,
				FeaturePDFExport:      true,

				FeatureWordExport:           false,
				FeatureExcelExport:          false,
				FeatureAnomalyDetection:     false,
				FeatureRecommendationEngine: false,
				FeatureCustomBranding:       false,
				FeaturePrioritySupport:      false,
				FeatureMultiTenant:          false,
				FeatureSSO:                  false,
				FeatureAuditLogs:            false,
				FeatureAdvancedAnalytics:    false,
			},
			Limits: map[string]int{
				LimitReportsMonth:  50,
				LimitTemplates:     10,
				LimitUsers:         5,
				LimitAPIRate:       100,
				LimitAIRequestsDay: 20,
			},
		},
		TierProfessional: {
			Features: map[string]bool{
				FeatureBasicReports:   true,
				FeatureBasicSearch:    true,
				FeatureBasicTemplates: true,
				FeaturePDFExport:      true,
				FeatureWordExport:     true,
				FeatureExcelExport:    true,
				FeatureCustomBranding: true,

				FeatureAnomalyDetection:     false,
				FeatureRecommendationEngine: false,
				FeaturePrioritySupport:      false,
				FeatureMultiTenant:          false,
				FeatureSSO:                  false,
				FeatureAuditLogs:            false,
				FeatureAdvancedAnalytics:    false,
			},
			Limits: map[string]int{
				LimitReportsMonth:  500,
				LimitTemplates:     100,
				LimitUsers:         25,
				LimitAPIRate:       1000,
				LimitAIRequestsDay: 200,
			},
		},
		TierEnterprise: {
			Features: map[string]bool{
				FeatureBasicReports:         true,
				FeatureBasicSearch:          true,
				FeatureBasicTemplates:       true,
				FeaturePDFExport:            true,
				FeatureWordExport:           true,
				FeatureExcelExport:          true,
				FeatureAnomalyDetection:     true,
				FeatureRecommendationEngine: true,
				FeatureCustomBranding:       true,
				FeaturePrioritySupport:      true,
				FeatureMultiTenant:          true,
				FeatureSSO:                  true,
				FeatureAuditLogs:            true,
				FeatureAdvancedAnalytics:    true,
			},
			// Zero means unlimited.
			Limits: map[string]int{
				LimitReportsMonth:  0,
				LimitTemplates:     0,
				LimitUsers:         0,
				LimitAPIRate:       0,
				LimitAIRequestsDay: 0,
			},
		},
	}
}
