// Package licensing implements license tiers and the feature gates that
// keep enterprise-only processors behind a commercial license.
package licensing

import (
	"fmt"
	"strings"
	"time"
)

// Tier is a commercial license level.
type Tier string

const (
	TierCommunity    Tier = "community"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

// ParseTier normalizes a tier string. Unknown values fail rather than
// silently downgrading.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierCommunity, "":
		return TierCommunity, nil
	case TierProfessional:
		return TierProfessional, nil
	case TierEnterprise:
		return TierEnterprise, nil
	}
	return "", fmt.Errorf("unknown license tier %q", s)
}

// Feature names gated by tier.
const (
	FeatureBasicReports         = "basic_reports"
	FeatureBasicSearch          = "basic_search"
	FeatureBasicTemplates       = "basic_templates"
	FeaturePDFExport            = "pdf_export"
	FeatureWordExport           = "word_export"
	FeatureExcelExport          = "excel_export"
	FeatureAnomalyDetection     = "anomaly_detection"
	FeatureRecommendationEngine = "recommendation_engine"
	FeatureCustomBranding       = "custom_branding"
	FeaturePrioritySupport      = "priority_support"
	FeatureMultiTenant          = "multi_tenant"
	FeatureSSO                  = "sso"
	FeatureAuditLogs            = "audit_logs"
	FeatureAdvancedAnalytics    = "advanced_analytics"
)

// Limit names. A zero limit means unlimited.
const (
	LimitReportsMonth  = "max_reports_month"
	LimitTemplates     = "max_templates"
	LimitUsers         = "max_users"
	LimitAPIRate       = "api_rate_limit"
	LimitAIRequestsDay = "ai_requests_day"
)

// Info describes an issued license.
type Info struct {
	Tier         Tier
	Organization string
	IssuedDate   time.Time
	ExpiryDate   *time.Time
	MaxUsers     int
	Features     []string
}

// Expired reports whether the license has passed its expiry date.
// Perpetual licenses never expire.
func (i Info) Expired() bool {
	if i.ExpiryDate == nil {
		return false
	}
	return time.Now().After(*i.ExpiryDate)
}

// HasFeature reports whether the license names the feature. The sentinel
// "all" grants everything.
func (i Info) HasFeature(feature string) bool {
	for _, f := range i.Features {
		if f == "all" || f == feature {
			return true
		}
	}
	return false
}
