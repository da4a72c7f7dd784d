// Package license resolves the operator's entitlement tier and gates
// feature access. It is deliberately self-contained: every consumer asks
// the validator directly instead of trusting upstream checks.
package license

import (
	"os"
	"sort"
	"strings"
	"sync"
)

// Tier is the entitlement level of the local operator.
type Tier string

const (
	TierBase       Tier = "base"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Feature identifiers gated by tier.
const (
	FeatureShadowNodes    = "shadow_nodes"
	FeatureVisualTracking = "visual_tracking"
	FeatureMultiModel     = "multi_model"
	FeatureComicMode      = "comic_mode"
	FeatureCustomGrammars = "custom_grammars"
	FeatureTeamSync       = "team_sync"
)

// EnvKey is the environment variable consulted when no key is configured.
const EnvKey = "HEARTH_LICENSE_KEY"

// Key prefixes accepted for each paid tier.
var keyPrefixes = map[string]Tier{
	"HEARTH_PRO_": TierPro,
	"HEARTH_ENT_": TierEnterprise,
}

// featureTiers maps a feature to the tiers allowed to use it.
// Features absent from the map are available to everyone.
var featureTiers = map[string][]Tier{
	FeatureShadowNodes:    {TierPro, TierEnterprise},
	FeatureVisualTracking: {TierPro, TierEnterprise},
	FeatureMultiModel:     {TierPro, TierEnterprise},
	FeatureComicMode:      {TierPro, TierEnterprise},
	FeatureCustomGrammars: {TierEnterprise},
	FeatureTeamSync:       {TierEnterprise},
}

var denialMessages = map[string]string{
	FeatureShadowNodes:    "FEATURE LOCKED: shadow nodes require a Pro license.",
	FeatureVisualTracking: "FEATURE LOCKED: visual tracking requires a Pro license.",
	FeatureMultiModel:     "FEATURE LOCKED: concurrent model mixing requires a Pro license.",
	FeatureComicMode:      "FEATURE LOCKED: comic mode requires a Pro license.",
	FeatureCustomGrammars: "FEATURE LOCKED: custom grammar files require an Enterprise license.",
	FeatureTeamSync:       "FEATURE LOCKED: team sync requires an Enterprise license.",
}

// Access is the result of a feature check.
type Access struct {
	Allowed bool
	Message string
}

// Validator resolves the license key to a tier once and caches the result.
type Validator struct {
	once sync.Once
	key  string
	tier Tier
}

// New returns a validator for an explicit key. An empty key falls back to
// the EnvKey environment variable.
func New(key string) *Validator {
	return &Validator{key: key}
}

// FromEnv returns a validator backed solely by the environment.
func FromEnv() *Validator {
	return &Validator{}
}

func (v *Validator) resolve() {
	v.once.Do(func() {
		key := v.key
		if key == "" {
			key = os.Getenv(EnvKey)
		}
		v.tier = TierBase
		for prefix, tier := range keyPrefixes {
			if strings.HasPrefix(key, prefix) {
				v.tier = tier
				return
			}
		}
	})
}

// Tier reports the resolved entitlement tier.
func (v *Validator) Tier() Tier {
	v.resolve()
	return v.tier
}

// IsPro reports whether the tier is Pro or above.
func (v *Validator) IsPro() bool {
	t := v.Tier()
	return t == TierPro || t == TierEnterprise
}

// CanAccess reports whether the current tier may use the feature.
func (v *Validator) CanAccess(feature string) bool {
	allowed, ok := featureTiers[feature]
	if !ok {
		// Unknown features default to allowed.
		return true
	}
	t := v.Tier()
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

// CheckAccess returns the access decision plus a user-facing denial message.
func (v *Validator) CheckAccess(feature string) Access {
	if v.CanAccess(feature) {
		return Access{Allowed: true, Message: "access granted"}
	}
	msg, ok := denialMessages[feature]
	if !ok {
		msg = "FEATURE LOCKED: " + feature + " requires an upgraded license."
	}
	return Access{Allowed: false, Message: msg}
}

// MaxConcurrentModels derives the orchestrator's concurrency limit from
// the tier: Base keeps a single resident model, paid tiers may keep an
// embedding model and a generation model warm side by side.
func (v *Validator) MaxConcurrentModels() int {
	if v.IsPro() {
		return 3
	}
	return 1
}

// UnlockedFeatures lists every gated feature available to the current
// tier, sorted for stable status payloads.
func (v *Validator) UnlockedFeatures() []string {
	out := make([]string, 0, len(featureTiers))
	for f := range featureTiers {
		if v.CanAccess(f) {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
