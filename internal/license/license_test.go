package license

import "testing"

func TestTierFromKeyPrefix(t *testing.T) {
	cases := []struct {
		key  string
		tier Tier
	}{
		{"", TierBase},
		{"garbage", TierBase},
		{"HEARTH_PRO_abc123", TierPro},
		{"HEARTH_ENT_abc123", TierEnterprise},
	}
	for _, c := range cases {
		if got := New(c.key).Tier(); got != c.tier {
			t.Fatalf("key %q: expected %s got %s", c.key, c.tier, got)
		}
	}
}

func TestTierIsCached(t *testing.T) {
	v := New("HEARTH_PRO_x")
	if v.Tier() != TierPro {
		t.Fatalf("expected pro")
	}
	// Mutating the key after first resolution must not change the tier.
	v.key = ""
	if v.Tier() != TierPro {
		t.Fatalf("tier not cached")
	}
}

func TestCanAccess(t *testing.T) {
	base := New("")
	pro := New("HEARTH_PRO_x")
	ent := New("HEARTH_ENT_x")

	if base.CanAccess(FeatureShadowNodes) {
		t.Fatalf("base should not access shadow nodes")
	}
	if !pro.CanAccess(FeatureShadowNodes) {
		t.Fatalf("pro should access shadow nodes")
	}
	if pro.CanAccess(FeatureTeamSync) {
		t.Fatalf("team sync is enterprise only")
	}
	if !ent.CanAccess(FeatureTeamSync) {
		t.Fatalf("enterprise should access team sync")
	}
	// Unknown features default to allowed.
	if !base.CanAccess("prose_mode") {
		t.Fatalf("ungated features should be allowed")
	}
}

func TestCheckAccessDenialMessage(t *testing.T) {
	a := New("").CheckAccess(FeatureComicMode)
	if a.Allowed || a.Message == "" {
		t.Fatalf("expected denial with message, got %+v", a)
	}
}

func TestMaxConcurrentModels(t *testing.T) {
	if n := New("").MaxConcurrentModels(); n != 1 {
		t.Fatalf("base limit: expected 1 got %d", n)
	}
	if n := New("HEARTH_PRO_x").MaxConcurrentModels(); n != 3 {
		t.Fatalf("pro limit: expected 3 got %d", n)
	}
	if n := New("HEARTH_ENT_x").MaxConcurrentModels(); n != 3 {
		t.Fatalf("enterprise limit: expected 3 got %d", n)
	}
}
