package orchestrator

import (
	"reflect"
	"testing"

	"hearthd/internal/license"
)

func TestStatusFreshStart(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, baseKey, echoRuntime{}, "")
	st := o.Status()
	if st.WorkerAlive {
		t.Fatalf("fresh daemon must not report a live worker")
	}
	if len(st.ActiveModels) != 0 || len(st.ActiveLocks) != 0 {
		t.Fatalf("fresh daemon must have no residents: %+v", st)
	}
	if st.MaxConcurrent != 1 {
		t.Fatalf("base tier limit should be 1, got %d", st.MaxConcurrent)
	}
	if st.LicenseTier != string(license.TierBase) {
		t.Fatalf("expected base tier, got %s", st.LicenseTier)
	}
	if len(st.UnlockedFeatures) != 0 {
		t.Fatalf("base tier must have no gated features unlocked: %v", st.UnlockedFeatures)
	}
}

func TestStatusReportsTierLimit(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, proKey, echoRuntime{}, "")
	st := o.Status()
	if st.MaxConcurrent != 3 {
		t.Fatalf("pro tier limit should be 3, got %d", st.MaxConcurrent)
	}
	if st.LicenseTier != string(license.TierPro) {
		t.Fatalf("expected pro tier, got %s", st.LicenseTier)
	}
	want := []string{
		license.FeatureComicMode,
		license.FeatureMultiModel,
		license.FeatureShadowNodes,
		license.FeatureVisualTracking,
	}
	if !reflect.DeepEqual(st.UnlockedFeatures, want) {
		t.Fatalf("pro features = %v, want %v", st.UnlockedFeatures, want)
	}
}

func TestStatusSortedAndSnapshotted(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, proKey, echoRuntime{}, "")
	for _, name := range []string{"zeta", "alpha", "mid"} {
		o.Request(name, false)
	}
	st := o.Status()
	want := []string{"alpha", "mid", "zeta"}
	for i, name := range want {
		if st.ActiveModels[i].Name != name {
			t.Fatalf("models not sorted: %+v", st.ActiveModels)
		}
		if st.ActiveLocks[i] != name {
			t.Fatalf("locks not sorted: %v", st.ActiveLocks)
		}
	}
	// Mutating the snapshot must not leak back into the table.
	st.ActiveModels[0].State = "bogus"
	if got := o.SlotState("alpha"); got != StateWarm {
		t.Fatalf("snapshot mutation leaked into slot table: %s", got)
	}
}
