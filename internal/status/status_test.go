package status

import (
	"errors"
	"testing"
)

func TestDescribeKnowsEveryCurrentStatus(t *testing.T) {
	for _, s := range All() {
		info, err := Describe(s)
		if err != nil {
			t.Fatalf("Describe(%q): %v", s, err)
		}
		if info.Status != s {
			t.Errorf("Describe(%q) returned info for %q", s, info.Status)
		}
		if info.Legacy {
			t.Errorf("%q listed by All() but marked legacy", s)
		}
	}
}

func TestDescribeUnknown(t *testing.T) {
	for _, s := range []string{"", "LEAD", "approved", "paid "} {
		if _, err := Describe(s); !errors.Is(err, ErrUnknownStatus) {
			t.Errorf("Describe(%q) = %v, want ErrUnknownStatus", s, err)
		}
	}
}

func TestLegacyAliasesResolve(t *testing.T) {
	tests := []struct {
		legacy string
		super  string
	}{
		{LegacyPermit, InstallScheduled},
		{LegacyMaterialsOrdered, InstallScheduled},
		{LegacyMaterialsDelivered, InstallScheduled},
		{LegacyAdjusterScheduled, Signed},
	}
	for _, tt := range tests {
		info, err := Describe(tt.legacy)
		if err != nil {
			t.Fatalf("Describe(%q): %v", tt.legacy, err)
		}
		if !info.Legacy {
			t.Errorf("%q should be marked legacy", tt.legacy)
		}
		if info.SupersededBy != tt.super {
			t.Errorf("%q superseded by %q, want %q", tt.legacy, info.SupersededBy, tt.super)
		}

		legacyRank, _ := Rank(tt.legacy)
		superRank, _ := Rank(tt.super)
		if legacyRank != superRank {
			t.Errorf("%q ranks %d but its successor %q ranks %d", tt.legacy, legacyRank, tt.super, superRank)
		}
	}
}

func TestRankOrderingFollowsWorkflow(t *testing.T) {
	path := []string{
		Lead, Signed, InstallScheduled, Installed,
		CollectACV, CollectDeductible, InvoiceSent, DepreciationCollected,
		Pending, Complete, Paid,
	}
	prev := -1
	for _, s := range path {
		r, err := Rank(s)
		if err != nil {
			t.Fatalf("Rank(%q): %v", s, err)
		}
		if r <= prev {
			t.Errorf("Rank(%q) = %d, not after previous rank %d", s, r, prev)
		}
		prev = r
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(Paid) || !IsTerminal(Cancelled) {
		t.Error("paid and cancelled must be terminal")
	}
	for _, s := range []string{Lead, Pending, Complete, OnHold} {
		if IsTerminal(s) {
			t.Errorf("%q must not be terminal", s)
		}
	}
}
