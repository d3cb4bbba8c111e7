package commission

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// stubRates é uma tabela de taxas fixa para os testes.
type stubRates struct {
	def, setter, closer *decimal.Decimal
}

func pct(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (s stubRates) lookup(p *decimal.Decimal) (decimal.Decimal, bool, error) {
	if p == nil {
		return decimal.Zero, false, nil
	}
	return *p, true, nil
}

func (s stubRates) DefaultRate(uint) (decimal.Decimal, bool, error) { return s.lookup(s.def) }
func (s stubRates) SetterRate(uint) (decimal.Decimal, bool, error)  { return s.lookup(s.setter) }
func (s stubRates) CloserRate(uint) (decimal.Decimal, bool, error)  { return s.lookup(s.closer) }

func TestAllocateSelfGen(t *testing.T) {
	total := decimal.RequireFromString("25000.00")
	rates := stubRates{def: pct("0.10")}

	got, err := Allocate(ArrangementSelfGen, Assignments{SelfGen: 7}, total, rates)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	c := got[0]
	if c.RepID != 7 || c.Role != RoleSelfGen {
		t.Errorf("record %+v, want rep 7 self_gen", c)
	}
	if want := decimal.RequireFromString("2500.00"); !c.CommissionAmount.Equal(want) {
		t.Errorf("amount = %s, want %s", c.CommissionAmount, want)
	}
	if c.RateMissing {
		t.Error("rate was configured, RateMissing must be false")
	}
}

func TestAllocateSetterCloser(t *testing.T) {
	total := decimal.RequireFromString("10000.00")

	t.Run("both roles", func(t *testing.T) {
		rates := stubRates{setter: pct("0.03"), closer: pct("0.07")}
		got, err := Allocate(ArrangementSetterCloser, Assignments{Setter: 1, Closer: 2}, total, rates)
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d records, want 2", len(got))
		}
		if !got[0].CommissionAmount.Equal(decimal.RequireFromString("300.00")) {
			t.Errorf("setter amount = %s", got[0].CommissionAmount)
		}
		if !got[1].CommissionAmount.Equal(decimal.RequireFromString("700.00")) {
			t.Errorf("closer amount = %s", got[1].CommissionAmount)
		}
	})

	t.Run("closer only", func(t *testing.T) {
		rates := stubRates{closer: pct("0.07")}
		got, err := Allocate(ArrangementSetterCloser, Assignments{Closer: 2}, total, rates)
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if len(got) != 1 || got[0].Role != RoleCloser {
			t.Fatalf("got %+v, want single closer record", got)
		}
	})

	t.Run("nobody assigned", func(t *testing.T) {
		_, err := Allocate(ArrangementSetterCloser, Assignments{}, total, stubRates{})
		if !errors.Is(err, ErrNoRepAssigned) {
			t.Fatalf("err = %v, want ErrNoRepAssigned", err)
		}
	})
}

func TestAllocateMissingRateDoesNotBlock(t *testing.T) {
	total := decimal.RequireFromString("9999.99")
	got, err := Allocate(ArrangementSelfGen, Assignments{SelfGen: 3}, total, stubRates{})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	c := got[0]
	if !c.RateMissing {
		t.Error("RateMissing must be set when the rep has no rate")
	}
	if !c.CommissionPercent.IsZero() || !c.CommissionAmount.IsZero() {
		t.Errorf("missing rate must allocate zero, got pct=%s amount=%s", c.CommissionPercent, c.CommissionAmount)
	}
}

func TestAllocateUnknownArrangement(t *testing.T) {
	if _, err := Allocate("split_three_ways", Assignments{SelfGen: 1}, decimal.Zero, stubRates{}); err == nil {
		t.Fatal("unknown arrangement must fail")
	}
}

func TestRecompute(t *testing.T) {
	ten := pct("0.10")
	override := decimal.RequireFromString("1234.00")

	unpaid := &Commission{CommissionPercent: *ten, CommissionAmount: decimal.RequireFromString("1000.00")}
	paid := &Commission{CommissionPercent: *ten, CommissionAmount: decimal.RequireFromString("1000.00"), Paid: true}
	overridden := &Commission{CommissionPercent: *ten, CommissionAmount: decimal.RequireFromString("1000.00"), OverrideAmount: &override}

	changed := Recompute([]*Commission{unpaid, paid, overridden}, decimal.RequireFromString("20000.00"))

	if len(changed) != 2 {
		t.Fatalf("changed %d records, want 2", len(changed))
	}
	if want := decimal.RequireFromString("2000.00"); !unpaid.CommissionAmount.Equal(want) {
		t.Errorf("unpaid recomputed to %s, want %s", unpaid.CommissionAmount, want)
	}
	if want := decimal.RequireFromString("1000.00"); !paid.CommissionAmount.Equal(want) {
		t.Errorf("paid record must stay frozen, got %s", paid.CommissionAmount)
	}
	if !overridden.CommissionAmount.Equal(override) {
		t.Errorf("override must win, got %s", overridden.CommissionAmount)
	}
}

func TestRecomputeNoChangeReturnsNothing(t *testing.T) {
	c := &Commission{CommissionPercent: *pct("0.10"), CommissionAmount: decimal.RequireFromString("1000.00")}
	if changed := Recompute([]*Commission{c}, decimal.RequireFromString("10000.00")); len(changed) != 0 {
		t.Fatalf("changed %d records on identical total", len(changed))
	}
}

func TestCheckRoleConflict(t *testing.T) {
	selfGen := []Commission{{Role: RoleSelfGen}}
	split := []Commission{{Role: RoleSetter}, {Role: RoleCloser}}

	if err := CheckRoleConflict(selfGen, RoleSetter); !errors.Is(err, ErrConflictingRoles) {
		t.Errorf("self_gen + setter: err = %v, want ErrConflictingRoles", err)
	}
	if err := CheckRoleConflict(selfGen, RoleSelfGen); !errors.Is(err, ErrConflictingRoles) {
		t.Errorf("self_gen + second self_gen: err = %v, want ErrConflictingRoles", err)
	}
	if err := CheckRoleConflict(split, RoleSelfGen); !errors.Is(err, ErrConflictingRoles) {
		t.Errorf("split + self_gen: err = %v, want ErrConflictingRoles", err)
	}
	if err := CheckRoleConflict(split, RoleSetter); err != nil {
		t.Errorf("setter alongside closer must pass: %v", err)
	}
	if err := CheckRoleConflict(nil, RoleSelfGen); err != nil {
		t.Errorf("first record never conflicts: %v", err)
	}
}

func TestEffectiveAmount(t *testing.T) {
	c := Commission{CommissionAmount: decimal.RequireFromString("500.00")}
	if !c.EffectiveAmount().Equal(decimal.RequireFromString("500.00")) {
		t.Error("without override the computed amount is owed")
	}
	o := decimal.RequireFromString("750.00")
	c.OverrideAmount = &o
	if !c.EffectiveAmount().Equal(o) {
		t.Error("override must take precedence")
	}
}
