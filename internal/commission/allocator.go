// internal/commission/allocator.go
package commission

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Arrangement escolhido na criação do deal.
type Arrangement string

const (
	ArrangementSelfGen      Arrangement = "self_gen"
	ArrangementSetterCloser Arrangement = "setter_closer"
)

var (
	ErrNoRepAssigned    = errors.New("no rep assigned for setter/closer arrangement")
	ErrConflictingRoles = errors.New("conflicting commission roles on deal")
)

// Assignments nomeia os reps por papel. Zero significa não atribuído.
type Assignments struct {
	SelfGen uint `json:"selfGen"`
	Setter  uint `json:"setter"`
	Closer  uint `json:"closer"`
}

// RateLookup is the external rate table. The second return reports
// whether the rep has a rate configured at all.
type RateLookup interface {
	DefaultRate(repID uint) (decimal.Decimal, bool, error)
	SetterRate(repID uint) (decimal.Decimal, bool, error)
	CloserRate(repID uint) (decimal.Decimal, bool, error)
}

// Allocate monta o conjunto de comissões de um deal recém-criado.
// A missing rate never blocks deal creation: the record goes in with
// percent zero and RateMissing set, to be overridden by an admin.
func Allocate(arr Arrangement, a Assignments, total decimal.Decimal, rates RateLookup) ([]Commission, error) {
	switch arr {
	case ArrangementSelfGen:
		pct, found, err := rates.DefaultRate(a.SelfGen)
		if err != nil {
			return nil, fmt.Errorf("lookup default rate: %w", err)
		}
		return []Commission{newRecord(a.SelfGen, RoleSelfGen, pct, found, total)}, nil

	case ArrangementSetterCloser:
		if a.Setter == 0 && a.Closer == 0 {
			return nil, ErrNoRepAssigned
		}
		var out []Commission
		if a.Setter != 0 {
			pct, found, err := rates.SetterRate(a.Setter)
			if err != nil {
				return nil, fmt.Errorf("lookup setter rate: %w", err)
			}
			out = append(out, newRecord(a.Setter, RoleSetter, pct, found, total))
		}
		if a.Closer != 0 {
			pct, found, err := rates.CloserRate(a.Closer)
			if err != nil {
				return nil, fmt.Errorf("lookup closer rate: %w", err)
			}
			out = append(out, newRecord(a.Closer, RoleCloser, pct, found, total))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown commission arrangement %q", arr)
	}
}

func newRecord(repID uint, role Role, pct decimal.Decimal, rateFound bool, total decimal.Decimal) Commission {
	if !rateFound {
		pct = decimal.Zero
	}
	return Commission{
		RepID:             repID,
		Role:              role,
		CommissionPercent: pct,
		CommissionAmount:  amountFor(pct, total),
		RateMissing:       !rateFound,
	}
}

func amountFor(pct, total decimal.Decimal) decimal.Decimal {
	return pct.Mul(total).Round(2)
}

// Recompute aplica um novo total de contrato às comissões ainda não
// pagas e devolve as que mudaram. Paid records are frozen; overrides
// always win over the computed amount.
func Recompute(records []*Commission, total decimal.Decimal) []*Commission {
	var changed []*Commission
	for _, c := range records {
		if c.Paid {
			continue
		}
		next := amountFor(c.CommissionPercent, total)
		if c.OverrideAmount != nil {
			next = *c.OverrideAmount
		}
		if !c.CommissionAmount.Equal(next) {
			c.CommissionAmount = next
			changed = append(changed, c)
		}
	}
	return changed
}

// CheckRoleConflict valida a exclusividade de papéis antes de gravar um
// novo registro: self_gen nunca convive com outro registro no mesmo
// deal, seja outro self_gen, seja setter/closer.
func CheckRoleConflict(existing []Commission, next Role) error {
	for _, c := range existing {
		if c.Role == RoleSelfGen || next == RoleSelfGen {
			return ErrConflictingRoles
		}
	}
	return nil
}
