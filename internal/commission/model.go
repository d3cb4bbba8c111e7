// internal/commission/model.go
package commission

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Role define como o rep participou da venda.
type Role string

const (
	RoleSelfGen Role = "self_gen"
	RoleSetter  Role = "setter"
	RoleCloser  Role = "closer"
)

// Commission representa a fatia de comissão de um rep em um deal.
type Commission struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	DealID uint `gorm:"not null;index;uniqueIndex:idx_commission_deal_role_rep" json:"dealId"`
	RepID  uint `gorm:"not null;index;uniqueIndex:idx_commission_deal_role_rep" json:"repId"`
	Role   Role `gorm:"size:20;not null;uniqueIndex:idx_commission_deal_role_rep" json:"role"`

	// Percent is a fraction of 1 (0.40 = 40%).
	CommissionPercent decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0" json:"commissionPercent"`
	CommissionAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"commissionAmount"`

	Paid   bool       `gorm:"not null;default:false" json:"paid"`
	PaidAt *time.Time `json:"paidAt,omitempty"`

	// Set when the rep had no configured rate at allocation time; an
	// admin is expected to apply an override.
	RateMissing bool `gorm:"not null;default:false" json:"rateMissing"`

	// Explicit amendment path. Once Paid is true the computed amount is
	// frozen and only the override can change what is owed.
	OverrideAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"overrideAmount,omitempty"`
	OverrideReason string           `gorm:"size:255" json:"overrideReason,omitempty"`
}

// EffectiveAmount é o valor devido considerando override.
func (c *Commission) EffectiveAmount() decimal.Decimal {
	if c.OverrideAmount != nil {
		return *c.OverrideAmount
	}
	return c.CommissionAmount
}

// Migrate cria a tabela no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Commission{})
}
