package rep

import (
	"github.com/ApexRestoration/api-sales/internal/deal"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rep é um vendedor (sales rep) da empresa. As taxas de comissão são
// opcionais: a rep without a configured rate still gets commission rows,
// flagged for admin review.
type Rep struct {
	gorm.Model
	Name              string `json:"name"`
	LastName          string `json:"lastName"`
	Email             string `json:"email" gorm:"unique"`
	Phone             string `json:"phone"`
	Photo             string `json:"photo"`
	PasswordHash      string `json:"-"`
	MustResetPassword bool   `json:"-"`
	IsAdmin           bool   `json:"isAdmin"`

	// Rates are fractions of 1 (0.10 means ten percent of contract value).
	DefaultCommissionPercent *decimal.Decimal `json:"defaultCommissionPercent,omitempty" gorm:"type:decimal(6,4)"`
	SetterPercent            *decimal.Decimal `json:"setterPercent,omitempty" gorm:"type:decimal(6,4)"`
	CloserPercent            *decimal.Decimal `json:"closerPercent,omitempty" gorm:"type:decimal(6,4)"`

	Deals []deal.Deal `json:"deals,omitempty" gorm:"foreignKey:RepID"`
}

// Migrate cria a tabela no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Rep{})
}
