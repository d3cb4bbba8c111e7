// internal/receipt/model.go
package receipt

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Kind identifica qual valor cobrável o recibo comprova.
type Kind string

const (
	KindACV          Kind = "acv"
	KindDeductible   Kind = "deductible"
	KindDepreciation Kind = "depreciation"
)

var (
	ErrUnknownKind          = errors.New("unknown receipt kind")
	ErrReceiptAlreadyExists = errors.New("a receipt of this kind already exists for the deal")
)

// Valid reports whether k is one of the three collectable kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindACV, KindDeductible, KindDepreciation:
		return true
	}
	return false
}

// Receipt registra o artefato de recibo gerado para um pagamento.
type Receipt struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	DealID uint `gorm:"not null;index;uniqueIndex:idx_receipt_deal_kind" json:"dealId"`
	Kind   Kind `gorm:"size:20;not null;uniqueIndex:idx_receipt_deal_kind" json:"kind"`

	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	DatePaid    time.Time       `gorm:"not null" json:"datePaid"`
	Method      string          `gorm:"size:50" json:"method"`
	CheckNumber string          `gorm:"size:50" json:"checkNumber"`

	// Opaque handle returned by the document renderer.
	ArtifactURL string `gorm:"size:512" json:"artifactUrl"`
}

// Migrate cria a tabela no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Receipt{})
}
