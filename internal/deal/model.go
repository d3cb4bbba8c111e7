// internal/deal/model.go
package deal

import (
	"time"

	"github.com/ApexRestoration/api-sales/internal/commission"
	"github.com/ApexRestoration/api-sales/internal/status"
	"github.com/ApexRestoration/api-sales/internal/transition"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deal representa um projeto de telhado acompanhado de lead a paid.
type Deal struct {
	ID        uint           `gorm:"primaryKey" json:"dealId"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	RepID uint `gorm:"not null;index" json:"repId"`

	// Homeowner / site
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `gorm:"size:2" json:"state"`
	Zip           string `gorm:"size:10" json:"zip"`

	// Insurance claim
	InsuranceCarrier string `json:"insuranceCarrier"`
	ClaimNumber      string `json:"claimNumber"`

	Status string `gorm:"size:50;not null;default:'lead';index" json:"status"`
	// Version guards concurrent writers; bumped on every checked update.
	Version int `gorm:"not null;default:0" json:"version"`

	// Financials
	TotalContractValue decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"totalContractValue"`
	// TotalPrice is a legacy alias of TotalContractValue kept in sync
	// for old integrations that still read it.
	TotalPrice       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"totalPrice"`
	RCV              decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"rcv"`
	ACV              decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"acv"`
	Depreciation     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"depreciation"`
	Deductible       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"deductible"`
	SupplementAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"supplementAmount"`
	InvoiceAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"invoiceAmount"`

	// Workflow evidence
	ContractSigned   bool       `gorm:"not null;default:false" json:"contractSigned"`
	SignatureURL     string     `json:"signatureUrl"`
	PermitFileURL    string     `json:"permitFileUrl"`
	InstallDate      *time.Time `json:"installDate,omitempty"`
	InstallImages    []string   `gorm:"type:jsonb;serializer:json" json:"installImages"`
	CompletionImages []string   `gorm:"type:jsonb;serializer:json" json:"completionImages"`
	InspectionImages []string   `gorm:"type:jsonb;serializer:json" json:"inspectionImages"`

	// Payment-collection ledger (one triple per collectable kind,
	// stamped by the receipt tracker)
	AcvCollected       bool             `gorm:"not null;default:false" json:"acvCollected"`
	AcvCollectedAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"acvCollectedAmount,omitempty"`
	AcvCollectedOn     *time.Time       `json:"acvCollectedOn,omitempty"`
	AcvReceiptURL      string           `json:"acvReceiptUrl"`

	DeductibleCollected       bool             `gorm:"not null;default:false" json:"deductibleCollected"`
	DeductibleCollectedAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"deductibleCollectedAmount,omitempty"`
	DeductibleCollectedOn     *time.Time       `json:"deductibleCollectedOn,omitempty"`
	DeductibleReceiptURL      string           `json:"deductibleReceiptUrl"`

	DepreciationCollected       bool             `gorm:"not null;default:false" json:"depreciationCollectedFlag"`
	DepreciationCollectedAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"depreciationCollectedAmount,omitempty"`
	DepreciationCollectedOn     *time.Time       `json:"depreciationCollectedOn,omitempty"`
	DepreciationReceiptURL      string           `json:"depreciationReceiptUrl"`

	// Milestone timestamps: first time each status was reached. Never
	// cleared, even when the deal later reverts. Lead is CreatedAt.
	SignedDate                *time.Time `json:"signedDate,omitempty"`
	InstallScheduledDate      *time.Time `json:"installScheduledDate,omitempty"`
	InstalledDate             *time.Time `json:"installedDate,omitempty"`
	CollectAcvDate            *time.Time `json:"collectAcvDate,omitempty"`
	CollectDeductibleDate     *time.Time `json:"collectDeductibleDate,omitempty"`
	InvoiceSentDate           *time.Time `json:"invoiceSentDate,omitempty"`
	DepreciationCollectedDate *time.Time `json:"depreciationCollectedDate,omitempty"`
	PendingDate               *time.Time `json:"pendingDate,omitempty"`
	CompleteDate              *time.Time `json:"completeDate,omitempty"`
	PaidDate                  *time.Time `json:"paidDate,omitempty"`
	OnHoldDate                *time.Time `json:"onHoldDate,omitempty"`
	CancelledDate             *time.Time `json:"cancelledDate,omitempty"`

	Commissions []commission.Commission `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE" json:"commissions"`
}

// Snapshot projeta o deal na visão que o validador de transição lê.
func (d *Deal) Snapshot() transition.Snapshot {
	return transition.Snapshot{
		Status:           d.Status,
		ContractSigned:   d.ContractSigned,
		PermitFileURL:    d.PermitFileURL,
		HasInstallDate:   d.InstallDate != nil,
		InstallImages:    len(d.InstallImages),
		CompletionImages: len(d.CompletionImages),
	}
}

// milestoneColumns maps each current status to the column stamped the
// first time the deal reaches it. Lead has none (CreatedAt covers it).
var milestoneColumns = map[string]string{
	status.Signed:                "signed_date",
	status.InstallScheduled:      "install_scheduled_date",
	status.Installed:             "installed_date",
	status.CollectACV:            "collect_acv_date",
	status.CollectDeductible:     "collect_deductible_date",
	status.InvoiceSent:           "invoice_sent_date",
	status.DepreciationCollected: "depreciation_collected_date",
	status.Pending:               "pending_date",
	status.Complete:              "complete_date",
	status.Paid:                  "paid_date",
	status.OnHold:                "on_hold_date",
	status.Cancelled:             "cancelled_date",
}

// MilestoneColumn resolve a coluna de milestone de um status ("" se não houver).
func MilestoneColumn(st string) string {
	return milestoneColumns[st]
}

// MilestoneFor devolve o timestamp já gravado para um status.
func (d *Deal) MilestoneFor(st string) *time.Time {
	switch st {
	case status.Signed:
		return d.SignedDate
	case status.InstallScheduled:
		return d.InstallScheduledDate
	case status.Installed:
		return d.InstalledDate
	case status.CollectACV:
		return d.CollectAcvDate
	case status.CollectDeductible:
		return d.CollectDeductibleDate
	case status.InvoiceSent:
		return d.InvoiceSentDate
	case status.DepreciationCollected:
		return d.DepreciationCollectedDate
	case status.Pending:
		return d.PendingDate
	case status.Complete:
		return d.CompleteDate
	case status.Paid:
		return d.PaidDate
	case status.OnHold:
		return d.OnHoldDate
	case status.Cancelled:
		return d.CancelledDate
	}
	return nil
}

// Migrate cria a tabela no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Deal{})
}
