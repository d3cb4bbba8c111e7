// internal/receipt/tracker.go
package receipt

import (
	"errors"
	"fmt"
	"time"

	"github.com/ApexRestoration/api-sales/internal/deal"
	"github.com/ApexRestoration/api-sales/internal/status"
	"gorm.io/gorm"
)

// Tracker mantém o ledger de recibos de pagamento por deal e aplica os
// efeitos colaterais de registrar um no próprio deal.
type Tracker struct {
	DB       *gorm.DB
	Renderer Renderer
}

func NewTracker(db *gorm.DB, renderer Renderer) *Tracker {
	return &Tracker{DB: db, Renderer: renderer}
}

// kindStatus maps each collectable kind to the workflow status whose
// milestone gets stamped when the payment is recorded.
var kindStatus = map[Kind]string{
	KindACV:          status.CollectACV,
	KindDeductible:   status.CollectDeductible,
	KindDepreciation: status.DepreciationCollected,
}

// FindByDeal lista os recibos de um deal.
func (t *Tracker) FindByDeal(dealID uint) ([]Receipt, error) {
	var list []Receipt
	err := t.DB.Where("deal_id = ?", dealID).Order("id").Find(&list).Error
	return list, err
}

// FindByDealAndKind busca o recibo de um tipo específico, se existir.
func (t *Tracker) FindByDealAndKind(dealID uint, kind Kind) (*Receipt, error) {
	var rec Receipt
	err := t.DB.Where("deal_id = ? AND kind = ?", dealID, kind).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordPayment registra um pagamento coletado. Idempotency is by
// refusal: a second receipt of the same kind fails and the deal keeps
// the first call's values; Replace is the explicit overwrite path.
func (t *Tracker) RecordPayment(d *deal.Deal, details PaymentDetails) (*Receipt, error) {
	if !details.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, details.Kind)
	}
	if _, err := t.FindByDealAndKind(d.ID, details.Kind); err == nil {
		return nil, ErrReceiptAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	artifactURL, err := t.Renderer.Render(d, details)
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}

	rec := Receipt{
		DealID:      d.ID,
		Kind:        details.Kind,
		Amount:      details.Amount,
		DatePaid:    details.DatePaid,
		Method:      details.Method,
		CheckNumber: details.CheckNumber,
		ArtifactURL: artifactURL,
	}

	tx := t.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&rec).Error; err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := t.stampDeal(tx, d, details, artifactURL, time.Now()); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return &rec, nil
}

// Replace sobrescreve explicitamente um recibo já registrado. The deal's
// collection triple follows the new values; milestones stay as first set.
func (t *Tracker) Replace(d *deal.Deal, details PaymentDetails) (*Receipt, error) {
	if !details.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, details.Kind)
	}
	existing, err := t.FindByDealAndKind(d.ID, details.Kind)
	if err != nil {
		return nil, err // includes not-found: nothing to replace
	}

	artifactURL, err := t.Renderer.Render(d, details)
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}

	existing.Amount = details.Amount
	existing.DatePaid = details.DatePaid
	existing.Method = details.Method
	existing.CheckNumber = details.CheckNumber
	existing.ArtifactURL = artifactURL

	tx := t.DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Save(existing).Error; err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := t.stampDeal(tx, d, details, artifactURL, time.Now()); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return existing, nil
}

// stampDeal grava o triple {collected, amount, date} e o receipt URL do
// tipo correspondente, além do milestone (first time only).
func (t *Tracker) stampDeal(tx *gorm.DB, d *deal.Deal, details PaymentDetails, artifactURL string, now time.Time) error {
	var updates map[string]interface{}
	switch details.Kind {
	case KindACV:
		updates = map[string]interface{}{
			"acv_collected":        true,
			"acv_collected_amount": details.Amount,
			"acv_collected_on":     details.DatePaid,
			"acv_receipt_url":      artifactURL,
		}
	case KindDeductible:
		updates = map[string]interface{}{
			"deductible_collected":        true,
			"deductible_collected_amount": details.Amount,
			"deductible_collected_on":     details.DatePaid,
			"deductible_receipt_url":      artifactURL,
		}
	case KindDepreciation:
		updates = map[string]interface{}{
			"depreciation_collected":        true,
			"depreciation_collected_amount": details.Amount,
			"depreciation_collected_on":     details.DatePaid,
			"depreciation_receipt_url":      artifactURL,
		}
	}
	if col := deal.MilestoneColumn(kindStatus[details.Kind]); col != "" {
		updates[col] = gorm.Expr("COALESCE("+col+", ?)", now)
	}
	return tx.Model(&deal.Deal{}).Where("id = ?", d.ID).Updates(updates).Error
}
