// internal/commission/repository.go
package commission

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository encapsula operações de banco para Commission.
type Repository struct {
	DB *gorm.DB
}

// NewRepository cria um novo repositório.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// CreateSet grava o conjunto alocado na criação do deal.
func (r *Repository) CreateSet(tx *gorm.DB, dealID uint, records []Commission) error {
	for i := range records {
		records[i].DealID = dealID
	}
	if len(records) == 0 {
		return nil
	}
	return tx.Create(&records).Error
}

// Add grava um registro avulso, aplicando a exclusividade de papéis.
func (r *Repository) Add(c *Commission) error {
	existing, err := r.FindByDeal(c.DealID)
	if err != nil {
		return err
	}
	if err := CheckRoleConflict(existing, c.Role); err != nil {
		return err
	}
	return r.DB.Create(c).Error
}

// FindByDeal retorna todas as comissões de um deal.
func (r *Repository) FindByDeal(dealID uint) ([]Commission, error) {
	var list []Commission
	err := r.DB.Where("deal_id = ?", dealID).Order("id").Find(&list).Error
	return list, err
}

// FindByID retorna uma comissão pelo ID.
func (r *Repository) FindByID(id uint) (*Commission, error) {
	var c Commission
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByRep busca todas as comissões de um rep, mais recentes primeiro.
func (r *Repository) ListByRep(repID uint) ([]Commission, error) {
	var list []Commission
	err := r.DB.Where("rep_id = ?", repID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// MarkPaid congela uma comissão como paga.
func (r *Repository) MarkPaid(id uint, at time.Time) error {
	return r.DB.Model(&Commission{}).Where("id = ?", id).Updates(map[string]interface{}{
		"paid":    true,
		"paid_at": at,
	}).Error
}

// ApplyOverride registra uma emenda explícita de valor.
func (r *Repository) ApplyOverride(id uint, amount decimal.Decimal, reason string) error {
	return r.DB.Model(&Commission{}).Where("id = ?", id).Updates(map[string]interface{}{
		"override_amount": amount,
		"override_reason": reason,
	}).Error
}

// RecomputeForDeal reaplica o total de contrato às comissões não pagas
// do deal, dentro da transação recebida.
func (r *Repository) RecomputeForDeal(tx *gorm.DB, dealID uint, total decimal.Decimal) error {
	var list []Commission
	if err := tx.Where("deal_id = ?", dealID).Find(&list).Error; err != nil {
		return err
	}
	ptrs := make([]*Commission, len(list))
	for i := range list {
		ptrs[i] = &list[i]
	}
	for _, c := range Recompute(ptrs, total) {
		if err := tx.Model(&Commission{}).Where("id = ?", c.ID).
			Update("commission_amount", c.CommissionAmount).Error; err != nil {
			return err
		}
	}
	return nil
}
