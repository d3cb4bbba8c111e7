// internal/deal/repository.go
package deal

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrConcurrentModification indica que o status persistido mudou desde a
// leitura. The caller re-reads and retries; nothing retries internally.
var ErrConcurrentModification = errors.New("deal was modified concurrently")

type Repository interface {
	Save(db *gorm.DB, d *Deal) error
	ListAll(db *gorm.DB) ([]Deal, error)
	ListByRep(db *gorm.DB, repID uint) ([]Deal, error)
	FindByID(db *gorm.DB, id uint) (*Deal, error)
	Update(db *gorm.DB, d *Deal) error
	Delete(db *gorm.DB, id uint) error
	UpdateStatusChecked(db *gorm.DB, id uint, expectedStatus, newStatus string, now time.Time) error
	UpdateTotalChecked(db *gorm.DB, id uint, expectedVersion int, total decimal.Decimal) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// OwnerResolver expõe o rep dono de um deal para as checagens de posse
// de pacotes que não podem importar este (ex.: commission).
type OwnerResolver struct {
	DB *gorm.DB
}

func (o OwnerResolver) OwnerOf(dealID uint) (uint, error) {
	var d Deal
	if err := o.DB.Select("rep_id").First(&d, dealID).Error; err != nil {
		return 0, err
	}
	return d.RepID, nil
}

func (r *repositoryImpl) Save(db *gorm.DB, d *Deal) error {
	return db.Create(d).Error
}

func (r *repositoryImpl) ListAll(db *gorm.DB) ([]Deal, error) {
	var list []Deal
	err := db.Preload("Commissions").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) ListByRep(db *gorm.DB, repID uint) ([]Deal, error) {
	var list []Deal
	err := db.
		Where("rep_id = ?", repID).
		Preload("Commissions").
		Find(&list).Error
	return list, err
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Deal, error) {
	var d Deal
	err := db.
		Preload("Commissions").
		First(&d, id).Error
	return &d, err
}

func (r *repositoryImpl) Update(db *gorm.DB, d *Deal) error {
	return db.Save(d).Error
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	return db.Delete(&Deal{}, id).Error
}

// UpdateStatusChecked grava o novo status apenas se o status persistido
// ainda for o que o chamador leu, carimbando o milestone na primeira
// passagem (COALESCE keeps an already-set milestone untouched).
func (r *repositoryImpl) UpdateStatusChecked(db *gorm.DB, id uint, expectedStatus, newStatus string, now time.Time) error {
	updates := map[string]interface{}{
		"status":  newStatus,
		"version": gorm.Expr("version + 1"),
	}
	if col := MilestoneColumn(newStatus); col != "" {
		updates[col] = gorm.Expr("COALESCE("+col+", ?)", now)
	}
	res := db.Model(&Deal{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// UpdateTotalChecked atualiza o valor total do contrato (e o alias
// legado) com checagem otimista de versão.
func (r *repositoryImpl) UpdateTotalChecked(db *gorm.DB, id uint, expectedVersion int, total decimal.Decimal) error {
	res := db.Model(&Deal{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"total_contract_value": total,
			"total_price":          total,
			"version":              gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	return nil
}
