package rep

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	FindByEmail(db *gorm.DB, email string) (*Rep, error)
	Save(db *gorm.DB, rep *Rep) error
	FindByID(db *gorm.DB, id uint) (*Rep, error)
	ListAll(db *gorm.DB) ([]Rep, error)
	Update(db *gorm.DB, id uint, data *Rep) error
	Delete(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) FindByEmail(db *gorm.DB, email string) (*Rep, error) {
	var rep Rep
	if err := db.Where("email = ?", email).First(&rep).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *repositoryImpl) Save(db *gorm.DB, rep *Rep) error {
	return db.Save(rep).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Rep, error) {
	var rep Rep
	err := db.Preload("Deals").First(&rep, id).Error
	return &rep, err
}

func (r *repositoryImpl) ListAll(db *gorm.DB) ([]Rep, error) {
	var reps []Rep
	err := db.Preload("Deals").Find(&reps).Error
	return reps, err
}

func (r *repositoryImpl) Update(db *gorm.DB, id uint, data *Rep) error {
	var existing Rep
	if err := db.First(&existing, id).Error; err != nil {
		return err
	}

	existing.Name = data.Name
	existing.LastName = data.LastName
	existing.Email = data.Email
	existing.Phone = data.Phone
	existing.Photo = data.Photo
	existing.DefaultCommissionPercent = data.DefaultCommissionPercent
	existing.SetterPercent = data.SetterPercent
	existing.CloserPercent = data.CloserPercent

	return db.Save(&existing).Error
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	return db.Delete(&Rep{}, id).Error
}

// RateTable resolve as taxas de comissão a partir do cadastro do rep.
// It satisfies the rate lookup the allocator expects.
type RateTable struct {
	DB *gorm.DB
}

func NewRateTable(db *gorm.DB) *RateTable {
	return &RateTable{DB: db}
}

func (t *RateTable) rate(repID uint, pick func(*Rep) *decimal.Decimal) (decimal.Decimal, bool, error) {
	var rep Rep
	if err := t.DB.First(&rep, repID).Error; err != nil {
		return decimal.Zero, false, err
	}
	p := pick(&rep)
	if p == nil {
		return decimal.Zero, false, nil
	}
	return *p, true, nil
}

func (t *RateTable) DefaultRate(repID uint) (decimal.Decimal, bool, error) {
	return t.rate(repID, func(r *Rep) *decimal.Decimal { return r.DefaultCommissionPercent })
}

func (t *RateTable) SetterRate(repID uint) (decimal.Decimal, bool, error) {
	return t.rate(repID, func(r *Rep) *decimal.Decimal { return r.SetterPercent })
}

func (t *RateTable) CloserRate(repID uint) (decimal.Decimal, bool, error) {
	return t.rate(repID, func(r *Rep) *decimal.Decimal { return r.CloserPercent })
}
