package deal

import (
	"errors"
	"testing"
	"time"

	"github.com/ApexRestoration/api-sales/internal/commission"
	"github.com/ApexRestoration/api-sales/internal/status"
	"github.com/shopspring/decimal"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open("file:deal_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := dbi.AutoMigrate(&Deal{}, &commission.Commission{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbi
}

func createDeal(t *testing.T, db *gorm.DB, st string) *Deal {
	t.Helper()
	d := &Deal{
		RepID:              1,
		CustomerName:       "J. Homeowner",
		Status:             st,
		TotalContractValue: decimal.RequireFromString("18000.00"),
		TotalPrice:         decimal.RequireFromString("18000.00"),
		ContractSigned:     true,
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("create deal: %v", err)
	}
	return d
}

func TestUpdateStatusChecked(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository()
	d := createDeal(t, db, status.Lead)

	now := time.Now()
	if err := repo.UpdateStatusChecked(db, d.ID, status.Lead, status.Signed, now); err != nil {
		t.Fatalf("UpdateStatusChecked: %v", err)
	}

	got, err := repo.FindByID(db, d.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != status.Signed {
		t.Errorf("status = %q, want %q", got.Status, status.Signed)
	}
	if got.Version != d.Version+1 {
		t.Errorf("version = %d, want %d", got.Version, d.Version+1)
	}
	if got.SignedDate == nil {
		t.Fatal("signed milestone not stamped")
	}
}

func TestUpdateStatusCheckedStaleRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository()
	d := createDeal(t, db, status.Lead)

	// another writer got there first
	if err := repo.UpdateStatusChecked(db, d.ID, status.Lead, status.Cancelled, time.Now()); err != nil {
		t.Fatalf("first writer: %v", err)
	}

	err := repo.UpdateStatusChecked(db, d.ID, status.Lead, status.Signed, time.Now())
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("err = %v, want ErrConcurrentModification", err)
	}

	got, _ := repo.FindByID(db, d.ID)
	if got.Status != status.Cancelled {
		t.Errorf("loser must not overwrite, status = %q", got.Status)
	}
}

func TestMilestoneIsStampedOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository()
	d := createDeal(t, db, status.Lead)

	first := time.Now().Add(-48 * time.Hour)
	if err := repo.UpdateStatusChecked(db, d.ID, status.Lead, status.Signed, first); err != nil {
		t.Fatalf("first signing: %v", err)
	}
	// correction back to lead, then signed again later
	if err := repo.UpdateStatusChecked(db, d.ID, status.Signed, status.Lead, time.Now()); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if err := repo.UpdateStatusChecked(db, d.ID, status.Lead, status.Signed, time.Now()); err != nil {
		t.Fatalf("second signing: %v", err)
	}

	got, _ := repo.FindByID(db, d.ID)
	if got.SignedDate == nil {
		t.Fatal("signed milestone missing")
	}
	if !got.SignedDate.Equal(first) && got.SignedDate.Sub(first).Abs() > time.Second {
		t.Errorf("milestone moved on revisit: %v, want %v", got.SignedDate, first)
	}
}

func TestUpdateTotalChecked(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository()
	d := createDeal(t, db, status.Signed)

	newTotal := decimal.RequireFromString("22500.00")
	if err := repo.UpdateTotalChecked(db, d.ID, d.Version, newTotal); err != nil {
		t.Fatalf("UpdateTotalChecked: %v", err)
	}

	got, _ := repo.FindByID(db, d.ID)
	if !got.TotalContractValue.Equal(newTotal) {
		t.Errorf("total = %s, want %s", got.TotalContractValue, newTotal)
	}
	if !got.TotalPrice.Equal(newTotal) {
		t.Errorf("legacy alias out of sync: %s", got.TotalPrice)
	}
	if got.Version != d.Version+1 {
		t.Errorf("version = %d, want %d", got.Version, d.Version+1)
	}

	// stale version loses
	err := repo.UpdateTotalChecked(db, d.ID, d.Version, decimal.RequireFromString("1.00"))
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("stale version err = %v, want ErrConcurrentModification", err)
	}
}

func TestSnapshotProjection(t *testing.T) {
	installDate := time.Now()
	d := Deal{
		Status:           status.InstallScheduled,
		ContractSigned:   true,
		InstallDate:      &installDate,
		InstallImages:    []string{"a.jpg", "b.jpg"},
		CompletionImages: []string{},
	}
	snap := d.Snapshot()
	if snap.Status != status.InstallScheduled || !snap.ContractSigned {
		t.Errorf("snapshot dropped fields: %+v", snap)
	}
	if !snap.HasInstallDate || snap.InstallImages != 2 || snap.CompletionImages != 0 {
		t.Errorf("snapshot counts wrong: %+v", snap)
	}
}
