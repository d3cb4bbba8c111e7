package receipt

import (
	"errors"
	"testing"
	"time"

	"github.com/ApexRestoration/api-sales/internal/commission"
	"github.com/ApexRestoration/api-sales/internal/deal"
	"github.com/ApexRestoration/api-sales/internal/status"
	"github.com/shopspring/decimal"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubRenderer devolve um handle fixo sem chamar serviço externo.
type stubRenderer struct {
	url   string
	calls int
}

func (s *stubRenderer) Render(*deal.Deal, PaymentDetails) (string, error) {
	s.calls++
	return s.url, nil
}

func setupTrackerTest(t *testing.T) (*gorm.DB, *Tracker, *stubRenderer) {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open("file:receipt_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := dbi.AutoMigrate(&deal.Deal{}, &commission.Commission{}, &Receipt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := &stubRenderer{url: "https://files.example.com/receipt-1.pdf"}
	return dbi, NewTracker(dbi, r), r
}

func createDeal(t *testing.T, db *gorm.DB) *deal.Deal {
	t.Helper()
	d := &deal.Deal{
		RepID:        1,
		CustomerName: "J. Homeowner",
		Status:       status.InvoiceSent,
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("create deal: %v", err)
	}
	return d
}

func acvPayment(amount string) PaymentDetails {
	return PaymentDetails{
		Kind:        KindACV,
		Amount:      decimal.RequireFromString(amount),
		DatePaid:    time.Now(),
		Method:      "check",
		CheckNumber: "1042",
	}
}

func TestRecordPayment(t *testing.T) {
	db, tracker, renderer := setupTrackerTest(t)
	d := createDeal(t, db)

	rec, err := tracker.RecordPayment(d, acvPayment("5200.00"))
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if rec.ArtifactURL != renderer.url {
		t.Errorf("artifact url = %q, want renderer handle", rec.ArtifactURL)
	}

	var got deal.Deal
	if err := db.First(&got, d.ID).Error; err != nil {
		t.Fatalf("reload deal: %v", err)
	}
	if !got.AcvCollected {
		t.Error("acv collected flag not set")
	}
	if got.AcvCollectedAmount == nil || !got.AcvCollectedAmount.Equal(decimal.RequireFromString("5200.00")) {
		t.Errorf("acv amount = %v", got.AcvCollectedAmount)
	}
	if got.AcvReceiptURL != renderer.url {
		t.Errorf("deal receipt url = %q", got.AcvReceiptURL)
	}
	if got.CollectAcvDate == nil {
		t.Error("collect_acv milestone not stamped")
	}
}

func TestRecordPaymentTwiceIsRefused(t *testing.T) {
	db, tracker, renderer := setupTrackerTest(t)
	d := createDeal(t, db)

	if _, err := tracker.RecordPayment(d, acvPayment("5200.00")); err != nil {
		t.Fatalf("first record: %v", err)
	}
	_, err := tracker.RecordPayment(d, acvPayment("9999.00"))
	if !errors.Is(err, ErrReceiptAlreadyExists) {
		t.Fatalf("err = %v, want ErrReceiptAlreadyExists", err)
	}
	if renderer.calls != 1 {
		t.Errorf("renderer called %d times, refusal must not render", renderer.calls)
	}

	// deal keeps the first call's values
	var got deal.Deal
	db.First(&got, d.ID)
	if !got.AcvCollectedAmount.Equal(decimal.RequireFromString("5200.00")) {
		t.Errorf("amount drifted to %s on refused duplicate", got.AcvCollectedAmount)
	}

	list, err := tracker.FindByDeal(d.ID)
	if err != nil {
		t.Fatalf("FindByDeal: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("%d receipts stored, want 1", len(list))
	}
}

func TestRecordPaymentUnknownKind(t *testing.T) {
	db, tracker, _ := setupTrackerTest(t)
	d := createDeal(t, db)

	_, err := tracker.RecordPayment(d, PaymentDetails{Kind: "supplement"})
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestReplace(t *testing.T) {
	db, tracker, renderer := setupTrackerTest(t)
	d := createDeal(t, db)

	if _, err := tracker.RecordPayment(d, acvPayment("5200.00")); err != nil {
		t.Fatalf("record: %v", err)
	}
	var before deal.Deal
	db.First(&before, d.ID)

	renderer.url = "https://files.example.com/receipt-2.pdf"
	rec, err := tracker.Replace(d, acvPayment("5350.00"))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if !rec.Amount.Equal(decimal.RequireFromString("5350.00")) {
		t.Errorf("replaced amount = %s", rec.Amount)
	}

	list, _ := tracker.FindByDeal(d.ID)
	if len(list) != 1 {
		t.Fatalf("replace must not add a second receipt, got %d", len(list))
	}

	var after deal.Deal
	db.First(&after, d.ID)
	if !after.AcvCollectedAmount.Equal(decimal.RequireFromString("5350.00")) {
		t.Errorf("deal triple not updated, amount = %s", after.AcvCollectedAmount)
	}
	if after.AcvReceiptURL != renderer.url {
		t.Errorf("deal receipt url = %q", after.AcvReceiptURL)
	}
	// milestone stays as first set
	if before.CollectAcvDate == nil || after.CollectAcvDate == nil {
		t.Fatal("milestone missing")
	}
	if !after.CollectAcvDate.Equal(*before.CollectAcvDate) {
		t.Errorf("milestone moved on replace: %v -> %v", before.CollectAcvDate, after.CollectAcvDate)
	}
}

func TestReplaceWithoutExistingReceipt(t *testing.T) {
	db, tracker, _ := setupTrackerTest(t)
	d := createDeal(t, db)

	_, err := tracker.Replace(d, acvPayment("100.00"))
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want gorm.ErrRecordNotFound", err)
	}
}
