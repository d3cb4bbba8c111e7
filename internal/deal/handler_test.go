package deal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ApexRestoration/api-sales/internal/auth"
	"github.com/ApexRestoration/api-sales/internal/notify"
	"github.com/ApexRestoration/api-sales/internal/status"

	"github.com/gorilla/mux"
)

func authedRequest(method, target, body string, userID uint, admin bool, vars map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := context.WithValue(r.Context(), auth.CtxUserID, userID)
	ctx = context.WithValue(ctx, auth.CtxIsAdmin, admin)
	return mux.SetURLVars(r.WithContext(ctx), vars)
}

func TestUpdateStatusNoOpSkipsWriteAndWebhook(t *testing.T) {
	db := setupTestDB(t)

	var webhookCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&webhookCalls, 1)
	}))
	defer srv.Close()

	h := NewHandler(db, nil, nil, notify.NewWebhook(srv.URL))
	d := createDeal(t, db, status.Paid)
	vars := map[string]string{"id": "1"}

	w := httptest.NewRecorder()
	h.UpdateStatus(w, authedRequest(http.MethodPatch, "/deals/1/status", `{"status":"paid"}`, 99, true, vars))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}

	got, err := h.Repository.FindByID(db, d.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Version != d.Version {
		t.Errorf("version bumped on no-op: %d -> %d", d.Version, got.Version)
	}
	if n := atomic.LoadInt64(&webhookCalls); n != 0 {
		t.Errorf("webhook fired %d times on a no-op retry", n)
	}
}

func TestUpdateStatusFiresWebhookOnceOnPaid(t *testing.T) {
	db := setupTestDB(t)

	var webhookCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&webhookCalls, 1)
	}))
	defer srv.Close()

	h := NewHandler(db, nil, nil, notify.NewWebhook(srv.URL))
	d := createDeal(t, db, status.Pending)
	vars := map[string]string{"id": "1"}

	w := httptest.NewRecorder()
	h.UpdateStatus(w, authedRequest(http.MethodPatch, "/deals/1/status", `{"status":"paid"}`, 99, true, vars))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}

	got, _ := h.Repository.FindByID(db, d.ID)
	if got.Status != status.Paid {
		t.Fatalf("status = %q, want paid", got.Status)
	}
	if got.PaidDate == nil {
		t.Error("paid milestone not stamped")
	}
	if n := atomic.LoadInt64(&webhookCalls); n != 1 {
		t.Errorf("webhook fired %d times, want exactly 1", n)
	}
}
