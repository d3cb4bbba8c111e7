// internal/receipt/handler.go
package receipt

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ApexRestoration/api-sales/internal/auth"
	"github.com/ApexRestoration/api-sales/internal/deal"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Handler gerencia rotas de recibos de pagamento.
type Handler struct {
	DB      *gorm.DB
	Tracker *Tracker
	Deals   deal.Repository
}

func NewHandler(db *gorm.DB, tracker *Tracker) *Handler {
	return &Handler{DB: db, Tracker: tracker, Deals: deal.NewRepository()}
}

type recordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	DatePaid    time.Time       `json:"datePaid"`
	Method      string          `json:"method"`
	CheckNumber string          `json:"checkNumber"`
}

// loadDeal busca o deal e aplica a checagem dono-ou-admin.
func (h *Handler) loadDeal(w http.ResponseWriter, r *http.Request) (*deal.Deal, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return nil, false
	}
	userVal := r.Context().Value(auth.CtxUserID)
	if userVal == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return nil, false
	}
	isAdmin, _ := r.Context().Value(auth.CtxIsAdmin).(bool)
	d, err := h.Deals.FindByID(h.DB, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "deal not found", http.StatusNotFound)
			return nil, false
		}
		http.Error(w, "could not load deal", http.StatusInternalServerError)
		return nil, false
	}
	if !isAdmin && d.RepID != userVal.(uint) {
		http.Error(w, "access denied", http.StatusForbidden)
		return nil, false
	}
	return d, true
}

func (h *Handler) decodeDetails(w http.ResponseWriter, r *http.Request) (PaymentDetails, bool) {
	kind := Kind(mux.Vars(r)["kind"])
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return PaymentDetails{}, false
	}
	if req.DatePaid.IsZero() {
		req.DatePaid = time.Now()
	}
	return PaymentDetails{
		Kind:        kind,
		Amount:      req.Amount,
		DatePaid:    req.DatePaid,
		Method:      req.Method,
		CheckNumber: req.CheckNumber,
	}, true
}

// List trata GET /deals/{id}/receipts
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDeal(w, r)
	if !ok {
		return
	}
	list, err := h.Tracker.FindByDeal(d.ID)
	if err != nil {
		http.Error(w, "could not list receipts", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Record trata POST /deals/{id}/receipts/{kind}
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDeal(w, r)
	if !ok {
		return
	}
	details, ok := h.decodeDetails(w, r)
	if !ok {
		return
	}

	rec, err := h.Tracker.RecordPayment(d, details)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKind):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrReceiptAlreadyExists):
			http.Error(w, "a receipt for this payment already exists; use the replace endpoint to overwrite it", http.StatusConflict)
		default:
			http.Error(w, "could not record payment", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(rec)
}

// Replace trata PUT /deals/{id}/receipts/{kind}
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDeal(w, r)
	if !ok {
		return
	}
	details, ok := h.decodeDetails(w, r)
	if !ok {
		return
	}

	rec, err := h.Tracker.Replace(d, details)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKind):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, gorm.ErrRecordNotFound):
			http.Error(w, "no receipt of this kind to replace", http.StatusNotFound)
		default:
			http.Error(w, "could not replace receipt", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}
