// internal/deal/handler.go
package deal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ApexRestoration/api-sales/internal/auth"
	"github.com/ApexRestoration/api-sales/internal/commission"
	"github.com/ApexRestoration/api-sales/internal/notify"
	"github.com/ApexRestoration/api-sales/internal/status"
	"github.com/ApexRestoration/api-sales/internal/transition"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Handler encapsula DB, repository e colaboradores do ciclo de vida.
type Handler struct {
	DB          *gorm.DB
	Repository  Repository
	Commissions *commission.Repository
	Rates       commission.RateLookup
	Cache       *redis.Client
	Webhook     *notify.Webhook
}

// NewHandler cria um novo handler de deals.
func NewHandler(db *gorm.DB, rates commission.RateLookup, cache *redis.Client, webhook *notify.Webhook) *Handler {
	return &Handler{
		DB:          db,
		Repository:  NewRepository(),
		Commissions: commission.NewRepository(db),
		Rates:       rates,
		Cache:       cache,
		Webhook:     webhook,
	}
}

/* ================== DTOs ================== */

type createDealDTO struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`

	InsuranceCarrier string `json:"insuranceCarrier"`
	ClaimNumber      string `json:"claimNumber"`

	TotalContractValue decimal.Decimal `json:"totalContractValue"`
	RCV                decimal.Decimal `json:"rcv"`
	ACV                decimal.Decimal `json:"acv"`
	Depreciation       decimal.Decimal `json:"depreciation"`
	Deductible         decimal.Decimal `json:"deductible"`

	Arrangement commission.Arrangement `json:"arrangement"`
	Assignments commission.Assignments `json:"assignments"`
}

type updateDealDTO struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`

	InsuranceCarrier string `json:"insuranceCarrier"`
	ClaimNumber      string `json:"claimNumber"`

	RCV              decimal.Decimal `json:"rcv"`
	ACV              decimal.Decimal `json:"acv"`
	Depreciation     decimal.Decimal `json:"depreciation"`
	Deductible       decimal.Decimal `json:"deductible"`
	SupplementAmount decimal.Decimal `json:"supplementAmount"`
	InvoiceAmount    decimal.Decimal `json:"invoiceAmount"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateTotalRequest struct {
	TotalContractValue decimal.Decimal `json:"totalContractValue"`
}

type patchSignatureRequest struct {
	SignatureURL string `json:"signatureUrl"`
}

type patchPermitRequest struct {
	PermitFileURL string `json:"permitFileUrl"`
}

type patchInstallDateRequest struct {
	InstallDate time.Time `json:"installDate"`
}

type addImagesRequest struct {
	Images []string `json:"images"`
}

/* ================== helpers ================== */

func callerFromContext(r *http.Request) (uint, bool, bool) {
	userVal := r.Context().Value(auth.CtxUserID)
	if userVal == nil {
		return 0, false, false
	}
	isAdmin, _ := r.Context().Value(auth.CtxIsAdmin).(bool)
	return userVal.(uint), isAdmin, true
}

func roleFor(isAdmin bool) transition.Role {
	if isAdmin {
		return transition.RoleAdmin
	}
	return transition.RoleRep
}

// loadOwned busca o deal e aplica a checagem dono-ou-admin.
func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request) (*Deal, uint, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return nil, 0, false
	}
	userID, isAdmin, ok := callerFromContext(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return nil, 0, false
	}
	d, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "deal not found", http.StatusNotFound)
			return nil, 0, false
		}
		http.Error(w, "could not load deal", http.StatusInternalServerError)
		return nil, 0, false
	}
	if !isAdmin && d.RepID != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return nil, 0, false
	}
	return d, userID, true
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func denyStatusCode(code transition.DenyCode) int {
	switch code {
	case transition.CodeInsufficientRole:
		return http.StatusForbidden
	case transition.CodePreconditionNotMet, transition.CodeUsePaymentRequest:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

/* ================== POST /deals ================== */

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerFromContext(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var dto createDealDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(string(dto.Arrangement)) == "" {
		http.Error(w, "the 'arrangement' field is required", http.StatusBadRequest)
		return
	}
	if dto.Arrangement == commission.ArrangementSelfGen && dto.Assignments.SelfGen == 0 {
		// default the self-gen rep to the creator
		dto.Assignments.SelfGen = userID
	}

	d := Deal{
		RepID:              userID,
		CustomerName:       dto.CustomerName,
		CustomerEmail:      dto.CustomerEmail,
		CustomerPhone:      dto.CustomerPhone,
		Address:            dto.Address,
		City:               dto.City,
		State:              dto.State,
		Zip:                dto.Zip,
		InsuranceCarrier:   dto.InsuranceCarrier,
		ClaimNumber:        dto.ClaimNumber,
		Status:             status.Lead,
		TotalContractValue: dto.TotalContractValue,
		TotalPrice:         dto.TotalContractValue,
		RCV:                dto.RCV,
		ACV:                dto.ACV,
		Depreciation:       dto.Depreciation,
		Deductible:         dto.Deductible,
		InstallImages:      []string{},
		CompletionImages:   []string{},
		InspectionImages:   []string{},
	}

	records, err := commission.Allocate(dto.Arrangement, dto.Assignments, dto.TotalContractValue, h.Rates)
	if err != nil {
		if errors.Is(err, commission.ErrNoRepAssigned) {
			http.Error(w, "setter_closer deals need at least one rep assigned", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "could not allocate commissions", http.StatusBadRequest)
		return
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		http.Error(w, "could not start transaction", http.StatusInternalServerError)
		return
	}
	if err := h.Repository.Save(tx, &d); err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not save deal", http.StatusInternalServerError)
		return
	}
	if err := h.Commissions.CreateSet(tx, d.ID, records); err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not save commissions", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not commit transaction", http.StatusInternalServerError)
		return
	}

	created, err := h.Repository.FindByID(h.DB, d.ID)
	if err != nil {
		http.Error(w, "could not reload deal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

/* ================== GET /deals ================== */

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := callerFromContext(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var (
		list []Deal
		err  error
	)
	if isAdmin {
		list, err = h.Repository.ListAll(h.DB)
	} else {
		list, err = h.Repository.ListByRep(h.DB, userID)
	}
	if err != nil {
		http.Error(w, "could not list deals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListByRep trata GET /reps/{id}/deals
func (h *Handler) ListByRep(w http.ResponseWriter, r *http.Request) {
	rid, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid rep id", http.StatusBadRequest)
		return
	}
	userID, isAdmin, ok := callerFromContext(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if !isAdmin && uint(rid) != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}
	list, err := h.Repository.ListByRep(h.DB, uint(rid))
	if err != nil {
		http.Error(w, "could not list deals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// FindByID trata GET /deals/{id}
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

/* ================== PUT /deals/{id} ================== */

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var dto updateDealDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}

	d.CustomerName = dto.CustomerName
	d.CustomerEmail = dto.CustomerEmail
	d.CustomerPhone = dto.CustomerPhone
	d.Address = dto.Address
	d.City = dto.City
	d.State = dto.State
	d.Zip = dto.Zip
	d.InsuranceCarrier = dto.InsuranceCarrier
	d.ClaimNumber = dto.ClaimNumber
	d.RCV = dto.RCV
	d.ACV = dto.ACV
	d.Depreciation = dto.Depreciation
	d.Deductible = dto.Deductible
	d.SupplementAmount = dto.SupplementAmount
	d.InvoiceAmount = dto.InvoiceAmount

	if err := h.Repository.Update(h.DB, d); err != nil {
		http.Error(w, "could not update deal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Delete trata DELETE /deals/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Delete(h.DB, d.ID); err != nil {
		http.Error(w, "could not delete deal", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* ================== PATCH /deals/{id}/status ================== */

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	_, isAdmin, _ := callerFromContext(r)

	var payload updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if payload.Status == "" {
		http.Error(w, "the 'status' field is required", http.StatusBadRequest)
		return
	}

	dec := transition.Check(d.Snapshot(), payload.Status, roleFor(isAdmin))
	if !dec.Allowed {
		http.Error(w, dec.Reason, denyStatusCode(dec.Code))
		return
	}

	// no-op: nothing to write, nothing to notify
	if payload.Status == d.Status {
		writeJSON(w, http.StatusOK, d)
		return
	}

	if err := h.Repository.UpdateStatusChecked(h.DB, d.ID, d.Status, payload.Status, time.Now()); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			http.Error(w, "deal changed since it was read, re-read and retry", http.StatusConflict)
			return
		}
		http.Error(w, "could not update status", http.StatusInternalServerError)
		return
	}

	updated, err := h.Repository.FindByID(h.DB, d.ID)
	if err != nil {
		http.Error(w, "could not reload deal", http.StatusInternalServerError)
		return
	}

	if updated.Status == status.Paid {
		h.Webhook.DealPaid(updated.ID, updated.CustomerName, updated.TotalContractValue)
	}
	writeJSON(w, http.StatusOK, updated)
}

/* ================== POST /deals/{id}/request-payment ================== */

// RequestPayment é o único caminho para o status pending.
func (h *Handler) RequestPayment(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if status.IsTerminal(d.Status) {
		http.Error(w, "deal is "+d.Status+" and cannot request payment", http.StatusUnprocessableEntity)
		return
	}
	if d.Status == status.Pending {
		writeJSON(w, http.StatusOK, d) // idempotent
		return
	}

	if err := h.Repository.UpdateStatusChecked(h.DB, d.ID, d.Status, status.Pending, time.Now()); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			http.Error(w, "deal changed since it was read, re-read and retry", http.StatusConflict)
			return
		}
		http.Error(w, "could not request payment", http.StatusInternalServerError)
		return
	}

	updated, err := h.Repository.FindByID(h.DB, d.ID)
	if err != nil {
		http.Error(w, "could not reload deal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

/* ================== PATCH /deals/{id}/total ================== */

// UpdateTotal edita o valor total do contrato e recalcula as comissões
// ainda não pagas dentro da mesma transação.
func (h *Handler) UpdateTotal(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var payload updateTotalRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if payload.TotalContractValue.IsNegative() {
		http.Error(w, "totalContractValue cannot be negative", http.StatusBadRequest)
		return
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		http.Error(w, "could not start transaction", http.StatusInternalServerError)
		return
	}
	if err := h.Repository.UpdateTotalChecked(tx, d.ID, d.Version, payload.TotalContractValue); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, ErrConcurrentModification) {
			http.Error(w, "deal changed since it was read, re-read and retry", http.StatusConflict)
			return
		}
		http.Error(w, "could not update total", http.StatusInternalServerError)
		return
	}
	if err := h.Commissions.RecomputeForDeal(tx, d.ID, payload.TotalContractValue); err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not recompute commissions", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not commit transaction", http.StatusInternalServerError)
		return
	}
	commission.InvalidateCache(r.Context(), h.Cache, d.ID)

	updated, err := h.Repository.FindByID(h.DB, d.ID)
	if err != nil {
		http.Error(w, "could not reload deal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

/* ================== evidence patches ================== */

// PatchSignature trata PATCH /deals/{id}/signature.
// It records the signed contract; moving the deal to "signed" is a
// separate, explicit status transition.
func (h *Handler) PatchSignature(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var req patchSignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.SignatureURL) == "" {
		http.Error(w, "malformed JSON or empty signatureUrl", http.StatusBadRequest)
		return
	}
	updates := map[string]interface{}{
		"signature_url":   req.SignatureURL,
		"contract_signed": true,
	}
	if err := h.DB.Model(d).Updates(updates).Error; err != nil {
		http.Error(w, "could not save signature", http.StatusInternalServerError)
		return
	}
	d.SignatureURL = req.SignatureURL
	d.ContractSigned = true
	writeJSON(w, http.StatusOK, d)
}

// PatchPermit trata PATCH /deals/{id}/permit
func (h *Handler) PatchPermit(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var req patchPermitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.PermitFileURL) == "" {
		http.Error(w, "malformed JSON or empty permitFileUrl", http.StatusBadRequest)
		return
	}
	if err := h.DB.Model(d).Update("permit_file_url", req.PermitFileURL).Error; err != nil {
		http.Error(w, "could not save permit file", http.StatusInternalServerError)
		return
	}
	d.PermitFileURL = req.PermitFileURL
	writeJSON(w, http.StatusOK, d)
}

// PatchInstallDate trata PATCH /deals/{id}/install-date
func (h *Handler) PatchInstallDate(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var req patchInstallDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InstallDate.IsZero() {
		http.Error(w, "malformed JSON or missing installDate", http.StatusBadRequest)
		return
	}
	if err := h.DB.Model(d).Update("install_date", req.InstallDate).Error; err != nil {
		http.Error(w, "could not save install date", http.StatusInternalServerError)
		return
	}
	d.InstallDate = &req.InstallDate
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) addImages(w http.ResponseWriter, r *http.Request, d *Deal, column string, target *[]string) {
	var req addImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if len(req.Images) == 0 {
		http.Error(w, "the 'images' list cannot be empty", http.StatusBadRequest)
		return
	}
	*target = append(*target, req.Images...)
	if err := h.DB.Model(d).Update(column, *target).Error; err != nil {
		http.Error(w, "could not save images", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// AddInstallImages trata POST /deals/{id}/install-images
func (h *Handler) AddInstallImages(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	h.addImages(w, r, d, "install_images", &d.InstallImages)
}

// AddCompletionImages trata POST /deals/{id}/completion-images
func (h *Handler) AddCompletionImages(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	h.addImages(w, r, d, "completion_images", &d.CompletionImages)
}

// AddInspectionImages trata POST /deals/{id}/inspection-images
func (h *Handler) AddInspectionImages(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	h.addImages(w, r, d, "inspection_images", &d.InspectionImages)
}
