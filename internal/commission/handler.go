// internal/commission/handler.go
package commission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ApexRestoration/api-sales/internal/auth"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const (
	cacheKeyPrefix = "commissions:"
	cacheTTL       = 10 * time.Minute
)

// OwnerLookup resolve o rep dono de um deal, para a checagem
// dono-ou-admin das rotas de leitura.
type OwnerLookup interface {
	OwnerOf(dealID uint) (uint, error)
}

// Handler gerencia rotas de comissões.
type Handler struct {
	Repo  *Repository
	Cache *redis.Client // optional; nil disables caching
	Owner OwnerLookup
}

// NewHandler cria um novo Handler.
func NewHandler(repo *Repository, cache *redis.Client, owner OwnerLookup) *Handler {
	return &Handler{Repo: repo, Cache: cache, Owner: owner}
}

type overrideRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

func cacheKey(dealID uint) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, dealID)
}

// InvalidateCache descarta o snapshot cacheado de comissões de um deal.
// Safe to call with a nil client.
func InvalidateCache(ctx context.Context, cache *redis.Client, dealID uint) {
	if cache != nil {
		_ = cache.Del(ctx, cacheKey(dealID)).Err()
	}
}

func (h *Handler) invalidate(ctx context.Context, dealID uint) {
	InvalidateCache(ctx, h.Cache, dealID)
}

func callerFromContext(r *http.Request) (uint, bool, bool) {
	userVal := r.Context().Value(auth.CtxUserID)
	if userVal == nil {
		return 0, false, false
	}
	isAdmin, _ := r.Context().Value(auth.CtxIsAdmin).(bool)
	return userVal.(uint), isAdmin, true
}

// ListByDeal trata GET /deals/{id}/commissions
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	userID, isAdmin, ok := callerFromContext(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if !isAdmin {
		owner, err := h.Owner.OwnerOf(uint(dealID))
		if err != nil {
			http.Error(w, "deal not found", http.StatusNotFound)
			return
		}
		if owner != userID {
			http.Error(w, "access denied", http.StatusForbidden)
			return
		}
	}

	if h.Cache != nil {
		if cached, err := h.Cache.Get(r.Context(), cacheKey(uint(dealID))).Result(); err == nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(cached))
			return
		}
	}

	list, err := h.Repo.FindByDeal(uint(dealID))
	if err != nil {
		http.Error(w, "could not load commissions", http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(list)
	if err != nil {
		http.Error(w, "could not encode commissions", http.StatusInternalServerError)
		return
	}
	if h.Cache != nil {
		_ = h.Cache.Set(r.Context(), cacheKey(uint(dealID)), body, cacheTTL).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// ListByRep trata GET /reps/{id}/commissions
func (h *Handler) ListByRep(w http.ResponseWriter, r *http.Request) {
	repID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid rep id", http.StatusBadRequest)
		return
	}
	userID, isAdmin, ok := callerFromContext(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	if !isAdmin && uint(repID) != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}
	list, err := h.Repo.ListByRep(uint(repID))
	if err != nil {
		http.Error(w, "could not load commissions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// MarkPaid trata PATCH /deals/{id}/commissions/{cid}/paid
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	cid, err := strconv.Atoi(mux.Vars(r)["cid"])
	if err != nil {
		http.Error(w, "invalid commission id", http.StatusBadRequest)
		return
	}

	c, err := h.Repo.FindByID(uint(cid))
	if err != nil {
		http.Error(w, "commission not found", http.StatusNotFound)
		return
	}
	if !c.Paid {
		if err := h.Repo.MarkPaid(c.ID, time.Now()); err != nil {
			http.Error(w, "could not mark commission as paid", http.StatusInternalServerError)
			return
		}
	}
	h.invalidate(r.Context(), c.DealID)

	c, err = h.Repo.FindByID(uint(cid))
	if err != nil {
		http.Error(w, "commission not found after update", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}

// Override trata PATCH /deals/{id}/commissions/{cid}/override
func (h *Handler) Override(w http.ResponseWriter, r *http.Request) {
	cid, err := strconv.Atoi(mux.Vars(r)["cid"])
	if err != nil {
		http.Error(w, "invalid commission id", http.StatusBadRequest)
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		http.Error(w, "the 'reason' field is required for an override", http.StatusBadRequest)
		return
	}

	c, err := h.Repo.FindByID(uint(cid))
	if err != nil {
		http.Error(w, "commission not found", http.StatusNotFound)
		return
	}
	if err := h.Repo.ApplyOverride(c.ID, req.Amount, req.Reason); err != nil {
		http.Error(w, "could not apply override", http.StatusInternalServerError)
		return
	}
	h.invalidate(r.Context(), c.DealID)

	c, err = h.Repo.FindByID(uint(cid))
	if err != nil {
		http.Error(w, "commission not found after update", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}
