package rep

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ApexRestoration/api-sales/internal/auth"
	"github.com/ApexRestoration/api-sales/internal/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// request DTOs
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createRepRequest struct {
	Name                     string           `json:"name"`
	LastName                 string           `json:"lastName"`
	Email                    string           `json:"email"`
	Phone                    string           `json:"phone"`
	Photo                    string           `json:"photo"`
	Password                 string           `json:"password"`
	IsAdmin                  bool             `json:"isAdmin"`
	DefaultCommissionPercent *decimal.Decimal `json:"defaultCommissionPercent"`
	SetterPercent            *decimal.Decimal `json:"setterPercent"`
	CloserPercent            *decimal.Decimal `json:"closerPercent"`
}

// Handler encapsula DB e repository
type Handler struct {
	DB         *gorm.DB
	Repository Repository
}

// NewHandler retorna um handler inicializado
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
	}
}

// Login gera um JWT para credenciais válidas
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	user, err := h.Repository.FindByEmail(h.DB, req.Email)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateAccessToken(user.ID, user.IsAdmin)
	if err != nil {
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// Create cadastra um novo rep (rota restrita a admin)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	password := req.Password
	mustReset := false
	if password == "" {
		// sem senha no payload: gera uma temporária e força a troca
		tmp, err := utils.TemporaryPassword()
		if err != nil {
			http.Error(w, "could not generate password", http.StatusInternalServerError)
			return
		}
		password = tmp
		mustReset = true
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		http.Error(w, "could not hash password", http.StatusInternalServerError)
		return
	}

	rep := Rep{
		Name:                     req.Name,
		LastName:                 req.LastName,
		Email:                    req.Email,
		Phone:                    req.Phone,
		Photo:                    req.Photo,
		PasswordHash:             hash,
		MustResetPassword:        mustReset,
		IsAdmin:                  req.IsAdmin,
		DefaultCommissionPercent: req.DefaultCommissionPercent,
		SetterPercent:            req.SetterPercent,
		CloserPercent:            req.CloserPercent,
	}

	if err := h.Repository.Save(h.DB, &rep); err != nil {
		http.Error(w, "could not save rep", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rep)
}

// List retorna todos os reps (admin) ou apenas o próprio registro
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.CtxUserID).(uint)
	isAdmin := r.Context().Value(auth.CtxIsAdmin).(bool)

	if isAdmin {
		reps, err := h.Repository.ListAll(h.DB)
		if err != nil {
			http.Error(w, "could not list reps", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(reps)
		return
	}

	obj, err := h.Repository.FindByID(h.DB, userID)
	if err != nil {
		http.Error(w, "rep not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode([]Rep{*obj})
}

// FindByID retorna um rep pelo ID
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.CtxUserID).(uint)
	isAdmin := r.Context().Value(auth.CtxIsAdmin).(bool)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if !isAdmin && uint(id) != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	obj, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "rep not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(obj)
}

// Update altera dados de um rep existente
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.CtxUserID).(uint)
	isAdmin := r.Context().Value(auth.CtxIsAdmin).(bool)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if !isAdmin && uint(id) != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	var data Rep
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if !isAdmin {
		// rate fields are admin-maintained; keep whatever is on record
		existing, err := h.Repository.FindByID(h.DB, uint(id))
		if err != nil {
			http.Error(w, "rep not found", http.StatusNotFound)
			return
		}
		data.DefaultCommissionPercent = existing.DefaultCommissionPercent
		data.SetterPercent = existing.SetterPercent
		data.CloserPercent = existing.CloserPercent
	}
	if err := h.Repository.Update(h.DB, uint(id), &data); err != nil {
		http.Error(w, "could not update rep", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("rep updated"))
}

// Delete remove um rep
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.CtxUserID).(uint)
	isAdmin := r.Context().Value(auth.CtxIsAdmin).(bool)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if !isAdmin && uint(id) != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	if err := h.Repository.Delete(h.DB, uint(id)); err != nil {
		http.Error(w, "could not delete rep", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("rep deleted"))
}

// Me retorna o usuário logado
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.CtxUserID).(uint)

	var rep Rep
	if err := h.DB.First(&rep, userID).Error; err != nil {
		http.Error(w, "rep not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}

// ChangePassword troca a senha do usuário logado.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.CtxUserID).(uint)

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.NewPassword == "" {
		http.Error(w, "new password is required", http.StatusBadRequest)
		return
	}

	var rep Rep
	if err := h.DB.First(&rep, userID).Error; err != nil {
		http.Error(w, "rep not found", http.StatusNotFound)
		return
	}
	if !utils.CheckPassword(rep.PasswordHash, req.CurrentPassword) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, "could not hash password", http.StatusInternalServerError)
		return
	}
	rep.PasswordHash = hash
	rep.MustResetPassword = false
	if err := h.DB.Save(&rep).Error; err != nil {
		http.Error(w, "could not update password", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("password updated"))
}
