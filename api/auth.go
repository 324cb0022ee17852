package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/openfield/crewmarket/pkg/models"
	"github.com/openfield/crewmarket/pkg/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler is the thin identity shim in front of the engine: it registers
// accounts and issues the signed principal (account id + role) every engine
// call trusts. Workers and technicians get a capability profile at signup.
type AuthHandler struct {
	accountRepo   repository.AccountRepo
	profileRepo   repository.WorkerProfileRepo
	jwtSecret     string
	tokenDuration time.Duration
}

func NewAuthHandler(ar repository.AccountRepo, pr repository.WorkerProfileRepo, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{accountRepo: ar, profileRepo: pr, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type signupRequest struct {
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Password      string          `json:"password"`
	Role          models.Role     `json:"role"`
	WorkType      models.WorkType `json:"work_type,omitempty"`
	OwnsEquipment bool            `json:"owns_equipment,omitempty"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}
	if !models.ValidRole(req.Role) {
		http.Error(w, "Unknown role", http.StatusBadRequest)
		return
	}
	needsProfile := req.Role == models.RoleWorker || req.Role == models.RoleTechnician
	if needsProfile && !models.ValidWorkType(req.WorkType) {
		http.Error(w, "Unknown work type", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()

	account := models.Account{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: string(hash),
	}
	accountID, err := h.accountRepo.CreateAccount(ctx, &account)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		http.Error(w, "Error creating account", http.StatusInternalServerError)
		return
	}

	if needsProfile {
		profile := models.WorkerProfile{
			OwnerID:       accountID,
			WorkType:      req.WorkType,
			OwnsEquipment: req.OwnsEquipment,
			Available:     true,
		}
		if _, err := h.profileRepo.CreateWorkerProfile(ctx, &profile); err != nil {
			http.Error(w, "Error creating capability profile", http.StatusInternalServerError)
			return
		}
	}

	h.issueToken(w, accountID, req.Role)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	account, err := h.accountRepo.GetAccountByEmail(r.Context(), req.Email)
	if err != nil || account == nil {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}

	h.issueToken(w, account.ID, account.Role)
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	// For stateless JWT, signout is client-side (just delete token)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"message":"signed out"}`)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, accountID int64, role models.Role) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": accountID,
		"role":       string(role),
		"exp":        time.Now().Add(h.tokenDuration).Unix(),
	})
	tokenStr, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		http.Error(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr}, http.StatusOK)
}
