package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleConnectUser handles POST /api/users - resolve a wallet to a user,
// creating one on first connection.
func (s *Server) handleConnectUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wallet string `json:"wallet"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Wallet == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "wallet is required", nil)
		return
	}

	user, err := s.users.GetOrCreate(r.Context(), req.Wallet)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// handleGetUser handles GET /api/users/{wallet} - get user by wallet address.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	wallet := vars["wallet"]

	user, err := s.users.GetByWallet(r.Context(), wallet)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "User not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// handleUpdateUser handles PUT /api/users/{wallet} - update profile fields.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	wallet := vars["wallet"]

	var req struct {
		DisplayName *string `json:"displayName"`
		Email       *string `json:"email"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := s.users.UpdateProfile(r.Context(), wallet, req.DisplayName, req.Email); err != nil {
		respondServiceError(w, err)
		return
	}

	user, err := s.users.GetByWallet(r.Context(), wallet)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
