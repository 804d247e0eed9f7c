package api

import (
	"net/http"

	"github.com/lending-engine/internal/service"
)

// handleSubmitDeposit handles POST /api/lending - record a lending deposit
// after its transfer confirms.
func (s *Server) handleSubmitDeposit(w http.ResponseWriter, r *http.Request) {
	var req service.DepositInput
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	position, err := s.lendingService.SubmitDeposit(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, position)
}

// handleListPositions handles GET /api/lending?lender= - list a lender's
// positions with the per-token aggregation.
func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	lender := r.URL.Query().Get("lender")
	if lender == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "lender query parameter is required", nil)
		return
	}

	view, err := s.lendingService.Positions(r.Context(), lender)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}
