package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lending-engine/internal/service"
	"github.com/lending-engine/internal/types"
)

// handleQuoteBorrow handles POST /api/quotes - price a borrow request.
// Runs the scoring pipeline; nothing about the loan is persisted.
func (s *Server) handleQuoteBorrow(w http.ResponseWriter, r *http.Request) {
	var req service.QuoteInput
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	quote, err := s.loanService.QuoteBorrow(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// handleSubmitBorrow handles POST /api/loans - originate a loan from a
// confirmed borrow request.
func (s *Server) handleSubmitBorrow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wallet       string                  `json:"wallet"`
		Token        string                  `json:"token"`
		Amount       float64                 `json:"amount"`
		DurationDays int                     `json:"durationDays"`
		Collateral   []types.CollateralAsset `json:"collateral"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	loan, err := s.loanService.SubmitBorrow(r.Context(), &service.BorrowInput{
		Wallet:       req.Wallet,
		Token:        req.Token,
		Amount:       req.Amount,
		DurationDays: req.DurationDays,
		Collateral:   req.Collateral,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, loan)
}

// handleListLoans handles GET /api/loans?borrower= - list loans by borrower.
func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	borrower := r.URL.Query().Get("borrower")
	if borrower == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "borrower query parameter is required", nil)
		return
	}

	loans, err := s.loanService.ListLoans(r.Context(), borrower)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"loans": loans,
	})
}

// handleSubmitRepayment handles POST /api/loans/{id}/repayment - settle an
// active loan with a confirmed transfer.
func (s *Server) handleSubmitRepayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Wallet            string `json:"wallet"`
		SignedTransaction string `json:"signedTransaction"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	result, err := s.loanService.SubmitRepayment(r.Context(), &service.RepaymentInput{
		LoanID:            vars["id"],
		Wallet:            req.Wallet,
		SignedTransaction: req.SignedTransaction,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
