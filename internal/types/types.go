// Package types provides common type definitions for the lending engine.
package types

// LoanStatus represents the lifecycle state of a loan
type LoanStatus string

const (
	// StatusActive represents a funded loan awaiting repayment.
	// This is the only non-terminal persisted state.
	StatusActive LoanStatus = "active"
	// StatusRepaid represents a loan settled by a confirmed transfer
	StatusRepaid LoanStatus = "repaid"
	// StatusDefaulted represents a loan past its due date without repayment
	StatusDefaulted LoanStatus = "defaulted"
	// StatusCancelled represents a loan voided by an administrative action
	StatusCancelled LoanStatus = "cancelled"
	// StatusExpired represents a loan closed out by an administrative expiry
	StatusExpired LoanStatus = "expired"
	// StatusClosed represents a loan closed by an administrative action
	StatusClosed LoanStatus = "closed"
)

// IsTerminal reports whether a loan in this status can never transition again.
func (s LoanStatus) IsTerminal() bool {
	return s != StatusActive
}

// loanTransitions enumerates the allowed forward transitions. Terminal states
// other than repaid and defaulted have no trigger in the request path and are
// reachable only through administrative tooling.
var loanTransitions = map[LoanStatus][]LoanStatus{
	StatusActive: {StatusRepaid, StatusDefaulted, StatusCancelled, StatusExpired, StatusClosed},
}

// CanTransition reports whether a loan may move from one status to another.
func CanTransition(from, to LoanStatus) bool {
	for _, next := range loanTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransactionDirection represents whether a wallet sent or received a transfer
type TransactionDirection string

const (
	// DirectionSent represents a transfer originated by the wallet
	DirectionSent TransactionDirection = "sent"
	// DirectionReceived represents a transfer received by the wallet
	DirectionReceived TransactionDirection = "received"
)

// ConfirmationState represents the ledger-reported state of a submitted transaction
type ConfirmationState string

const (
	// ConfirmationPending means the ledger has not yet finalized the transaction
	ConfirmationPending ConfirmationState = "pending"
	// ConfirmationOK means the transaction is finalized without error
	ConfirmationOK ConfirmationState = "confirmed_ok"
	// ConfirmationErrored means the transaction is finalized but reported an error
	ConfirmationErrored ConfirmationState = "confirmed_error"
)

// LoanDurations is the enumerated set of allowed loan durations in days.
var LoanDurations = []int{5, 10, 15, 20, 25, 30}

// ValidDuration reports whether a requested duration is in the allowed set.
func ValidDuration(days int) bool {
	for _, d := range LoanDurations {
		if d == days {
			return true
		}
	}
	return false
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// CollateralSnapshotVersion is the current embedded snapshot schema version.
const CollateralSnapshotVersion = 1

// CollateralAsset describes one collateral item captured at loan origination.
// The snapshot is a point-in-time copy, never a live reference.
type CollateralAsset struct {
	ImageURI    string  `json:"imageUri"`
	Name        string  `json:"name"`
	ExternalURL string  `json:"externalUrl,omitempty"`
	Mint        string  `json:"mint"`
	FloorPrice  float64 `json:"floorPrice"`
}

// CollateralSnapshot is the versioned, immutable list of collateral assets
// embedded in a loan record.
type CollateralSnapshot struct {
	Version int               `json:"version"`
	Assets  []CollateralAsset `json:"assets"`
}
