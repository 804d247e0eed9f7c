package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/lending-engine/internal/types"
)

// Wallet address pattern: base58 without the ambiguous characters 0, O, I, l.
var walletAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// ValidateWalletAddress validates a wallet address format.
func ValidateWalletAddress(address string) error {
	if !walletAddressRegex.MatchString(address) {
		return &types.ServiceError{
			Code:    "INVALID_WALLET_FORMAT",
			Message: fmt.Sprintf("invalid wallet address format: %s", address),
			Details: map[string]interface{}{
				"address": address,
			},
		}
	}
	return nil
}

// newID generates a namespaced record id such as loan_9f2c4ab1d03e76a5.
func newID(namespace string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform RNG is broken; there is
		// no sensible recovery for id generation.
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return fmt.Sprintf("%s_%s", namespace, hex.EncodeToString(buf))
}

// NewLoanID generates a loan record id.
func NewLoanID() string {
	return newID("loan")
}

// NewLendingID generates a lending position record id.
func NewLendingID() string {
	return newID("lend")
}
