package transact

import (
	"fmt"
	"strings"

	"github.com/commonsdao/fundbot/src/types"
)

// Validator gates whether a transaction may proceed. No state changes
// happen before it passes. The returned reason, when non-empty, is shown
// to the user.
type Validator interface {
	Validate(balance *types.FreeBalance, mentions []string, amount float64, description string) (bool, string)
}

type freeFundingValidator struct{}

// NewValidator returns the default transaction validator.
func NewValidator() Validator {
	return freeFundingValidator{}
}

func (freeFundingValidator) Validate(balance *types.FreeBalance, mentions []string, amount float64, description string) (bool, string) {
	if len(mentions) == 0 {
		return false, "Please mention at least one recipient."
	}
	if amount <= 0 {
		return false, "The amount must be positive."
	}
	if strings.TrimSpace(description) == "" {
		return false, "Please add a description to the transaction."
	}

	total := amount * float64(len(mentions))
	if balance.Balance < total {
		return false, fmt.Sprintf(
			"Not enough funds: you have %s left this season, the transaction needs %s.",
			formatAmount(balance.Balance), formatAmount(total),
		)
	}
	return true, ""
}
