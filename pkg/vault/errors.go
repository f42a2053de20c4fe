package vault

import "fmt"

// Errors
var (
	// Validation errors: rejected before any mutation.
	ErrZeroAmount    = fmt.Errorf("zero amount")
	ErrZeroAddress   = fmt.Errorf("zero address")
	ErrFeeTooHigh    = fmt.Errorf("performance fee above cap")
	ErrInvalidConfig = fmt.Errorf("invalid config")

	// State errors: the ledger is left unchanged.
	ErrNoSlotsAvailable   = fmt.Errorf("no proxy slots available")
	ErrSlotNotBusy        = fmt.Errorf("proxy slot not busy")
	ErrTooManySlots       = fmt.Errorf("too many slots added in one call")
	ErrCooldownNotElapsed = fmt.Errorf("unstake cooldown not elapsed")
	ErrNoActivePositions  = fmt.Errorf("no active positions")
	ErrTooManyPositions   = fmt.Errorf("max active positions reached")
	ErrPositionNotFound   = fmt.Errorf("position not found")
	ErrRequestNotFound    = fmt.Errorf("withdrawal request not found")
	ErrRequestCancelled   = fmt.Errorf("withdrawal request already cancelled")
	ErrRequestFulfilled   = fmt.Errorf("withdrawal request already fulfilled")
	ErrNotRequestOwner    = fmt.Errorf("caller is not the request owner")
	ErrCancelTooEarly     = fmt.Errorf("cancel window not yet open")

	// Economic guards: same, nothing persisted.
	ErrProfitBelowBook        = fmt.Errorf("expected assets below book value")
	ErrPayoutAboveOracle      = fmt.Errorf("expected payout above staked asset value")
	ErrProfitBelowThreshold   = fmt.Errorf("expected profit below threshold")
	ErrUnstakeTooLong         = fmt.Errorf("unstake maturity too far out")
	ErrDepositCapExceeded     = fmt.Errorf("deposit cap exceeded")
	ErrDepositBelowMinimum    = fmt.Errorf("deposit below minimum")
	ErrWithdrawalBelowMinimum = fmt.Errorf("withdrawal below minimum")
	ErrInsufficientShares     = fmt.Errorf("insufficient shares")
	ErrInsufficientAllowance  = fmt.Errorf("insufficient allowance")
	ErrInsufficientBalance    = fmt.Errorf("insufficient balance")
	ErrSwapOutputBelowMinimum = fmt.Errorf("swap output below minimum")
	ErrSwapNoSpend            = fmt.Errorf("swap spent no base asset")
)
