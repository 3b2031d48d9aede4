package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TxType tags the five record kinds carried by the input stream.
type TxType string

const (
	TxDeposit    TxType = "deposit"
	TxWithdrawal TxType = "withdrawal"
	TxDispute    TxType = "dispute"
	TxResolve    TxType = "resolve"
	TxChargeback TxType = "chargeback"
)

// ParseTxType maps an input tag (case-insensitive) onto a TxType.
func ParseTxType(s string) (TxType, error) {
	switch t := TxType(strings.ToLower(strings.TrimSpace(s))); t {
	case TxDeposit, TxWithdrawal, TxDispute, TxResolve, TxChargeback:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// HasAmount reports whether records of this type carry an amount column.
// Dispute-family records reference an earlier transaction and carry none.
func (t TxType) HasAmount() bool {
	return t == TxDeposit || t == TxWithdrawal
}

// DisputeState tracks where a stored deposit sits in the dispute lifecycle.
type DisputeState uint8

const (
	// StateNormal is the initial state; the deposit may be disputed.
	StateNormal DisputeState = iota
	// StateDisputed means the amount is held pending resolve or chargeback.
	StateDisputed
	// StateChargedBack is terminal; no further dispute activity applies.
	StateChargedBack
)

func (s DisputeState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateDisputed:
		return "disputed"
	case StateChargedBack:
		return "chargedback"
	default:
		return fmt.Sprintf("DisputeState(%d)", uint8(s))
	}
}

// Transaction is one record of the input stream. For deposits and withdrawals
// ID is the unique transaction id and Amount is set; for dispute, resolve and
// chargeback records ID references an earlier deposit and Amount is zero.
type Transaction struct {
	ID       uint32
	ClientID uint16
	Type     TxType
	Amount   decimal.Decimal

	// DisputeState is meaningful only on deposits retained by the ledger.
	DisputeState DisputeState
}
