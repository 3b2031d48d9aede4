package ledger

import (
	"errors"
	"fmt"

	"github.com/richardliu001/payments-engine/internal/model"
	"go.uber.org/zap"
)

// ErrDuplicateTransaction means the input stream reused a deposit or
// withdrawal id. The stream is corrupt at that point: later disputes against
// the id could no longer be attributed, so processing must stop.
var ErrDuplicateTransaction = errors.New("duplicate transaction id")

// parkedWithdrawal is a withdrawal rejected while disputes were open, kept
// so it can be replayed if one of those disputes resolves (backfill mode).
type parkedWithdrawal struct {
	tx model.Transaction
	// dispute ids open at rejection time; only resolving one of these can
	// revive the withdrawal
	openDisputes map[uint32]struct{}
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithWithdrawalBackfill replays withdrawals rejected only because funds were
// held by open disputes, once one of those disputes resolves.
func WithWithdrawalBackfill() Option {
	return func(l *Ledger) { l.backfill = true }
}

// Ledger folds an ordered transaction stream into per-client accounts.
// It owns all state; accounts are never handed out by reference.
type Ledger struct {
	accounts map[uint16]*model.Account
	txs      map[uint32]*model.Transaction
	disputed map[uint16]map[uint32]struct{}
	parked   map[uint16][]parkedWithdrawal
	backfill bool
	log      *zap.SugaredLogger
}

// New returns an empty Ledger.
func New(logger *zap.SugaredLogger, opts ...Option) *Ledger {
	l := &Ledger{
		accounts: make(map[uint16]*model.Account),
		txs:      make(map[uint32]*model.Transaction),
		disputed: make(map[uint16]map[uint32]struct{}),
		parked:   make(map[uint16][]parkedWithdrawal),
		log:      logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply processes one record. Records must arrive in input order. The only
// error ever returned is ErrDuplicateTransaction (wrapped); every other
// invalid instruction is dropped with no balance effect, mirroring how a real
// ledger keeps processing after one bad instruction.
func (l *Ledger) Apply(tx model.Transaction) error {
	switch tx.Type {
	case model.TxDeposit:
		return l.applyDeposit(tx)
	case model.TxWithdrawal:
		return l.applyWithdrawal(tx)
	case model.TxDispute:
		l.applyDispute(tx)
	case model.TxResolve:
		l.applyResolve(tx)
	case model.TxChargeback:
		l.applyChargeback(tx)
	default:
		return fmt.Errorf("unknown transaction type %q", tx.Type)
	}
	return nil
}

// Snapshot copies out the final state of every account.
func (l *Ledger) Snapshot() []model.Account {
	out := make([]model.Account, 0, len(l.accounts))
	for _, acct := range l.accounts {
		out = append(out, *acct)
	}
	return out
}

// account returns the client's account, creating it on first reference.
func (l *Ledger) account(clientID uint16) *model.Account {
	acct, ok := l.accounts[clientID]
	if !ok {
		acct = model.NewAccount(clientID)
		l.accounts[clientID] = acct
	}
	return acct
}

// idInUse covers stored deposits/withdrawals and parked withdrawals.
func (l *Ledger) idInUse(id uint32) bool {
	if _, ok := l.txs[id]; ok {
		return true
	}
	for _, list := range l.parked {
		for _, p := range list {
			if p.tx.ID == id {
				return true
			}
		}
	}
	return false
}

func (l *Ledger) applyDeposit(tx model.Transaction) error {
	if l.idInUse(tx.ID) {
		return fmt.Errorf("deposit tx %d: %w", tx.ID, ErrDuplicateTransaction)
	}
	acct := l.account(tx.ClientID)
	if acct.Locked {
		l.log.Debugf("dropping deposit tx %d: account %d is locked", tx.ID, tx.ClientID)
		return nil
	}
	acct.Available = acct.Available.Add(tx.Amount)
	stored := tx
	stored.DisputeState = model.StateNormal
	l.txs[tx.ID] = &stored
	return nil
}

func (l *Ledger) applyWithdrawal(tx model.Transaction) error {
	if l.idInUse(tx.ID) {
		return fmt.Errorf("withdrawal tx %d: %w", tx.ID, ErrDuplicateTransaction)
	}
	acct := l.account(tx.ClientID)
	if acct.Locked {
		l.log.Debugf("dropping withdrawal tx %d: account %d is locked", tx.ID, tx.ClientID)
		return nil
	}
	if tx.Amount.GreaterThan(acct.Available) {
		open := l.disputed[tx.ClientID]
		if l.backfill && len(open) > 0 && tx.Amount.LessThanOrEqual(acct.Total()) {
			// funds exist but are tied up in disputes; park the withdrawal
			// with a snapshot of the disputes open right now
			snapshot := make(map[uint32]struct{}, len(open))
			for id := range open {
				snapshot[id] = struct{}{}
			}
			l.parked[tx.ClientID] = append(l.parked[tx.ClientID], parkedWithdrawal{tx: tx, openDisputes: snapshot})
			l.log.Infof("parked withdrawal tx %d for client %d pending dispute resolution", tx.ID, tx.ClientID)
			return nil
		}
		l.log.Debugf("dropping withdrawal tx %d: insufficient funds for client %d", tx.ID, tx.ClientID)
		return nil
	}
	acct.Available = acct.Available.Sub(tx.Amount)
	stored := tx
	l.txs[tx.ID] = &stored
	return nil
}

func (l *Ledger) applyDispute(tx model.Transaction) {
	stored, acct, ok := l.disputable(tx, model.StateNormal)
	if !ok {
		return
	}
	acct.Available = acct.Available.Sub(stored.Amount)
	acct.Held = acct.Held.Add(stored.Amount)
	stored.DisputeState = model.StateDisputed
	open, ok := l.disputed[tx.ClientID]
	if !ok {
		open = make(map[uint32]struct{})
		l.disputed[tx.ClientID] = open
	}
	open[tx.ID] = struct{}{}
}

func (l *Ledger) applyResolve(tx model.Transaction) {
	stored, acct, ok := l.disputable(tx, model.StateDisputed)
	if !ok {
		return
	}
	acct.Held = acct.Held.Sub(stored.Amount)
	acct.Available = acct.Available.Add(stored.Amount)
	// back to Normal: the deposit may be disputed again later
	stored.DisputeState = model.StateNormal
	delete(l.disputed[tx.ClientID], tx.ID)
	if l.backfill {
		l.replayParked(tx.ClientID, tx.ID, acct)
	}
}

func (l *Ledger) applyChargeback(tx model.Transaction) {
	stored, acct, ok := l.disputable(tx, model.StateDisputed)
	if !ok {
		return
	}
	// held funds leave the system and the account is frozen for good
	acct.Held = acct.Held.Sub(stored.Amount)
	stored.DisputeState = model.StateChargedBack
	acct.Locked = true
	delete(l.disputed[tx.ClientID], tx.ID)
}

// disputable runs the shared guards of the dispute family: the referenced
// transaction must be a stored deposit of the same client in the wanted
// dispute state, and the account must not be locked. Any miss is a no-op.
func (l *Ledger) disputable(tx model.Transaction, want model.DisputeState) (*model.Transaction, *model.Account, bool) {
	stored, ok := l.txs[tx.ID]
	if !ok {
		l.log.Debugf("ignoring %s: tx %d not found", tx.Type, tx.ID)
		return nil, nil, false
	}
	if stored.Type != model.TxDeposit {
		l.log.Debugf("ignoring %s: tx %d is a %s, only deposits are disputable", tx.Type, tx.ID, stored.Type)
		return nil, nil, false
	}
	if stored.ClientID != tx.ClientID {
		l.log.Warnf("ignoring %s: tx %d belongs to client %d, not %d", tx.Type, tx.ID, stored.ClientID, tx.ClientID)
		return nil, nil, false
	}
	acct := l.account(tx.ClientID)
	if acct.Locked {
		l.log.Debugf("ignoring %s: account %d is locked", tx.Type, tx.ClientID)
		return nil, nil, false
	}
	if stored.DisputeState != want {
		l.log.Debugf("ignoring %s: tx %d is %s, want %s", tx.Type, tx.ID, stored.DisputeState, want)
		return nil, nil, false
	}
	return stored, acct, true
}

// replayParked walks the client's parked withdrawals in arrival order and
// enacts those whose snapshot contains the just-resolved dispute, provided
// available funds now cover them. Enacted withdrawals leave the parked list.
func (l *Ledger) replayParked(clientID uint16, resolvedID uint32, acct *model.Account) {
	list := l.parked[clientID]
	if len(list) == 0 {
		return
	}
	kept := list[:0]
	for _, p := range list {
		_, sawDispute := p.openDisputes[resolvedID]
		if sawDispute && p.tx.Amount.LessThanOrEqual(acct.Available) {
			acct.Available = acct.Available.Sub(p.tx.Amount)
			stored := p.tx
			l.txs[p.tx.ID] = &stored
			l.log.Infof("backfilled withdrawal tx %d for client %d after resolve of tx %d", p.tx.ID, clientID, resolvedID)
			continue
		}
		kept = append(kept, p)
	}
	l.parked[clientID] = kept
}
