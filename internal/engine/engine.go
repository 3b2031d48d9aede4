package engine

import (
	"errors"
	"io"
	"sort"

	"github.com/richardliu001/payments-engine/internal/config"
	"github.com/richardliu001/payments-engine/internal/csvio"
	"github.com/richardliu001/payments-engine/internal/ledger"
	"go.uber.org/zap"
)

// Engine wires the csv boundary to the ledger fold.
type Engine struct {
	cfg *config.Config
	log *zap.SugaredLogger
}

// New returns an Engine.
func New(cfg *config.Config, logger *zap.SugaredLogger) *Engine {
	return &Engine{cfg: cfg, log: logger}
}

// Run streams transaction records from in through the ledger and writes the
// final account report to out. Records are applied strictly in input order.
func (e *Engine) Run(in io.Reader, out io.Writer) error {
	var opts []ledger.Option
	if e.cfg.Engine.WithdrawalBackfill {
		opts = append(opts, ledger.WithWithdrawalBackfill())
	}
	led := ledger.New(e.log, opts...)

	reader := csvio.NewReader(in)
	n := 0
	for {
		tx, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := led.Apply(tx); err != nil {
			return err
		}
		n++
	}
	e.log.Infof("processed %d transactions", n)

	accounts := led.Snapshot()
	if e.cfg.Output.SortByClient {
		sort.Slice(accounts, func(i, j int) bool {
			return accounts[i].ClientID < accounts[j].ClientID
		})
	}
	return csvio.WriteAccounts(out, accounts)
}
