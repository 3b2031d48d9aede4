package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/richardliu001/payments-engine/internal/model"
	"github.com/shopspring/decimal"
)

// Reader streams transaction records out of a csv source. Columns are found
// through the header row, so column order does not matter. Any malformed row
// fails the whole run; there is no point producing a ledger from a partial
// stream.
type Reader struct {
	csv  *csv.Reader
	cols map[string]int
	row  int
}

// NewReader wraps r. The first Next call consumes the header.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	// dispute-family rows legitimately omit the amount column
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{csv: cr}
}

// Next returns the next record, or io.EOF when the stream is done.
func (r *Reader) Next() (model.Transaction, error) {
	if r.cols == nil {
		if err := r.readHeader(); err != nil {
			return model.Transaction{}, err
		}
	}

	rec, err := r.csv.Read()
	if err != nil {
		return model.Transaction{}, err
	}
	r.row++

	txType, err := model.ParseTxType(r.field(rec, "type"))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("row %d: %w", r.row, err)
	}
	client, err := strconv.ParseUint(r.field(rec, "client"), 10, 16)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("row %d: bad client id: %w", r.row, err)
	}
	id, err := strconv.ParseUint(r.field(rec, "tx"), 10, 32)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("row %d: bad tx id: %w", r.row, err)
	}

	tx := model.Transaction{
		ID:       uint32(id),
		ClientID: uint16(client),
		Type:     txType,
	}

	raw := r.field(rec, "amount")
	if txType.HasAmount() {
		if raw == "" {
			return model.Transaction{}, fmt.Errorf("row %d: %s is missing an amount", r.row, txType)
		}
		amt, err := decimal.NewFromString(raw)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("row %d: bad amount: %w", r.row, err)
		}
		if amt.IsNegative() {
			return model.Transaction{}, fmt.Errorf("row %d: negative amount %s", r.row, raw)
		}
		tx.Amount = amt
	} else if raw != "" {
		return model.Transaction{}, fmt.Errorf("row %d: %s must not carry an amount", r.row, txType)
	}

	return tx, nil
}

func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("input has no header row")
		}
		return err
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"type", "client", "tx"} {
		if _, ok := cols[required]; !ok {
			return fmt.Errorf("input header is missing column %q", required)
		}
	}
	r.cols = cols
	return nil
}

func (r *Reader) field(rec []string, name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
