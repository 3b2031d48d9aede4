package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/richardliu001/payments-engine/internal/model"
)

// WriteAccounts renders the final snapshot as csv, decimals fixed to four
// fractional digits. Rows are written in the order given.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return err
	}
	for i := range accounts {
		a := &accounts[i]
		row := []string{
			strconv.FormatUint(uint64(a.ClientID), 10),
			a.Available.StringFixed(4),
			a.Held.StringFixed(4),
			a.Total().StringFixed(4),
			strconv.FormatBool(a.Locked),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
