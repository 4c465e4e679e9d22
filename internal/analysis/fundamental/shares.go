package fundamental

import (
	"time"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/stockfusion/pkg/models"
)

// SharesFromAbstract estimates the total share count from a canonical
// financial abstract: parent net profit ÷ basic EPS at the latest period
// where both are usable, else equity ÷ book value per share. It returns
// unknown when neither ratio can be formed.
func SharesFromAbstract(abstract *models.Statement) (null.Float, time.Time) {
	if abstract.Empty() {
		return null.Float{}, time.Time{}
	}
	rows := abstract.Clone()
	rows.Sort()

	for i := len(rows.Rows) - 1; i >= 0; i-- {
		row := rows.Rows[i]
		if v := shareRatio(get(row, ParentNetProfit), get(row, BasicEPS)); v.Valid {
			return v, row.Period
		}
	}
	for i := len(rows.Rows) - 1; i >= 0; i-- {
		row := rows.Rows[i]
		equity := get(row, ParentEquity)
		if !equity.Valid {
			equity = get(row, TotalEquity)
		}
		if v := shareRatio(equity, get(row, BookValuePerShare)); v.Valid {
			return v, row.Period
		}
	}
	return null.Float{}, time.Time{}
}

func shareRatio(amount, perShare null.Float) null.Float {
	if !amount.Valid || !perShare.Valid || perShare.Float64 == 0 {
		return null.Float{}
	}
	v := amount.Float64 / perShare.Float64
	if v <= 0 {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// KnownPeriods returns the periods of stmt that carry at least one known
// value, ascending.
func KnownPeriods(stmt *models.Statement) []time.Time {
	if stmt.Empty() {
		return nil
	}
	sorted := stmt.Clone()
	sorted.Sort()

	var out []time.Time
	for _, row := range sorted.Rows {
		for _, v := range row.Values {
			if v.Valid {
				out = append(out, row.Period)
				break
			}
		}
	}
	return out
}
