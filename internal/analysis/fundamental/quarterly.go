package fundamental

import (
	"github.com/guregu/null/v6"

	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

// DecomposeQuarterly converts cumulative (year-to-date) values of a
// canonical statement into single-quarter values.
//
// March values are already quarter-isolated and kept. Every later quarter
// end becomes cum(period) − cum(previous quarter end of the same year); when
// that previous period or either value is unknown the quarter is unknown.
// Only Flow items are converted; other items are copied unchanged. A nil
// items slice converts every Flow item.
func DecomposeQuarterly(stmt *models.Statement, items []LineItem) *models.Statement {
	if stmt == nil {
		return nil
	}
	if items == nil {
		items = FlowItems()
	}

	cum := stmt.Clone()
	cum.Sort()
	out := cum.Clone()

	for _, item := range items {
		if ClassOf(item) != Flow {
			continue
		}
		key := string(item)
		for i, row := range cum.Rows {
			if _, ok := row.Values[key]; !ok {
				continue
			}
			out.Rows[i].Values[key] = quarterValue(cum, row, item)
		}
	}
	return out
}

func quarterValue(cum *models.Statement, row models.StatementRow, item LineItem) null.Float {
	if !utils.IsQuarterEnd(row.Period) {
		return null.Float{}
	}
	cur := get(row, item)
	if utils.QuarterOf(row.Period) == 1 {
		return cur
	}

	prevRow, ok := cum.Row(utils.PrevQuarterEnd(row.Period))
	if !ok {
		return null.Float{}
	}
	prev := get(prevRow, item)
	if !cur.Valid || !prev.Valid {
		return null.Float{}
	}
	return null.FloatFrom(cur.Float64 - prev.Float64)
}
