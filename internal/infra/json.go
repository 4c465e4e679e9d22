package infra

import (
	"github.com/guregu/null/v6"
	"github.com/tidwall/gjson"

	"github.com/seenimoa/stockfusion/pkg/utils"
)

// Number reads a JSON cell that may be a number, a numeric string or a
// placeholder such as "-". Anything that is not a finite number is unknown.
func Number(r gjson.Result) null.Float {
	switch r.Type {
	case gjson.Number:
		return utils.ParseNumber(r.Raw)
	case gjson.String:
		return utils.ParseNumber(r.Str)
	default:
		return null.Float{}
	}
}

// Float reads a JSON cell as a float, zero when unknown.
func Float(r gjson.Result) float64 {
	return Number(r).ValueOrZero()
}
