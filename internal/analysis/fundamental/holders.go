package fundamental

import (
	"github.com/seenimoa/stockfusion/pkg/models"
)

// CompareHolders matches the latest top-10 holders against the previous
// filing by name. A holder absent from the previous filing is new and its
// previous share count is zero. A nil previous list means the previous
// filing was unavailable; every delta is then zero.
func CompareHolders(latest, previous []models.Shareholder) []models.HolderChange {
	prevShares := make(map[string]float64, len(previous))
	for _, h := range previous {
		prevShares[h.Name] = h.Shares
	}

	out := make([]models.HolderChange, 0, len(latest))
	for _, h := range latest {
		change := models.HolderChange{Shareholder: h}
		if previous == nil {
			out = append(out, change)
			continue
		}
		prev, ok := prevShares[h.Name]
		change.PreviousShares = prev
		change.Delta = h.Shares - prev
		change.New = !ok
		out = append(out, change)
	}
	return out
}
