package fundamental

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/seenimoa/stockfusion/pkg/models"
)

// Sane multiple ranges; constituents outside them are loss-making or
// distorted and are left out of PE/PB statistics.
const (
	maxSanePE = 500
	maxSanePB = 50
)

// IndustryStats summarizes industry constituents.
func IndustryStats(peers []models.PeerQuote) models.IndustryStats {
	st := models.IndustryStats{Count: len(peers)}
	if len(peers) == 0 {
		return st
	}

	var pes, pbs, changes []float64
	for _, p := range peers {
		if p.PE > 0 && p.PE < maxSanePE {
			pes = append(pes, p.PE)
		}
		if p.PB > 0 && p.PB < maxSanePB {
			pbs = append(pbs, p.PB)
		}
		changes = append(changes, p.ChangePct)
		switch {
		case p.ChangePct > 0:
			st.Advancing++
		case p.ChangePct < 0:
			st.Declining++
		}
	}

	st.PEMedian, st.PEMean = median(pes), mean(pes)
	st.PBMedian, st.PBMean = median(pbs), mean(pbs)
	st.AvgChangePct = mean(changes)
	return st
}

// ComparePeers flags the target among peers, orders them by traded amount
// (descending) and attaches industry statistics.
func ComparePeers(industry models.Industry, target string, peers []models.PeerQuote) models.IndustryComparison {
	rows := make([]models.PeerQuote, len(peers))
	copy(rows, peers)
	for i := range rows {
		rows[i].IsTarget = rows[i].Code == target
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Amount > rows[j].Amount })

	return models.IndustryComparison{
		Industry: industry,
		Peers:    rows,
		Stats:    IndustryStats(rows),
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// median averages the two middle values for even counts.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return stat.Mean(sorted[mid-1:mid+1], nil)
}
