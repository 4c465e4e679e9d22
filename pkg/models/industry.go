package models

// Industry is one board of the industry directory.
type Industry struct {
	Code string `json:"code"` // board code, e.g. "BK0477"
	Name string `json:"name"`
}

// PeerQuote is one constituent of an industry board.
type PeerQuote struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
	PE        float64 `json:"pe"`
	PB        float64 `json:"pb"`
	TotalMV   float64 `json:"total_mv"`
	Amount    float64 `json:"amount"`
	Turnover  float64 `json:"turnover"`
	IsTarget  bool    `json:"is_target"`
}

// IndustryStats summarizes an industry's constituents. PE and PB statistics
// only include constituents inside sane ranges.
type IndustryStats struct {
	Count        int     `json:"count"`
	PEMedian     float64 `json:"pe_median"`
	PEMean       float64 `json:"pe_mean"`
	PBMedian     float64 `json:"pb_median"`
	PBMean       float64 `json:"pb_mean"`
	Advancing    int     `json:"advancing"`
	Declining    int     `json:"declining"`
	AvgChangePct float64 `json:"avg_change_pct"`
}

// IndustryComparison places a security among its industry peers.
type IndustryComparison struct {
	Industry Industry      `json:"industry"`
	Peers    []PeerQuote   `json:"peers"` // sorted by traded amount, descending
	Stats    IndustryStats `json:"stats"`
}
