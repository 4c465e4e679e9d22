package eastmoney

import (
	"context"
	"fmt"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
)

// industryBoards filters the eastmoney industry boards.
const industryBoards = "m:90+t:2"

// Industries returns the industry board directory.
func (p *Provider) Industries(ctx context.Context) ([]models.Industry, error) {
	rows, err := p.clist(ctx, industryBoards, "f12,f14", 500)
	if err != nil {
		return nil, err
	}
	boards := make([]models.Industry, 0, len(rows))
	for _, row := range rows {
		code, name := row.Get("f12").String(), cleanText(row.Get("f14").String())
		if code != "" && name != "" {
			boards = append(boards, models.Industry{Code: code, Name: name})
		}
	}
	if len(boards) == 0 {
		return nil, fmt.Errorf("industry boards: %w", provider.ErrEmpty)
	}
	return boards, nil
}

// Constituents returns the quotes of every member of an industry board.
func (p *Provider) Constituents(ctx context.Context, boardCode string) ([]models.PeerQuote, error) {
	rows, err := p.clist(ctx, "b:"+boardCode, "f2,f3,f6,f8,f9,f12,f14,f20,f23", 500)
	if err != nil {
		return nil, err
	}
	peers := make([]models.PeerQuote, 0, len(rows))
	for _, row := range rows {
		code := row.Get("f12").String()
		if code == "" {
			continue
		}
		peers = append(peers, models.PeerQuote{
			Code:      code,
			Name:      cleanText(row.Get("f14").String()),
			Price:     infra.Float(row.Get("f2")),
			ChangePct: infra.Float(row.Get("f3")),
			PE:        infra.Float(row.Get("f9")),
			PB:        infra.Float(row.Get("f23")),
			TotalMV:   infra.Float(row.Get("f20")),
			Amount:    infra.Float(row.Get("f6")),
			Turnover:  infra.Float(row.Get("f8")),
		})
	}
	if len(peers) == 0 {
		return nil, fmt.Errorf("constituents %s: %w", boardCode, provider.ErrEmpty)
	}
	return peers, nil
}

var _ provider.IndustryDirectory = (*Provider)(nil)
