package sina

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

// Column order of table#sharebonus_1: 公告日期, 送股, 转增, 派息, 进度,
// 除权除息日, 股权登记日, 红股上市日, 查看详细.
const (
	colAnnounced = iota
	colBonus
	colTransfer
	colCash
	colProgress
	colExDate
	colRecordDate
	minColumns
)

// fetchDividends scrapes the dividend history page, newest first.
func (p *Provider) fetchDividends(ctx context.Context, params provider.QueryParams) (any, error) {
	code := params[provider.ParamCode]
	url := fmt.Sprintf("%s/corp/go.php/vISSUE_ShareBonus/stockid/%s.phtml", p.corpHost, code)
	body, err := infra.GetBytes(ctx, p.http, url, nil)
	if err != nil {
		return nil, err
	}

	divs, err := parseDividends(body)
	if err != nil {
		return nil, err
	}
	if len(divs) == 0 {
		return nil, fmt.Errorf("dividends %s: %w", code, provider.ErrEmpty)
	}
	return divs, nil
}

// parseDividends reads the bonus table. The page is served as GBK; bodies
// that are already valid UTF-8 are read as is.
func parseDividends(body []byte) ([]models.Dividend, error) {
	var r io.Reader = bytes.NewReader(body)
	if !utf8.Valid(body) {
		r = transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse dividend page: %w", err)
	}

	var divs []models.Dividend
	doc.Find("table#sharebonus_1 tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return strings.TrimSpace(td.Text())
		})
		if len(cells) < minColumns {
			return
		}
		announced, err := utils.ParseDate(cells[colAnnounced])
		if err != nil {
			return
		}
		divs = append(divs, models.Dividend{
			AnnouncedAt:    announced,
			BonusShares:    utils.ParseNumberOr(cells[colBonus], 0),
			TransferShares: utils.ParseNumberOr(cells[colTransfer], 0),
			CashPer10:      utils.ParseNumberOr(cells[colCash], 0),
			Progress:       cells[colProgress],
			ExDate:         optionalDate(cells[colExDate]),
			RecordDate:     optionalDate(cells[colRecordDate]),
		})
	})
	return divs, nil
}

// optionalDate returns the zero time for "--" and other placeholders.
func optionalDate(s string) time.Time {
	t, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
