package tefas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fundtrack/internal/models"
)

const bindHistoryPath = "/api/DB/BindHistoryInfo"

// sourceDateLayout is the dd.MM.yyyy format the platform expects in requests.
const sourceDateLayout = "02.01.2006"

// historyResponse mirrors the BindHistoryInfo answer. Row fields decode
// through looseNumber because the source switches between strings and
// numbers across rows; validation happens per field in parseRecord so a
// malformed value names the column it came from.
type historyResponse struct {
	Draw            int             `json:"draw"`
	RecordsTotal    int64           `json:"recordsTotal"`
	RecordsFiltered int64           `json:"recordsFiltered"`
	Data            []historyRecord `json:"data"`
}

type historyRecord struct {
	Date          looseNumber `json:"TARIH"`
	FundCode      string      `json:"FONKODU"`
	FundName      string      `json:"FONUNVAN"`
	Price         looseNumber `json:"FIYAT"`
	ShareCount    looseNumber `json:"TEDPAYSAYISI"`
	InvestorCount looseNumber `json:"KISISAYISI"`
	MarketCap     looseNumber `json:"PORTFOYBUYUKLUK"`
}

// looseNumber captures a scalar token as text without judging it, so decoding
// never rejects a row wholesale.
type looseNumber string

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*n = looseNumber(s)
	return nil
}

func (n looseNumber) String() string { return string(n) }

// FetchPrice returns the NAV published for one fund on one calendar day.
// Days without trading data yield ErrNotFound.
func (c *Client) FetchPrice(ctx context.Context, fundCode string, date time.Time) (*models.FundPrice, error) {
	date = DateOnly(date)
	if date.After(DateOnly(time.Now().UTC())) {
		return nil, fmt.Errorf("tefas: date %s is in the future", date.Format("2006-01-02"))
	}

	prices, err := c.fetchRange(ctx, fundCode, date, date)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, ErrNotFound
	}
	return &prices[0], nil
}

// FetchHistory returns published NAVs between start and end inclusive, in
// chronological order. The sequence is sparse: the source omits weekends
// and holidays and this client does not synthesize them.
func (c *Client) FetchHistory(ctx context.Context, fundCode string, start, end time.Time) ([]models.FundPrice, error) {
	start, end = DateOnly(start), DateOnly(end)
	if start.After(end) {
		return nil, fmt.Errorf("tefas: start %s after end %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return c.fetchRange(ctx, fundCode, start, end)
}

func (c *Client) fetchRange(ctx context.Context, fundCode string, start, end time.Time) ([]models.FundPrice, error) {
	form := url.Values{}
	form.Set("fontip", "YAT")
	form.Set("sfontur", "")
	form.Set("bastarih", start.Format(sourceDateLayout))
	form.Set("bittarih", end.Format(sourceDateLayout))
	if code := strings.ToUpper(strings.TrimSpace(fundCode)); code != "" {
		form.Set("fonkod", code)
	}

	body, err := c.doRequest(ctx, bindHistoryPath, form)
	if err != nil {
		return nil, err
	}
	return parseHistory(body, time.Now().UTC())
}

func parseHistory(body []byte, fetchedAt time.Time) ([]models.FundPrice, error) {
	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Reason: "unexpected document shape", Err: err}
	}

	out := make([]models.FundPrice, 0, len(resp.Data))
	for _, rec := range resp.Data {
		price, err := parseRecord(rec, fetchedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, price)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func parseRecord(rec historyRecord, fetchedAt time.Time) (models.FundPrice, error) {
	ms, err := strconv.ParseInt(rec.Date.String(), 10, 64)
	if err != nil {
		return models.FundPrice{}, &ParseError{Reason: fmt.Sprintf("bad TARIH %q", rec.Date.String()), Err: err}
	}
	price, err := decimal.NewFromString(rec.Price.String())
	if err != nil {
		return models.FundPrice{}, &ParseError{Reason: fmt.Sprintf("bad FIYAT %q", rec.Price.String()), Err: err}
	}

	out := models.FundPrice{
		FundCode:  strings.ToUpper(strings.TrimSpace(rec.FundCode)),
		FundName:  strings.TrimSpace(rec.FundName),
		Date:      DateOnly(time.UnixMilli(ms).UTC()),
		Price:     price,
		FetchedAt: fetchedAt,
	}
	// Secondary columns drift in and out of the source document; missing
	// values stay zero instead of failing the whole row.
	if mc, err := decimal.NewFromString(rec.MarketCap.String()); err == nil {
		out.MarketCap = mc
	}
	if n, err := strconv.ParseInt(rec.ShareCount.String(), 10, 64); err == nil {
		out.ShareCount = n
	}
	if n, err := strconv.ParseInt(rec.InvestorCount.String(), 10, 64); err == nil {
		out.InvestorCount = n
	}
	return out, nil
}

// DateOnly strips a timestamp down to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
