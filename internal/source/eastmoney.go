package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StockLens/internal/model"
)

// EastmoneySource implements DataSource against the Eastmoney push2
// quote API. Requests carry a per-fetch timeout via the HTTP client, so
// a stuck upstream cannot stall an analysis wave forever.
type EastmoneySource struct {
	Client   *http.Client
	QuoteURL string
	HisURL   string
}

// NewEastmoneySource creates a source with optional proxy support.
func NewEastmoneySource(proxyURL string) *EastmoneySource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &EastmoneySource{
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		QuoteURL: "https://push2.eastmoney.com",
		HisURL:   "https://push2his.eastmoney.com",
	}
}

func (s *EastmoneySource) Name() string { return "eastmoney" }

// secID maps an A-share code to Eastmoney's market-prefixed form.
func secID(code string) string {
	if IsShanghai(code) {
		return "1." + code
	}
	return "0." + code
}

func klt(period model.Period) string {
	switch period {
	case model.PeriodIntraday:
		return "1"
	case model.PeriodWeek:
		return "102"
	case model.PeriodMonth:
		return "103"
	case model.PeriodYear:
		return "106"
	default:
		return "101"
	}
}

type quoteListResponse struct {
	Data *struct {
		Diff []struct {
			Price     float64 `json:"f2"`
			ChangePct float64 `json:"f3"`
			Change    float64 `json:"f4"`
			Volume    float64 `json:"f5"`
			Amount    float64 `json:"f6"`
			Code      string  `json:"f12"`
			Name      string  `json:"f14"`
			High      float64 `json:"f15"`
			Low       float64 `json:"f16"`
			Open      float64 `json:"f17"`
			PrevClose float64 `json:"f18"`
		} `json:"diff"`
	} `json:"data"`
}

func (s *EastmoneySource) FetchQuotes(ctx context.Context, codes []string) ([]model.Quote, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	secIDs := make([]string, len(codes))
	for i, c := range codes {
		secIDs[i] = secID(c)
	}
	u := fmt.Sprintf("%s/api/qt/ulist.np/get?fltt=2&invt=2&fields=f2,f3,f4,f5,f6,f12,f14,f15,f16,f17,f18&secids=%s",
		s.QuoteURL, url.QueryEscape(strings.Join(secIDs, ",")))

	body, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var resp quoteListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("eastmoney decode quotes: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("eastmoney: no quote data returned")
	}

	now := time.Now()
	quotes := make([]model.Quote, 0, len(resp.Data.Diff))
	for _, d := range resp.Data.Diff {
		quotes = append(quotes, model.Quote{
			Code:          d.Code,
			Name:          d.Name,
			Price:         d.Price,
			Change:        d.Change,
			ChangePercent: d.ChangePct,
			Open:          d.Open,
			PrevClose:     d.PrevClose,
			High:          d.High,
			Low:           d.Low,
			Volume:        d.Volume,
			Amount:        d.Amount,
			Timestamp:     now,
		})
	}
	return quotes, nil
}

type detailResponse struct {
	Data *struct {
		MarketCap     float64 `json:"f116"`
		CircMarketCap float64 `json:"f117"`
		PERatio       float64 `json:"f162"`
		TurnoverRate  float64 `json:"f168"`
	} `json:"data"`
}

func (s *EastmoneySource) FetchDetail(ctx context.Context, code string) (*model.Detail, error) {
	u := fmt.Sprintf("%s/api/qt/stock/get?fltt=2&invt=2&fields=f116,f117,f162,f168&secid=%s",
		s.QuoteURL, secID(code))

	body, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var resp detailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("eastmoney decode detail: %w", err)
	}
	if resp.Data == nil {
		return nil, nil // unknown symbol; absence is not an error
	}
	return &model.Detail{
		Code:                 code,
		MarketCap:            resp.Data.MarketCap,
		CirculatingMarketCap: resp.Data.CircMarketCap,
		PERatio:              resp.Data.PERatio,
		TurnoverRate:         resp.Data.TurnoverRate,
	}, nil
}

type klineResponse struct {
	Data *struct {
		Klines []string `json:"klines"`
	} `json:"data"`
}

func (s *EastmoneySource) FetchSeries(ctx context.Context, code string, period model.Period, count int) ([]model.Bar, error) {
	u := fmt.Sprintf("%s/api/qt/stock/kline/get?fields1=f1,f2,f3&fields2=f51,f52,f53,f54,f55,f56,f57&klt=%s&fqt=1&end=20500101&lmt=%d&secid=%s",
		s.HisURL, klt(period), count, secID(code))

	body, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var resp klineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("eastmoney decode kline: %w", err)
	}
	if resp.Data == nil {
		return nil, nil // treated upstream as insufficient data
	}

	bars := make([]model.Bar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			continue // skip malformed lines rather than failing the series
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// parseKline parses one "date,open,close,high,low,volume,amount" line.
func parseKline(line string) (model.Bar, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 7 {
		return model.Bar{}, fmt.Errorf("kline: short line %q", line)
	}
	ts, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		ts, err = time.Parse("2006-01-02 15:04", parts[0])
		if err != nil {
			return model.Bar{}, fmt.Errorf("kline time %q: %w", parts[0], err)
		}
	}
	vals := make([]float64, 6)
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return model.Bar{}, fmt.Errorf("kline field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return model.Bar{
		Time:   ts,
		Open:   vals[0],
		Close:  vals[1],
		High:   vals[2],
		Low:    vals[3],
		Volume: vals[4],
		Amount: vals[5],
	}, nil
}

func (s *EastmoneySource) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "https://quote.eastmoney.com/")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eastmoney fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eastmoney read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eastmoney: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
