package source

import (
	"context"
	"strings"
	"time"

	"StockLens/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Price   float64
	Bars    map[string][]model.Bar // per-code override; generated when absent
	Details map[string]*model.Detail
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchQuotes(_ context.Context, codes []string) ([]model.Quote, error) {
	quotes := make([]model.Quote, 0, len(codes))
	for _, code := range codes {
		quotes = append(quotes, model.Quote{
			Code:      code,
			Name:      "mock-" + code,
			Price:     m.Price,
			PrevClose: m.Price,
			Open:      m.Price,
			High:      m.Price * 1.01,
			Low:       m.Price * 0.99,
			Volume:    1_000_000,
			Amount:    m.Price * 1_000_000,
			Timestamp: time.Now(),
		})
	}
	return quotes, nil
}

func (m *MockSource) FetchDetail(_ context.Context, code string) (*model.Detail, error) {
	if d, ok := m.Details[code]; ok {
		return d, nil
	}
	return &model.Detail{Code: code, PERatio: 15, TurnoverRate: 1.2}, nil
}

func (m *MockSource) FetchSeries(_ context.Context, code string, _ model.Period, count int) ([]model.Bar, error) {
	if bars, ok := m.Bars[code]; ok {
		return bars, nil
	}
	return GenerateBars(m.Price, count), nil
}

// GenerateBars builds a gently drifting daily series around basePrice.
func GenerateBars(basePrice float64, count int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1_000_000,
			Amount: p * 1_000_000,
		}
	}
	return bars
}

// FlatBars builds a perfectly flat series, handy for consolidation tests.
func FlatBars(price, volume float64, count int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := range bars {
		bars[i] = model.Bar{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: volume,
			Amount: price * volume,
		}
	}
	return bars
}

// IsShanghai reports whether an A-share code belongs to the Shanghai
// exchange by its prefix.
func IsShanghai(code string) bool {
	return strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") ||
		strings.HasPrefix(code, "5")
}
