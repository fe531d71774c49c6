package nseModel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RawEquityMaster is the equity-master payload: a JSON object mapping an index
// category to its index symbols. Decoded through a token stream so category
// order survives (flattening order depends on it).
type RawEquityMaster struct {
	Categories []IndexCategory
}

type IndexCategory struct {
	Name    string
	Symbols []string
}

func (m *RawEquityMaster) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}

		var symbols []string
		if err := dec.Decode(&symbols); err != nil {
			return fmt.Errorf("category %s: %w", name, err)
		}

		m.Categories = append(m.Categories, IndexCategory{Name: name, Symbols: symbols})
	}

	return nil
}

type RawStockIndices struct {
	Data      []RawIndexEntry `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type RawIndexEntry struct {
	Symbol            string          `json:"symbol"`
	Open              decimal.Decimal `json:"open"`
	DayHigh           decimal.Decimal `json:"dayHigh"`
	DayLow            decimal.Decimal `json:"dayLow"`
	LastPrice         decimal.Decimal `json:"lastPrice"`
	PreviousClose     decimal.Decimal `json:"previousClose"`
	Change            decimal.Decimal `json:"change"`
	PChange           decimal.Decimal `json:"pChange"`
	YearHigh          decimal.Decimal `json:"yearHigh"`
	YearLow           decimal.Decimal `json:"yearLow"`
	TotalTradedVolume decimal.Decimal `json:"totalTradedVolume"`
	TotalTradedValue  decimal.Decimal `json:"totalTradedValue"`
	PerChange365d     decimal.Decimal `json:"perChange365d"`
	PerChange30d      decimal.Decimal `json:"perChange30d"`
	Meta              RawIndexMeta    `json:"meta"`
}

type RawIndexMeta struct {
	CompanyName string `json:"companyName"`
}

// RawQuote is the quote-equity payload. Info is a pointer: the endpoint
// answers 200 with the section absent for unknown symbols.
type RawQuote struct {
	Info          *RawQuoteInfo `json:"info"`
	Metadata      RawQuoteMeta  `json:"metadata"`
	PriceInfo     RawPriceInfo  `json:"priceInfo"`
	PreOpenMarket RawPreOpen    `json:"preOpenMarket"`
}

type RawQuoteInfo struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
	Industry    string `json:"industry"`
}

type RawQuoteMeta struct {
	ListingDate    string `json:"listingDate"`
	LastUpdateTime string `json:"lastUpdateTime"`
}

type RawPriceInfo struct {
	Open            decimal.Decimal `json:"open"`
	LastPrice       decimal.Decimal `json:"lastPrice"`
	PreviousClose   decimal.Decimal `json:"previousClose"`
	Change          decimal.Decimal `json:"change"`
	PChange         decimal.Decimal `json:"pChange"`
	IntraDayHighLow RawHighLow      `json:"intraDayHighLow"`
	WeekHighLow     RawWeekHighLow  `json:"weekHighLow"`
}

type RawHighLow struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

type RawWeekHighLow struct {
	Min     decimal.Decimal `json:"min"`
	MinDate string          `json:"minDate"`
	Max     decimal.Decimal `json:"max"`
	MaxDate string          `json:"maxDate"`
}

type RawPreOpen struct {
	TotalTradedVolume decimal.Decimal `json:"totalTradedVolume"`
	TotalBuyQuantity  decimal.Decimal `json:"totalBuyQuantity"`
	TotalSellQuantity decimal.Decimal `json:"totalSellQuantity"`
}

type Constituent struct {
	StockSymbol string `json:"stock_symbol"`
	CompanyName string `json:"company_name"`
}

// IndexQuote is one row of an index snapshot. The first row of a snapshot is
// the index itself and carries no company name.
type IndexQuote struct {
	Symbol            string          `json:"symbol"`
	CompanyName       string          `json:"company_name,omitempty"`
	Open              decimal.Decimal `json:"open"`
	DayHigh           decimal.Decimal `json:"dayHigh"`
	DayLow            decimal.Decimal `json:"dayLow"`
	LastPrice         decimal.Decimal `json:"lastPrice"`
	PreviousClose     decimal.Decimal `json:"previousClose"`
	Change            decimal.Decimal `json:"change"`
	PChange           decimal.Decimal `json:"pChange"`
	YearHigh          decimal.Decimal `json:"52W_High"`
	YearLow           decimal.Decimal `json:"52W_Low"`
	TotalTradedVolume decimal.Decimal `json:"totalTradedVolume"`
	TotalTradedValue  decimal.Decimal `json:"totalTradedValue"`
	PerChange365d     decimal.Decimal `json:"perChange365d"`
	PerChange30d      decimal.Decimal `json:"perChange30d"`
	LastUpdatedAt     string          `json:"last_updated_at"`
}

type StockQuote struct {
	Symbol            string          `json:"symbol"`
	CompanyName       string          `json:"company_name"`
	Industry          string          `json:"industry"`
	ListingDate       string          `json:"listingDate"`
	OpenPrice         decimal.Decimal `json:"open_price"`
	LastPrice         decimal.Decimal `json:"last_price"`
	PreviousClose     decimal.Decimal `json:"previous_close"`
	HighPrice         decimal.Decimal `json:"high_price"`
	LowPrice          decimal.Decimal `json:"low_price"`
	Change            decimal.Decimal `json:"change"`
	PChange           decimal.Decimal `json:"pChange"`
	YearHighDate      string          `json:"52w_high_date"`
	YearHigh          decimal.Decimal `json:"52w_high"`
	YearLowDate       string          `json:"52w_low_date"`
	YearLow           decimal.Decimal `json:"52w_low"`
	TotalTradedVolume decimal.Decimal `json:"total_traded_volume"`
	TotalBuyQuantity  decimal.Decimal `json:"total_buy_quantity"`
	TotalSellQuantity decimal.Decimal `json:"total_sell_quantity"`
	LastUpdateTime    string          `json:"last_update_time"`
}

// HistoricalRow is one trading day of the historical series. Numeric fields
// are NullDecimal: a malformed source cell is missing data, not an error.
type HistoricalRow struct {
	Symbol    string              `json:"symbol"`
	Date      time.Time           `json:"date"`
	Series    string              `json:"series"`
	Open      decimal.NullDecimal `json:"open"`
	High      decimal.NullDecimal `json:"high"`
	Low       decimal.NullDecimal `json:"low"`
	PrevClose decimal.NullDecimal `json:"prev_close"`
	LTP       decimal.NullDecimal `json:"ltp"`
	Close     decimal.NullDecimal `json:"close"`
	VWAP      decimal.NullDecimal `json:"vwap"`
	YearHigh  decimal.NullDecimal `json:"52w_h"`
	YearLow   decimal.NullDecimal `json:"52w_l"`
	Volume    decimal.NullDecimal `json:"volume"`
	Value     decimal.NullDecimal `json:"value"`
	Trades    decimal.NullDecimal `json:"no_of_trades"`
}
