// Package nseApi is a client for the NSE India website's undocumented JSON/CSV
// endpoints. The site sits behind an anti-bot layer, so the client keeps one
// browser-like session: a cookie jar plus fixed User-Agent and
// X-Requested-With headers, bootstrapped by a warm-up GET to a landing page.
//
// The session cookies mutate on every call, so a single NseApi instance must
// not be used from multiple goroutines without external synchronization.
package nseApi

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/KotFed0t/nse_market_client/config"
	"github.com/KotFed0t/nse_market_client/internal/model/nseModel"
	"github.com/KotFed0t/nse_market_client/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	equityMasterURL   = "/api/equity-master"
	stockIndicesURL   = "/api/equity-stockIndices"
	quoteEquityURL    = "/api/quote-equity"
	historicalURL     = "/api/historical/cm/equity"
	historicalColumns = 14
)

const dateLayoutCSV = "02-Jan-2006"

// ParseError signals a historical payload that answered 200 but could not be
// parsed as CSV. ServerMessage carries the diagnostic the server put into the
// JSON body it served instead, when there is one.
type ParseError struct {
	ServerMessage string
	Err           error
}

func (e *ParseError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("can't parse historical response: %s", e.ServerMessage)
	}
	return fmt.Sprintf("can't parse historical response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type NseApi struct {
	client            *resty.Client
	timeout           time.Duration
	historicalTimeout time.Duration
}

// New builds the session and performs the warm-up request that acquires the
// anti-bot cookies. A network failure during warm-up propagates.
func New(cfg *config.Config) (*NseApi, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	// Timeouts go through per-request contexts, not http.Client.Timeout: a
	// client-level timeout would also cap the historical call, which needs
	// its own much longer bound.
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetBaseURL(cfg.API.NseApi.Url).
		SetCookieJar(jar).
		SetHeader("User-Agent", cfg.API.NseApi.UserAgent).
		SetHeader("X-Requested-With", "XMLHttpRequest")

	a := &NseApi{
		client:            client,
		timeout:           cfg.API.Timeout,
		historicalTimeout: cfg.API.HistoricalTimeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if _, err := a.client.R().SetContext(ctx).Get(cfg.API.NseApi.WarmupPath); err != nil {
		slog.Error("warm-up request failed", slog.String("err", err.Error()))
		return nil, err
	}

	return a, nil
}

// GetIndices returns all index symbols from the equity-master listing,
// flattened in the category order the endpoint serves them.
func (a *NseApi) GetIndices(ctx context.Context) ([]string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start NseApi.GetIndices request", slog.String("rqID", rqID))

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.R().
		SetContext(reqCtx).
		SetHeader("Accept", "application/json").
		Get(equityMasterURL)

	if err != nil {
		slog.Error("error while dialing NseApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() != 200 {
		err := fmt.Errorf("equity-master returned status %d", resp.StatusCode())
		slog.Error("unexpected status from NseApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	master := nseModel.RawEquityMaster{}
	if err := json.Unmarshal(resp.Body(), &master); err != nil {
		slog.Error("can't unmarshall response into nseModel.RawEquityMaster", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	indices := make([]string, 0)
	for _, category := range master.Categories {
		indices = append(indices, category.Symbols...)
	}

	slog.Debug("NseApi.GetIndices request complete", slog.String("rqID", rqID))

	return indices, nil
}

// GetConstituents returns the stocks belonging to an index. The index name is
// case-insensitive; the row representing the index itself is excluded.
func (a *NseApi) GetConstituents(ctx context.Context, index string) ([]nseModel.Constituent, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	indexUpper := strings.ToUpper(index)

	slog.Debug("start NseApi.GetConstituents request", slog.String("rqID", rqID), slog.String("index", index))

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.R().
		SetContext(reqCtx).
		SetHeader("Accept", "application/json").
		SetQueryParam("index", indexUpper).
		Get(stockIndicesURL)

	if err != nil {
		slog.Error("error while dialing NseApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() != 200 {
		err := fmt.Errorf("equity-stockIndices returned status %d", resp.StatusCode())
		slog.Error("unexpected status from NseApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	rawIndices := nseModel.RawStockIndices{}
	if err := json.Unmarshal(resp.Body(), &rawIndices); err != nil {
		slog.Error("can't unmarshall response into nseModel.RawStockIndices", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	constituents := make([]nseModel.Constituent, 0, len(rawIndices.Data))
	for _, entry := range rawIndices.Data {
		if entry.Symbol == indexUpper {
			continue
		}
		constituents = append(constituents, nseModel.Constituent{
			StockSymbol: entry.Symbol,
			CompanyName: entry.Meta.CompanyName,
		})
	}

	slog.Debug("NseApi.GetConstituents request complete", slog.String("rqID", rqID), slog.String("index", index))

	return constituents, nil
}

// GetIndexSnapshot returns per-constituent price records for an index. The
// first record represents the index itself and carries no company name.
// A non-200 status yields an empty result, not an error.
func (a *NseApi) GetIndexSnapshot(ctx context.Context, index string) ([]nseModel.IndexQuote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start NseApi.GetIndexSnapshot request", slog.String("rqID", rqID), slog.String("index", index))

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.R().
		SetContext(reqCtx).
		SetHeader("Accept", "application/json").
		SetQueryParam("index", index).
		Get(stockIndicesURL)

	if err != nil {
		slog.Error("error while dialing NseApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() != 200 {
		slog.Warn("non-200 status from equity-stockIndices, returning empty snapshot",
			slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID), slog.String("index", index))
		return nil, nil
	}

	rawIndices := nseModel.RawStockIndices{}
	if err := json.Unmarshal(resp.Body(), &rawIndices); err != nil {
		slog.Error("can't unmarshall response into nseModel.RawStockIndices", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	quotes := make([]nseModel.IndexQuote, 0, len(rawIndices.Data))
	for i, entry := range rawIndices.Data {
		quote := nseModel.IndexQuote{
			Symbol:            entry.Symbol,
			Open:              entry.Open,
			DayHigh:           entry.DayHigh,
			DayLow:            entry.DayLow,
			LastPrice:         entry.LastPrice,
			PreviousClose:     entry.PreviousClose,
			Change:            entry.Change,
			PChange:           entry.PChange,
			YearHigh:          entry.YearHigh,
			YearLow:           entry.YearLow,
			TotalTradedVolume: entry.TotalTradedVolume,
			TotalTradedValue:  entry.TotalTradedValue,
			PerChange365d:     entry.PerChange365d,
			PerChange30d:      entry.PerChange30d,
			LastUpdatedAt:     rawIndices.Timestamp,
		}

		// row 0 is the index itself
		if i != 0 {
			quote.CompanyName = entry.Meta.CompanyName
		}

		quotes = append(quotes, quote)
	}

	slog.Debug("NseApi.GetIndexSnapshot request complete", slog.String("rqID", rqID), slog.String("index", index))

	return quotes, nil
}

// GetStockQuote returns the quote record for one stock symbol. A non-200
// status or a payload without an "info" section yields a nil quote, not an
// error.
func (a *NseApi) GetStockQuote(ctx context.Context, symbol string) (*nseModel.StockQuote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start NseApi.GetStockQuote request", slog.String("rqID", rqID), slog.String("symbol", symbol))

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.R().
		SetContext(reqCtx).
		SetHeader("Accept", "application/json").
		SetQueryParam("symbol", symbol).
		Get(quoteEquityURL)

	if err != nil {
		slog.Error("error while dialing NseApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() != 200 {
		slog.Warn("non-200 status from quote-equity, returning empty quote",
			slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID), slog.String("symbol", symbol))
		return nil, nil
	}

	rawQuote := nseModel.RawQuote{}
	if err := json.Unmarshal(resp.Body(), &rawQuote); err != nil {
		slog.Error("can't unmarshall response into nseModel.RawQuote", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if rawQuote.Info == nil {
		slog.Warn("quote-equity response has no info section, returning empty quote",
			slog.String("rqID", rqID), slog.String("symbol", symbol))
		return nil, nil
	}

	quote := &nseModel.StockQuote{
		Symbol:            rawQuote.Info.Symbol,
		CompanyName:       rawQuote.Info.CompanyName,
		Industry:          rawQuote.Info.Industry,
		ListingDate:       rawQuote.Metadata.ListingDate,
		OpenPrice:         rawQuote.PriceInfo.Open,
		LastPrice:         rawQuote.PriceInfo.LastPrice,
		PreviousClose:     rawQuote.PriceInfo.PreviousClose,
		HighPrice:         rawQuote.PriceInfo.IntraDayHighLow.Max,
		LowPrice:          rawQuote.PriceInfo.IntraDayHighLow.Min,
		Change:            rawQuote.PriceInfo.Change.Round(2),
		PChange:           rawQuote.PriceInfo.PChange.Round(2),
		YearHighDate:      rawQuote.PriceInfo.WeekHighLow.MaxDate,
		YearHigh:          rawQuote.PriceInfo.WeekHighLow.Max,
		YearLowDate:       rawQuote.PriceInfo.WeekHighLow.MinDate,
		YearLow:           rawQuote.PriceInfo.WeekHighLow.Min,
		TotalTradedVolume: rawQuote.PreOpenMarket.TotalTradedVolume,
		TotalBuyQuantity:  rawQuote.PreOpenMarket.TotalBuyQuantity,
		TotalSellQuantity: rawQuote.PreOpenMarket.TotalSellQuantity,
		LastUpdateTime:    rawQuote.Metadata.LastUpdateTime,
	}

	slog.Debug("NseApi.GetStockQuote request complete", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return quote, nil
}

// GetHistoricalSeries returns the daily OHLCV series for a symbol over a date
// range. A non-200 status yields an empty result with the raw body logged; a
// 200 body that is not the expected CSV is a *ParseError carrying the server's
// diagnostic. The request gets its own generous timeout: the endpoint can
// take minutes on wide ranges.
func (a *NseApi) GetHistoricalSeries(ctx context.Context, symbol string, from, to time.Time) ([]nseModel.HistoricalRow, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	symbolUpper := strings.ToUpper(symbol)

	slog.Debug("start NseApi.GetHistoricalSeries request",
		slog.String("rqID", rqID), slog.String("symbol", symbol),
		slog.String("from", from.Format(time.DateOnly)), slog.String("to", to.Format(time.DateOnly)))

	reqCtx, cancel := context.WithTimeout(ctx, a.historicalTimeout)
	defer cancel()

	resp, err := a.client.R().
		SetContext(reqCtx).
		SetQueryParams(map[string]string{
			"symbol": symbolUpper,
			"series": `["EQ"]`,
			"from":   from.Format(time.DateOnly),
			"to":     to.Format(time.DateOnly),
			"csv":    "true",
		}).
		Get(historicalURL)

	if err != nil {
		slog.Error("error while dialing NseApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() != 200 {
		slog.Warn("non-200 status from historical endpoint, returning empty series",
			slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID),
			slog.String("symbol", symbol), slog.String("body", string(resp.Body())))
		return nil, nil
	}

	// the query wants the uppercased symbol, the output column keeps the
	// caller's spelling
	rows, err := parseHistoricalCSV(symbol, resp.Body())
	if err != nil {
		parseErr := &ParseError{ServerMessage: extractServerMessage(resp.Body()), Err: err}
		slog.Error("can't parse historical CSV", slog.String("err", parseErr.Error()), slog.String("rqID", rqID))
		return nil, parseErr
	}

	slog.Debug("NseApi.GetHistoricalSeries request complete", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return rows, nil
}

func parseHistoricalCSV(symbol string, body []byte) ([]nseModel.HistoricalRow, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, errors.New("empty body")
	}

	if len(records[0]) != historicalColumns {
		return nil, fmt.Errorf("expected %d columns, got %d", historicalColumns, len(records[0]))
	}

	rows := make([]nseModel.HistoricalRow, 0, len(records)-1)
	for _, record := range records[1:] {
		date, err := time.Parse(dateLayoutCSV, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("can't parse row date %q: %w", record[0], err)
		}

		rows = append(rows, nseModel.HistoricalRow{
			Symbol:    symbol,
			Date:      date,
			Series:    strings.TrimSpace(record[1]),
			Open:      parseDecimalCell(record[2]),
			High:      parseDecimalCell(record[3]),
			Low:       parseDecimalCell(record[4]),
			PrevClose: parseDecimalCell(record[5]),
			LTP:       parseDecimalCell(record[6]),
			Close:     parseDecimalCell(record[7]),
			VWAP:      parseDecimalCell(record[8]),
			YearHigh:  parseDecimalCell(record[9]),
			YearLow:   parseDecimalCell(record[10]),
			Volume:    parseDecimalCell(record[11]),
			Value:     parseDecimalCell(record[12]),
			Trades:    parseDecimalCell(record[13]),
		})
	}

	return rows, nil
}

// parseDecimalCell strips thousands separators and coerces the cell to a
// decimal; anything malformed becomes a null value instead of an error.
func parseDecimalCell(cell string) decimal.NullDecimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cleaned == "" || cleaned == "-" {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}

	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func extractServerMessage(body []byte) string {
	msg := struct {
		ShowMessage string `json:"showMessage"`
	}{}
	if err := json.Unmarshal(body, &msg); err != nil {
		return ""
	}
	return msg.ShowMessage
}
