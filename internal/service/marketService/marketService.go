package marketService

import (
	"context"
	"log/slog"
	"time"

	"github.com/KotFed0t/nse_market_client/internal/model/nseModel"
	"github.com/KotFed0t/nse_market_client/internal/service"
	"github.com/KotFed0t/nse_market_client/utils"
)

type NseApi interface {
	GetIndices(ctx context.Context) ([]string, error)
	GetConstituents(ctx context.Context, index string) ([]nseModel.Constituent, error)
	GetIndexSnapshot(ctx context.Context, index string) ([]nseModel.IndexQuote, error)
	GetStockQuote(ctx context.Context, symbol string) (*nseModel.StockQuote, error)
	GetHistoricalSeries(ctx context.Context, symbol string, from, to time.Time) ([]nseModel.HistoricalRow, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, rows []nseModel.HistoricalRow) (fileBytes []byte, fileExtension string, err error)
}

type MarketService struct {
	nseApi          NseApi
	reportGenerator ReportGenerator
}

func New(nseApi NseApi, reportGenerator ReportGenerator) *MarketService {
	return &MarketService{
		nseApi:          nseApi,
		reportGenerator: reportGenerator,
	}
}

func (s *MarketService) GetIndices(ctx context.Context) ([]string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketService.GetIndices"

	slog.Debug("GetIndices start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("GetIndices finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	indices, err := s.nseApi.GetIndices(ctx)
	if err != nil {
		slog.Error("got error from nseApi.GetIndices", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return indices, nil
}

func (s *MarketService) GetConstituents(ctx context.Context, index string) ([]nseModel.Constituent, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketService.GetConstituents"

	slog.Debug("GetConstituents start", slog.String("rqID", rqID), slog.String("op", op), slog.String("index", index))
	defer func() {
		slog.Debug("GetConstituents finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("index", index))
	}()

	constituents, err := s.nseApi.GetConstituents(ctx, index)
	if err != nil {
		slog.Error("got error from nseApi.GetConstituents", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return constituents, nil
}

func (s *MarketService) GetIndexSnapshot(ctx context.Context, index string) ([]nseModel.IndexQuote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketService.GetIndexSnapshot"

	slog.Debug("GetIndexSnapshot start", slog.String("rqID", rqID), slog.String("op", op), slog.String("index", index))
	defer func() {
		slog.Debug("GetIndexSnapshot finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("index", index))
	}()

	quotes, err := s.nseApi.GetIndexSnapshot(ctx, index)
	if err != nil {
		slog.Error("got error from nseApi.GetIndexSnapshot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	if len(quotes) == 0 {
		return nil, service.ErrNoData
	}

	return quotes, nil
}

func (s *MarketService) GetStockQuote(ctx context.Context, symbol string) (nseModel.StockQuote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketService.GetStockQuote"

	slog.Debug("GetStockQuote start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("GetStockQuote finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	}()

	quote, err := s.nseApi.GetStockQuote(ctx, symbol)
	if err != nil {
		slog.Error("got error from nseApi.GetStockQuote", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nseModel.StockQuote{}, err
	}

	if quote == nil {
		return nseModel.StockQuote{}, service.ErrNoData
	}

	return *quote, nil
}

func (s *MarketService) GetHistoricalSeries(ctx context.Context, symbol string, from, to time.Time) ([]nseModel.HistoricalRow, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketService.GetHistoricalSeries"

	slog.Debug("GetHistoricalSeries start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("GetHistoricalSeries finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	}()

	rows, err := s.nseApi.GetHistoricalSeries(ctx, symbol, from, to)
	if err != nil {
		slog.Error("got error from nseApi.GetHistoricalSeries", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	if len(rows) == 0 {
		return nil, service.ErrNoData
	}

	return rows, nil
}

// BuildHistoricalReport fetches the series and renders it into a spreadsheet,
// returning the file bytes and extension.
func (s *MarketService) BuildHistoricalReport(ctx context.Context, symbol string, from, to time.Time) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketService.BuildHistoricalReport"

	slog.Debug("BuildHistoricalReport start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("BuildHistoricalReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	}()

	rows, err := s.GetHistoricalSeries(ctx, symbol, from, to)
	if err != nil {
		return nil, "", err
	}

	fileBytes, fileExtension, err = s.reportGenerator.Generate(ctx, rows)
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	return fileBytes, fileExtension, nil
}
