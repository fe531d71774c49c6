package marketService

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KotFed0t/nse_market_client/internal/model/nseModel"
	"github.com/KotFed0t/nse_market_client/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeNseApi struct {
	indices      []string
	constituents []nseModel.Constituent
	snapshot     []nseModel.IndexQuote
	quote        *nseModel.StockQuote
	series       []nseModel.HistoricalRow
	err          error
}

func (f *fakeNseApi) GetIndices(ctx context.Context) ([]string, error) {
	return f.indices, f.err
}

func (f *fakeNseApi) GetConstituents(ctx context.Context, index string) ([]nseModel.Constituent, error) {
	return f.constituents, f.err
}

func (f *fakeNseApi) GetIndexSnapshot(ctx context.Context, index string) ([]nseModel.IndexQuote, error) {
	return f.snapshot, f.err
}

func (f *fakeNseApi) GetStockQuote(ctx context.Context, symbol string) (*nseModel.StockQuote, error) {
	return f.quote, f.err
}

func (f *fakeNseApi) GetHistoricalSeries(ctx context.Context, symbol string, from, to time.Time) ([]nseModel.HistoricalRow, error) {
	return f.series, f.err
}

type fakeReportGenerator struct {
	fileBytes []byte
	err       error
}

func (f *fakeReportGenerator) Generate(ctx context.Context, rows []nseModel.HistoricalRow) ([]byte, string, error) {
	return f.fileBytes, ".xlsx", f.err
}

func testRows() []nseModel.HistoricalRow {
	return []nseModel.HistoricalRow{
		{
			Symbol: "TCS",
			Date:   time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
			Series: "EQ",
			VWAP:   decimal.NullDecimal{Decimal: decimal.RequireFromString("1234.56"), Valid: true},
		},
	}
}

func TestGetStockQuote(t *testing.T) {
	quote := &nseModel.StockQuote{Symbol: "TCS", CompanyName: "Tata Consultancy Services Limited"}
	srv := New(&fakeNseApi{quote: quote}, &fakeReportGenerator{})

	got, err := srv.GetStockQuote(context.Background(), "TCS")
	require.NoError(t, err)
	require.Equal(t, *quote, got)
}

func TestGetStockQuoteNoData(t *testing.T) {
	srv := New(&fakeNseApi{}, &fakeReportGenerator{})

	_, err := srv.GetStockQuote(context.Background(), "NOSUCH")
	require.ErrorIs(t, err, service.ErrNoData)
}

func TestGetStockQuoteApiError(t *testing.T) {
	apiErr := errors.New("connection refused")
	srv := New(&fakeNseApi{err: apiErr}, &fakeReportGenerator{})

	_, err := srv.GetStockQuote(context.Background(), "TCS")
	require.ErrorIs(t, err, apiErr)
}

func TestGetIndexSnapshotNoData(t *testing.T) {
	srv := New(&fakeNseApi{}, &fakeReportGenerator{})

	_, err := srv.GetIndexSnapshot(context.Background(), "NIFTY 50")
	require.ErrorIs(t, err, service.ErrNoData)
}

func TestGetIndices(t *testing.T) {
	srv := New(&fakeNseApi{indices: []string{"X", "Y", "Z"}}, &fakeReportGenerator{})

	indices, err := srv.GetIndices(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"X", "Y", "Z"}, indices)
}

func TestGetHistoricalSeriesNoData(t *testing.T) {
	srv := New(&fakeNseApi{}, &fakeReportGenerator{})

	_, err := srv.GetHistoricalSeries(context.Background(), "TCS",
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, service.ErrNoData)
}

func TestBuildHistoricalReport(t *testing.T) {
	srv := New(&fakeNseApi{series: testRows()}, &fakeReportGenerator{fileBytes: []byte("xlsx-bytes")})

	fileBytes, ext, err := srv.BuildHistoricalReport(context.Background(), "TCS",
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, []byte("xlsx-bytes"), fileBytes)
	require.Equal(t, ".xlsx", ext)
}

func TestBuildHistoricalReportNoData(t *testing.T) {
	srv := New(&fakeNseApi{}, &fakeReportGenerator{})

	_, _, err := srv.BuildHistoricalReport(context.Background(), "TCS",
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, service.ErrNoData)
}

func TestBuildHistoricalReportGeneratorError(t *testing.T) {
	genErr := errors.New("sheet error")
	srv := New(&fakeNseApi{series: testRows()}, &fakeReportGenerator{err: genErr})

	_, _, err := srv.BuildHistoricalReport(context.Background(), "TCS",
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, genErr)
}
