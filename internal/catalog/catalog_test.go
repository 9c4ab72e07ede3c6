package catalog

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskdesk/fi-risk-engine/internal/refdata"
)

const seedJSON = `[
  {"id":"B1","instrument_type":"BOND","notional":1000000,"currency":"USD",
   "isin":"US912828XX11","coupon_rate":0.0375,"issue_date":"2023-11-15",
   "maturity_date":"2028-11-15","payment_frequency":"SEMI_ANNUAL",
   "day_count_convention":"ACT_ACT"},
  {"id":"S1","instrument_type":"SWAP","notional":10000000,"currency":"USD",
   "fixed_rate":0.0410,"tenor":"5Y","trade_date":"2026-01-28",
   "effective_date":"2026-01-30","maturity_date":"2031-01-28",
   "pay_receive":"PAY","float_index":"SOFR","payment_frequency":"QUARTERLY"},
  {"id":"B2","instrument_type":"BOND","notional":500000,"currency":"USD",
   "coupon_rate":0.05,"maturity_date":"2035-06-15",
   "payment_frequency":"ANNUAL","day_count_convention":"30_360"}
]`

func seededStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	n, err := s.Seed(strings.NewReader(seedJSON))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	return s
}

func TestSeedAndCount(t *testing.T) {
	s := seededStore(t)
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSeed_ReplacesExistingContents(t *testing.T) {
	s := seededStore(t)
	n, err := s.Seed(strings.NewReader(`[{"id":"only","instrument_type":"BOND","notional":1,"currency":"USD","coupon_rate":0.01,"maturity_date":"2030-01-01"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestPage_PreservesSeedOrder(t *testing.T) {
	s := seededStore(t)

	items, pages, total, err := s.Page(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "B1", items[0].ID)
	assert.Equal(t, "S1", items[1].ID)

	items, _, _, err = s.Page(2, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B2", items[0].ID)
}

func TestHandler_ServesLoaderContract(t *testing.T) {
	s := seededStore(t)
	srv := httptest.NewServer(Handler(s, zerolog.Nop()))
	defer srv.Close()

	loader := refdata.NewLoader(srv.URL, 2, zerolog.Nop())
	portfolio, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, portfolio.Len())
}
