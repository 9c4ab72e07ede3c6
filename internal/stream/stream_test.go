package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskdesk/fi-risk-engine/internal/curve"
	"github.com/riskdesk/fi-risk-engine/internal/errs"
	"github.com/riskdesk/fi-risk-engine/internal/instrument"
	"github.com/riskdesk/fi-risk-engine/internal/publish"
	"github.com/riskdesk/fi-risk-engine/internal/risk"
)

func testCoordinator(t *testing.T) (*Coordinator, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c := curve.NewBuilder()
	calc := risk.NewCalculator(c, risk.DefaultBumpSize)
	pub := publish.NewPublisher(srv.Addr(), time.Hour, zerolog.Nop())
	portfolio := &instrument.Portfolio{Instruments: []instrument.Instrument{
		instrument.FromBond(&instrument.Bond{
			ID: "B1", Notional: 1_000_000, Currency: "USD", Coupon: 0.03,
			Maturity: time.Now().AddDate(10, 0, 0), Frequency: instrument.SemiAnnual, DayCount: instrument.ActAct,
		}),
	}}
	return &Coordinator{
		curve: c, calc: calc, publisher: pub, portfolio: portfolio,
		aggregateEvery: DefaultAggregateEvery, log: zerolog.Nop(),
	}, srv
}

func TestProcessTick_PricesAndPublishes(t *testing.T) {
	co, srv := testCoordinator(t)
	defer co.publisher.Close()

	payload := []byte(`{"timestamp":1769558400000,"curve_date":"2026-01-28","curve_type":"USD_SOFR","rates":{"1M":0.03,"3M":0.03,"6M":0.03,"1Y":0.03,"2Y":0.03,"3Y":0.03,"5Y":0.03,"7Y":0.03,"10Y":0.03,"20Y":0.03,"30Y":0.03}}`)
	require.NoError(t, co.processTick(context.Background(), payload))

	assert.True(t, co.curve.Built())
	assert.True(t, srv.Exists("trade:B1:risk"))
	assert.Equal(t, "1769558400000", srv.HGet("trade:B1:risk", "curve_timestamp"))
	assert.Equal(t, "1769558400000", srv.HGet("yield_curve:latest", "timestamp"))
	assert.Equal(t, "0.03", srv.HGet("yield_curve:latest", "rate_2y"))
}

func TestProcessTick_MalformedPayloadIsParseError(t *testing.T) {
	co, _ := testCoordinator(t)
	defer co.publisher.Close()

	err := co.processTick(context.Background(), []byte(`not json`))
	require.ErrorIs(t, err, errs.ErrParse)
}

func TestProcessTick_BadCurveDateIsParseError(t *testing.T) {
	co, _ := testCoordinator(t)
	defer co.publisher.Close()

	err := co.processTick(context.Background(), []byte(`{"timestamp":1,"curve_date":"28/01/2026","rates":{"5Y":0.04}}`))
	require.ErrorIs(t, err, errs.ErrParse)
}

func TestProcessTick_DropsUnrecognizedTenorButKeepsRest(t *testing.T) {
	co, srv := testCoordinator(t)
	defer co.publisher.Close()

	payload := []byte(`{"timestamp":5,"curve_date":"2026-01-05","rates":{"5Y":0.03,"999Y":0.10}}`)
	require.NoError(t, co.processTick(context.Background(), payload))
	assert.True(t, co.curve.Built())
	assert.Nil(t, co.curve.Quotes().Get("999Y"))
	// Unknown tenors still land on the published snapshot; only the
	// curve ignores them.
	assert.Equal(t, "0.1", srv.HGet("yield_curve:latest", "rate_999y"))
}

func TestProcessTick_EmptyRatesLeavesCurveUntouchedButUpdatesTimestamp(t *testing.T) {
	co, srv := testCoordinator(t)
	defer co.publisher.Close()

	payload := []byte(`{"timestamp":42,"curve_date":"2026-01-05","rates":{}}`)
	require.NoError(t, co.processTick(context.Background(), payload))

	assert.False(t, co.curve.Built())
	assert.False(t, srv.Exists("trade:B1:risk"))
	assert.Equal(t, "42", srv.HGet("yield_curve:latest", "timestamp"))
}

func TestProcessTick_NonNumericRateValueSkipped(t *testing.T) {
	co, _ := testCoordinator(t)
	defer co.publisher.Close()

	payload := []byte(`{"timestamp":7,"curve_date":"2026-01-05","rates":{"5Y":"oops","10Y":0.04}}`)
	require.NoError(t, co.processTick(context.Background(), payload))

	assert.True(t, co.curve.Built())
	assert.Equal(t, 0.0, co.curve.Quotes().Get("5Y").Value())
	assert.Equal(t, 0.04, co.curve.Quotes().Get("10Y").Value())
}

func TestProcessTick_MissingTenorsRetainPreviousQuotes(t *testing.T) {
	co, _ := testCoordinator(t)
	defer co.publisher.Close()

	first := []byte(`{"timestamp":1,"curve_date":"2026-01-05","rates":{"2Y":0.041,"5Y":0.042}}`)
	require.NoError(t, co.processTick(context.Background(), first))
	second := []byte(`{"timestamp":2,"curve_date":"2026-01-06","rates":{"5Y":0.043}}`)
	require.NoError(t, co.processTick(context.Background(), second))

	assert.Equal(t, 0.041, co.curve.Quotes().Get("2Y").Value())
	assert.Equal(t, 0.043, co.curve.Quotes().Get("5Y").Value())
}

func TestAggregate_WritesTotalsFromStore(t *testing.T) {
	co, srv := testCoordinator(t)
	defer co.publisher.Close()

	ctx := context.Background()
	require.NoError(t, co.publisher.WriteRisk(ctx, risk.Result{InstrumentID: "A", NPV: 100, DV01: 250}, 1))
	require.NoError(t, co.publisher.WriteRisk(ctx, risk.Result{InstrumentID: "B", NPV: 50, DV01: -175}, 1))

	require.NoError(t, co.aggregate(ctx))
	assert.Equal(t, "75", srv.HGet("portfolio:aggregates", "total_dv01"))
	assert.Equal(t, "2", srv.HGet("portfolio:aggregates", "instrument_count"))
}
