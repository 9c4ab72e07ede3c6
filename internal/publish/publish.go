// Package publish writes computed risk results to the shared key-value
// store. Key and field naming is a contract with the dashboard and any
// other store reader; changing it breaks them.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/riskdesk/fi-risk-engine/internal/errs"
	"github.com/riskdesk/fi-risk-engine/internal/risk"
	"github.com/riskdesk/fi-risk-engine/internal/tenor"
)

const (
	riskChannel          = "risk_updates"
	yieldCurveLatestKey  = "yield_curve:latest"
	yieldCurveHistoryKey = "yield_curve:history"
	portfolioAggKey      = "portfolio:aggregates"
	dv01HistoryKey       = "portfolio:dv01_history"
	npvHistoryKey        = "portfolio:npv_history"

	// curveHistoryWindow bounds yield_curve:history; older entries are
	// pruned on every write.
	curveHistoryWindow = time.Hour

	// portfolioHistoryWindow bounds the dashboard-facing dv01/npv
	// history sets.
	portfolioHistoryWindow = 7 * 24 * time.Hour

	// scanBatch is the cursor batch size for the trade:*:risk scan.
	scanBatch = 100
)

func tradeRiskKey(instrumentID string) string {
	return fmt.Sprintf("trade:%s:risk", instrumentID)
}

// fmtFloat stringifies a numeric field with full precision; decimal
// round-trips the shortest exact representation instead of a
// FormatFloat approximation, so readers summing published values get
// the same totals the worker computed.
func fmtFloat(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func nowMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// Publisher writes risk results and curve snapshots to the store.
type Publisher struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewPublisher builds a Publisher against a Redis-compatible endpoint.
// ttl bounds how long a per-trade risk hash survives without a refresh.
func NewPublisher(addr string, ttl time.Duration, log zerolog.Logger) *Publisher {
	return &Publisher{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		log:    log.With().Str("component", "publisher").Logger(),
	}
}

// Ping verifies the store connection, mirroring the connection check
// the worker runs before opening the bus consumer.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStore, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (p *Publisher) Close() error { return p.client.Close() }

// withRetry runs op, retrying once on failure. A second failure is
// classified as a persistent store error for the tick handler to act
// on (skip commit, let the bus re-deliver).
func (p *Publisher) withRetry(op func() error) error {
	err := op()
	if err == nil {
		return nil
	}
	p.log.Warn().Err(err).Msg("store write failed, retrying once")
	if err = op(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStore, err)
	}
	return nil
}

// WriteRisk persists one instrument's computed risk as a hash at
// trade:{id}:risk with the TTL applied in the same round trip, then
// publishes a change notification on risk_updates for the dashboard's
// aggregator.
func (p *Publisher) WriteRisk(ctx context.Context, r risk.Result, curveTimestampMs int64) error {
	fields := map[string]interface{}{
		"npv":             fmtFloat(r.NPV),
		"dv01":            fmtFloat(r.DV01),
		"curve_timestamp": strconv.FormatInt(curveTimestampMs, 10),
		"updated_at":      nowMillis(),
	}
	for t, v := range r.KRD {
		fields["krd_"+strings.ToLower(string(t))] = fmtFloat(v)
	}

	key := tradeRiskKey(r.InstrumentID)
	if err := p.withRetry(func() error {
		pipe := p.client.TxPipeline()
		pipe.HSet(ctx, key, fields)
		if p.ttl > 0 {
			pipe.Expire(ctx, key, p.ttl)
		}
		_, err := pipe.Exec(ctx)
		return err
	}); err != nil {
		return err
	}

	note, _ := json.Marshal(map[string]interface{}{
		"instrument_id": r.InstrumentID,
		"timestamp":     curveTimestampMs,
	})
	if err := p.client.Publish(ctx, riskChannel, note).Err(); err != nil {
		// Notification loss is tolerable; the hash write already
		// landed and the aggregator re-scans on its own cadence.
		p.log.Warn().Err(err).Str("instrument_id", r.InstrumentID).Msg("risk_updates publish failed")
	}
	return nil
}

// WriteYieldCurve overwrites yield_curve:latest with one rate_{tenor}
// field per provided tenor, appends the tick to the yield_curve:history
// sorted set scored by the tick timestamp, and prunes history entries
// older than an hour. An empty rates map still refreshes the timestamp
// fields so dashboard staleness detection keeps working.
func (p *Publisher) WriteYieldCurve(ctx context.Context, rates map[string]float64, curveTimestampMs int64) error {
	fields := map[string]interface{}{
		"timestamp":  strconv.FormatInt(curveTimestampMs, 10),
		"updated_at": nowMillis(),
	}
	for t, v := range rates {
		fields["rate_"+strings.ToLower(t)] = fmtFloat(v)
	}

	member, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStore, err)
	}
	cutoff := time.Now().Add(-curveHistoryWindow).UnixMilli()

	return p.withRetry(func() error {
		pipe := p.client.TxPipeline()
		pipe.HSet(ctx, yieldCurveLatestKey, fields)
		pipe.ZAdd(ctx, yieldCurveHistoryKey, redis.Z{
			Score:  float64(curveTimestampMs),
			Member: string(member),
		})
		pipe.ZRemRangeByScore(ctx, yieldCurveHistoryKey, "-inf", strconv.FormatInt(cutoff, 10))
		_, err := pipe.Exec(ctx)
		return err
	})
}

// Aggregates is the portfolio-level rollup written to
// portfolio:aggregates.
type Aggregates struct {
	TotalNPV        float64
	TotalDV01       float64
	InstrumentCount int
	KRDTotals       map[tenor.Tenor]float64
}

// GetAllTradeRisks walks every trade:*:risk hash via a cursor scan and
// returns instrument id -> field map, the read side the aggregator and
// the roundtrip tests share.
func (p *Publisher) GetAllTradeRisks(ctx context.Context) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	var cursor uint64

	for {
		keys, next, err := p.client.Scan(ctx, cursor, "trade:*:risk", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrStore, err)
		}

		for _, k := range keys {
			vals, err := p.client.HGetAll(ctx, k).Result()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", errs.ErrStore, err)
			}
			parts := strings.Split(k, ":")
			if len(parts) != 3 {
				continue
			}
			out[parts[1]] = vals
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

// ComputeAggregates re-reads every published per-instrument record and
// sums it into portfolio totals, so the rollup reflects whatever the
// store currently holds rather than only this worker's latest batch
// (other partitions' workers publish into the same keyspace).
func (p *Publisher) ComputeAggregates(ctx context.Context) (Aggregates, error) {
	trades, err := p.GetAllTradeRisks(ctx)
	if err != nil {
		return Aggregates{}, err
	}

	agg := Aggregates{
		InstrumentCount: len(trades),
		KRDTotals:       make(map[tenor.Tenor]float64, len(tenor.KeyRate)),
	}
	for _, t := range tenor.KeyRate {
		agg.KRDTotals[t] = 0
	}

	for id, fields := range trades {
		npv, err := strconv.ParseFloat(fields["npv"], 64)
		if err != nil {
			p.log.Warn().Str("instrument_id", id).Msg("skipping trade with malformed npv")
			continue
		}
		dv01, err := strconv.ParseFloat(fields["dv01"], 64)
		if err != nil {
			p.log.Warn().Str("instrument_id", id).Msg("skipping trade with malformed dv01")
			continue
		}
		agg.TotalNPV += npv
		agg.TotalDV01 += dv01

		for _, t := range tenor.KeyRate {
			if raw, ok := fields["krd_"+strings.ToLower(string(t))]; ok {
				if v, err := strconv.ParseFloat(raw, 64); err == nil {
					agg.KRDTotals[t] += v
				}
			}
		}
	}
	return agg, nil
}

// WritePortfolioAggregates overwrites the portfolio:aggregates hash.
func (p *Publisher) WritePortfolioAggregates(ctx context.Context, agg Aggregates) error {
	fields := map[string]interface{}{
		"total_npv":        fmtFloat(agg.TotalNPV),
		"total_dv01":       fmtFloat(agg.TotalDV01),
		"instrument_count": strconv.Itoa(agg.InstrumentCount),
		"updated_at":       nowMillis(),
	}
	for t, v := range agg.KRDTotals {
		fields["total_krd_"+strings.ToLower(string(t))] = fmtFloat(v)
	}

	return p.withRetry(func() error {
		return p.client.HSet(ctx, portfolioAggKey, fields).Err()
	})
}

// SnapshotHistory appends portfolio DV01 and NPV points to the
// dashboard's long-window history sets, pruning entries older than a
// week. Called from the dashboard-facing path, not per tick.
func (p *Publisher) SnapshotHistory(ctx context.Context, dv01, npv float64, timestampMs int64) error {
	cutoff := strconv.FormatInt(time.Now().Add(-portfolioHistoryWindow).UnixMilli(), 10)
	score := float64(timestampMs)

	dv01Member, _ := json.Marshal(map[string]interface{}{"timestamp": timestampMs, "value": dv01})
	npvMember, _ := json.Marshal(map[string]interface{}{"timestamp": timestampMs, "value": npv})

	return p.withRetry(func() error {
		pipe := p.client.TxPipeline()
		pipe.ZAdd(ctx, dv01HistoryKey, redis.Z{Score: score, Member: string(dv01Member)})
		pipe.ZAdd(ctx, npvHistoryKey, redis.Z{Score: score, Member: string(npvMember)})
		pipe.ZRemRangeByScore(ctx, dv01HistoryKey, "-inf", cutoff)
		pipe.ZRemRangeByScore(ctx, npvHistoryKey, "-inf", cutoff)
		_, err := pipe.Exec(ctx)
		return err
	})
}
