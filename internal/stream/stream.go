// Package stream consumes curve ticks from the Kafka-compatible bus and
// drives a pricing/publishing pass over the portfolio for every tick,
// committing offsets only after the tick's writes have landed.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	kafka "github.com/segmentio/kafka-go"

	"github.com/riskdesk/fi-risk-engine/internal/curve"
	"github.com/riskdesk/fi-risk-engine/internal/errs"
	"github.com/riskdesk/fi-risk-engine/internal/instrument"
	"github.com/riskdesk/fi-risk-engine/internal/publish"
	"github.com/riskdesk/fi-risk-engine/internal/risk"
	"github.com/riskdesk/fi-risk-engine/internal/tenor"
)

// DefaultAggregateEvery is how many committed ticks pass between
// portfolio-aggregate recomputations.
const DefaultAggregateEvery = 5

// tickMessage is the wire shape of one curve-tick event. Rate values
// arrive as untyped JSON so a tick carrying a non-numeric value for one
// tenor degrades to skipping that tenor instead of dropping the whole
// message.
type tickMessage struct {
	Timestamp int64          `json:"timestamp"`
	CurveDate string         `json:"curve_date"`
	CurveType string         `json:"curve_type"`
	Rates     map[string]any `json:"rates"`
}

// Coordinator polls the bus, reprices the portfolio against each tick,
// and publishes results, committing the tick's offset only after the
// batch it produced has been published.
type Coordinator struct {
	reader         *kafka.Reader
	curve          *curve.Builder
	calc           *risk.Calculator
	publisher      *publish.Publisher
	portfolio      *instrument.Portfolio
	aggregateEvery int
	tickCount      int
	log            zerolog.Logger
}

// NewCoordinator wires a Coordinator over an existing curve/calculator/
// publisher/portfolio, reading from topic on a consumer group with
// manual commits and latest-offset reset.
func NewCoordinator(brokerAddr, topic, groupID string, c *curve.Builder, calc *risk.Calculator, pub *publish.Publisher, portfolio *instrument.Portfolio, log zerolog.Logger) *Coordinator {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{brokerAddr},
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		SessionTimeout: 30 * time.Second,
		StartOffset:    kafka.LastOffset,
	})
	return &Coordinator{
		reader:         reader,
		curve:          c,
		calc:           calc,
		publisher:      pub,
		portfolio:      portfolio,
		aggregateEvery: DefaultAggregateEvery,
		log:            log.With().Str("component", "stream_coordinator").Logger(),
	}
}

// Portfolio implements adminserver.PortfolioProvider.
func (c *Coordinator) Portfolio() *instrument.Portfolio { return c.portfolio }

// Close releases the underlying reader.
func (c *Coordinator) Close() error { return c.reader.Close() }

// Run polls the bus until ctx is cancelled. A malformed tick (poison
// pill) is committed and dropped, since retrying a message that will
// never parse just wedges the partition. A tick that fails on the
// store side is NOT committed: the worker leaves it for re-delivery so
// downstream readers never observe a committed tick whose writes were
// lost.
func (c *Coordinator) Run(ctx context.Context) error {
	c.log.Info().Int("portfolio_size", c.portfolio.Len()).Msg("stream coordinator starting")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info().Msg("stream coordinator stopping on shutdown signal")
				return nil
			}
			return fmt.Errorf("%w: %v", errs.ErrBus, err)
		}

		err = c.processTick(ctx, msg.Value)
		switch {
		case err == nil:
			// Publication for this tick completed; commit before the
			// next fetch so a crash replays at most this one message.
		case errors.Is(err, errs.ErrParse):
			c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("dropping malformed tick")
		default:
			c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("tick failed; skipping commit for re-delivery")
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: commit failed: %v", errs.ErrBus, err)
		}

		c.tickCount++
		if c.tickCount%c.aggregateEvery == 0 {
			if err := c.aggregate(ctx); err != nil {
				c.log.Error().Err(err).Msg("portfolio aggregation failed")
			}
		}
	}
}

// processTick applies one decoded tick: update quotes, publish the
// curve snapshot, then reprice and publish every instrument. Errors
// wrapping errs.ErrParse mean the message can never succeed; any other
// error means the tick must not be committed.
func (c *Coordinator) processTick(ctx context.Context, payload []byte) error {
	var tick tickMessage
	if err := json.Unmarshal(payload, &tick); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrParse, err)
	}

	curveDate, err := time.Parse("2006-01-02", tick.CurveDate)
	if err != nil {
		return fmt.Errorf("%w: bad curve_date %q: %v", errs.ErrParse, tick.CurveDate, err)
	}

	rates := make(map[tenor.Tenor]float64, len(tick.Rates))
	numeric := make(map[string]float64, len(tick.Rates))
	for k, raw := range tick.Rates {
		v, ok := raw.(float64)
		if !ok {
			c.log.Warn().Str("tenor", k).Msg("skipping non-numeric rate value")
			continue
		}
		numeric[k] = v
		t := tenor.Tenor(k)
		if !tenor.Recognized(t) {
			c.log.Warn().Str("tenor", k).Msg("ignoring unrecognized tenor on tick")
			continue
		}
		rates[t] = v
	}

	// An empty update leaves the quote vector as it stands; the latest
	// snapshot still gets a fresh timestamp so the dashboard's
	// staleness view keeps advancing.
	if len(rates) > 0 {
		c.curve.UpdateRates(rates, curveDate)
	}

	if err := c.publisher.WriteYieldCurve(ctx, numeric, tick.Timestamp); err != nil {
		return err
	}

	if !c.curve.Built() {
		c.log.Warn().Msg("curve unbuilt and tick carried no usable rates; skipping pricing pass")
		return nil
	}

	priced := 0
	for _, inst := range c.portfolio.Instruments {
		res, err := c.calc.Calculate(inst)
		if err != nil {
			if errors.Is(err, errs.ErrCurveUnbuilt) {
				return err
			}
			c.log.Error().Err(err).Str("instrument_id", inst.ID()).Msg("pricing failed; skipping instrument")
			continue
		}
		if err := c.publisher.WriteRisk(ctx, res, tick.Timestamp); err != nil {
			return err
		}
		priced++
	}

	c.log.Info().
		Int("priced", priced).
		Int("portfolio_size", c.portfolio.Len()).
		Str("curve_type", tick.CurveType).
		Time("curve_date", curveDate).
		Msg("tick processed")
	return nil
}

// aggregate recomputes the portfolio rollup by re-reading every
// published per-instrument record, so the totals include what other
// workers in the group have published for their partitions.
func (c *Coordinator) aggregate(ctx context.Context) error {
	agg, err := c.publisher.ComputeAggregates(ctx)
	if err != nil {
		return err
	}
	if err := c.publisher.WritePortfolioAggregates(ctx, agg); err != nil {
		return err
	}
	c.log.Info().
		Int("instruments", agg.InstrumentCount).
		Float64("total_dv01", agg.TotalDV01).
		Msg("portfolio aggregates updated")
	return nil
}
