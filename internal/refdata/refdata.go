// Package refdata fetches the instrument universe from the reference-data
// service at startup via its paged HTTP listing.
package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/riskdesk/fi-risk-engine/internal/errs"
	"github.com/riskdesk/fi-risk-engine/internal/instrument"
)

// maxPageSize is the server-side cap on page_size.
const maxPageSize = 100

// wireInstrument is the JSON shape of one item on the instrument
// listing, a flattened union over bond and swap fields discriminated by
// instrument_type.
type wireInstrument struct {
	ID             string  `json:"id"`
	InstrumentType string  `json:"instrument_type"`
	Notional       float64 `json:"notional"`
	Currency       string  `json:"currency"`

	// Bond fields.
	ISIN         string  `json:"isin,omitempty"`
	CouponRate   float64 `json:"coupon_rate,omitempty"`
	IssueDate    string  `json:"issue_date,omitempty"`
	DayCountConv string  `json:"day_count_convention,omitempty"`

	// Swap fields.
	FixedRate     float64 `json:"fixed_rate,omitempty"`
	Tenor         string  `json:"tenor,omitempty"`
	TradeDate     string  `json:"trade_date,omitempty"`
	EffectiveDate string  `json:"effective_date,omitempty"`
	PayReceive    string  `json:"pay_receive,omitempty"`
	FloatIndex    string  `json:"float_index,omitempty"`

	// Shared fields.
	MaturityDate     string `json:"maturity_date"`
	PaymentFrequency string `json:"payment_frequency,omitempty"`
}

// wirePage is one page of the listing response.
type wirePage struct {
	Items []wireInstrument `json:"items"`
	Pages int              `json:"pages"`
	Total int              `json:"total"`
}

// Loader fetches the full instrument universe in pages from the
// reference-data service.
type Loader struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	log        zerolog.Logger
}

// NewLoader builds a Loader against baseURL, paging pageSize instruments
// at a time (clamped to the server's 100-item cap).
func NewLoader(baseURL string, pageSize int, log zerolog.Logger) *Loader {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &Loader{
		baseURL:  baseURL,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("component", "refdata").Logger(),
	}
}

// Load fetches every page of the instrument universe and returns the
// assembled Portfolio. An instrument that fails schema validation is
// dropped with a warning rather than aborting the whole load; a failure
// to reach the service at all is fatal and returns
// errs.ErrUpstreamUnavailable.
func (l *Loader) Load(ctx context.Context) (*instrument.Portfolio, error) {
	portfolio := &instrument.Portfolio{}

	for page := 1; ; page++ {
		wp, err := l.fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrUpstreamUnavailable, err)
		}
		if page == 1 {
			l.log.Info().Int("total", wp.Total).Int("pages", wp.Pages).Msg("instrument listing opened")
		}

		for _, item := range wp.Items {
			inst, err := toInstrument(item)
			if err != nil {
				l.log.Warn().Err(err).Str("id", item.ID).Str("type", item.InstrumentType).Msg("dropping malformed instrument")
				continue
			}
			portfolio.Instruments = append(portfolio.Instruments, inst)
		}

		l.log.Debug().
			Int("page", page).
			Int("items", len(wp.Items)).
			Msg("fetched reference-data page")

		if page >= wp.Pages || len(wp.Items) == 0 {
			break
		}
	}

	l.log.Info().Int("count", portfolio.Len()).Msg("portfolio loaded")
	return portfolio, nil
}

func (l *Loader) fetchPage(ctx context.Context, page int) (*wirePage, error) {
	url := fmt.Sprintf("%s/api/v1/instruments?page=%d&page_size=%d", l.baseURL, page, l.pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("reference-data service returned status %d", resp.StatusCode)
	}

	var wp wirePage
	if err := json.NewDecoder(resp.Body).Decode(&wp); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	return &wp, nil
}

func toInstrument(w wireInstrument) (instrument.Instrument, error) {
	switch w.InstrumentType {
	case "BOND":
		b, err := toBond(w)
		if err != nil {
			return instrument.Instrument{}, err
		}
		return instrument.FromBond(b), nil
	case "SWAP":
		s, err := toSwap(w)
		if err != nil {
			return instrument.Instrument{}, err
		}
		return instrument.FromSwap(s), nil
	default:
		return instrument.Instrument{}, fmt.Errorf("%w: instrument_type %q unknown", errs.ErrParse, w.InstrumentType)
	}
}

func toBond(w wireInstrument) (*instrument.Bond, error) {
	if w.CouponRate < 0 || w.CouponRate > 1 {
		return nil, fmt.Errorf("%w: coupon_rate %f out of range", errs.ErrParse, w.CouponRate)
	}
	if err := validateCommon(&w); err != nil {
		return nil, err
	}
	maturity, err := time.Parse("2006-01-02", w.MaturityDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad maturity_date: %v", errs.ErrParse, err)
	}
	var issueDate time.Time
	if w.IssueDate != "" {
		issueDate, err = time.Parse("2006-01-02", w.IssueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: bad issue_date: %v", errs.ErrParse, err)
		}
	}
	return &instrument.Bond{
		ID:        w.ID,
		ISIN:      w.ISIN,
		Notional:  w.Notional,
		Currency:  w.Currency,
		Coupon:    w.CouponRate,
		Maturity:  maturity,
		IssueDate: issueDate,
		Frequency: instrument.ParseFrequency(w.PaymentFrequency),
		DayCount:  instrument.ParseDayCount(w.DayCountConv),
	}, nil
}

func toSwap(w wireInstrument) (*instrument.Swap, error) {
	if w.FixedRate < 0 || w.FixedRate > 1 {
		return nil, fmt.Errorf("%w: fixed_rate %f out of range", errs.ErrParse, w.FixedRate)
	}
	if err := validateCommon(&w); err != nil {
		return nil, err
	}
	side, ok := instrument.ParseSide(w.PayReceive)
	if !ok {
		return nil, fmt.Errorf("%w: pay_receive %q invalid", errs.ErrParse, w.PayReceive)
	}
	maturity, err := time.Parse("2006-01-02", w.MaturityDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad maturity_date: %v", errs.ErrParse, err)
	}
	tradeDate, err := time.Parse("2006-01-02", w.TradeDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad trade_date: %v", errs.ErrParse, err)
	}
	var effectiveDate time.Time
	if w.EffectiveDate != "" {
		effectiveDate, err = time.Parse("2006-01-02", w.EffectiveDate)
		if err != nil {
			return nil, fmt.Errorf("%w: bad effective_date: %v", errs.ErrParse, err)
		}
	}
	floatIndex := w.FloatIndex
	if floatIndex == "" {
		floatIndex = "SOFR"
	}
	freq := instrument.Quarterly
	if w.PaymentFrequency != "" {
		freq = instrument.ParseFrequency(w.PaymentFrequency)
	}
	return &instrument.Swap{
		ID:             w.ID,
		Notional:       w.Notional,
		Currency:       w.Currency,
		FixedRate:      w.FixedRate,
		TenorLabel:     w.Tenor,
		TradeDate:      tradeDate,
		EffectiveDate:  effectiveDate,
		Maturity:       maturity,
		Side:           side,
		FloatIndex:     floatIndex,
		FixedFrequency: freq,
	}, nil
}

// validateCommon checks the fields shared by both instrument kinds,
// synthesizing an id when the payload carries none so the risk keys
// downstream are never empty.
func validateCommon(w *wireInstrument) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if len(w.Currency) != 3 {
		return fmt.Errorf("%w: currency %q invalid", errs.ErrParse, w.Currency)
	}
	if w.Notional <= 0 {
		return fmt.Errorf("%w: notional %f must be positive", errs.ErrParse, w.Notional)
	}
	return nil
}
