package policy

import "math"

// DisplayMode selects which price aggregate is surfaced to the caller.
type DisplayMode string

const (
	DisplayFirstNight  DisplayMode = "FIRST_NIGHT"
	DisplayTotal       DisplayMode = "TOTAL"
	DisplayAvgPerNight DisplayMode = "AVG_PER_NIGHT"
	DisplayMinPerNight DisplayMode = "MIN_PER_NIGHT"
)

// ParseDisplayMode maps a raw mode string to a DisplayMode. Unknown or
// empty values fall back to MIN_PER_NIGHT.
func ParseDisplayMode(s string) DisplayMode {
	switch DisplayMode(s) {
	case DisplayFirstNight, DisplayTotal, DisplayAvgPerNight, DisplayMinPerNight:
		return DisplayMode(s)
	default:
		return DisplayMinPerNight
	}
}

// EvalOptions parameterizes a stay evaluation.
type EvalOptions struct {
	Mode           DisplayMode
	NightsRequired int
}

// StayEvaluation is the reduction of one room's policy window over a
// requested stay. Price aggregates are nil when no record carried a price.
type StayEvaluation struct {
	Bookable     bool
	Nights       int
	FirstPrice   *float64
	MinPrice     *float64
	SumPrice     *float64
	AvgPrice     *float64
	DisplayPrice *float64
}

// Evaluate reduces a policy window to a single verdict.
//
// Bookability requires the supplied record count to equal NightsRequired
// AND every supplied record to be sellable. A single inactive or sold-out
// night among the records disqualifies the whole stay; the sellable-only
// subset is never counted separately.
//
// Price aggregates are computed over every finite price in the window,
// sellable or not, and Nights reports how many records carried one. The
// caller compares Nights against the requested night count to detect a
// partially covered window.
func Evaluate(records []Record, opts EvalOptions) StayEvaluation {
	mode := ParseDisplayMode(string(opts.Mode))

	eval := StayEvaluation{}

	allSellable := true
	var prices []float64
	for _, rec := range records {
		if !rec.Sellable() {
			allSellable = false
		}
		if rec.HasPrice() {
			prices = append(prices, *rec.Price)
		}
	}
	eval.Nights = len(prices)

	if opts.NightsRequired > 0 {
		eval.Bookable = len(records) == opts.NightsRequired && len(records) > 0 && allSellable
	}

	if len(prices) > 0 {
		first := prices[0]
		min := prices[0]
		sum := 0.0
		for _, p := range prices {
			if p < min {
				min = p
			}
			sum += p
		}
		avg := math.Round(sum / float64(len(prices)))

		eval.FirstPrice = &first
		eval.MinPrice = &min
		eval.SumPrice = &sum
		eval.AvgPrice = &avg
	}

	switch mode {
	case DisplayFirstNight:
		eval.DisplayPrice = eval.FirstPrice
	case DisplayTotal:
		eval.DisplayPrice = eval.SumPrice
	case DisplayAvgPerNight:
		eval.DisplayPrice = eval.AvgPrice
	default:
		eval.DisplayPrice = eval.MinPrice
	}

	return eval
}
