package quote

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

// ErrNoQuotes is returned when there is nothing to compare.
var ErrNoQuotes = errors.New("no quotes to compare")

// UnparsedLeadTime is the lead time assigned to quotes whose lead time has no
// number in it. It never beats a parsed lead time.
const UnparsedLeadTime = math.MaxInt32

// Options controls currency normalization. Rates give the value of one unit
// of a currency in Base. Base itself is implicitly 1.
type Options struct {
	Base  string
	Rates map[string]float64
}

// Ranked is a quote with the numbers used to rank it.
type Ranked struct {
	Quote Quote `json:"quote"`
	// NormalizedTotal is Total expressed in Comparison.Currency.
	NormalizedTotal float64 `json:"normalized_total"`
	LeadDays        int     `json:"lead_days"`
}

// Comparison is the outcome of comparing the quotes for one RFQ.
type Comparison struct {
	Currency       string   `json:"currency"`
	Converted      bool     `json:"converted"`
	Ranked         []Ranked `json:"ranked"`
	Unranked       []Quote  `json:"unranked,omitempty"`
	BestPrice      *Ranked  `json:"best_price,omitempty"`
	Fastest        *Ranked  `json:"fastest,omitempty"`
	ClearWinner    bool     `json:"clear_winner"`
	Recommendation string   `json:"recommendation"`
}

// ParseLeadTime returns the first run of digits in s: "14 days" is 14 and
// "2-3 weeks" is 2. Text without digits, and numbers at or above
// UnparsedLeadTime, yield UnparsedLeadTime.
func ParseLeadTime(s string) int {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return UnparsedLeadTime
	}
	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil || n >= UnparsedLeadTime {
		return UnparsedLeadTime
	}
	return n
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// Compare picks the cheapest and the fastest quote. Ties go to the first
// minimum in input order. When the quotes use more than one currency, totals
// are converted to opts.Base; quotes whose currency cannot be converted are
// left out of the price ranking and reported in Unranked. Lead time ranking
// always considers every quote.
func Compare(quotes []Quote, opts Options) (*Comparison, error) {
	if len(quotes) == 0 {
		return nil, ErrNoQuotes
	}

	c := &Comparison{}
	single := sharedCurrency(quotes)
	if single {
		c.Currency = strings.ToUpper(quotes[0].Currency)
	} else {
		c.Currency = strings.ToUpper(opts.Base)
		c.Converted = true
	}

	all := make([]Ranked, len(quotes))
	best, fastest := -1, 0
	for i, q := range quotes {
		all[i] = Ranked{Quote: q, NormalizedTotal: q.Total, LeadDays: ParseLeadTime(q.LeadTime)}
		if all[i].LeadDays < all[fastest].LeadDays {
			fastest = i
		}
		if !single {
			rate, ok := rateFor(q.Currency, opts)
			if !ok {
				c.Unranked = append(c.Unranked, q)
				continue
			}
			all[i].NormalizedTotal = roundCents(q.Total * rate)
		}
		c.Ranked = append(c.Ranked, all[i])
		if best < 0 || all[i].NormalizedTotal < all[best].NormalizedTotal {
			best = i
		}
	}

	c.Fastest = &all[fastest]
	if best >= 0 {
		c.BestPrice = &all[best]
	}
	c.ClearWinner = best == fastest
	c.Recommendation = recommend(c)
	return c, nil
}

func recommend(c *Comparison) string {
	fast := c.Fastest.Quote
	if c.BestPrice == nil {
		return fmt.Sprintf("%s offers the fastest lead time (%s). Prices could not be compared because no exchange rate is configured for the quoted currencies.",
			fast.SupplierName, fast.LeadTime)
	}
	best := c.BestPrice.Quote
	if c.ClearWinner {
		return fmt.Sprintf("%s is the clear winner: lowest price (%s) and fastest lead time (%s).",
			best.SupplierName, formatAmount(c.Currency, c.BestPrice.NormalizedTotal), best.LeadTime)
	}
	return fmt.Sprintf("Price vs. speed trade-off: %s has the best price (%s) while %s has the fastest lead time (%s).",
		best.SupplierName, formatAmount(c.Currency, c.BestPrice.NormalizedTotal), fast.SupplierName, fast.LeadTime)
}

func sharedCurrency(quotes []Quote) bool {
	first := strings.ToUpper(quotes[0].Currency)
	for _, q := range quotes[1:] {
		if strings.ToUpper(q.Currency) != first {
			return false
		}
	}
	return true
}

func rateFor(code string, opts Options) (float64, bool) {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return 0, false
	}
	base, err := currency.ParseISO(strings.ToUpper(opts.Base))
	if err != nil {
		return 0, false
	}
	if unit == base {
		return 1, true
	}
	for k, v := range opts.Rates {
		if strings.EqualFold(k, unit.String()) && v > 0 {
			return v, true
		}
	}
	return 0, false
}

// ValidCurrency reports whether code is a known ISO 4217 currency.
func ValidCurrency(code string) bool {
	_, err := currency.ParseISO(strings.ToUpper(code))
	return err == nil
}

func formatAmount(code string, v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if code == "" {
		return s
	}
	return code + " " + s
}
