package catalog

import (
	"regexp"
	"sort"
	"strconv"
)

var continuousSlugRe = regexp.MustCompile(`^(.+)-(\d+)$`)

// ParseContinuousSlug splits a continuous market slug into its category
// prefix and unix timestamp, e.g. "btc-updown-15m-1770093900" into
// ("btc-updown-15m", 1770093900). ok is false when the slug does not end
// in a numeric suffix.
func ParseContinuousSlug(slug string) (prefix string, timestamp int64, ok bool) {
	m := continuousSlugRe.FindStringSubmatch(slug)
	if m == nil {
		return "", 0, false
	}
	ts, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[1], ts, true
}

// sortMarketsBySlugTime orders markets by their slug timestamps, oldest
// first, dropping markets whose slugs do not parse. amount > 0 keeps only
// the most recent that many.
func sortMarketsBySlugTime(markets []Market, amount int) []Market {
	type timed struct {
		ts     int64
		market Market
	}
	parsed := make([]timed, 0, len(markets))
	for _, m := range markets {
		if _, ts, ok := ParseContinuousSlug(m.MarketSlug); ok {
			parsed = append(parsed, timed{ts: ts, market: m})
		}
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].ts < parsed[j].ts })

	if amount > 0 && len(parsed) > amount {
		parsed = parsed[len(parsed)-amount:]
	}

	out := make([]Market, len(parsed))
	for i, p := range parsed {
		out[i] = p.market
	}
	return out
}
