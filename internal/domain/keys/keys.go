// Package keys builds the store keys shared by the ingestion, aggregation
// and evaluation stages. Every key is assembled explicitly so the format
// stays greppable.
package keys

import (
	"fmt"
	"sort"
	"strings"

	"BarPulse/internal/domain/models"
)

// Notify is the bare key published on the notification channel:
// <source>#<ticker>.
func Notify(a models.Asset) string {
	return NotifyKey(a.Source, a.Ticker)
}

// NotifyKey builds a notification key from its parts.
func NotifyKey(source models.SourceKind, ticker string) string {
	return string(source) + "#" + ticker
}

// Raw is the raw tick series key: ASSET#<source>#<ticker>.
func Raw(a models.Asset) string {
	return "ASSET#" + string(a.Source) + "#" + a.Ticker
}

// RawFromNotify upgrades a notification key to a raw series key.
func RawFromNotify(notifyKey string) string {
	return "ASSET#" + notifyKey
}

// Bar is the bar series key: <tf>_ASSET#<source>#<ticker>.
func Bar(timeframe int, a models.Asset) string {
	return fmt.Sprintf("%d_%s", timeframe, Raw(a))
}

// Indicator is the indicator series key:
// <tf>_INDICATOR#<ticker>#<kind>#<signature>.
func Indicator(timeframe int, a models.Asset, kind, signature string) string {
	return fmt.Sprintf("%d_INDICATOR#%s#%s#%s", timeframe, a.Ticker, kind, signature)
}

// Signature renders an indicator config deterministically: the fixed
// fields first, then the extra parameters in sorted key order.
func Signature(timeframe, minLength int, params map[string]string) string {
	parts := []string{
		fmt.Sprintf("timeframe=%d", timeframe),
		fmt.Sprintf("min_length=%d", minLength),
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, name+"="+params[name])
	}
	return strings.Join(parts, "#")
}
