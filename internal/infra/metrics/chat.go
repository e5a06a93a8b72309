package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(reflexHitsTotal, fallbackTotal, tokenMintsTotal) }

var reflexHitsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "chat_reflex_hits_total",
		Help: "Turns answered from the reflex table with no AI call.",
	},
)

var fallbackTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "chat_sync_fallback_total",
		Help: "Turns executed synchronously because the store was unavailable.",
	},
)

var tokenMintsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "google_token_mints_total",
		Help: "Outbound OAuth2 JWT-bearer exchanges, labeled by outcome.",
	},
	[]string{"outcome"}, // 'ok', 'error'
)

func IncReflexHit()               { reflexHitsTotal.Inc() }
func IncFallback()                { fallbackTotal.Inc() }
func IncTokenMint(outcome string) { tokenMintsTotal.WithLabelValues(outcome).Inc() }
