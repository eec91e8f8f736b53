package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stencild", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stencild", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	TokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "stencild", Name: "tokens_issued_total", Help: "Number of access tokens issued."},
	)
	TokensRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "stencild", Name: "tokens_revoked_total", Help: "Number of access tokens revoked via logout."},
	)
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stencild", Name: "auth_failures_total", Help: "Number of rejected authentication attempts by reason."},
		[]string{"reason"},
	)
	RendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "stencild", Name: "renders_total", Help: "Number of template render requests by outcome."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(TokensIssued)
	reg.MustRegister(TokensRevoked)
	reg.MustRegister(AuthFailures)
	reg.MustRegister(RendersTotal)
}
