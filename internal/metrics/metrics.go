package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "token_refreshes_total",
		Help:      "Refresh-token exchanges by outcome.",
	}, []string{"outcome"})

	AccountLockouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "account_lockouts_total",
		Help:      "Accounts locked after repeated failures.",
	})

	RateLimitDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "rate_limit_denials_total",
		Help:      "Login attempts denied by windowed rate limiting, by scope.",
	}, []string{"scope"})

	RateLimitFailOpen = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "rate_limit_fail_open_total",
		Help:      "Rate-limit checks that failed open because attempt counting was unavailable.",
	})
)
