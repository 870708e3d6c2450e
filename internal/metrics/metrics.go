/**
 * @description
 * This package collects and exposes Prometheus metrics for the
 * payment-service: login outcomes (the lockout pipeline's observable
 * behavior) and charge outcomes (the transaction state machine's terminal
 * states).
 *
 * @dependencies
 * - github.com/prometheus/client_golang: Metric primitives and the HTTP
 *   exposition handler.
 */

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login failure reasons recorded on the login counter.
const (
	LoginFailureInvalidCredentials = "invalid_credentials"
	LoginFailureLocked             = "locked"
	LoginFailureThrottled          = "throttled"
)

// Charge outcomes recorded on the charge counter. They mirror the terminal
// transaction states plus the decline/unavailable split.
const (
	ChargeOutcomeSettled     = "settled"
	ChargeOutcomeDeclined    = "declined"
	ChargeOutcomeUnavailable = "unavailable"
)

// Recorder is the interface service code uses to record events. Services
// tolerate a nil Recorder so tests don't have to wire one.
type Recorder interface {
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
	RecordChargeOutcome(outcome string)
}

// Collector is the Prometheus-backed Recorder implementation.
type Collector struct {
	registry     *prometheus.Registry
	loginSuccess prometheus.Counter
	loginFailure *prometheus.CounterVec
	chargeTotal  *prometheus.CounterVec
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payment_login_success_total",
			Help: "Total number of successful logins.",
		}),
		loginFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_login_failure_total",
			Help: "Total number of failed logins by reason.",
		}, []string{"reason"}),
		chargeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_charge_total",
			Help: "Total number of charge attempts by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(c.loginSuccess, c.loginFailure, c.chargeTotal)
	return c
}

// RecordLoginSuccess counts one successful login.
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure counts one failed login with its reason.
func (c *Collector) RecordLoginFailure(reason string) {
	c.loginFailure.WithLabelValues(reason).Inc()
}

// RecordChargeOutcome counts one charge attempt outcome.
func (c *Collector) RecordChargeOutcome(outcome string) {
	c.chargeTotal.WithLabelValues(outcome).Inc()
}

// Handler returns the HTTP handler serving the exposition endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
