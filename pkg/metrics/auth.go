package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics counts authentication outcomes.
type AuthMetrics struct {
	logins         *prometheus.CounterVec
	signups        prometheus.Counter
	passwordResets prometheus.Counter
}

// NewAuthMetrics registers the auth counters on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Login attempts partitioned by outcome.",
	}, []string{"outcome"})
	signups := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_signups_total",
		Help: "Completed signups.",
	})
	resets := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_password_resets_total",
		Help: "Completed password resets.",
	})
	reg.MustRegister(logins, signups, resets)
	return &AuthMetrics{
		logins:         logins,
		signups:        signups,
		passwordResets: resets,
	}
}

// ObserveLogin records a login attempt outcome ("success" or "failure").
func (a *AuthMetrics) ObserveLogin(outcome string) {
	if a == nil || a.logins == nil {
		return
	}
	a.logins.WithLabelValues(outcome).Inc()
}

// IncSignup increments the completed-signup counter.
func (a *AuthMetrics) IncSignup() {
	if a == nil || a.signups == nil {
		return
	}
	a.signups.Inc()
}

// IncPasswordReset increments the completed-reset counter.
func (a *AuthMetrics) IncPasswordReset() {
	if a == nil || a.passwordResets == nil {
		return
	}
	a.passwordResets.Inc()
}
