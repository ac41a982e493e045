// Package metrics exposes the service's Prometheus counters. The exposition
// endpoint itself is wired in the router via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registrations counts successful visitor registrations by role.
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ocenv_registrations_total",
		Help: "Successful visitor registrations by role.",
	}, []string{"role"})

	// RegistrationRejects counts registrations rejected before any write.
	RegistrationRejects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ocenv_registration_rejects_total",
		Help: "Registrations rejected by input validation.",
	})

	// QuizSubmissions counts accepted quiz submissions.
	QuizSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ocenv_quiz_submissions_total",
		Help: "Accepted quiz submissions.",
	})

	// QuizPerfectRuns counts submissions where score equaled total.
	QuizPerfectRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ocenv_quiz_perfect_runs_total",
		Help: "Quiz submissions with a perfect score.",
	})
)
