package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsCreated   prometheus.Counter
	RegistrationsWithdrawn prometheus.Counter
	ScheduleConflicts      prometheus.Counter
	ApprovalDecisions      *prometheus.CounterVec
	CheckInsRecorded       prometheus.Counter
	VerificationDecisions  *prometheus.CounterVec
	ActivitiesPublished    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_registrations_created_total",
			Help: "Total number of participant registrations accepted",
		}),
		RegistrationsWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_registrations_withdrawn_total",
			Help: "Total number of registrations withdrawn by their owner",
		}),
		ScheduleConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_schedule_conflicts_total",
			Help: "Total number of registrations blocked by a schedule conflict",
		}),
		ApprovalDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_approval_decisions_total",
			Help: "Total number of registration approval decisions by outcome",
		}, []string{"decision"}),
		CheckInsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_checkins_recorded_total",
			Help: "Total number of attendance entries appended",
		}),
		VerificationDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_verification_decisions_total",
			Help: "Total number of attendance verification decisions by outcome",
		}, []string{"decision"}),
		ActivitiesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_activities_published_total",
			Help: "Total number of activities published",
		}),
	}
}

// IncApprovalDecision records one approval-workflow decision.
func (m *Metrics) IncApprovalDecision(decision string) {
	m.ApprovalDecisions.WithLabelValues(decision).Inc()
}

// IncVerificationDecision records one verification-workflow decision.
func (m *Metrics) IncVerificationDecision(decision string) {
	m.VerificationDecisions.WithLabelValues(decision).Inc()
}
