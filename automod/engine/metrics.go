package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var scanCycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "instamod_scan_cycle_duration_sec",
	Help: "Total duration of one community scan cycle",
}, []string{"community"})

var scanCycleCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "instamod_scan_cycles",
	Help: "Number of community scan cycles run",
}, []string{"community"})

var usersAnalyzedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "instamod_users_analyzed",
	Help: "Number of user histories analyzed",
}, []string{"community"})

var userAnalysisErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "instamod_user_analysis_errors",
	Help: "Number of user analyses which failed",
}, []string{"community"})

var badgesAssignedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "instamod_badges_assigned",
	Help: "Number of badge (flair) assignments flushed",
}, []string{"community"})

var contentRemovedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "instamod_content_removed",
	Help: "Number of comments removed by lock rules",
}, []string{"community", "action"})

var directivesHandledCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "instamod_directives_handled",
	Help: "Number of inbox directives processed",
}, []string{"community", "directive"})

var profilesPurgedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "instamod_profiles_purged",
	Help: "Number of expired user records purged",
}, []string{"community"})
