package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizgame_sessions_started_total",
		Help: "Number of game sessions started.",
	})

	SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizgame_sessions_completed_total",
		Help: "Number of game sessions completed.",
	})

	AnswersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizgame_answers_submitted_total",
		Help: "Number of answers submitted, by correctness.",
	}, []string{"correct"})

	RankRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizgame_rank_recomputes_total",
		Help: "Number of full leaderboard rank recomputations.",
	})
)
