package staking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"stakingLedger/internal/model"
)

var (
	promOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "staking",
		Name:      "operations_total",
	}, []string{"op", "result"})
	promPrincipalDeposited = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "staking",
		Name:      "principal_deposited_total",
	})
	promPrincipalWithdrawn = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "staking",
		Name:      "principal_withdrawn_total",
	})
	promRewardsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "staking",
		Name:      "rewards_paid_total",
	})
	promLastRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: "staking",
		Name:      "pool_rate",
	}, []string{"pool"})
	promLastCap = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: "staking",
		Name:      "pool_cap",
	}, []string{"pool"})
)

func observe(event model.Event, err error) {
	if err != nil {
		result := string(CodeOf(err))
		if result == "" {
			result = "error"
		}
		promOperations.WithLabelValues(string(event.Op), result).Inc()
		return
	}

	promOperations.WithLabelValues(string(event.Op), "ok").Inc()
	switch event.Op {
	case model.OpInitialize, model.OpConfigure:
		pool := event.Pool.Hex()
		promLastRate.WithLabelValues(pool).Set(float64(event.Rate))
		promLastCap.WithLabelValues(pool).Set(float64(event.Cap))
	case model.OpDeposit:
		promPrincipalDeposited.Add(float64(event.Quantity))
		promRewardsPaid.Add(float64(event.Reward))
	case model.OpWithdraw:
		promPrincipalWithdrawn.Add(float64(event.Quantity))
		promRewardsPaid.Add(float64(event.Reward))
	}
}
