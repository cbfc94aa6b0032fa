package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 结果标签取值
const (
	ResultOK        = "ok"
	ResultFailed    = "failed"
	ResultTimeout   = "timeout"
	ResultTransport = "transport"
	ResultNoEntity  = "no_entity"
	ResultInvalid   = "invalid"
)

var (
	// Monitor Metrics
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_monitor_ticks_total",
		Help: "The total number of polling ticks by result",
	}, []string{"result"})
	InventoryRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_monitor_inventory_refresh_total",
		Help: "The total number of per-player inventory refreshes by result",
	}, []string{"result"})
	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mc_monitor_events_dropped_total",
		Help: "The total number of monitor events dropped because a subscriber was full",
	})
	ServerUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mc_monitor_server_up",
		Help: "1 when the last tick reached the game server, 0 otherwise",
	})
	PlayersOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mc_monitor_players_online",
		Help: "Number of players in the last roster listing",
	})

	// RCON Metrics
	RCONCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_monitor_rcon_commands_total",
		Help: "The total number of remote console commands by result",
	}, []string{"result"})
	RCONConnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_monitor_rcon_connects_total",
		Help: "The total number of remote console connect attempts by result",
	}, []string{"result"})
	RCONCommandLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mc_monitor_rcon_command_latency_seconds",
		Help:    "Latency of remote console commands",
		Buckets: prometheus.DefBuckets,
	})
)
