package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "novel_sync"

var (
	// syncRequests push/pull 请求数，按操作与结果区分
	syncRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "requests_total",
		Help:      "Sync requests by operation and result.",
	}, []string{"op", "result"})

	// syncRecords push 写入与 pull 返回的记录数
	syncRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "records_total",
		Help:      "Records written by push or returned by pull, by kind.",
	}, []string{"op", "kind"})

	// syncDuration push/pull 耗时
	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "duration_seconds",
		Help:      "Sync request duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	// storeRecords 存储中的记录数，由统计任务刷新
	storeRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "store_records",
		Help:      "Records in the store by kind and state.",
	}, []string{"kind", "state"})

	// snapshotExports 快照导出次数
	snapshotExports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "snapshot_exports_total",
		Help:      "Snapshot exports by result.",
	}, []string{"result"})
)
