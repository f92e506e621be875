// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 商品検索の結果ラベル
const (
	LookupLocalHit  = "local_hit"
	LookupRemoteHit = "remote_hit"
	LookupMiss      = "miss"
	LookupError     = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordCatalogLookup(result string)
	RecordCatalogLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordBarcodeGenerated()
	RecordInventoryAdd(merged bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	catalogLookups    *prometheus.CounterVec
	catalogLatency    prometheus.Histogram
	httpStatus        *prometheus.CounterVec
	barcodesGenerated prometheus.Counter
	inventoryAdds     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		catalogLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grocerstock_catalog_lookups_total",
			Help: "バーコード検索の結果別件数",
		}, []string{"result"}),
		catalogLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grocerstock_catalog_latency_seconds",
			Help:    "外部商品カタログ呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grocerstock_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		barcodesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grocerstock_barcodes_generated_total",
			Help: "生成されたカスタムバーコードの合計数",
		}),
		inventoryAdds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grocerstock_inventory_adds_total",
			Help: "在庫追加の件数（新規作成またはマージ）",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.catalogLookups,
		c.catalogLatency,
		c.httpStatus,
		c.barcodesGenerated,
		c.inventoryAdds,
	)

	return c
}

// RecordCatalogLookup はバーコード検索の結果を記録する。
func (c *Collector) RecordCatalogLookup(result string) {
	c.catalogLookups.WithLabelValues(result).Inc()
}

// RecordCatalogLatency は外部カタログ呼び出しのレイテンシを記録する。
func (c *Collector) RecordCatalogLatency(duration time.Duration) {
	c.catalogLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordBarcodeGenerated はカスタムバーコードの生成を記録する。
func (c *Collector) RecordBarcodeGenerated() {
	c.barcodesGenerated.Inc()
}

// RecordInventoryAdd は在庫追加を記録する。
func (c *Collector) RecordInventoryAdd(merged bool) {
	outcome := "created"
	if merged {
		outcome = "merged"
	}
	c.inventoryAdds.WithLabelValues(outcome).Inc()
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordCatalogLookup(string) {}
func (Nop) RecordCatalogLatency(time.Duration) {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordBarcodeGenerated() {}
func (Nop) RecordInventoryAdd(bool) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
