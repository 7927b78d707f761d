// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/classtime/internal/model"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証サービスとスイープジョブから利用する。
type Collector struct {
	logins           *prometheus.CounterVec
	registrations    *prometheus.CounterVec
	authFailures     *prometheus.CounterVec
	tokenValidations *prometheus.CounterVec
	tokensSwept      prometheus.Counter
	statesSwept      prometheus.Counter
	httpStatus       *prometheus.CounterVec
	sweepDuration    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classtime_logins_total",
			Help: "既存アカウントのログイン成功数（ロール別）",
		}, []string{"role"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classtime_registrations_total",
			Help: "新規アカウント登録数（ロール別）",
		}, []string{"role"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classtime_auth_failures_total",
			Help: "認証フローの失敗数（エラーコード別）",
		}, []string{"code"}),
		tokenValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classtime_token_validations_total",
			Help: "トークン検証の回数（結果別）",
		}, []string{"result"}),
		tokensSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classtime_tokens_swept_total",
			Help: "スイープで削除された失効トークンの合計数",
		}),
		statesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classtime_states_swept_total",
			Help: "スイープで削除された期限切れstateエントリの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classtime_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "classtime_sweep_duration_seconds",
			Help:    "スイープジョブの実行時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.registrations,
		c.authFailures,
		c.tokenValidations,
		c.tokensSwept,
		c.statesSwept,
		c.httpStatus,
		c.sweepDuration,
	)

	return c
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin(role model.Role) {
	c.logins.WithLabelValues(string(role)).Inc()
}

// RecordRegistration は新規登録を記録する。
func (c *Collector) RecordRegistration(role model.Role) {
	c.registrations.WithLabelValues(string(role)).Inc()
}

// RecordAuthFailure は認証フローの失敗を記録する。
func (c *Collector) RecordAuthFailure(code string) {
	c.authFailures.WithLabelValues(code).Inc()
}

// RecordTokenValidation はトークン検証の結果を記録する。
func (c *Collector) RecordTokenValidation(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	c.tokenValidations.WithLabelValues(result).Inc()
}

// RecordTokensSwept はスイープで削除されたトークン数を記録する。
func (c *Collector) RecordTokensSwept(count int64) {
	c.tokensSwept.Add(float64(count))
}

// RecordStatesSwept はスイープで削除されたstateエントリ数を記録する。
func (c *Collector) RecordStatesSwept(count int) {
	c.statesSwept.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSweepDuration はスイープジョブの実行時間を記録する。
func (c *Collector) RecordSweepDuration(duration time.Duration) {
	c.sweepDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
