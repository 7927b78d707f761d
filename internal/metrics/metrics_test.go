package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/classtime/internal/auth"
	"github.com/hitoshi/classtime/internal/middleware"
	"github.com/hitoshi/classtime/internal/model"
	"github.com/hitoshi/classtime/internal/worker/sweeper"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordLogin_IncrementsCounterWithRole はログインカウンタがロール別に増加することを検証する。
func TestRecordLogin_IncrementsCounterWithRole(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(model.RoleStudent)
	c.RecordLogin(model.RoleStudent)
	c.RecordLogin(model.RoleInstructor)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "classtime_logins_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case string(model.RoleStudent):
					if val != 2 {
						t.Errorf("logins_total{role=student} = %v, want 2", val)
					}
				case string(model.RoleInstructor):
					if val != 1 {
						t.Errorf("logins_total{role=instructor} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("classtime_logins_total metric not found")
	}
}

// TestRecordRegistration_IncrementsCounter は新規登録カウンタが増加することを検証する。
func TestRecordRegistration_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRegistration(model.RoleInstructor)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "classtime_registrations_total" {
			found = true
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 1 {
				t.Errorf("registrations_total = %v, want 1", val)
			}
		}
	}
	if !found {
		t.Error("classtime_registrations_total metric not found")
	}
}

// TestRecordAuthFailure_IncrementsCounterWithCode は認証失敗カウンタがコード別に増加することを検証する。
func TestRecordAuthFailure_IncrementsCounterWithCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthFailure("INELIGIBLE")
	c.RecordAuthFailure("INELIGIBLE")
	c.RecordAuthFailure("PROVIDER_FAILURE")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "classtime_auth_failures_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "INELIGIBLE":
					if val != 2 {
						t.Errorf("auth_failures_total{code=INELIGIBLE} = %v, want 2", val)
					}
				case "PROVIDER_FAILURE":
					if val != 1 {
						t.Errorf("auth_failures_total{code=PROVIDER_FAILURE} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("classtime_auth_failures_total metric not found")
	}
}

// TestRecordTokenValidation_LabelsByResult はトークン検証カウンタが結果別に増加することを検証する。
func TestRecordTokenValidation_LabelsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenValidation(true)
	c.RecordTokenValidation(true)
	c.RecordTokenValidation(false)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "classtime_token_validations_total" {
			found = true
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "valid":
					if val != 2 {
						t.Errorf("token_validations_total{result=valid} = %v, want 2", val)
					}
				case "invalid":
					if val != 1 {
						t.Errorf("token_validations_total{result=invalid} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("classtime_token_validations_total metric not found")
	}
}

// TestRecordTokensSwept_AddsCount はスイープ済みトークンカウンタが削除数分増加することを検証する。
func TestRecordTokensSwept_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokensSwept(10)
	c.RecordTokensSwept(5)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "classtime_tokens_swept_total" {
			found = true
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 15 {
				t.Errorf("tokens_swept_total = %v, want 15", val)
			}
		}
	}
	if !found {
		t.Error("classtime_tokens_swept_total metric not found")
	}
}

// TestRecordStatesSwept_AddsCount はスイープ済みstateカウンタが削除数分増加することを検証する。
func TestRecordStatesSwept_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordStatesSwept(3)
	c.RecordStatesSwept(4)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "classtime_states_swept_total" {
			found = true
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != 7 {
				t.Errorf("states_swept_total = %v, want 7", val)
			}
		}
	}
	if !found {
		t.Error("classtime_states_swept_total metric not found")
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(401)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "classtime_http_status_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "200":
					if val != 2 {
						t.Errorf("http_status_total{status_code=200} = %v, want 2", val)
					}
				case "401":
					if val != 1 {
						t.Errorf("http_status_total{status_code=401} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("classtime_http_status_total metric not found")
	}
}

// TestRecordSweepDuration_ObservesHistogram はスイープ時間のヒストグラムに値が記録されることを検証する。
func TestRecordSweepDuration_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSweepDuration(100 * time.Millisecond)
	c.RecordSweepDuration(2 * time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "classtime_sweep_duration_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
			// 合計は0.1 + 2.0 = 2.1秒
			if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
				t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("classtime_sweep_duration_seconds metric not found")
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	// いくつかのメトリクスを記録
	c.RecordLogin(model.RoleStudent)
	c.RecordAuthFailure("INVALID_TOKEN")
	c.RecordHTTPStatus(200)
	c.RecordTokensSwept(3)
	c.RecordSweepDuration(500 * time.Millisecond)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	// Prometheus形式のメトリクスが含まれていることを確認
	expectedMetrics := []string{
		"classtime_logins_total",
		"classtime_auth_failures_total",
		"classtime_http_status_total",
		"classtime_tokens_swept_total",
		"classtime_sweep_duration_seconds",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestCollector_ImplementsConsumerInterfaces はCollectorが各利用側のインターフェースを実装することを検証する。
func TestCollector_ImplementsConsumerInterfaces(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	var _ auth.MetricsRecorder = c
	var _ middleware.HTTPStatusRecorder = c
	var _ sweeper.SweepRecorder = c
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordLogin(model.RoleStudent)
	c2.RecordLogin(model.RoleStudent)
	c2.RecordLogin(model.RoleStudent)

	metrics1, _ := reg1.Gather()
	metrics2, _ := reg2.Gather()

	var val1, val2 float64
	for _, mf := range metrics1 {
		if mf.GetName() == "classtime_logins_total" {
			val1 = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	for _, mf := range metrics2 {
		if mf.GetName() == "classtime_logins_total" {
			val2 = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}

	if val1 != 1 {
		t.Errorf("reg1 logins = %v, want 1", val1)
	}
	if val2 != 2 {
		t.Errorf("reg2 logins = %v, want 2", val2)
	}
}
