package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// counterValue はGather結果から指定メトリクスのカウンタ値を取り出すヘルパー。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) (float64, bool) {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total, true
		}
	}
	return 0, false
}

// TestRecordIngestSuccess_IncrementsCounter はインジェスト成功カウンタが増加することを検証する。
func TestRecordIngestSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordIngestSuccess("facebook")
	c.RecordIngestSuccess("facebook")

	val, found := counterValue(t, reg, "offapi_ingest_success_total")
	if !found {
		t.Fatal("offapi_ingest_success_total metric not found")
	}
	if val != 2 {
		t.Errorf("ingest_success_total = %v, want 2", val)
	}
}

// TestRecordIngestFailure_IncrementsCounter はインジェスト失敗カウンタが増加することを検証する。
func TestRecordIngestFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordIngestFailure("github", "upstream")

	val, found := counterValue(t, reg, "offapi_ingest_fail_total")
	if !found {
		t.Fatal("offapi_ingest_fail_total metric not found")
	}
	if val != 1 {
		t.Errorf("ingest_fail_total = %v, want 1", val)
	}
}

// TestRecordProviderStatus_LabelsByStatusCode はステータスコード別にカウントされることを検証する。
func TestRecordProviderStatus_LabelsByStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordProviderStatus("facebook", 200)
	c.RecordProviderStatus("facebook", 200)
	c.RecordProviderStatus("facebook", 500)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "offapi_provider_status_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Errorf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("offapi_provider_status_total metric not found")
	}
}

// TestRecordIngestLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordIngestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordIngestLatency("github", 150*time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "offapi_ingest_latency_seconds" {
			found = true
			count := mf.GetMetric()[0].GetHistogram().GetSampleCount()
			if count != 1 {
				t.Errorf("sample count = %d, want 1", count)
			}
		}
	}
	if !found {
		t.Error("offapi_ingest_latency_seconds metric not found")
	}
}

// TestRecordPostsMerged_AddsCount はマージされた投稿数が加算されることを検証する。
func TestRecordPostsMerged_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPostsMerged("facebook", 5)
	c.RecordPostsMerged("facebook", 3)

	val, found := counterValue(t, reg, "offapi_posts_merged_total")
	if !found {
		t.Fatal("offapi_posts_merged_total metric not found")
	}
	if val != 8 {
		t.Errorf("posts_merged_total = %v, want 8", val)
	}
}

// TestRecordAuthFailure_IncrementsCounter は認証失敗カウンタが増加することを検証する。
func TestRecordAuthFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthFailure()
	c.RecordAuthFailure()
	c.RecordAuthFailure()

	val, found := counterValue(t, reg, "offapi_auth_fail_total")
	if !found {
		t.Fatal("offapi_auth_fail_total metric not found")
	}
	if val != 3 {
		t.Errorf("auth_fail_total = %v, want 3", val)
	}
}
