package sessionguard

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)
	m.Observe(MetricAuthenticateLatency, time.Millisecond)

	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("expected disabled metrics to stay zero")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatal("expected empty snapshot when disabled")
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricAuthenticateSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricAuthenticateSuccess); got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
}

func TestMetricsLatencyBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricAuthenticateLatency, 2*time.Millisecond)
	m.Observe(MetricAuthenticateLatency, 40*time.Millisecond)
	m.Observe(MetricAuthenticateLatency, time.Second)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricAuthenticateLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	if buckets[0] != 1 || buckets[3] != 1 || buckets[7] != 1 {
		t.Fatalf("unexpected bucket distribution: %v", buckets)
	}
}

func TestMetricsIgnoresUnknownID(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(metricIDCount + 10)
	if m.Value(metricIDCount+10) != 0 {
		t.Fatal("expected out-of-range id to be ignored")
	}
}
