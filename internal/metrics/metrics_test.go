package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getCounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.(prometheus.Metric).Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

func TestMetrics_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		m := NewMetrics()
		reg := prometheus.NewRegistry()

		if err := m.Register(reg); err != nil {
			t.Errorf("Register() returned error: %v", err)
		}

		families, err := reg.Gather()
		if err != nil {
			t.Errorf("Gather() returned error: %v", err)
		}

		expectedNames := map[string]bool{
			MetricLogins:         false,
			MetricLogouts:        false,
			MetricSongPlays:      false,
			MetricReportRequests: false,
			MetricSweptLogins:    false,
		}
		for _, family := range families {
			if _, ok := expectedNames[family.GetName()]; ok {
				expectedNames[family.GetName()] = true
			}
		}
		for name, found := range expectedNames {
			if !found {
				t.Errorf("metric %s not found in gathered metrics", name)
			}
		}
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		m1 := NewMetrics()
		m2 := NewMetrics()
		reg := prometheus.NewRegistry()

		if err := m1.Register(reg); err != nil {
			t.Fatalf("first Register() returned error: %v", err)
		}
		if err := m2.Register(reg); err == nil {
			t.Error("second Register() should have returned an error")
		}
	})
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 100; i++ {
		m.IncLogins()
	}
	for i := 0; i < 40; i++ {
		m.IncLogouts()
	}
	m.IncSongPlays()
	m.IncReportRequests()
	m.AddSweptLogins(7)

	if v := getCounterValue(m.logins); v != 100 {
		t.Errorf("logins = %f, want 100", v)
	}
	if v := getCounterValue(m.logouts); v != 40 {
		t.Errorf("logouts = %f, want 40", v)
	}
	if v := getCounterValue(m.songPlays); v != 1 {
		t.Errorf("songPlays = %f, want 1", v)
	}
	if v := getCounterValue(m.reportRequests); v != 1 {
		t.Errorf("reportRequests = %f, want 1", v)
	}
	if v := getCounterValue(m.sweptLogins); v != 7 {
		t.Errorf("sweptLogins = %f, want 7", v)
	}
}

func TestMetrics_Concurrency(t *testing.T) {
	m := NewMetrics()
	done := make(chan bool)
	iterations := 100

	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < iterations; j++ {
				m.IncLogins()
				m.IncSongPlays()
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	expected := float64(10 * iterations)
	if v := getCounterValue(m.logins); v != expected {
		t.Errorf("logins = %f, want %f", v, expected)
	}
	if v := getCounterValue(m.songPlays); v != expected {
		t.Errorf("songPlays = %f, want %f", v, expected)
	}
}
