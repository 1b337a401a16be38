package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"": "/",
		"/api/users/3f2b8f7e-1c2d-4e5f-8a9b-0c1d2e3f4a5b": "/api/users/:param",
		"/api/users/status/change/42":                     "/api/users/status/change/:param",
		"/uploads/profilePics/abc.png":                    "/uploads/profilePics/:param",
		"/api/auth/login?x=1":                             "/api/auth/login",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestRecordAuth(t *testing.T) {
	before := counterValue(t, AuthEvents.WithLabelValues("login", "failure"))
	RecordAuth("login", false)
	if got := counterValue(t, AuthEvents.WithLabelValues("login", "failure")); got != before+1 {
		t.Fatalf("auth_events_total = %v, want %v", got, before+1)
	}
}
