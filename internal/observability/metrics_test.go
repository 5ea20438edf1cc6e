package observability

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/ringlink/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)

	RegisterMetrics()
	RegisterMetrics()

	RecordPoll("metrics-test", PollData, 128)
	RecordPoll("metrics-test", PollTimeout, 0)
	RecordRegistration("metrics-test", "consumer.0", "ok")
	SetLeaseOpen("metrics-test", "consumer.0", true)

	if got := testutil.ToFloat64(forwardedBytes.WithLabelValues("metrics-test")); got != 128 {
		t.Fatalf("unexpected forwarded bytes: %v", got)
	}
	if got := testutil.ToFloat64(forwardPolls.WithLabelValues("metrics-test", PollTimeout)); got != 1 {
		t.Fatalf("unexpected timeout polls: %v", got)
	}
	if got := testutil.ToFloat64(leaseOpen.WithLabelValues("metrics-test", "consumer.0")); got != 1 {
		t.Fatalf("unexpected lease gauge: %v", got)
	}
}

func TestServeExposesHealthAndMetrics(t *testing.T) {
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	router := NewRouter(RouterConfig{
		App:    "ringtostdout",
		Logger: zerolog.Nop(),
		Status: func() gin.H {
			return gin.H{"ring": "serve-test", "slot": 2}
		},
		CORSOrigins: []string{"http://dash.local"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, router) }()

	RecordPoll("serve-test", PollData, 5)
	base := "http://" + ln.Addr().String()

	body := httpGet(t, base+"/metrics", nil)
	if !strings.Contains(body, `ringlink_forward_bytes_total{ring="serve-test"} 5`) {
		t.Fatalf("metrics missing forwarded bytes:\n%s", body)
	}

	var health map[string]any
	if err := json.Unmarshal([]byte(httpGet(t, base+"/health", map[string]string{"Origin": "http://dash.local"})), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "ok" || health["ring"] != "serve-test" || health["app"] != "ringtostdout" {
		t.Fatalf("unexpected health: %+v", health)
	}

	if got := testutil.ToFloat64(httpRequests.WithLabelValues("ringtostdout", "/health", "200")); got != 1 {
		t.Fatalf("unexpected /health request count: %v", got)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("ringtostdout", "/metrics", "200")); got != 1 {
		t.Fatalf("unexpected /metrics request count: %v", got)
	}
	httpGetStatus(t, base+"/nope", http.StatusNotFound)
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("ringtostdout", "unmatched", "404")); got != 1 {
		t.Fatalf("unexpected unmatched request count: %v", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("serve: %v", err)
	}
}

func httpGet(t *testing.T, url string, headers map[string]string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("request %s: %v", url, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get %s: status %d", url, resp.StatusCode)
	}
	if origin := headers["Origin"]; origin != "" && resp.Header.Get("Access-Control-Allow-Origin") != origin {
		t.Fatalf("get %s: missing CORS header for %s", url, origin)
	}
	return string(body)
}

func httpGetStatus(t *testing.T, url string, want int) {
	t.Helper()
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("get %s: status %d, want %d", url, resp.StatusCode, want)
	}
}
