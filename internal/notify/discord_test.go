package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-finder/internal/metrics"
)

func testReport(deals int) *RunReport {
	r := &RunReport{
		RunID:          "01J0000000000000000000000",
		Request:        "cheap rtx 3090",
		Products:       []string{"RTX 3090"},
		Summary:        "Prices look fair.",
		PotentialCount: 40,
		FilteredCount:  12,
		MedianPrice:    1150,
	}
	for i := range deals {
		r.Deals = append(r.Deals, Deal{
			Title:       fmt.Sprintf("RTX 3090 #%d", i),
			URL:         fmt.Sprintf("https://www.olx.bg/ad/%d", i),
			Price:       "1000.00 BGN",
			Marketplace: "olx",
			Score:       1.5,
			PriceScore:  0.85,
		})
	}
	return r
}

func captureServer(t *testing.T, status int, received *discordWebhookPayload) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.MethodPost, r.Method)

		err := json.NewDecoder(r.Body).Decode(received)
		assert.NoError(t, err)

		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscordNotifier_NotifyRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
		errMsg     string
	}{
		{name: "webhook accepts", statusCode: http.StatusNoContent},
		{name: "webhook ok", statusCode: http.StatusOK},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, wantErr: true, errMsg: "rate limited"},
		{name: "bad request", statusCode: http.StatusBadRequest, wantErr: true, errMsg: "discord returned 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload
			srv := captureServer(t, tt.statusCode, &received)

			err := NewDiscordNotifier(srv.URL).NotifyRun(context.Background(), testReport(2))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)

			require.Len(t, received.Embeds, 3)
			header := received.Embeds[0]
			assert.Equal(t, "Deals for RTX 3090", header.Title)
			assert.Equal(t, colorBlue, header.Color)
			assert.Equal(t, "Prices look fair.", header.Description)
			require.NotNil(t, header.Footer)
			assert.Equal(t, "run 01J0000000000000000000000", header.Footer.Text)

			fields := make(map[string]string)
			for _, f := range header.Fields {
				fields[f.Name] = f.Value
			}
			assert.Equal(t, "40", fields["Found"])
			assert.Equal(t, "12", fields["Kept"])
			assert.Equal(t, "1150.00", fields["Median price"])

			deal := received.Embeds[1]
			assert.Equal(t, "RTX 3090 #0", deal.Title)
			assert.Equal(t, "https://www.olx.bg/ad/0", deal.URL)
			assert.Equal(t, colorGreen, deal.Color)
		})
	}
}

func TestDiscordNotifier_NotifyRun_Overflow(t *testing.T) {
	t.Parallel()

	var received discordWebhookPayload
	srv := captureServer(t, http.StatusNoContent, &received)

	err := NewDiscordNotifier(srv.URL).NotifyRun(context.Background(), testReport(15))
	require.NoError(t, err)

	require.Len(t, received.Embeds, 10)
	assert.Equal(t, "... and 7 more deals", received.Embeds[9].Title)
}

func TestDiscordNotifier_NotifyRun_NoProducts(t *testing.T) {
	t.Parallel()

	var received discordWebhookPayload
	srv := captureServer(t, http.StatusNoContent, &received)

	r := testReport(0)
	r.Products = nil
	r.MedianPrice = 0

	require.NoError(t, NewDiscordNotifier(srv.URL).NotifyRun(context.Background(), r))
	require.Len(t, received.Embeds, 1)
	assert.Equal(t, "Deal search finished", received.Embeds[0].Title)
	assert.Len(t, received.Embeds[0].Fields, 2)
}

func TestPriceColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  int
	}{
		{score: 1, want: colorGreen},
		{score: 0.8, want: colorGreen},
		{score: 0.79, want: colorYellow},
		{score: 0.5, want: colorYellow},
		{score: 0.2, want: colorOrange},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2f", tt.score), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, priceColor(tt.score))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ддд...", truncate(strings.Repeat("д", 10), 6))
}

func TestDiscordNotifier_NetworkError(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("http://127.0.0.1:1") // nothing listening
	err := d.NotifyRun(context.Background(), testReport(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending discord webhook")
}

func TestDiscordNotifier_InvalidWebhookURL(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("://not-a-valid-url")
	err := d.NotifyRun(context.Background(), testReport(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	d := NewDiscordNotifier("https://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, d.client)
}

func getNotificationHistogramSampleCount() uint64 {
	ch := make(chan prometheus.Metric, 1)
	metrics.NotificationDuration.Collect(ch)
	m := <-ch
	pb := &dto.Metric{}
	_ = m.Write(pb)
	return pb.GetHistogram().GetSampleCount()
}

func TestNotifyRun_ObservesNotificationDuration(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	before := getNotificationHistogramSampleCount()

	err := NewDiscordNotifier(srv.URL).NotifyRun(context.Background(), testReport(1))
	require.NoError(t, err)

	after := getNotificationHistogramSampleCount()
	assert.Greater(t, after, before, "NotificationDuration histogram sample count should increase")
}
