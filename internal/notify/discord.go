package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/donaldgifford/deal-finder/internal/metrics"
)

const (
	colorBlue   = 0x3498DB // run header
	colorGreen  = 0x2ECC71 // price score 0.8+
	colorYellow = 0xF1C40F // price score 0.5-0.8
	colorOrange = 0xE67E22 // below 0.5

	// Discord allows max 10 embeds per message; one is the header.
	maxDealEmbeds = 9

	// Discord truncates embed descriptions beyond this.
	maxDescription = 4096
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      *discordFooter      `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// NotifyRun sends the report as one Discord message: a header embed with
// the summary followed by one embed per deal.
func (d *DiscordNotifier) NotifyRun(ctx context.Context, report *RunReport) error {
	embeds := make([]discordEmbed, 0, min(len(report.Deals), maxDealEmbeds)+2)
	embeds = append(embeds, headerEmbed(report))

	limit := min(len(report.Deals), maxDealEmbeds)
	for i := range limit {
		embeds = append(embeds, dealEmbed(&report.Deals[i]))
	}

	if len(report.Deals) > maxDealEmbeds {
		// Replace the last deal so the message stays within 10 embeds.
		embeds[len(embeds)-1] = discordEmbed{
			Title:       fmt.Sprintf("... and %d more deals", len(report.Deals)-maxDealEmbeds+1),
			Color:       colorYellow,
			Description: "Run the search again for the full list.",
		}
	}

	return d.post(ctx, discordWebhookPayload{Embeds: embeds})
}

func headerEmbed(report *RunReport) discordEmbed {
	title := "Deal search finished"
	if len(report.Products) > 0 {
		title = fmt.Sprintf("Deals for %s", strings.Join(report.Products, ", "))
	}

	fields := []discordEmbedField{
		{Name: "Found", Value: fmt.Sprintf("%d", report.PotentialCount), Inline: true},
		{Name: "Kept", Value: fmt.Sprintf("%d", report.FilteredCount), Inline: true},
	}
	if report.MedianPrice > 0 {
		fields = append(fields, discordEmbedField{
			Name: "Median price", Value: fmt.Sprintf("%.2f", report.MedianPrice), Inline: true,
		})
	}

	return discordEmbed{
		Title:       title,
		Color:       colorBlue,
		Description: truncate(report.Summary, maxDescription),
		Fields:      fields,
		Footer:      &discordFooter{Text: "run " + report.RunID},
	}
}

func dealEmbed(deal *Deal) discordEmbed {
	fields := []discordEmbedField{
		{Name: "Price", Value: deal.Price, Inline: true},
		{Name: "Score", Value: fmt.Sprintf("%.2f", deal.Score), Inline: true},
	}
	if deal.Marketplace != "" {
		fields = append(fields, discordEmbedField{Name: "Marketplace", Value: deal.Marketplace, Inline: true})
	}
	return discordEmbed{
		Title:  deal.Title,
		URL:    deal.URL,
		Color:  priceColor(deal.PriceScore),
		Fields: fields,
	}
}

func priceColor(score float64) int {
	switch {
	case score >= 0.8:
		return colorGreen
	case score >= 0.5:
		return colorYellow
	default:
		return colorOrange
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	start := time.Now()
	defer func() {
		metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
