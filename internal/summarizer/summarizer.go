package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// Summarizer condenses an enquiry's activity timeline into a short
// narrative a fee earner can read before picking up the phone.
type Summarizer interface {
	Summarize(ctx context.Context, enquiry models.Enquiry, items []models.TimelineItem) (*Summary, error)
}

// Summary is a generated recap of an enquiry's activity.
type Summary struct {
	EnquiryID   string    `json:"enquiryId"`
	Text        string    `json:"text"`
	ItemCount   int       `json:"itemCount"`
	GeneratedAt time.Time `json:"generatedAt"`
	Model       string    `json:"model,omitempty"`
}

// Config holds configuration for OpenAI API usage.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     int // seconds
}

// DefaultConfig returns sensible defaults for enquiry summarization.
func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT4oMini,
		Temperature: 0.3, // Lower temperature for factual recaps
		MaxTokens:   600,
		Timeout:     60,
	}
}

// ConfigFromEnv creates config from environment variables with sensible defaults.
func ConfigFromEnv() Config {
	config := DefaultConfig()

	config.APIKey = os.Getenv("OPENAI_API_KEY")

	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.Model = model
	}

	if tempStr := os.Getenv("OPENAI_TEMPERATURE"); tempStr != "" {
		if temp, err := strconv.ParseFloat(tempStr, 32); err == nil {
			config.Temperature = float32(temp)
		}
	}

	return config
}

const systemPrompt = `You are an assistant for a law firm's enquiry desk. You will be given
the contact history for a prospective client: pitches sent, emails exchanged, calls logged
and instructions received, newest first. Write a short factual summary (3-5 sentences) of
where the enquiry stands: how contact started, what has happened since, and what the most
recent activity was. Do not invent details that are not in the history. Do not give legal
advice.`

// OpenAIClient generates summaries with the OpenAI chat API.
type OpenAIClient struct {
	client *openai.Client
	config Config
	logger *slog.Logger
}

// NewOpenAIClient creates an OpenAI-backed summarizer.
func NewOpenAIClient(config Config, logger *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(config.APIKey),
		config: config,
		logger: logger,
	}
}

// Summarize sends the rendered timeline to the chat API and returns the recap.
func (c *OpenAIClient) Summarize(ctx context.Context, enquiry models.Enquiry, items []models.TimelineItem) (*Summary, error) {
	if len(items) == 0 {
		return &Summary{
			EnquiryID:   enquiry.ID,
			Text:        "No activity has been recorded for this enquiry yet.",
			GeneratedAt: time.Now(),
		}, nil
	}

	timeout := 60
	if c.config.Timeout > 0 {
		timeout = c.config.Timeout
	}
	apiCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(apiCtx, openai.ChatCompletionRequest{
		Model:               c.config.Model,
		Temperature:         c.config.Temperature,
		MaxCompletionTokens: c.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: renderPrompt(enquiry, items),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	c.logger.Info("enquiry summary generated",
		"enquiry_id", enquiry.ID,
		"items", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
		"total_tokens", resp.Usage.TotalTokens)

	return &Summary{
		EnquiryID:   enquiry.ID,
		Text:        strings.TrimSpace(resp.Choices[0].Message.Content),
		ItemCount:   len(items),
		GeneratedAt: time.Now(),
		Model:       c.config.Model,
	}, nil
}

// renderPrompt flattens the timeline into plain text for the model.
func renderPrompt(enquiry models.Enquiry, items []models.TimelineItem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Enquiry from %s", orUnknown(enquiry.ProspectName))
	if enquiry.AreaOfWork != "" {
		fmt.Fprintf(&b, " regarding %s", enquiry.AreaOfWork)
	}
	if enquiry.FeeEarner != "" {
		fmt.Fprintf(&b, ", handled by %s", enquiry.FeeEarner)
	}
	b.WriteString(".\n\nActivity, newest first:\n")

	for _, item := range items {
		fmt.Fprintf(&b, "- [%s] %s: %s",
			item.Timestamp.Format("2 Jan 2006 15:04"),
			item.Type,
			item.Subject)
		if item.Content != "" {
			fmt.Fprintf(&b, " — %s", truncate(item.Content, 300))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "an unnamed prospect"
	}
	return s
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
