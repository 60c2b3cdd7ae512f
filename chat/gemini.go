package chat

import (
	"context"
	"fmt"
	"os"
	"strings"

	"court-motion/models"

	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	ctx    context.Context
}

func NewGeminiClient() (*GeminiClient, error) {
	_ = godotenv.Load()

	ctx := context.Background()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	return &GeminiClient{
		client: client,
		ctx:    ctx,
	}, nil
}

const systemPrompt = `You are a sports-motion analysis assistant. You are given
the stored record of one court analysis session: the camera calibration quality
and a summary of the player's movement speeds derived from pose tracking.

Summarize the session for a coach in plain language:
- say whether the calibration was trustworthy (accuracy above 80% is good,
  below 50% means the speed numbers are unreliable),
- characterize the movement intensity from the average and peak speeds
  (recreational rallies average 1-2 m/s, competitive play 2-4 m/s),
- mention if any readings were clamped, which indicates tracking glitches.

Keep it under 150 words and avoid repeating raw field names.`

// SummarizeSession produces a plain-language summary of a stored session.
func (g *GeminiClient) SummarizeSession(record models.SessionRecord, samples []models.SpeedSample) (string, error) {
	message := describeSession(record, samples)

	systemInstruction := genai.NewContentFromText(systemPrompt, genai.RoleModel)
	userContent := genai.NewContentFromText(message, genai.RoleUser)

	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       genai.Ptr(float32(0.7)),
		TopP:              genai.Ptr(float32(0.8)),
		TopK:              genai.Ptr(float32(40)),
		MaxOutputTokens:   int32(250),
	}

	resp, err := g.client.Models.GenerateContent(
		g.ctx,
		"gemini-2.5-flash",
		[]*genai.Content{userContent},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %v", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return strings.ReplaceAll(text, "*", ""), nil
}

// describeSession flattens a record into the prompt text the model sees.
func describeSession(record models.SessionRecord, samples []models.SpeedSample) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %d recorded %s.\n", record.ID, record.Timestamp.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Court: %s, calibration mode: %s, reference points used: %d.\n",
		record.CourtType, record.ModeID, record.PointCount)
	fmt.Fprintf(&b, "Calibration accuracy: %.1f%%, mean reprojection error: %.3f m.\n",
		record.CalibrationAccuracy, record.ReprojectionError)
	fmt.Fprintf(&b, "Frames analyzed: %d. Average speed: %.2f m/s, peak speed: %.2f m/s.\n",
		record.FrameCount, record.AverageSpeed, record.MaxSpeed)

	clamped := 0
	for _, s := range samples {
		if s.Clamped {
			clamped++
		}
	}
	if len(samples) > 0 {
		fmt.Fprintf(&b, "Per-frame samples stored: %d, of which %d were clamped readings.\n",
			len(samples), clamped)
	}
	return b.String()
}

func (g *GeminiClient) Close() error {
	// The client manages its own connections; nothing to release.
	return nil
}
