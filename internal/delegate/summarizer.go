package delegate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	commonaws "benefits-assistant/internal/common/aws"
	commonerrors "benefits-assistant/internal/common/errors"
	"benefits-assistant/internal/common/logger"
	"benefits-assistant/internal/models"
)

// ModelInvoker is the slice of the Bedrock runtime API the summarizer needs.
type ModelInvoker interface {
	InvokeModel(ctx context.Context, input *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error)
}

var _ ModelInvoker = (*commonaws.BedrockClient)(nil)

// BedrockSummarizer turns a composite multi-plan result set into a short
// comparison narrative via a hosted model.
type BedrockSummarizer struct {
	client      ModelInvoker
	modelID     string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      logger.Logger
}

func NewBedrockSummarizer(client ModelInvoker, modelID string, maxTokens int, temperature float64, timeout time.Duration, log logger.Logger) *BedrockSummarizer {
	return &BedrockSummarizer{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		logger: log.With(map[string]interface{}{
			"component": "summarizer",
		}),
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Summarize asks the model for a narrative over the per-plan results.
// Every failure mode comes back as an error; callers degrade to a null
// summary rather than failing the request.
func (s *BedrockSummarizer) Summarize(ctx context.Context, results []models.PlanResult) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := anthropicMessage{Role: "user"}
	msg.Content = append(msg.Content, struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "text", Text: buildPrompt(results)})

	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        s.maxTokens,
		Temperature:      s.temperature,
		Messages:         []anthropicMessage{msg},
	})
	if err != nil {
		return "", commonerrors.NewSummaryFailedError(err)
	}

	out, err := s.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     awssdk.String(s.modelID),
		ContentType: awssdk.String("application/json"),
		Accept:      awssdk.String("application/json"),
		Body:        body,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", commonerrors.NewSummaryTimeoutError()
		}
		return "", commonerrors.NewSummaryFailedError(err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", commonerrors.NewSummaryFailedError(err)
	}
	if len(resp.Content) == 0 || strings.TrimSpace(resp.Content[0].Text) == "" {
		return "", commonerrors.NewSummaryFailedError(fmt.Errorf("model returned no text"))
	}

	return strings.TrimSpace(resp.Content[0].Text), nil
}

// buildPrompt renders the composite result set as plain lines the model
// can compare across plans.
func buildPrompt(results []models.PlanResult) string {
	var b strings.Builder
	b.WriteString("Summarize the following health plan benefit values in two or three sentences, comparing the plans:\n")
	for _, res := range results {
		for _, v := range res.Data {
			fmt.Fprintf(&b, "- %s under %s: %s\n", v.Condition, v.Plan, v.Value)
		}
	}
	return b.String()
}
