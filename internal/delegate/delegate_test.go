package delegate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "benefits-assistant/internal/common/errors"
	"benefits-assistant/internal/common/logger"
	"benefits-assistant/internal/models"
)

type stubLambda struct {
	input  *lambda.InvokeInput
	output *lambda.InvokeOutput
	err    error
}

func (s *stubLambda) Invoke(ctx context.Context, input *lambda.InvokeInput) (*lambda.InvokeOutput, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

func TestLambdaFallbackWrapsPayload(t *testing.T) {
	stub := &stubLambda{output: &lambda.InvokeOutput{Payload: []byte(`{"answer":"hi"}`)}}
	fb := NewLambdaFallback(stub, "assistant-fallback", time.Second, logger.NewTestLogger(t))

	resp, err := fb.Invoke(context.Background(), []byte(`{"question":"hello"}`))

	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"hi"}`, string(resp))

	require.NotNil(t, stub.input)
	assert.Equal(t, "assistant-fallback", *stub.input.FunctionName)

	var wrapped map[string]string
	require.NoError(t, json.Unmarshal(stub.input.Payload, &wrapped))
	assert.JSONEq(t, `{"question":"hello"}`, wrapped["body"])
}

func TestLambdaFallbackTimeout(t *testing.T) {
	stub := &stubLambda{err: context.DeadlineExceeded}
	fb := NewLambdaFallback(stub, "assistant-fallback", time.Second, logger.NewTestLogger(t))

	_, err := fb.Invoke(context.Background(), []byte(`{}`))

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeFallbackTimeout, stdErr.Code)
}

func TestLambdaFallbackFunctionError(t *testing.T) {
	stub := &stubLambda{output: &lambda.InvokeOutput{
		Payload:       []byte(`{"errorMessage":"boom"}`),
		FunctionError: awssdk.String("Unhandled"),
	}}
	fb := NewLambdaFallback(stub, "assistant-fallback", time.Second, logger.NewTestLogger(t))

	_, err := fb.Invoke(context.Background(), []byte(`{}`))

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeFallbackInvokeFailed, stdErr.Code)
}

type stubBedrock struct {
	input  *bedrockruntime.InvokeModelInput
	output *bedrockruntime.InvokeModelOutput
	err    error
}

func (s *stubBedrock) InvokeModel(ctx context.Context, input *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

func sampleResults() []models.PlanResult {
	return []models.PlanResult{
		{Plan: "PlanA", Data: []models.BenefitValue{{Condition: "Annual Deductible", Plan: "PlanA", Value: "$500"}}},
		{Plan: "PlanB", Data: []models.BenefitValue{{Condition: "Annual Deductible", Plan: "PlanB", Value: "$750"}}},
	}
}

func TestBedrockSummarizerParsesResponse(t *testing.T) {
	stub := &stubBedrock{output: &bedrockruntime.InvokeModelOutput{
		Body: []byte(`{"content":[{"type":"text","text":"  PlanA has the lower deductible. "}]}`),
	}}
	sum := NewBedrockSummarizer(stub, "anthropic.claude-3-haiku", 200, 0.9, time.Second, logger.NewTestLogger(t))

	text, err := sum.Summarize(context.Background(), sampleResults())

	require.NoError(t, err)
	assert.Equal(t, "PlanA has the lower deductible.", text)

	require.NotNil(t, stub.input)
	assert.Equal(t, "anthropic.claude-3-haiku", *stub.input.ModelId)
	assert.Equal(t, "application/json", *stub.input.ContentType)

	var req map[string]interface{}
	require.NoError(t, json.Unmarshal(stub.input.Body, &req))
	assert.Equal(t, "bedrock-2023-05-31", req["anthropic_version"])
	assert.EqualValues(t, 200, req["max_tokens"])
}

func TestBedrockSummarizerPromptMentionsEveryPlan(t *testing.T) {
	stub := &stubBedrock{output: &bedrockruntime.InvokeModelOutput{
		Body: []byte(`{"content":[{"type":"text","text":"ok"}]}`),
	}}
	sum := NewBedrockSummarizer(stub, "model", 200, 0.9, time.Second, logger.NewTestLogger(t))

	_, err := sum.Summarize(context.Background(), sampleResults())
	require.NoError(t, err)

	body := string(stub.input.Body)
	assert.Contains(t, body, "PlanA")
	assert.Contains(t, body, "PlanB")
	assert.Contains(t, body, "$500")
	assert.Contains(t, body, "$750")
}

func TestBedrockSummarizerEmptyContentIsError(t *testing.T) {
	stub := &stubBedrock{output: &bedrockruntime.InvokeModelOutput{
		Body: []byte(`{"content":[]}`),
	}}
	sum := NewBedrockSummarizer(stub, "model", 200, 0.9, time.Second, logger.NewTestLogger(t))

	_, err := sum.Summarize(context.Background(), sampleResults())

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeSummaryFailed, stdErr.Code)
}

func TestBedrockSummarizerInvokeError(t *testing.T) {
	stub := &stubBedrock{err: errors.New("throttled")}
	sum := NewBedrockSummarizer(stub, "model", 200, 0.9, time.Second, logger.NewTestLogger(t))

	_, err := sum.Summarize(context.Background(), sampleResults())

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeSummaryFailed, stdErr.Code)
}
