// Package delegate holds the thin clients for the external fallback and
// summarizer services.
package delegate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	commonaws "benefits-assistant/internal/common/aws"
	commonerrors "benefits-assistant/internal/common/errors"
	"benefits-assistant/internal/common/logger"
)

// LambdaInvoker is the slice of the Lambda API the fallback needs.
type LambdaInvoker interface {
	Invoke(ctx context.Context, input *lambda.InvokeInput) (*lambda.InvokeOutput, error)
}

var _ LambdaInvoker = (*commonaws.LambdaClient)(nil)

// LambdaFallback forwards an unresolvable request to the general-purpose
// conversational Lambda and returns its response verbatim.
type LambdaFallback struct {
	client       LambdaInvoker
	functionName string
	timeout      time.Duration
	logger       logger.Logger
}

func NewLambdaFallback(client LambdaInvoker, functionName string, timeout time.Duration, log logger.Logger) *LambdaFallback {
	return &LambdaFallback{
		client:       client,
		functionName: functionName,
		timeout:      timeout,
		logger: log.With(map[string]interface{}{
			"component": "fallback",
		}),
	}
}

// Invoke wraps the original request body as {"body": <json string>} per
// the delegate contract and forwards the delegate's JSON unchanged.
func (f *LambdaFallback) Invoke(ctx context.Context, payload []byte) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	wrapped, err := json.Marshal(map[string]string{"body": string(payload)})
	if err != nil {
		return nil, commonerrors.NewFallbackInvokeFailedError(err)
	}

	out, err := f.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: awssdk.String(f.functionName),
		Payload:      wrapped,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			f.logger.Error("fallback delegate timed out", map[string]interface{}{
				"function": f.functionName,
			})
			return nil, commonerrors.NewFallbackTimeoutError()
		}
		return nil, commonerrors.NewFallbackInvokeFailedError(err)
	}
	if out.FunctionError != nil {
		return nil, commonerrors.NewFallbackInvokeFailedError(
			fmt.Errorf("function error: %s", *out.FunctionError))
	}

	return json.RawMessage(out.Payload), nil
}
