// internal/common/aws/lambda.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

type LambdaClient struct {
	client *lambda.Client
}

func NewLambdaClient(ctx context.Context, region string) (*LambdaClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &LambdaClient{client: lambda.NewFromConfig(cfg)}, nil
}

func (l *LambdaClient) Invoke(ctx context.Context, input *lambda.InvokeInput) (*lambda.InvokeOutput, error) {
	return l.client.Invoke(ctx, input)
}
