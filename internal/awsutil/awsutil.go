// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package awsutil loads the shared AWS SDK configuration.
package awsutil

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// Load resolves credentials and region through the SDK default chain.
// A non-empty region overrides the chain; a non-empty endpoint becomes
// the base endpoint of every client built from the result (LocalStack,
// MinIO).
func Load(ctx context.Context, region, endpoint string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}
	return cfg, nil
}
