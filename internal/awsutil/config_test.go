package awsutil

import (
	"context"
	"testing"
)

func TestLoadEndpointOverride(t *testing.T) {
	t.Setenv("AWS_ENDPOINT_URL", "http://localstack:4566")
	cfg, err := Load(context.Background(), "us-east-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.EndpointResolverWithOptions == nil {
		t.Fatal("expected a custom endpoint resolver")
	}
	ep, err := cfg.EndpointResolverWithOptions.ResolveEndpoint("dynamodb", "us-east-1")
	if err != nil {
		t.Fatalf("resolve endpoint: %v", err)
	}
	if ep.URL != "http://localstack:4566" {
		t.Fatalf("expected localstack endpoint, got %q", ep.URL)
	}
}

func TestLoadDefaultRegion(t *testing.T) {
	t.Setenv("AWS_ENDPOINT_URL", "")
	cfg, err := Load(context.Background(), "eu-west-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Fatalf("expected eu-west-1, got %q", cfg.Region)
	}
}
