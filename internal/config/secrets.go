package config

import (
	"context"
	"errors"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretAccessor reads the payload of a secret version.
type SecretAccessor interface {
	Access(ctx context.Context, resource string) (string, error)
}

type secretManagerAccessor struct {
	client *secretmanager.Client
}

// NewSecretAccessor creates a Secret Manager backed SecretAccessor.
func NewSecretAccessor(ctx context.Context, cfg *Config) (SecretAccessor, error) {
	var opts []option.ClientOption
	if cfg.GCPCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsFile))
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &secretManagerAccessor{client: client}, nil
}

func (s *secretManagerAccessor) Access(ctx context.Context, resource string) (string, error) {
	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resource,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}
	return string(result.Payload.Data), nil
}

// ResolveSecrets fills JWTSecret from Secret Manager when JWTSecretResource is set.
// The accessor is only consulted when needed.
func (c *Config) ResolveSecrets(ctx context.Context, accessor SecretAccessor) error {
	if c.JWTSecretResource != "" {
		if accessor == nil {
			return errors.New("JWT_SECRET_RESOURCE is set but no secret accessor is available")
		}
		secret, err := accessor.Access(ctx, c.JWTSecretResource)
		if err != nil {
			return fmt.Errorf("resolve jwt secret: %w", err)
		}
		c.JWTSecret = secret
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET or JWT_SECRET_RESOURCE must be set")
	}
	return nil
}
