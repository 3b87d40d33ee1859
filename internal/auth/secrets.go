package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

var ErrClientSecretMissing = errors.New("client secret not found")

// SecretSource yields the OAuth client-secret JSON downloaded from the Google
// Cloud console.
type SecretSource interface {
	ClientSecret(ctx context.Context) ([]byte, error)
}

type FileSecret struct {
	Path string
}

func (s FileSecret) ClientSecret(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrClientSecretMissing, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret: %w", err)
	}
	return data, nil
}

// SecretManagerSecret reads the client secret from a Secret Manager version,
// e.g. projects/my-project/secrets/youtube-client/versions/latest.
type SecretManagerSecret struct {
	Name    string
	Options []option.ClientOption
}

func (s SecretManagerSecret) ClientSecret(ctx context.Context) ([]byte, error) {
	client, err := secretmanager.NewRESTClient(ctx, s.Options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: s.Name})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrClientSecretMissing, s.Name, err)
	}

	data := resp.GetPayload().GetData()
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrClientSecretMissing, s.Name)
	}
	return data, nil
}
