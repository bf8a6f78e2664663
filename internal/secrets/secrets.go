package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// Manager reads application secrets (Stripe keys, JWT secret) from Google
// Secret Manager. Local development bypasses it and uses plain env vars.
type Manager struct {
	client    *secretmanager.Client
	projectID string
}

// NewManager creates a Manager for the given GCP project. credentialsFile
// may be empty to use application default credentials.
func NewManager(ctx context.Context, projectID, credentialsFile string) (*Manager, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &Manager{client: client, projectID: projectID}, nil
}

// Access returns the latest version of the named secret.
func (m *Manager) Access(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", m.projectID, name)

	result, err := m.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", name, err)
	}

	return string(result.Payload.Data), nil
}

// Close releases the underlying client.
func (m *Manager) Close() error {
	return m.client.Close()
}
