package secrets

import (
	"context"
	"fmt"
	"hash/crc32"
	"log/slog"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
)

// SecretsAdapter fetches secret payloads from Google Secret Manager.
// It falls back to environment variables if the secret name exists as an env var.
type SecretsAdapter struct{}

func (a *SecretsAdapter) GetSecret(ctx context.Context, projectID, secretName string) (string, error) {
	if val := os.Getenv(secretName); val != "" {
		slog.Debug("Using local env var for secret", "component", "secrets", "name", secretName)
		return val, nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create secretmanager client: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName)
	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return "", accessError(secretName, err)
	}

	if err := verifyChecksum(result.Payload); err != nil {
		return "", fmt.Errorf("secret %s: %w", secretName, err)
	}
	return string(result.Payload.Data), nil
}

// accessError reports a secret that does not exist as CONFIG_MISSING.
func accessError(secretName string, err error) error {
	if status.Code(err) == codes.NotFound {
		return lberrors.ErrConfigMissing.WithMessage(fmt.Sprintf("secret %s not found", secretName)).WithCause(err)
	}
	return fmt.Errorf("failed to access secret version %s: %w", secretName, err)
}

var crc32c = crc32.MakeTable(crc32.Castagnoli)

func verifyChecksum(payload *secretmanagerpb.SecretPayload) error {
	if payload.DataCrc32C == nil {
		return nil
	}
	checksum := int64(crc32.Checksum(payload.Data, crc32c))
	if *payload.DataCrc32C != checksum {
		return fmt.Errorf("data corruption detected")
	}
	return nil
}
