package secrets

import (
	"context"
	"hash/crc32"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
)

func TestGetSecret_EnvVar(t *testing.T) {
	t.Setenv("TEST_LEADERBOARD_SECRET", "local_value")

	adapter := &SecretsAdapter{}
	val, err := adapter.GetSecret(context.Background(), "test-project", "TEST_LEADERBOARD_SECRET")
	if err != nil {
		t.Fatalf("Expected check to succeed, got error: %v", err)
	}
	if val != "local_value" {
		t.Errorf("Expected 'local_value', got '%s'", val)
	}
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("client-secret")
	good := int64(crc32.Checksum(data, crc32.MakeTable(crc32.Castagnoli)))
	bad := good + 1

	if err := verifyChecksum(&secretmanagerpb.SecretPayload{Data: data, DataCrc32C: &good}); err != nil {
		t.Errorf("Expected matching checksum to pass, got %v", err)
	}
	if err := verifyChecksum(&secretmanagerpb.SecretPayload{Data: data}); err != nil {
		t.Errorf("Expected missing checksum to pass, got %v", err)
	}
	if err := verifyChecksum(&secretmanagerpb.SecretPayload{Data: data, DataCrc32C: &bad}); err == nil {
		t.Error("Expected mismatched checksum to fail")
	}
}

func TestAccessError(t *testing.T) {
	missing := accessError("STRAVA_ATHLETES", status.Error(codes.NotFound, "secret not found"))
	if code := lberrors.GetCode(missing); code != lberrors.CodeConfigMissing {
		t.Errorf("Expected NotFound to map to %s, got %s", lberrors.CodeConfigMissing, code)
	}

	down := accessError("STRAVA_ATHLETES", status.Error(codes.Unavailable, "connection refused"))
	if code := lberrors.GetCode(down); code == lberrors.CodeConfigMissing {
		t.Errorf("Expected Unavailable not to look like a missing secret, got %v", down)
	}
	if status.Code(down) != codes.Unavailable {
		t.Errorf("Expected the gRPC status to stay reachable, got %v", status.Code(down))
	}
}
