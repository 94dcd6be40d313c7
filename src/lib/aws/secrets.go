package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"galabook/src/lib"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// LoadSecrets exports the keys of a JSON secret into the environment.
// Variables that are already set win.
func LoadSecrets(ctx context.Context, secretID string) (int, error) {
	client := lib.AWSGetSecretsManagerClient()
	if client == nil {
		return 0, errors.New("Secrets Manager client is not configured")
	}
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return 0, err
	}
	return ExportSecret(aws.ToString(out.SecretString))
}

func ExportSecret(secret string) (int, error) {
	var values map[string]any
	if err := json.Unmarshal([]byte(secret), &values); err != nil {
		return 0, fmt.Errorf("secret is not a JSON object: %w", err)
	}
	n := 0
	for k, v := range values {
		if _, exists := os.LookupEnv(k); exists {
			continue
		}
		if err := os.Setenv(k, fmt.Sprint(v)); err != nil {
			log.Printf("[Secrets] Could not set %s: %s\n", k, err.Error())
			continue
		}
		n++
	}
	return n, nil
}
