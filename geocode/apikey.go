// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// GoogleMapsAPIKeyEnv is the environment variable holding the Google Maps key.
const GoogleMapsAPIKeyEnv = "GOOGLE_MAPS_API_KEY"

// GoogleMapsKeyDisplayName is the display name of the API key looked up
// through Application Default Credentials.
const GoogleMapsKeyDisplayName = "TalkMap Geocoding Key"

// GoogleMapsAPIKey returns the key from GOOGLE_MAPS_API_KEY or, when unset,
// retrieves it with Application Default Credentials from the API Keys service
// of projectID (or the credentials' own project when projectID is empty).
func GoogleMapsAPIKey(ctx context.Context, projectID string, logger *slog.Logger) (string, error) {
	if key := os.Getenv(GoogleMapsAPIKeyEnv); key != "" {
		return key, nil
	}

	logger.Info("Google Maps API key not set, attempting to retrieve via ADC", "env", GoogleMapsAPIKeyEnv)

	key, err := apiKeyFromADC(ctx, projectID, logger)
	if err != nil {
		return "", fmt.Errorf("retrieving API key via ADC: %w", err)
	}

	logger.Info("Retrieved Google Maps API key via ADC")

	return key, nil
}

func apiKeyFromADC(ctx context.Context, projectID string, logger *slog.Logger) (string, error) {
	if projectID == "" {
		creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return "", fmt.Errorf("finding default credentials: %w", err)
		}

		projectID = creds.ProjectID
	}

	if projectID == "" {
		return "", errors.New("no project ID in credentials; set --google-project")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != GoogleMapsKeyDisplayName {
			continue
		}

		// ListKeys redacts the secret, it has to be fetched separately.
		logger.Debug("Found key resource, retrieving secret", "key", key.Name)

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key '%s' found but its key string is empty", GoogleMapsKeyDisplayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", GoogleMapsKeyDisplayName, projectID)
}
