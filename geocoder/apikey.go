// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package geocoder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// DefaultAPIKeyDisplayName is the display name of the Maps key provisioned
// for the project.
const DefaultAPIKeyDisplayName = "Locator Geocoding Key"

// APIKeyFromEnv returns GOOGLE_MAPS_API_KEY, falling back to the project's
// key found through Application Default Credentials. It returns "" when
// no key is available, in which case callers run without a remote
// provider.
func APIKeyFromEnv(ctx context.Context, displayName string) string {
	if apiKey := os.Getenv("GOOGLE_MAPS_API_KEY"); apiKey != "" {
		return apiKey
	}

	log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

	apiKey, err := APIKeyFromADC(ctx, displayName)
	if err != nil {
		log.Printf("Failed to retrieve API key via ADC: %v", err)
		log.Print("Remote geocoding disabled, using the gazetteer only.")

		return ""
	}

	log.Println("✅ Successfully retrieved Google Maps API Key via ADC")

	return apiKey
}

// APIKeyFromADC looks up the API key named displayName in the project of
// the Application Default Credentials and returns its secret.
func APIKeyFromADC(ctx context.Context, displayName string) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		// User credentials without a quota project carry no project.
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}

	if projectID == "" {
		return "", errors.New("no project ID in credentials and GOOGLE_CLOUD_PROJECT is not set")
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

		if key.DisplayName != displayName {
			continue
		}

		// ListKeys redacts the secret.
		log.Printf("Found key resource '%s', retrieving secret...", key.Name)

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key '%s' found but its key string is empty", displayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", displayName, projectID)
}
