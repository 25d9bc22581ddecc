package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/painpoint-labs/painpoint/internal/infrastructure/storage"
	"github.com/painpoint-labs/painpoint/pkg/config"
)

// Posts a batch of sample meetings against a running API so the
// clustering pipeline has something to chew on during development.

type seedMeeting struct {
	Title    string                 `json:"title"`
	Notes    string                 `json:"notes"`
	Source   string                 `json:"source"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

var seedMeetings = []seedMeeting{
	{
		Title:  "MegaStore weekly sync",
		Notes:  "MegaStore reported the dashboard is slow again, load times over 30 seconds during peak hours. They mentioned timeout errors on the analytics page.",
		Source: "manual",
		Metadata: map[string]interface{}{
			"users_affected": 250,
		},
	},
	{
		Title:  "MegaStore escalation call",
		Notes:  "MegaStore escalated the performance problem to their CTO. Dashboard still freezes, slowness is blocking their quarterly reporting.",
		Source: "manual",
		Metadata: map[string]interface{}{
			"escalation": true,
			"arr":        120000,
		},
	},
	{
		Title:  "Acme Corp onboarding review",
		Notes:  "Acme Corp says the CSV export is broken, the exported file is missing columns and the download sometimes fails entirely.",
		Source: "manual",
	},
	{
		Title:  "Acme Corp follow-up",
		Notes:  "Acme Corp again raised the export problem. PDF export also renders blank pages. They are evaluating competitors.",
		Source: "manual",
		Metadata: map[string]interface{}{
			"churn": true,
		},
	},
	{
		Title:  "Globex discovery call",
		Notes:  "Globex wants calendar integration with Google Calendar, double-booking is a recurring complaint from their schedulers.",
		Source: "notion",
	},
	{
		Title:  "Initech support debrief",
		Notes:  "Initech can't find older records, search results are incomplete and filters don't apply. Search relevance is poor for partial matches.",
		Source: "manual",
		Metadata: map[string]interface{}{
			"users_affected": 40,
		},
	},
	{
		Title:  "Umbrella onboarding feedback",
		Notes:  "Umbrella's new hires are confused by the setup wizard, onboarding takes too long and the getting started guide is out of date.",
		Source: "manual",
	},
	{
		Title:  "Stark Industries import issue",
		Notes:  "Stark Industries failed to import their legacy data, the importer rejects files over 50MB and gives no useful error message.",
		Source: "manual",
		Metadata: map[string]interface{}{
			"revenue_at_risk": 80000,
		},
	},
}

// Notes for the file-source meeting, uploaded to object storage first
// when -storage-endpoint is set.
const fileSourceNotes = "Wayne Enterprises says exporting the audit report crashes the browser tab. Export never completes for large date ranges."

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	apiKey := flag.String("api-key", "", "X-API-Key header value")
	storageEndpoint := flag.String("storage-endpoint", "", "MinIO endpoint; when set, also seeds a file-source meeting")
	storageAccessKey := flag.String("storage-access-key", "minioadmin", "MinIO access key")
	storageSecretKey := flag.String("storage-secret-key", "minioadmin", "MinIO secret key")
	storageBucket := flag.String("storage-bucket", "meeting-notes", "MinIO bucket")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	meetings := seedMeetings
	if *storageEndpoint != "" {
		meetings = append(meetings, uploadFileNotes(*storageEndpoint, *storageAccessKey, *storageSecretKey, *storageBucket))
	}

	log.Printf("🌱 Seeding %d meetings against %s", len(meetings), *baseURL)
	for _, m := range meetings {
		if err := postMeeting(client, *baseURL, *apiKey, m); err != nil {
			log.Fatalf("Failed to post meeting %q: %v", m.Title, err)
		}
	}

	log.Println("🌱 Done. Check /v1/graph for the resulting tree.")
}

// uploadFileNotes stores raw notes in object storage and returns the
// file-source meeting that references them by key
func uploadFileNotes(endpoint, accessKey, secretKey, bucket string) seedMeeting {
	store, err := storage.NewNotesStore(&config.StorageConfig{
		Endpoint:        endpoint,
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		BucketName:      bucket,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	key := fmt.Sprintf("seed/%d-wayne-enterprises.txt", time.Now().Unix())
	if err := store.StoreNotes(context.Background(), key, fileSourceNotes); err != nil {
		log.Fatalf("Failed to upload notes object: %v", err)
	}
	log.Printf("📦 Uploaded notes object %s", key)

	return seedMeeting{
		Title:  "Wayne Enterprises export review",
		Source: "file",
		Metadata: map[string]interface{}{
			"notes_object": key,
		},
	}
}

func postMeeting(client *http.Client, baseURL, apiKey string, m seedMeeting) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/meetings", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		log.Printf("⚠️  %q rejected with status %d", m.Title, resp.StatusCode)
		return nil
	}
	fmt.Printf("✅ accepted: %s\n", m.Title)
	return nil
}
