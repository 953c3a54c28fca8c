// services/pinata_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"agent-bounty-system/models"
)

// ContentStore is the content-addressed blob storage used for bounty metadata,
// submissions and verification snapshots. Blobs are write-once and immutable.
type ContentStore interface {
	UploadJSON(ctx context.Context, v interface{}) (PinResult, error)
	GetJSON(ctx context.Context, hash string, out interface{}) error
}

// PostSource lists the raw source posts the orchestrator gathers from.
type PostSource interface {
	FetchPosts(ctx context.Context) ([]models.Post, error)
}

// PinResult is what the pinning service returns for an upload.
type PinResult struct {
	IpfsHash string `json:"IpfsHash"`
	URL      string `json:"url"`
}

// PinataClient is an HTTP client for the Pinata pinning API and its gateway.
type PinataClient struct {
	APIURL  string
	Gateway string
	JWT     string
	Client  *http.Client
}

func NewPinataClient() (*PinataClient, error) {
	jwt := os.Getenv("PINATA_JWT")
	gateway := os.Getenv("PINATA_GATEWAY")
	if jwt == "" || gateway == "" {
		return nil, fmt.Errorf("PINATA_JWT and PINATA_GATEWAY environment variables are required")
	}

	apiURL := os.Getenv("PINATA_API_URL")
	if apiURL == "" {
		apiURL = "https://api.pinata.cloud"
	}

	return &PinataClient{
		APIURL:  apiURL,
		Gateway: gateway,
		JWT:     jwt,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// UploadJSON pins v and returns its content hash plus a gateway URL.
func (c *PinataClient) UploadJSON(ctx context.Context, v interface{}) (PinResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return PinResult{}, fmt.Errorf("failed to marshal content blob: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.APIURL+"/pinning/pinJSONToIPFS", bytes.NewBuffer(payload))
	if err != nil {
		return PinResult{}, fmt.Errorf("failed to create pin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.JWT)

	resp, err := c.Client.Do(req)
	if err != nil {
		return PinResult{}, fmt.Errorf("failed to upload to content store: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PinResult{}, fmt.Errorf("failed to read pin response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return PinResult{}, fmt.Errorf("content store returned status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return PinResult{}, fmt.Errorf("failed to decode pin response: %w", err)
	}
	if out.IpfsHash == "" {
		return PinResult{}, fmt.Errorf("content store returned no hash")
	}

	log.Printf("[Pinata] 📌 Pinned blob %s", out.IpfsHash)
	return PinResult{
		IpfsHash: out.IpfsHash,
		URL:      c.gatewayURL(out.IpfsHash),
	}, nil
}

// gatewayURL accepts the gateway as a bare domain or a full base URL.
func (c *PinataClient) gatewayURL(hash string) string {
	if strings.HasPrefix(c.Gateway, "http://") || strings.HasPrefix(c.Gateway, "https://") {
		return fmt.Sprintf("%s/ipfs/%s", c.Gateway, hash)
	}
	return fmt.Sprintf("https://%s/ipfs/%s", c.Gateway, hash)
}

// GetJSON fetches the blob at hash from the gateway and decodes it into out.
func (c *PinataClient) GetJSON(ctx context.Context, hash string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.gatewayURL(hash), nil)
	if err != nil {
		return fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.JWT)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s from content store: %w", hash, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("content store gateway returned status %d for %s: %s", resp.StatusCode, hash, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode blob %s: %w", hash, err)
	}
	return nil
}

// PinExists checks the pinning queue for a hash.
func (c *PinataClient) PinExists(ctx context.Context, hash string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/pinning/pinJobs?ipfs_pin_hash=%s", c.APIURL, hash), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create pin-status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.JWT)

	resp, err := c.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to check pin status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("pin-status check returned status %d", resp.StatusCode)
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("failed to decode pin-status response: %w", err)
	}
	return out.Count > 0, nil
}

// ListFileCIDs returns the CIDs of all public files pinned under this account.
func (c *PinataClient) ListFileCIDs(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.APIURL+"/v3/files/public", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create file-list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.JWT)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list content store files: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("file listing returned status %d: %s", resp.StatusCode, string(body))
	}

	var listing struct {
		Data struct {
			Files []struct {
				CID string `json:"cid"`
			} `json:"files"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode file listing: %w", err)
	}

	cids := make([]string, 0, len(listing.Data.Files))
	for _, f := range listing.Data.Files {
		if f.CID != "" {
			cids = append(cids, f.CID)
		}
	}
	return cids, nil
}

// FetchPosts lists the public files pinned under this account and flattens
// every valid post out of them. Files that are not post arrays are skipped,
// not errors — the store holds other blob kinds too.
func (c *PinataClient) FetchPosts(ctx context.Context) ([]models.Post, error) {
	cids, err := c.ListFileCIDs(ctx)
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	for _, cid := range cids {
		var filePosts []models.Post
		if err := c.GetJSON(ctx, cid, &filePosts); err != nil {
			log.Printf("[Pinata] Skipping %s: %v", cid, err)
			continue
		}
		for _, p := range filePosts {
			if p.Text != "" && p.AuthorFullname != "" {
				posts = append(posts, p)
			}
		}
	}

	log.Printf("[Pinata] 📥 Gathered %d posts from %d files", len(posts), len(cids))
	return posts, nil
}
