package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agent-bounty-system/models"
)

// fakePinataServer backs both the pinning API and the gateway with one
// in-memory blob map.
type fakePinataServer struct {
	blobs map[string]json.RawMessage
	next  int
}

func newPinataTestClient(t *testing.T) (*PinataClient, *fakePinataServer) {
	t.Helper()
	fake := &fakePinataServer{blobs: make(map[string]json.RawMessage)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-jwt" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == "POST" && r.URL.Path == "/pinning/pinJSONToIPFS":
			var blob json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&blob); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			fake.next++
			hash := fmt.Sprintf("QmTest%04d", fake.next)
			fake.blobs[hash] = blob
			json.NewEncoder(w).Encode(map[string]string{"IpfsHash": hash})

		case r.Method == "GET" && strings.HasPrefix(r.URL.Path, "/ipfs/"):
			hash := strings.TrimPrefix(r.URL.Path, "/ipfs/")
			blob, ok := fake.blobs[hash]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write(blob)

		case r.Method == "GET" && r.URL.Path == "/v3/files/public":
			type file struct {
				CID string `json:"cid"`
			}
			var files []file
			for hash := range fake.blobs {
				files = append(files, file{CID: hash})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"files": files},
			})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return &PinataClient{
		APIURL:  srv.URL,
		Gateway: srv.URL, // full base URL, served by the same fake
		JWT:     "test-jwt",
		Client:  &http.Client{Timeout: 5 * time.Second},
	}, fake
}

func TestPinataUploadThenGetRoundTrip(t *testing.T) {
	client, _ := newPinataTestClient(t)
	ctx := context.Background()

	in := models.BountyContent{
		BountyID:        "bounty_x_1",
		AllPostsContent: "Author: Alice\ncorpus",
		Criteria:        []string{"cite sources"},
	}
	pin, err := client.UploadJSON(ctx, in)
	if err != nil {
		t.Fatalf("UploadJSON: %v", err)
	}
	if pin.IpfsHash == "" {
		t.Fatal("expected a content hash")
	}
	if !strings.Contains(pin.URL, pin.IpfsHash) {
		t.Errorf("URL should reference the hash, got %s", pin.URL)
	}

	var out models.BountyContent
	if err := client.GetJSON(ctx, pin.IpfsHash, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.BountyID != in.BountyID || out.AllPostsContent != in.AllPostsContent {
		t.Errorf("round trip mismatch: got %+v", out)
	}
	if len(out.Criteria) != 1 || out.Criteria[0] != "cite sources" {
		t.Errorf("criteria mismatch: %v", out.Criteria)
	}
}

func TestPinataGetJSONMissingBlob(t *testing.T) {
	client, _ := newPinataTestClient(t)
	var out map[string]interface{}
	if err := client.GetJSON(context.Background(), "QmNope", &out); err == nil {
		t.Fatal("expected error for missing blob")
	}
}

func TestPinataUploadRejectedWithoutAuth(t *testing.T) {
	client, _ := newPinataTestClient(t)
	client.JWT = "wrong"

	if _, err := client.UploadJSON(context.Background(), map[string]string{"x": "y"}); err == nil {
		t.Fatal("expected error on bad auth")
	}
}

func TestPinataListFileCIDs(t *testing.T) {
	client, fake := newPinataTestClient(t)
	fake.blobs["QmA"] = json.RawMessage(`{}`)
	fake.blobs["QmB"] = json.RawMessage(`{}`)

	cids, err := client.ListFileCIDs(context.Background())
	if err != nil {
		t.Fatalf("ListFileCIDs: %v", err)
	}
	if len(cids) != 2 {
		t.Errorf("expected 2 CIDs, got %v", cids)
	}
}

func TestFetchPostsFlattensAndFilters(t *testing.T) {
	client, _ := newPinataTestClient(t)
	ctx := context.Background()

	// one post array, one non-post blob that must be skipped
	if _, err := client.UploadJSON(ctx, []models.Post{
		{AuthorFullname: "Alice", Text: "a real post"},
		{AuthorFullname: "", Text: "anonymous, dropped"},
		{AuthorFullname: "Bob", Text: ""},
	}); err != nil {
		t.Fatalf("UploadJSON posts: %v", err)
	}
	if _, err := client.UploadJSON(ctx, map[string]string{"kind": "not posts"}); err != nil {
		t.Fatalf("UploadJSON blob: %v", err)
	}

	posts, err := client.FetchPosts(ctx)
	if err != nil {
		t.Fatalf("FetchPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 valid post, got %d: %+v", len(posts), posts)
	}
	if posts[0].AuthorFullname != "Alice" {
		t.Errorf("unexpected post kept: %+v", posts[0])
	}
}
