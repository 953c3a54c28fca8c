package services

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"agent-bounty-system/chain"

	"github.com/gofiber/fiber/v2"
)

func TestHandleSweepResponseShape(t *testing.T) {
	now := time.Now().Unix()
	pool := &fakePool{bounties: []chain.BountyInfo{
		{BountyId: "expired", ExpiredAt: uint64(now - 3600)},
	}}

	app := fiber.New()
	app.Get("/reward", NewSweeper(pool).HandleSweep)

	resp, err := app.Test(httptest.NewRequest("GET", "/reward", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	var body struct {
		Timestamp         string `json:"timestamp"`
		ProcessedBounties []struct {
			BountyID string `json:"bountyId"`
			Status   string `json:"status"`
		} `json:"processedBounties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Errorf("timestamp not RFC3339: %q", body.Timestamp)
	}
	if len(body.ProcessedBounties) != 1 || body.ProcessedBounties[0].BountyID != "expired" {
		t.Errorf("unexpected processed bounties: %+v", body.ProcessedBounties)
	}
}

func TestHandleSweepEmptyRunStillReturnsArray(t *testing.T) {
	app := fiber.New()
	app.Get("/reward", NewSweeper(&fakePool{}).HandleSweep)

	resp, err := app.Test(httptest.NewRequest("GET", "/reward", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(body["processedBounties"]) != "[]" {
		t.Errorf("expected empty array, got %s", body["processedBounties"])
	}
}

func TestAgentHandlersRejectBadUUID(t *testing.T) {
	app := fiber.New()
	svc := NewAgentService(nil) // invalid IDs are rejected before any DB access
	app.Get("/agents/:agentId", svc.GetAgent)
	app.Delete("/agents/:agentId", svc.DeleteAgent)
	app.Post("/agents/:agentId/start", svc.StartAgent)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/agents/not-a-uuid"},
		{"DELETE", "/agents/not-a-uuid"},
		{"POST", "/agents/not-a-uuid/start"},
	} {
		resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
		if err != nil {
			t.Fatalf("app.Test %s %s: %v", tc.method, tc.path, err)
		}
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("%s %s: got %d, want 400", tc.method, tc.path, resp.StatusCode)
		}
	}
}
