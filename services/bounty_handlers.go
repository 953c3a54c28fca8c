// services/bounty_handlers.go
package services

import (
	"log"
	"time"

	"agent-bounty-system/models"

	"github.com/gofiber/fiber/v2"
)

// HandleCreateBounty creates a bounty from a free-text request.
func (s *BountyService) HandleCreateBounty(c *fiber.Ctx) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if body.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
	}

	result, err := s.CreateBounty(c.UserContext(), body.Text)
	if err != nil {
		log.Printf("[Bounty] Creation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleEvaluateSubmission evaluates a pinned submission against a bounty.
func (s *BountyService) HandleEvaluateSubmission(c *fiber.Ctx) error {
	bountyID := c.Params("bountyId")
	var body struct {
		SubmissionHash string `json:"submissionHash"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if body.SubmissionHash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "submissionHash is required"})
	}

	outcome, err := s.EvaluateSubmissionHash(c.UserContext(), bountyID, body.SubmissionHash)
	if err != nil {
		log.Printf("[Bounty] Evaluation failed for %s: %v", bountyID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(outcome)
}

// HandleListBounties returns all bounties from chain state.
func (s *BountyService) HandleListBounties(c *fiber.Ctx) error {
	bounties, err := s.Pool.AllBounties(c.UserContext())
	if err != nil {
		log.Printf("[Bounty] Failed to list bounties: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch bounties"})
	}
	return c.JSON(fiber.Map{"bounties": bounties, "count": len(bounties)})
}

// HandleGetBounty returns one bounty's chain state plus the local record
// when this service created it.
func (s *BountyService) HandleGetBounty(c *fiber.Ctx) error {
	bountyID := c.Params("bountyId")

	info, err := s.Pool.BountyByID(c.UserContext(), bountyID)
	if err != nil {
		log.Printf("[Bounty] Failed to fetch bounty %s: %v", bountyID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bounty not found"})
	}

	resp := fiber.Map{"bounty": info}
	if s.DB != nil {
		var record models.BountyRecord
		if err := s.DB.First(&record, "id = ?", bountyID).Error; err == nil {
			resp["record"] = record
		}
	}
	return c.JSON(resp)
}

// HandleBountiesByCreator returns the bounties created by one address.
func (s *BountyService) HandleBountiesByCreator(c *fiber.Ctx) error {
	creator := c.Params("address")

	bounties, err := s.Pool.BountiesByCreator(c.UserContext(), creator)
	if err != nil {
		log.Printf("[Bounty] Failed to fetch bounties for creator %s: %v", creator, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"creator": creator, "bounties": bounties, "count": len(bounties)})
}

// HandleBountyParticipants returns a bounty's registered participants.
func (s *BountyService) HandleBountyParticipants(c *fiber.Ctx) error {
	bountyID := c.Params("bountyId")

	participants, err := s.Pool.BountyParticipants(c.UserContext(), bountyID)
	if err != nil {
		log.Printf("[Bounty] Failed to fetch participants for %s: %v", bountyID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch participants"})
	}
	return c.JSON(fiber.Map{"bountyId": bountyID, "participants": participants, "count": len(participants)})
}

// HandleListStorage returns the current post corpus from the content store.
func (s *BountyService) HandleListStorage(c *fiber.Ctx) error {
	posts, err := s.Source.FetchPosts(c.UserContext())
	if err != nil {
		log.Printf("[Storage] Failed to list posts: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch stored posts"})
	}
	return c.JSON(fiber.Map{"posts": posts, "count": len(posts)})
}

// HandlePinJSON pins an arbitrary JSON document to the content store.
func (s *BountyService) HandlePinJSON(c *fiber.Ctx) error {
	var payload map[string]interface{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}
	if len(payload) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Empty body"})
	}

	pin, err := s.Store.UploadJSON(c.UserContext(), payload)
	if err != nil {
		log.Printf("[Storage] Pin failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to pin content"})
	}
	return c.Status(fiber.StatusCreated).JSON(pin)
}

// HandleSweep runs a reward sweep on demand.
func (s *Sweeper) HandleSweep(c *fiber.Ctx) error {
	entries, err := s.Sweep(c.UserContext())
	if err != nil {
		log.Printf("[Sweeper] On-demand sweep failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if entries == nil {
		entries = []models.SweepEntry{}
	}
	return c.JSON(fiber.Map{
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"processedBounties": entries,
	})
}

// HandleGraph builds and returns the relationship graph over the corpus.
func (g *GraphService) HandleGraph(c *fiber.Ctx) error {
	graph, err := g.BuildGraph(c.UserContext())
	if err != nil {
		log.Printf("[Graph] Build failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(graph)
}
