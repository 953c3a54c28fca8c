// services/agent_service.go
package services

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"agent-bounty-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgentService manages the agent registry. Characters are stored as raw
// JSON documents; this service never interprets their contents beyond the
// name field.
type AgentService struct {
	DB *gorm.DB
}

func NewAgentService(db *gorm.DB) *AgentService {
	return &AgentService{DB: db}
}

type agentView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Clients string `json:"clients"`
	Status  string `json:"status"`
}

// ListAgents returns all registered agents (id, name, clients, status only).
func (s *AgentService) ListAgents(c *fiber.Ctx) error {
	var agents []models.Agent
	if err := s.DB.Order("created_at desc").Find(&agents).Error; err != nil {
		log.Printf("DB Error listing agents: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list agents"})
	}

	views := make([]agentView, 0, len(agents))
	for _, a := range agents {
		views = append(views, agentView{ID: a.ID, Name: a.Name, Clients: a.Clients, Status: a.Status})
	}
	return c.JSON(fiber.Map{"agents": views})
}

// GetAgent returns one agent including its full character definition.
func (s *AgentService) GetAgent(c *fiber.Ctx) error {
	id := c.Params("agentId")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agent ID"})
	}

	var agent models.Agent
	if err := s.DB.First(&agent, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
		}
		log.Printf("DB Error fetching agent %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var character json.RawMessage
	if agent.Character != "" {
		character = json.RawMessage(agent.Character)
	}
	return c.JSON(fiber.Map{
		"id":        agent.ID,
		"name":      agent.Name,
		"clients":   agent.Clients,
		"status":    agent.Status,
		"character": character,
	})
}

// SetAgent creates or replaces an agent from a character definition. When
// the path carries an existing agent ID the character is replaced in place.
func (s *AgentService) SetAgent(c *fiber.Ctx) error {
	var body struct {
		CharacterJSON json.RawMessage `json:"characterJson"`
		Clients       []string        `json:"clients"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(body.CharacterJSON) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "characterJson is required"})
	}

	var character struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body.CharacterJSON, &character); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "characterJson is not valid JSON"})
	}
	if character.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Character must have a name"})
	}

	id := c.Params("agentId")
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agent ID"})
	}

	agent := models.Agent{
		ID:        id,
		Name:      character.Name,
		Character: string(body.CharacterJSON),
		Clients:   strings.Join(body.Clients, ","),
		Status:    models.AgentStatusStopped,
	}

	var existing models.Agent
	err := s.DB.First(&existing, "id = ?", id).Error
	switch {
	case err == nil:
		agent.Status = existing.Status
		if err := s.DB.Model(&existing).Updates(map[string]interface{}{
			"name":      agent.Name,
			"character": agent.Character,
			"clients":   agent.Clients,
		}).Error; err != nil {
			log.Printf("DB Error updating agent %s: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update agent"})
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.DB.Create(&agent).Error; err != nil {
			log.Printf("DB Error creating agent: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create agent"})
		}
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	log.Printf("[Agent] Saved agent %s (%s)", agent.Name, id)
	return c.JSON(fiber.Map{"id": id, "character": json.RawMessage(agent.Character)})
}

// StartAgent marks an agent running.
func (s *AgentService) StartAgent(c *fiber.Ctx) error {
	return s.setStatus(c, models.AgentStatusRunning)
}

// StopAgent marks an agent stopped.
func (s *AgentService) StopAgent(c *fiber.Ctx) error {
	return s.setStatus(c, models.AgentStatusStopped)
}

func (s *AgentService) setStatus(c *fiber.Ctx, status string) error {
	id := c.Params("agentId")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agent ID"})
	}

	res := s.DB.Model(&models.Agent{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		log.Printf("DB Error updating agent %s status: %v", id, res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update agent status"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
	}

	log.Printf("[Agent] Agent %s -> %s", id, status)
	return c.JSON(fiber.Map{"id": id, "status": status})
}

// DeleteAgent removes an agent from the registry.
func (s *AgentService) DeleteAgent(c *fiber.Ctx) error {
	id := c.Params("agentId")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agent ID"})
	}

	res := s.DB.Delete(&models.Agent{}, "id = ?", id)
	if res.Error != nil {
		log.Printf("DB Error deleting agent %s: %v", id, res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete agent"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
