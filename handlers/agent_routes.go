// handlers/agent_routes.go
package handlers

import (
	"agent-bounty-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAgentRoutes(app *fiber.App, agentService *services.AgentService) {
	app.Get("/agents", agentService.ListAgents)
	app.Post("/agents", agentService.SetAgent)
	app.Get("/agents/:agentId", agentService.GetAgent)
	app.Post("/agents/:agentId/set", agentService.SetAgent)
	app.Post("/agents/:agentId/start", agentService.StartAgent)
	app.Post("/agents/:agentId/stop", agentService.StopAgent)
	app.Delete("/agents/:agentId", agentService.DeleteAgent)
}
