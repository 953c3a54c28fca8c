// handlers/bounty_routes.go
package handlers

import (
	"agent-bounty-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBountyRoutes(app *fiber.App, bountyService *services.BountyService, sweeper *services.Sweeper, graphService *services.GraphService) {
	app.Post("/bounties", bountyService.HandleCreateBounty)
	app.Get("/bounties", bountyService.HandleListBounties)
	app.Get("/bounties/creator/:address", bountyService.HandleBountiesByCreator)
	app.Get("/bounties/:bountyId", bountyService.HandleGetBounty)
	app.Get("/bounties/:bountyId/participants", bountyService.HandleBountyParticipants)
	app.Post("/bounties/:bountyId/evaluate", bountyService.HandleEvaluateSubmission)

	// sweep + graph endpoints kept at the root for gateway compatibility
	app.Get("/reward", sweeper.HandleSweep)
	app.Get("/data", graphService.HandleGraph)

	app.Get("/storage", bountyService.HandleListStorage)
	app.Post("/storage", bountyService.HandlePinJSON)
}
