package endpoints

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/playout/internal/engine"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api/admin/control/packets"
)

type ScreenController struct {
	engine *engine.Engine
}

// ScreenModule mounts the authenticated /screens endpoints.
func ScreenModule(e *engine.Engine) api.Module {
	ctl := &ScreenController{engine: e}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/screens", ctl.listScreens)
		c.POST("/screens", ctl.createScreen)
		c.GET("/screens/:id", ctl.getScreen)
		c.DELETE("/screens/:id", ctl.retireScreen)
	})
}

// GET /api/admin/screens
func (t *ScreenController) listScreens(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	all, err := t.engine.ListScreens(ctx.Request.Context(), clientID)
	if err != nil {
		return nil, api.FromError(err)
	}

	out := make([]packets.ScreenResponse, 0, len(all))
	for _, s := range all {
		out = append(out, screenResponse(s))
	}
	return out, nil
}

// POST /api/admin/screens
func (t *ScreenController) createScreen(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	var request packets.CreateScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	screen, err := t.engine.RegisterScreen(ctx.Request.Context(), clientID, request.ScreenCode, request.Name, request.Location)
	if err != nil {
		return nil, api.FromError(err)
	}
	return screenResponse(screen), nil
}

// GET /api/admin/screens/:id
func (t *ScreenController) getScreen(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	id, apiErr := api.ParamUUID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	screen, err := t.engine.GetScreen(ctx.Request.Context(), clientID, id)
	if err != nil {
		return nil, api.FromError(err)
	}
	return screenResponse(screen), nil
}

// DELETE /api/admin/screens/:id
func (t *ScreenController) retireScreen(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	id, apiErr := api.ParamUUID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	if err := t.engine.RetireScreen(ctx.Request.Context(), clientID, id); err != nil {
		return nil, api.FromError(err)
	}
	screen, err := t.engine.GetScreen(ctx.Request.Context(), clientID, id)
	if err != nil {
		return nil, api.FromError(err)
	}
	return screenResponse(screen), nil
}
