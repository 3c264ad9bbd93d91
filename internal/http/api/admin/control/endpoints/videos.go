package endpoints

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/playout/internal/engine"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api/admin/control/packets"
)

type VideoController struct {
	engine *engine.Engine
}

// VideoModule mounts video registration and retraction.
func VideoModule(e *engine.Engine) api.Module {
	ctl := &VideoController{engine: e}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/videos", ctl.createVideo)
		c.POST("/videos/:id/retract", ctl.retractVideo)
	})
}

// POST /api/admin/videos
func (t *VideoController) createVideo(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	var request packets.CreateVideoRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	video, err := t.engine.RegisterVideo(ctx.Request.Context(), clientID, request.Title, request.ContentHash, request.DurationSeconds)
	if err != nil {
		return nil, api.FromError(err)
	}
	return videoResponse(video), nil
}

// POST /api/admin/videos/:id/retract
func (t *VideoController) retractVideo(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	id, apiErr := api.ParamUUID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	results, err := t.engine.RetractVideo(ctx.Request.Context(), clientID, id)
	if err != nil {
		return nil, api.FromError(err)
	}
	video, err := t.engine.GetVideo(ctx.Request.Context(), clientID, id)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.RetractVideoResponse{
		Video:   videoResponse(video),
		Results: recomputeResults(results),
	}, nil
}
