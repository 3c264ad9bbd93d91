package endpoints

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/playout/internal/engine"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api/admin/control/packets"
)

type SyncController struct {
	engine *engine.Engine
}

// SyncModule mounts /recompute and the per-screen sync status.
func SyncModule(e *engine.Engine) api.Module {
	ctl := &SyncController{engine: e}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/recompute", ctl.recompute)
		c.GET("/screens/:id/sync-status", ctl.syncStatus)
	})
}

// POST /api/recompute
func (t *SyncController) recompute(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	var request packets.RecomputeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	if (request.ScreenID == nil) == (request.RuleID == nil) {
		return nil, api.BadRequest(errors.New("exactly one of screen_id or rule_id is required"))
	}

	if request.ScreenID != nil {
		screenID, err := uuid.Parse(*request.ScreenID)
		if err != nil {
			return nil, api.BadRequest(err)
		}
		res, err := t.engine.RecomputeScreen(ctx.Request.Context(), clientID, screenID)
		if err != nil {
			return nil, api.FromError(err)
		}
		return packets.RecomputeResponse{
			Results:             []packets.RecomputeResult{recomputeResult(res)},
			DesiredStateVersion: &res.Version,
		}, nil
	}

	ruleID, err := uuid.Parse(*request.RuleID)
	if err != nil {
		return nil, api.BadRequest(err)
	}
	results, err := t.engine.RecomputeRule(ctx.Request.Context(), clientID, ruleID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.RecomputeResponse{Results: recomputeResults(results)}, nil
}

// GET /api/screens/:id/sync-status
func (t *SyncController) syncStatus(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	id, apiErr := api.ParamUUID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	st, err := t.engine.SyncStatus(ctx.Request.Context(), clientID, id)
	if err != nil {
		return nil, api.FromError(err)
	}
	return syncStatusResponse(st), nil
}
