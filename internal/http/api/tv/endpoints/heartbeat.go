package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/playout/internal/engine"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/playout/internal/reconcile"
)

type TvController struct {
	engine *engine.Engine
}

func NewTvController(e *engine.Engine) *TvController {
	return &TvController{engine: e}
}

// HeartbeatModule mounts the unauthenticated player heartbeat. Players
// identify themselves by screen code.
func HeartbeatModule(e *engine.Engine) api.Module {
	ctl := NewTvController(e)
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.POST("/heartbeat", api.ResolveEndpoint(ctl.heartbeat))
	})
}

// POST /api/tv/heartbeat
func (t *TvController) heartbeat(ctx *gin.Context) (any, *api.APIError) {
	var request packets.HeartbeatRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	hb := reconcile.Heartbeat{
		AppliedStateVersion: request.AppliedStateVersion,
		Metrics:             request.HealthMetrics,
	}
	if r := request.StatusReport; r != nil {
		hb.Result = r.Result
		hb.ErrorMessage = r.ErrorMessage
		hb.Fault = r.Fault
	}

	// anomalies are recorded on the sync row; the player still gets an answer
	res, err := t.engine.Heartbeat(ctx.Request.Context(), engine.HeartbeatRequest{
		ScreenCode: request.ScreenCode,
		Heartbeat:  hb,
	})
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.HeartbeatResponse{
		DesiredStateVersion: res.DesiredStateVersion,
		SyncStatus:          string(res.SyncStatus),
		Manifest:            res.Manifest,
	}, nil
}
