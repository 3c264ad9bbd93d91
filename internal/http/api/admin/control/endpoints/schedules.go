package endpoints

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/playout/internal/engine"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api"
	"github.com/Nixie-Tech-LLC/playout/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
)

type ScheduleController struct {
	engine *engine.Engine
}

// ScheduleModule mounts rule and slot mutation. Every slot change
// recomputes the affected screen before returning.
func ScheduleModule(e *engine.Engine) api.Module {
	ctl := &ScheduleController{engine: e}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/rules", ctl.createRule)
		c.POST("/rules/:id/slots", ctl.addSlot)
		c.DELETE("/slots/:id", ctl.deleteSlot)
	})
}

// POST /api/admin/rules
func (t *ScheduleController) createRule(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	var request packets.CreateRuleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	rule, err := t.engine.CreateRule(ctx.Request.Context(), clientID, engine.NewRule{
		Name:        request.Name,
		RuleType:    model.RuleType(request.RuleType),
		ActiveFrom:  request.ActiveFrom,
		ActiveUntil: request.ActiveUntil,
	})
	if err != nil {
		return nil, api.FromError(err)
	}
	return ruleResponse(rule), nil
}

// POST /api/admin/rules/:id/slots
func (t *ScheduleController) addSlot(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	ruleID, apiErr := api.ParamUUID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.AddSlotRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	screenID, err := uuid.Parse(request.ScreenID)
	if err != nil {
		return nil, api.BadRequest(err)
	}
	videoID, err := uuid.Parse(request.VideoID)
	if err != nil {
		return nil, api.BadRequest(err)
	}

	slot, res, err := t.engine.AddSlot(ctx.Request.Context(), clientID, ruleID, engine.NewSlot{
		ScreenID:  screenID,
		VideoID:   videoID,
		DayOfWeek: request.DayOfWeek,
		StartTime: request.StartTime,
		EndTime:   request.EndTime,
	})
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.AddSlotResponse{
		Slot:      slotResponse(slot),
		Recompute: recomputeResult(res),
	}, nil
}

// DELETE /api/admin/slots/:id
func (t *ScheduleController) deleteSlot(ctx *gin.Context, clientID uuid.UUID) (any, *api.APIError) {
	slotID, apiErr := api.ParamUUID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	res, err := t.engine.DeleteSlot(ctx.Request.Context(), clientID, slotID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return recomputeResult(res), nil
}
