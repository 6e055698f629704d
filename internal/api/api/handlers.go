package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"meetpoll/internal/dto"
	"meetpoll/internal/model"
	"meetpoll/internal/service"
	"meetpoll/pkg/validator"
)

type handler struct {
	svc          service.Service
	shareBaseURL string
	ping         func(ctx context.Context) error
}

func (h *handler) createEvent(c *ginext.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to parse create event request")
		dto.FieldBadFormatError(c, "body")
		return
	}
	if err := validator.Validate(c, req); err != nil {
		h.invalid(c, err)
		return
	}

	draft, options := req.Drafts()
	event, created, err := h.svc.CreateEvent(c.Request.Context(), draft, options)
	if err != nil {
		h.fail(c, err)
		return
	}

	dto.SuccessResponse(c, dto.NewCreateEventResponse(event, created, h.shareBaseURL))
}

func (h *handler) getEvent(c *ginext.Context) {
	summary, err := h.svc.GetEventByShareID(c.Request.Context(), c.Param("shareId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	dto.SuccessResponse(c, dto.NewEventDetailsResponse(summary))
}

func (h *handler) participate(c *ginext.Context) {
	var req dto.ParticipateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to parse participate request")
		dto.FieldBadFormatError(c, "body")
		return
	}
	if err := validator.Validate(c, req); err != nil {
		h.invalid(c, err)
		return
	}

	p, err := h.svc.Participate(c.Request.Context(), c.Param("shareId"), req.Participant.Name, req.Drafts())
	if err != nil {
		h.fail(c, err)
		return
	}

	dto.SuccessResponse(c, dto.ParticipateResponse{Success: true, ParticipantID: p.ParticipantID})
}

func (h *handler) invalid(c *ginext.Context, err error) {
	var ferr *validator.FieldError
	if errors.As(err, &ferr) {
		dto.FieldIncorrectError(c, ferr.Field, ferr.Msg)
		return
	}
	dto.BadResponseError(c, dto.FieldIncorrect, err.Error())
}

func (h *handler) durations(c *ginext.Context) {
	dto.SuccessResponse(c, dto.DurationsResponse{Durations: model.DurationLabels})
}

func (h *handler) health(c *ginext.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			zlog.Logger.Error().Err(err).Msg("health check failed")
			dto.InternalServerError(c)
			return
		}
	}
	c.JSON(http.StatusOK, dto.Response{Status: "ok"})
}

func (h *handler) fail(c *ginext.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		dto.EventNotFoundError(c)
	case errors.As(err, &verr):
		dto.FieldIncorrectError(c, verr.Field, verr.Reason)
	default:
		zlog.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		dto.InternalServerError(c)
	}
}
