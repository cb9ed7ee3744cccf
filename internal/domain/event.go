package domain

import (
	"context"

	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/enum"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

type EventDomain interface {
	ProcessEvents(context.Context, *model.ProcessEventsRequest) (*model.ProcessEventsResponse, error)
	GetEvents(context.Context, *model.GetEventsRequest) (*model.GetEventsResponse, error)
	Retry(context.Context, *model.RetryEventRequest) (*model.RetryEventResponse, error)
	Recover(context.Context, *model.RecoverRequest) (*model.RecoverResponse, error)
}

type eventDomain struct {
	eventRepo          repository.ScheduledEventRepository
	processor          EventProcessor
	watchdog           Watchdog
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewEventDomain(
	eventRepo repository.ScheduledEventRepository,
	processor EventProcessor,
	watchdog Watchdog,
	globalRoleVerifier *common.GlobalRoleVerifier,
) *eventDomain {
	return &eventDomain{
		eventRepo:          eventRepo,
		processor:          processor,
		watchdog:           watchdog,
		globalRoleVerifier: globalRoleVerifier,
	}
}

func (d *eventDomain) ProcessEvents(
	ctx context.Context, req *model.ProcessEventsRequest,
) (*model.ProcessEventsResponse, error) {
	if err := verifyOperator(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	return d.processor.ProcessReadyEvents(ctx)
}

func (d *eventDomain) GetEvents(ctx context.Context, req *model.GetEventsRequest) (*model.GetEventsResponse, error) {
	if err := verifyOperator(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	var status entity.EventStatus
	if req.Status != "" {
		var err error
		status, err = enum.ToEnum[entity.EventStatus](req.Status)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid event status %s", req.Status)
		}
	}

	events, err := d.eventRepo.GetList(ctx, status, req.Offset, defaultLimit(req.Limit, 50, 200))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get events: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetEventsResponse{Events: []model.ScheduledEvent{}}
	for i := range events {
		resp.Events = append(resp.Events, convertScheduledEvent(&events[i]))
	}

	return resp, nil
}

// Retry puts a failed event back to pending. Its payload and attempt count
// are kept.
func (d *eventDomain) Retry(ctx context.Context, req *model.RetryEventRequest) (*model.RetryEventResponse, error) {
	if err := verifyOperator(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	if err := d.eventRepo.Retry(ctx, req.EventID, xcontext.Now(ctx)); err != nil {
		if isNotFound(err) {
			return nil, errorx.New(errorx.NotFound, "Not found failed event %s", req.EventID)
		}

		xcontext.Logger(ctx).Errorf("Cannot retry event: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.Logger(ctx).Infof("User %s retried event %s", xcontext.RequestUserID(ctx), req.EventID)
	return &model.RetryEventResponse{}, nil
}

func (d *eventDomain) Recover(ctx context.Context, req *model.RecoverRequest) (*model.RecoverResponse, error) {
	if err := verifyOperator(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	resp, err := d.watchdog.Sweep(ctx)
	if err != nil {
		return nil, toUserError(ctx, err)
	}

	return resp, nil
}
