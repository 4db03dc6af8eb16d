package server

import (
	"context"
	"errors"

	"pubg-tracker/internal/api"
	"pubg-tracker/internal/domain"
	"pubg-tracker/internal/service"

	"connectrpc.com/connect"
)

var errInvalidPlayerID = errors.New("invalid player id format")

// toConnectError maps service and upstream errors onto Connect codes.
func toConnectError(err error) error {
	var rateLimited *api.RateLimitError

	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrPlayerNotFound), errors.Is(err, api.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, service.ErrInvalidStatsKey),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, errInvalidPlayerID),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrInvalidShard),
		errors.Is(err, domain.ErrEmptyPlayerID):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, service.ErrNoMatchData):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.As(err, &rateLimited):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
