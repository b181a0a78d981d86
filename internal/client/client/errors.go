package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pinsession/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// mapError classifies a gRPC failure into the common taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.ErrNetworkUnavailable
	}

	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", common.ErrUnknown, err)
	}

	switch st.Code() {
	case codes.NotFound:
		return common.ErrUserNotFound
	case codes.Unauthenticated, codes.PermissionDenied:
		return common.ErrWrongCredential
	case codes.AlreadyExists:
		return common.ErrDuplicateAccount
	case codes.ResourceExhausted:
		return common.ErrRateLimited
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return common.ErrNetworkUnavailable
	default:
		return fmt.Errorf("%w: rpc error: %s", common.ErrUnknown, st.Message())
	}
}
