package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/pinsession/internal/common"
	pb "github.com/dmitrijs2005/pinsession/internal/proto"
	"github.com/dmitrijs2005/pinsession/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto the codes clients classify.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrUserNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrWrongCredential):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrDuplicateAccount):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func toIdentity(u *models.User) *pb.Identity {
	if u == nil {
		return nil
	}
	return &pb.Identity{UID: u.ID, Identifier: u.Identifier, DisplayName: u.DisplayName}
}

func (s *GRPCServer) SignUp(ctx context.Context, req *pb.Credentials) (*pb.AuthResponse, error) {
	user, tokens, err := s.identity.SignUp(ctx, req.Identifier, req.Secret)
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return &pb.AuthResponse{Identity: toIdentity(user), AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *pb.Credentials) (*pb.AuthResponse, error) {
	user, tokens, err := s.identity.SignIn(ctx, req.Identifier, req.Secret)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AuthResponse{Identity: toIdentity(user), AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *pb.UpdateProfileRequest) (*pb.Identity, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	user, err := s.identity.UpdateDisplayName(ctx, userID, req.DisplayName)
	if err != nil {
		return nil, toStatus(err)
	}
	return toIdentity(user), nil
}

func (s *GRPCServer) SignOut(ctx context.Context) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing token")
	}

	if err := s.identity.SignOut(ctx, userID); err != nil {
		s.logger.Error(ctx, "sign-out failed", "user_id", userID, "error", err)
		return toStatus(err)
	}
	return nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.TokenPair, error) {
	tokens, err := s.identity.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.TokenPair{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Ping(ctx context.Context) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: common.PingStatusOK}, nil
}

// WatchIdentity sends the current identity, then one message per change.
// A sign-out is sent as an empty event and ends the stream.
func (s *GRPCServer) WatchIdentity(stream pb.IdentityService_WatchIdentityServer) error {
	ctx := stream.Context()
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing token")
	}

	// subscribe before reading the current state so no change is missed
	events, cancel := s.identity.Watch(userID)
	defer cancel()

	user, err := s.identity.GetUser(ctx, userID)
	if err != nil {
		return toStatus(err)
	}
	if err := stream.Send(&pb.IdentityEvent{Identity: toIdentity(user)}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, open := <-events:
			if !open {
				return nil
			}
			if err := stream.Send(&pb.IdentityEvent{Identity: toIdentity(ev.User)}); err != nil {
				return err
			}
			if ev.User == nil {
				return nil
			}
		}
	}
}
