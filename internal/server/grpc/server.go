// Package grpc exposes the identity service over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/pinsession/internal/logging"
	pb "github.com/dmitrijs2005/pinsession/internal/proto"
	"github.com/dmitrijs2005/pinsession/internal/server/models"
	"github.com/dmitrijs2005/pinsession/internal/server/services"
	"github.com/dmitrijs2005/pinsession/internal/server/watch"
	"google.golang.org/grpc"
)

// IdentityService is the business logic the handlers call.
type IdentityService interface {
	SignUp(ctx context.Context, identifier, secret string) (*models.User, *services.TokenPair, error)
	SignIn(ctx context.Context, identifier, secret string) (*models.User, *services.TokenPair, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.User, error)
	SignOut(ctx context.Context, userID string) error
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Watch(userID string) (<-chan watch.Event, func())
}

type GRPCServer struct {
	pb.UnimplementedIdentityServiceServer
	address   string
	identity  IdentityService
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, identity IdentityService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		identity:  identity,
		jwtSecret: []byte(secretKey),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)

	pb.RegisterIdentityServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
