package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinsession/internal/common"
	"github.com/dmitrijs2005/pinsession/internal/logging"
	pb "github.com/dmitrijs2005/pinsession/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type stubServer struct {
	pb.UnimplementedIdentityServiceServer
	watchToken chan string
	release    chan struct{}
}

func (s *stubServer) Ping(context.Context) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: common.PingStatusOK}, nil
}

func (s *stubServer) SignIn(_ context.Context, in *pb.Credentials) (*pb.AuthResponse, error) {
	if in.Secret != "1234" {
		return nil, status.Error(codes.Unauthenticated, "wrong pin")
	}
	return &pb.AuthResponse{
		Identity:     &pb.Identity{UID: "u1", Identifier: in.Identifier, DisplayName: "Bob"},
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}, nil
}

func (s *stubServer) WatchIdentity(stream pb.IdentityService_WatchIdentityServer) error {
	md, _ := metadata.FromIncomingContext(stream.Context())
	if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 {
		s.watchToken <- v[0]
	}
	<-s.release
	return stream.Send(&pb.IdentityEvent{})
}

func startStub(t *testing.T) (*GRPCClient, *stubServer) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	stub := &stubServer{watchToken: make(chan string, 1), release: make(chan struct{})}
	pb.RegisterIdentityServiceServer(srv, stub)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet", logging.Nop(),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, stub
}

func TestGRPCClient_EndToEnd(t *testing.T) {
	c, stub := startStub(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	_, err := c.SignIn(ctx, "bob@databhandaar.local", "0000")
	require.ErrorIs(t, err, common.ErrWrongCredential)

	rec := &recorder{}
	c.Subscribe(rec.fn)

	id, err := c.SignIn(ctx, "bob@databhandaar.local", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Bob", id.Username())

	select {
	case tok := <-stub.watchToken:
		assert.Equal(t, "access-1", tok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch stream not opened")
	}

	close(stub.release)
	require.Eventually(t, func() bool {
		got := rec.snapshot()
		return len(got) == 3 && got[2] == nil
	}, 2*time.Second, 10*time.Millisecond)
}
