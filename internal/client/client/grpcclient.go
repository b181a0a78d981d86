package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/pinsession/internal/client/identifier"
	"github.com/dmitrijs2005/pinsession/internal/client/models"
	"github.com/dmitrijs2005/pinsession/internal/common"
	"github.com/dmitrijs2005/pinsession/internal/logging"
	pb "github.com/dmitrijs2005/pinsession/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	logger      logging.Logger
	conn        *grpc.ClientConn
	client      pb.IdentityServiceClient

	tokenMu      sync.Mutex
	accessToken  string
	refreshToken string
	tokenStore   TokenStore

	mu          sync.Mutex
	identity    *models.Identity
	subs        map[int]func(*models.Identity)
	nextSubID   int
	watchCancel context.CancelFunc

	// deliverMu keeps subscriber notifications ordered.
	deliverMu sync.Mutex
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	s.accessToken, s.refreshToken = access, refresh
}

// updateTokens replaces the in-memory tokens and saves the refresh token.
// A failed save is logged; the next run then starts signed out.
func (s *GRPCClient) updateTokens(ctx context.Context, access, refresh string) {
	s.tokenMu.Lock()
	s.accessToken, s.refreshToken = access, refresh
	ts := s.tokenStore
	s.tokenMu.Unlock()

	if ts == nil {
		return
	}
	if err := ts.SaveRefreshToken(ctx, refresh); err != nil {
		s.logger.Error(ctx, "refresh token not saved", "error", err)
	}
}

// SetTokenStore makes sign-ins survive restarts. Call it before Restore.
func (s *GRPCClient) SetTokenStore(ts TokenStore) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	s.tokenStore = ts
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	access, refresh := s.tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" || method == pb.IdentityService_RefreshToken_FullMethodName {
		return err
	}

	pair, rerr := s.client.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: refresh})
	if rerr != nil {
		s.logger.Warn(ctx, "token refresh failed", "error", rerr)
		return err
	}
	s.updateTokens(ctx, pair.AccessToken, pair.RefreshToken)

	return invoker(withAccessToken(ctx, pair.AccessToken), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	access, _ := s.tokens()
	return streamer(withAccessToken(ctx, access), desc, cc, method, opts...)
}

// NewGRPCClient prepares a client for endpointURL. No connection is made
// until the first call; use Ping to check reachability. extra dial options
// are appended after the defaults.
func NewGRPCClient(endpointURL string, logger logging.Logger, extra ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		logger:      logger.With("module", "remote"),
		subs:        map[int]func(*models.Identity){},
	}

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.streamAccessTokenInterceptor),
	}, extra...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewIdentityServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) SignIn(ctx context.Context, id identifier.AccountIdentifier, pin string) (*models.Identity, error) {
	resp, err := s.client.SignIn(ctx, &pb.Credentials{Identifier: id.String(), Secret: pin})
	if err != nil {
		return nil, mapError(err)
	}
	return s.signedIn(ctx, resp), nil
}

func (s *GRPCClient) SignUp(ctx context.Context, id identifier.AccountIdentifier, pin string, displayName string) (*models.Identity, error) {
	resp, err := s.client.SignUp(ctx, &pb.Credentials{Identifier: id.String(), Secret: pin})
	if err != nil {
		return nil, mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)

	if updated, err := s.client.UpdateProfile(ctx, &pb.UpdateProfileRequest{DisplayName: displayName}); err != nil {
		s.logger.Warn(ctx, "display name not set after sign-up", "identifier", id.String(), "error", err)
	} else {
		resp.Identity = updated
	}

	return s.signedIn(ctx, resp), nil
}

func (s *GRPCClient) signedIn(ctx context.Context, resp *pb.AuthResponse) *models.Identity {
	s.updateTokens(ctx, resp.AccessToken, resp.RefreshToken)
	identity := toIdentity(resp.Identity)
	s.publish(identity)
	s.startWatch()
	return identity
}

func (s *GRPCClient) SignOut(ctx context.Context) error {
	s.stopWatch()

	var err error
	if access, _ := s.tokens(); access != "" {
		err = mapError(s.client.SignOut(ctx))
	}

	s.updateTokens(ctx, "", "")
	s.publish(nil)
	return err
}

func (s *GRPCClient) Restore(ctx context.Context) error {
	s.tokenMu.Lock()
	ts := s.tokenStore
	s.tokenMu.Unlock()
	if ts == nil {
		return nil
	}

	saved, err := ts.LoadRefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("load refresh token: %w", err)
	}
	if saved == "" {
		return nil
	}

	pair, err := s.client.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: saved})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			s.logger.Info(ctx, "saved sign-in rejected", "error", err)
			s.updateTokens(ctx, "", "")
		}
		return mapError(err)
	}
	s.updateTokens(ctx, pair.AccessToken, pair.RefreshToken)

	// The first watch event carries the current identity.
	wctx := s.newWatch()
	stream, err := s.client.WatchIdentity(wctx)
	if err != nil {
		s.stopWatch()
		return mapError(err)
	}
	stop := context.AfterFunc(ctx, s.stopWatch)
	ev, err := stream.Recv()
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.stopWatch()
		return mapError(err)
	}

	identity := toIdentity(ev.Identity)
	if identity == nil {
		s.stopWatch()
		s.updateTokens(ctx, "", "")
		return nil
	}
	s.logger.Info(ctx, "sign-in restored", "uid", identity.UID)
	s.publish(identity)
	go s.receive(wctx, stream)
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx)
	if err != nil {
		return mapError(err)
	}
	if resp.Status != common.PingStatusOK {
		return common.ErrBackendUnavailable
	}
	return nil
}

func (s *GRPCClient) Close() error {
	s.stopWatch()

	s.mu.Lock()
	clear(s.subs)
	s.mu.Unlock()

	return s.conn.Close()
}

func (s *GRPCClient) Subscribe(fn func(*models.Identity)) func() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	current := s.identity
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// publish records identity and notifies subscribers when it differs from the
// current one.
func (s *GRPCClient) publish(identity *models.Identity) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if s.identity.Equal(identity) {
		s.mu.Unlock()
		return
	}
	s.identity = identity
	fns := make([]func(*models.Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(identity)
	}
}

func (s *GRPCClient) startWatch() {
	go s.watch(s.newWatch())
}

// newWatch cancels any running watch and returns the context of the next one.
func (s *GRPCClient) newWatch() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.watchCancel != nil {
		s.watchCancel()
	}
	s.watchCancel = cancel
	s.mu.Unlock()

	return ctx
}

func (s *GRPCClient) stopWatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
}

func (s *GRPCClient) watch(ctx context.Context) {
	stream, err := s.client.WatchIdentity(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn(ctx, "identity watch not started", "error", err)
		}
		return
	}
	s.receive(ctx, stream)
}

func (s *GRPCClient) receive(ctx context.Context, stream pb.IdentityService_WatchIdentityClient) {
	for {
		ev, err := stream.Recv()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn(ctx, "identity watch ended", "error", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		identity := toIdentity(ev.Identity)
		if identity == nil {
			s.logger.Info(ctx, "signed out by the identity service")
			s.updateTokens(ctx, "", "")
		}
		s.publish(identity)
		if identity == nil {
			return
		}
	}
}

func toIdentity(p *pb.Identity) *models.Identity {
	if p == nil {
		return nil
	}
	return &models.Identity{
		UID:         p.UID,
		Identifier:  identifier.AccountIdentifier(p.Identifier),
		DisplayName: p.DisplayName,
	}
}
