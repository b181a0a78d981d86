package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinsession/internal/client/identifier"
	"github.com/dmitrijs2005/pinsession/internal/client/models"
	"github.com/dmitrijs2005/pinsession/internal/common"
	"github.com/dmitrijs2005/pinsession/internal/logging"
	pb "github.com/dmitrijs2005/pinsession/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

/*************
 * Fake pb client
 *************/

type fakeWatch struct {
	grpc.ClientStream
	events chan *pb.IdentityEvent
	ctx    context.Context
}

func (w *fakeWatch) Recv() (*pb.IdentityEvent, error) {
	select {
	case ev, ok := <-w.events:
		if !ok {
			return nil, io.EOF
		}
		return ev, nil
	case <-w.ctx.Done():
		return nil, status.Error(codes.Canceled, "canceled")
	}
}

type fakePB struct {
	mu sync.Mutex

	lastRefreshTokenReq *pb.RefreshTokenRequest
	lastSignInReq       *pb.Credentials
	lastSignUpReq       *pb.Credentials
	lastProfileReq      *pb.UpdateProfileRequest
	signOutCalls        int

	refreshTokenResp *pb.TokenPair
	refreshTokenErr  error

	pingResp *pb.PingResponse
	pingErr  error

	authResp *pb.AuthResponse
	authErr  error

	profileResp *pb.Identity
	profileErr  error

	signOutErr error

	watchErr error
	events   chan *pb.IdentityEvent
}

func newFakePB() *fakePB {
	return &fakePB{events: make(chan *pb.IdentityEvent, 8)}
}

func (f *fakePB) SignUp(ctx context.Context, in *pb.Credentials, opts ...grpc.CallOption) (*pb.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSignUpReq = in
	return f.authResp, f.authErr
}
func (f *fakePB) SignIn(ctx context.Context, in *pb.Credentials, opts ...grpc.CallOption) (*pb.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSignInReq = in
	return f.authResp, f.authErr
}
func (f *fakePB) UpdateProfile(ctx context.Context, in *pb.UpdateProfileRequest, opts ...grpc.CallOption) (*pb.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastProfileReq = in
	return f.profileResp, f.profileErr
}
func (f *fakePB) SignOut(ctx context.Context, opts ...grpc.CallOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return f.signOutErr
}
func (f *fakePB) RefreshToken(ctx context.Context, in *pb.RefreshTokenRequest, opts ...grpc.CallOption) (*pb.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRefreshTokenReq = in
	return f.refreshTokenResp, f.refreshTokenErr
}
func (f *fakePB) Ping(ctx context.Context, opts ...grpc.CallOption) (*pb.PingResponse, error) {
	return f.pingResp, f.pingErr
}
func (f *fakePB) WatchIdentity(ctx context.Context, opts ...grpc.CallOption) (pb.IdentityService_WatchIdentityClient, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	return &fakeWatch{events: f.events, ctx: ctx}, nil
}

func newTestClient(f *fakePB) *GRPCClient {
	return &GRPCClient{
		client: f,
		logger: logging.Nop(),
		subs:   map[int]func(*models.Identity){},
	}
}

// recorder collects identities delivered to a subscriber.
type recorder struct {
	mu  sync.Mutex
	got []*models.Identity
}

func (r *recorder) fn(id *models.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, id)
}

func (r *recorder) snapshot() []*models.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Identity(nil), r.got...)
}

var bob = &pb.Identity{UID: "u1", Identifier: "bob@databhandaar.local", DisplayName: "Bob"}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	f := newFakePB()
	f.refreshTokenResp = &pb.TokenPair{AccessToken: "A2", RefreshToken: "R2"}
	c := newTestClient(f)
	c.setTokens("A1", "R1")

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Len(t, toks, 1)

		if callCount == 1 {
			require.Equal(t, "A1", toks[0])
			return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		require.Equal(t, "A2", toks[0])
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	access, refresh := c.tokens()
	require.Equal(t, "A2", access)
	require.Equal(t, "R2", refresh)
	require.Equal(t, "R1", f.lastRefreshTokenReq.RefreshToken)
}

func TestInterceptor_NoRefreshIfNoRefreshToken(t *testing.T) {
	f := newFakePB()
	c := newTestClient(f)
	c.setTokens("A1", "")

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastRefreshTokenReq)
}

func TestInterceptor_RefreshFailureReturnsOriginalError(t *testing.T) {
	f := newFakePB()
	f.refreshTokenErr = status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	c := newTestClient(f)
	c.setTokens("A1", "R1")

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Equal(t, codes.Unauthenticated, status.Code(err))
	access, _ := c.tokens()
	require.Equal(t, "A1", access)
}

func TestInterceptor_IgnoresOtherErrors(t *testing.T) {
	c := newTestClient(newFakePB())
	c.setTokens("X", "R")
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Internal, "boom")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestInterceptor_UnauthenticatedButDifferentMessage_NoRefresh(t *testing.T) {
	f := newFakePB()
	c := newTestClient(f)
	c.setTokens("X", "R")
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "some other reason")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastRefreshTokenReq)
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{status.Error(codes.NotFound, "x"), common.ErrUserNotFound},
		{status.Error(codes.Unauthenticated, "x"), common.ErrWrongCredential},
		{status.Error(codes.PermissionDenied, "x"), common.ErrWrongCredential},
		{status.Error(codes.AlreadyExists, "x"), common.ErrDuplicateAccount},
		{status.Error(codes.ResourceExhausted, "x"), common.ErrRateLimited},
		{status.Error(codes.Unavailable, "x"), common.ErrNetworkUnavailable},
		{status.Error(codes.DeadlineExceeded, "x"), common.ErrNetworkUnavailable},
		{status.Error(codes.Canceled, "x"), common.ErrNetworkUnavailable},
		{context.DeadlineExceeded, common.ErrNetworkUnavailable},
		{status.Error(codes.Internal, "x"), common.ErrUnknown},
		{errors.New("plain"), common.ErrUnknown},
	}
	for _, tt := range tests {
		require.ErrorIs(t, mapError(tt.in), tt.want, "input %v", tt.in)
	}
	require.NoError(t, mapError(nil))
}

/*************
 * Ping tests
 *************/

func TestPing(t *testing.T) {
	f := newFakePB()
	c := newTestClient(f)

	f.pingResp = &pb.PingResponse{Status: common.PingStatusOK}
	require.NoError(t, c.Ping(context.Background()))

	f.pingResp = &pb.PingResponse{Status: "NOT_OK"}
	require.ErrorIs(t, c.Ping(context.Background()), common.ErrBackendUnavailable)

	f.pingErr = status.Error(codes.Unavailable, "down")
	require.ErrorIs(t, c.Ping(context.Background()), common.ErrNetworkUnavailable)
}

/*************
 * SignIn / SignUp / SignOut tests
 *************/

func TestSignIn_SetsTokensAndNotifies(t *testing.T) {
	f := newFakePB()
	f.authResp = &pb.AuthResponse{Identity: bob, AccessToken: "A", RefreshToken: "R"}
	c := newTestClient(f)
	rec := &recorder{}
	c.Subscribe(rec.fn)

	id, err := c.SignIn(context.Background(), identifier.ToAccountIdentifier("Bob"), "1234")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UID)
	assert.Equal(t, "Bob", id.Username())

	assert.Equal(t, "bob@databhandaar.local", f.lastSignInReq.Identifier)
	assert.Equal(t, "1234", f.lastSignInReq.Secret)
	access, refresh := c.tokens()
	assert.Equal(t, "A", access)
	assert.Equal(t, "R", refresh)

	got := rec.snapshot()
	require.Len(t, got, 2)
	assert.Nil(t, got[0])
	assert.True(t, got[1].Equal(id))
	c.stopWatch()
}

func TestSignIn_MapsError(t *testing.T) {
	f := newFakePB()
	f.authErr = status.Error(codes.Unauthenticated, "bad pin")
	c := newTestClient(f)
	rec := &recorder{}
	c.Subscribe(rec.fn)

	_, err := c.SignIn(context.Background(), "x@databhandaar.local", "0000")
	require.ErrorIs(t, err, common.ErrWrongCredential)
	assert.Len(t, rec.snapshot(), 1)
}

func TestSignUp_SetsDisplayName(t *testing.T) {
	f := newFakePB()
	f.authResp = &pb.AuthResponse{Identity: &pb.Identity{UID: "u1", Identifier: "bob@databhandaar.local"}, AccessToken: "A", RefreshToken: "R"}
	f.profileResp = bob
	c := newTestClient(f)

	id, err := c.SignUp(context.Background(), "bob@databhandaar.local", "1234", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", id.DisplayName)
	assert.Equal(t, "Bob", f.lastProfileReq.DisplayName)
	assert.Equal(t, "bob@databhandaar.local", f.lastSignUpReq.Identifier)
	c.stopWatch()
}

func TestSignUp_ProfileFailureStillSucceeds(t *testing.T) {
	f := newFakePB()
	f.authResp = &pb.AuthResponse{Identity: &pb.Identity{UID: "u1", Identifier: "bob@databhandaar.local"}, AccessToken: "A"}
	f.profileErr = status.Error(codes.Internal, "db down")
	c := newTestClient(f)

	id, err := c.SignUp(context.Background(), "bob@databhandaar.local", "1234", "Bob")
	require.NoError(t, err)
	assert.Empty(t, id.DisplayName)
	assert.Equal(t, "bob", id.Username())
	c.stopWatch()
}

func TestSignUp_Duplicate(t *testing.T) {
	f := newFakePB()
	f.authErr = status.Error(codes.AlreadyExists, "taken")
	c := newTestClient(f)

	_, err := c.SignUp(context.Background(), "bob@databhandaar.local", "1234", "Bob")
	require.ErrorIs(t, err, common.ErrDuplicateAccount)
	assert.Nil(t, f.lastProfileReq)
}

func TestSignOut_ClearsStateEvenOnError(t *testing.T) {
	f := newFakePB()
	f.authResp = &pb.AuthResponse{Identity: bob, AccessToken: "A", RefreshToken: "R"}
	f.signOutErr = status.Error(codes.Unavailable, "down")
	c := newTestClient(f)
	rec := &recorder{}
	c.Subscribe(rec.fn)

	_, err := c.SignIn(context.Background(), "bob@databhandaar.local", "1234")
	require.NoError(t, err)

	err = c.SignOut(context.Background())
	require.ErrorIs(t, err, common.ErrNetworkUnavailable)
	access, refresh := c.tokens()
	assert.Empty(t, access)
	assert.Empty(t, refresh)

	got := rec.snapshot()
	require.Len(t, got, 3)
	assert.Nil(t, got[2])
}

func TestSignOut_WithoutTokensSkipsRPC(t *testing.T) {
	f := newFakePB()
	c := newTestClient(f)

	require.NoError(t, c.SignOut(context.Background()))
	assert.Zero(t, f.signOutCalls)
}

/*************
 * Subscribe / watch tests
 *************/

func TestSubscribe_ImmediateAndUnsubscribe(t *testing.T) {
	c := newTestClient(newFakePB())
	c.identity = &models.Identity{UID: "u1"}

	rec := &recorder{}
	unsub := c.Subscribe(rec.fn)
	require.Len(t, rec.snapshot(), 1)
	assert.Equal(t, "u1", rec.snapshot()[0].UID)

	unsub()
	unsub()
	c.publish(nil)
	assert.Len(t, rec.snapshot(), 1)
}

func TestPublish_SkipsUnchangedIdentity(t *testing.T) {
	c := newTestClient(newFakePB())
	rec := &recorder{}
	c.Subscribe(rec.fn)

	c.publish(&models.Identity{UID: "u1"})
	c.publish(&models.Identity{UID: "u1"})
	c.publish(nil)
	c.publish(nil)

	assert.Len(t, rec.snapshot(), 3)
}

func TestWatch_ForwardsRemoteSignOut(t *testing.T) {
	f := newFakePB()
	f.authResp = &pb.AuthResponse{Identity: bob, AccessToken: "A", RefreshToken: "R"}
	c := newTestClient(f)
	rec := &recorder{}
	c.Subscribe(rec.fn)

	_, err := c.SignIn(context.Background(), "bob@databhandaar.local", "1234")
	require.NoError(t, err)

	f.events <- &pb.IdentityEvent{Identity: bob}
	f.events <- &pb.IdentityEvent{Identity: &pb.Identity{UID: "u1", Identifier: "bob@databhandaar.local", DisplayName: "Bobby"}}
	f.events <- &pb.IdentityEvent{}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 4 }, time.Second, 5*time.Millisecond)
	got := rec.snapshot()
	assert.Equal(t, "Bobby", got[2].DisplayName)
	assert.Nil(t, got[3])
	access, _ := c.tokens()
	assert.Empty(t, access)
}

func TestWatch_OpenFailureIsSilent(t *testing.T) {
	f := newFakePB()
	f.authResp = &pb.AuthResponse{Identity: bob, AccessToken: "A"}
	f.watchErr = status.Error(codes.Unavailable, "no stream")
	c := newTestClient(f)

	_, err := c.SignIn(context.Background(), "bob@databhandaar.local", "1234")
	require.NoError(t, err)
	c.stopWatch()
}

/*************
 * Saved sign-in
 *************/

type memTokens struct {
	mu      sync.Mutex
	token   string
	loadErr error
	saves   int
}

func (m *memTokens) LoadRefreshToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.loadErr
}

func (m *memTokens) SaveRefreshToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.token = token
	return nil
}

func (m *memTokens) saved() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func TestSignIn_SavesRefreshTokenAndSignOutForgetsIt(t *testing.T) {
	f := newFakePB()
	f.authResp = &pb.AuthResponse{Identity: bob, AccessToken: "A", RefreshToken: "R"}
	c := newTestClient(f)
	ts := &memTokens{}
	c.SetTokenStore(ts)

	_, err := c.SignIn(context.Background(), "bob@databhandaar.local", "1234")
	require.NoError(t, err)
	assert.Equal(t, "R", ts.saved())

	require.NoError(t, c.SignOut(context.Background()))
	assert.Empty(t, ts.saved())
}

func TestWatch_RemoteSignOutForgetsSavedToken(t *testing.T) {
	f := newFakePB()
	f.authResp = &pb.AuthResponse{Identity: bob, AccessToken: "A", RefreshToken: "R"}
	c := newTestClient(f)
	ts := &memTokens{}
	c.SetTokenStore(ts)

	_, err := c.SignIn(context.Background(), "bob@databhandaar.local", "1234")
	require.NoError(t, err)

	f.events <- &pb.IdentityEvent{}
	require.Eventually(t, func() bool { return ts.saved() == "" }, time.Second, 5*time.Millisecond)
}

func TestRestore_ResumesSavedSignIn(t *testing.T) {
	f := newFakePB()
	f.refreshTokenResp = &pb.TokenPair{AccessToken: "A2", RefreshToken: "R2"}
	f.events <- &pb.IdentityEvent{Identity: bob}
	c := newTestClient(f)
	ts := &memTokens{token: "R1"}
	c.SetTokenStore(ts)
	t.Cleanup(c.stopWatch)

	require.NoError(t, c.Restore(context.Background()))

	assert.Equal(t, "R1", f.lastRefreshTokenReq.RefreshToken)
	assert.Equal(t, "R2", ts.saved())
	access, _ := c.tokens()
	assert.Equal(t, "A2", access)

	rec := &recorder{}
	c.Subscribe(rec.fn)
	got := rec.snapshot()
	require.Len(t, got, 1)
	require.NotNil(t, got[0])
	assert.Equal(t, "Bob", got[0].DisplayName)

	f.events <- &pb.IdentityEvent{Identity: &pb.Identity{UID: "u1", Identifier: "bob@databhandaar.local", DisplayName: "Bobby"}}
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestRestore_NothingSaved(t *testing.T) {
	f := newFakePB()
	c := newTestClient(f)
	c.SetTokenStore(&memTokens{})

	require.NoError(t, c.Restore(context.Background()))
	assert.Nil(t, f.lastRefreshTokenReq)
	assert.Nil(t, c.identity)
}

func TestRestore_WithoutTokenStore(t *testing.T) {
	f := newFakePB()
	c := newTestClient(f)

	require.NoError(t, c.Restore(context.Background()))
	assert.Nil(t, f.lastRefreshTokenReq)
}

func TestRestore_RejectedTokenIsForgotten(t *testing.T) {
	f := newFakePB()
	f.refreshTokenErr = status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	c := newTestClient(f)
	ts := &memTokens{token: "R1"}
	c.SetTokenStore(ts)

	err := c.Restore(context.Background())
	require.ErrorIs(t, err, common.ErrWrongCredential)
	assert.Empty(t, ts.saved())
	assert.Nil(t, c.identity)
}

func TestRestore_NetworkErrorKeepsSavedToken(t *testing.T) {
	f := newFakePB()
	f.refreshTokenErr = status.Error(codes.Unavailable, "down")
	c := newTestClient(f)
	ts := &memTokens{token: "R1"}
	c.SetTokenStore(ts)

	require.ErrorIs(t, c.Restore(context.Background()), common.ErrNetworkUnavailable)
	assert.Equal(t, "R1", ts.saved())
}

func TestRestore_LoadFailure(t *testing.T) {
	c := newTestClient(newFakePB())
	c.SetTokenStore(&memTokens{loadErr: errors.New("locked")})

	require.ErrorContains(t, c.Restore(context.Background()), "load refresh token")
}

func TestRestore_SignedOutMeanwhile(t *testing.T) {
	f := newFakePB()
	f.refreshTokenResp = &pb.TokenPair{AccessToken: "A2", RefreshToken: "R2"}
	f.events <- &pb.IdentityEvent{}
	c := newTestClient(f)
	ts := &memTokens{token: "R1"}
	c.SetTokenStore(ts)

	require.NoError(t, c.Restore(context.Background()))
	assert.Empty(t, ts.saved())
	assert.Nil(t, c.identity)
}

func TestRestore_WatchTimeout(t *testing.T) {
	f := newFakePB()
	f.refreshTokenResp = &pb.TokenPair{AccessToken: "A2", RefreshToken: "R2"}
	c := newTestClient(f)
	c.SetTokenStore(&memTokens{token: "R1"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, c.Restore(ctx), common.ErrNetworkUnavailable)
	assert.Nil(t, c.identity)
}
