// Package proto defines the wire contract of the identity service,
// pinsession.identity.v1.IdentityService.
//
// Messages travel as google.protobuf.Struct (or google.protobuf.Empty) so the
// default gRPC proto codec carries them; the typed Go structs below are what
// client and server code work with.
package proto

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// Credentials is the request of SignUp and SignIn.
type Credentials struct {
	Identifier string
	Secret     string
}

// Identity is the authenticated account as seen by the identity service.
type Identity struct {
	UID         string
	Identifier  string
	DisplayName string
}

// AuthResponse is returned by SignUp and SignIn.
type AuthResponse struct {
	Identity     *Identity
	AccessToken  string
	RefreshToken string
}

type UpdateProfileRequest struct {
	DisplayName string
}

type RefreshTokenRequest struct {
	RefreshToken string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type PingResponse struct {
	Status string
}

// IdentityEvent is one message of the WatchIdentity stream. A nil Identity
// means the account was signed out.
type IdentityEvent struct {
	Identity *Identity
}

func field(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func (c *Credentials) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"identifier": c.Identifier,
		"secret":     c.Secret,
	})
}

func credentialsFromStruct(s *structpb.Struct) *Credentials {
	return &Credentials{Identifier: field(s, "identifier"), Secret: field(s, "secret")}
}

func (i *Identity) asMap() map[string]any {
	return map[string]any{
		"uid":          i.UID,
		"identifier":   i.Identifier,
		"display_name": i.DisplayName,
	}
}

func (i *Identity) toStruct() (*structpb.Struct, error) {
	if i == nil {
		return &structpb.Struct{}, nil
	}
	return structpb.NewStruct(i.asMap())
}

func identityFromStruct(s *structpb.Struct) *Identity {
	if s == nil {
		return nil
	}
	return &Identity{
		UID:         field(s, "uid"),
		Identifier:  field(s, "identifier"),
		DisplayName: field(s, "display_name"),
	}
}

func optionalIdentity(i *Identity) any {
	if i == nil {
		return nil
	}
	return i.asMap()
}

func (r *AuthResponse) toStruct() (*structpb.Struct, error) {
	if r == nil {
		return &structpb.Struct{}, nil
	}
	return structpb.NewStruct(map[string]any{
		"identity":      optionalIdentity(r.Identity),
		"access_token":  r.AccessToken,
		"refresh_token": r.RefreshToken,
	})
}

func authResponseFromStruct(s *structpb.Struct) *AuthResponse {
	return &AuthResponse{
		Identity:     identityFromStruct(s.GetFields()["identity"].GetStructValue()),
		AccessToken:  field(s, "access_token"),
		RefreshToken: field(s, "refresh_token"),
	}
}

func (r *UpdateProfileRequest) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"display_name": r.DisplayName})
}

func updateProfileRequestFromStruct(s *structpb.Struct) *UpdateProfileRequest {
	return &UpdateProfileRequest{DisplayName: field(s, "display_name")}
}

func (r *RefreshTokenRequest) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"refresh_token": r.RefreshToken})
}

func refreshTokenRequestFromStruct(s *structpb.Struct) *RefreshTokenRequest {
	return &RefreshTokenRequest{RefreshToken: field(s, "refresh_token")}
}

func (p *TokenPair) toStruct() (*structpb.Struct, error) {
	if p == nil {
		return &structpb.Struct{}, nil
	}
	return structpb.NewStruct(map[string]any{
		"access_token":  p.AccessToken,
		"refresh_token": p.RefreshToken,
	})
}

func tokenPairFromStruct(s *structpb.Struct) *TokenPair {
	return &TokenPair{AccessToken: field(s, "access_token"), RefreshToken: field(s, "refresh_token")}
}

func (p *PingResponse) toStruct() (*structpb.Struct, error) {
	if p == nil {
		return &structpb.Struct{}, nil
	}
	return structpb.NewStruct(map[string]any{"status": p.Status})
}

func pingResponseFromStruct(s *structpb.Struct) *PingResponse {
	return &PingResponse{Status: field(s, "status")}
}

func (e *IdentityEvent) toStruct() (*structpb.Struct, error) {
	var identity *Identity
	if e != nil {
		identity = e.Identity
	}
	return structpb.NewStruct(map[string]any{"identity": optionalIdentity(identity)})
}

func identityEventFromStruct(s *structpb.Struct) *IdentityEvent {
	return &IdentityEvent{Identity: identityFromStruct(s.GetFields()["identity"].GetStructValue())}
}
