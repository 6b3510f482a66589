package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/Elmeric/cycliti/internal/observability"
)

type ThirdPartyTokens struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is seconds since the UNIX epoch.
	ExpiresAt int64
}

// ThirdPartyProvider trades an authorization code for tokens.
type ThirdPartyProvider interface {
	Exchange(ctx context.Context, code string) (*ThirdPartyTokens, error)
}

// UpstreamStatusError reports a non-2xx answer of the token endpoint. The
// response body is kept out of the message.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d", e.StatusCode)
}

type StravaSettings struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	HTTPTimeout  time.Duration
}

// StravaProvider posts client_id, client_secret, code and grant_type as
// form parameters, which is what the Strava token endpoint expects.
type StravaProvider struct {
	cfg    *oauth2.Config
	client *http.Client
}

func NewStravaProvider(settings StravaSettings) *StravaProvider {
	timeout := settings.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StravaProvider{
		cfg: &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  settings.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

func (p *StravaProvider) Exchange(ctx context.Context, code string) (_ *ThirdPartyTokens, err error) {
	ctx, end := observability.StartSpan(ctx, "strava.token_exchange")
	defer func() { end(err) }()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &UpstreamStatusError{StatusCode: retrieveErr.Response.StatusCode}
		}
		return nil, err
	}
	return &ThirdPartyTokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    tokenExpiresAt(token),
	}, nil
}

func tokenExpiresAt(token *oauth2.Token) int64 {
	switch v := token.Extra("expires_at").(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	}
	if !token.Expiry.IsZero() {
		return token.Expiry.Unix()
	}
	return 0
}
