// Package auth guards the analysis entry points with HS256 bearer tokens,
// both as a gRPC unary interceptor and as HTTP middleware. Reads are public.
package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AnalyzeCompanyMethod triggers registry and news calls, so it requires a token.
const AnalyzeCompanyMethod = "/companyrisk.v1.RiskService/AnalyzeCompany"

const bearerPrefix = "Bearer "

var (
	errMissingToken   = errors.New("authorization header missing")
	errMalformedToken = errors.New("invalid authorization format")
)

// Interceptor rejects calls to protected methods that lack a valid token.
type Interceptor struct {
	secret    string
	protected map[string]struct{}
}

// NewAuthInterceptor protects the given full method names, or
// AnalyzeCompanyMethod when none are given.
func NewAuthInterceptor(jwtSecret string, methods ...string) *Interceptor {
	if len(methods) == 0 {
		methods = []string{AnalyzeCompanyMethod}
	}
	protected := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		protected[m] = struct{}{}
	}
	return &Interceptor{secret: jwtSecret, protected: protected}
}

// Unary returns the gRPC unary server interceptor.
func (i *Interceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if _, ok := i.protected[info.FullMethod]; !ok {
			return handler(ctx, req)
		}
		ctx, err := i.authorize(ctx)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func (i *Interceptor) authorize(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata missing")
	}
	var header string
	if values := md.Get("authorization"); len(values) > 0 {
		header = values[0]
	}
	token, err := bearerToken(header)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
	claims, err := ParseToken(token, i.secret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
	return withClaims(ctx, claims), nil
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingToken
	}
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return "", errMalformedToken
	}
	return token, nil
}
