package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/rpc"
	"github.com/dmitrijs2005/gophdrive/internal/server/auth"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accessKey ctxKey = "access"

// publicMethods need no credentials at all.
var publicMethods = map[string]bool{
	rpc.FullMethod(rpc.MethodPing):        true,
	rpc.FullMethod(rpc.MethodResolveLink): true,
}

// linkMethods may be called with a share token instead of an access token.
var linkMethods = map[string]bool{
	rpc.FullMethod(rpc.MethodDownload):    true,
	rpc.FullMethod(rpc.MethodDownloadURL): true,
	rpc.FullMethod(rpc.MethodList):        true,
	rpc.FullMethod(rpc.MethodRename):      true,
	rpc.FullMethod(rpc.MethodDelete):      true,
}

func firstValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	md, _ := metadata.FromIncomingContext(ctx)

	var access services.Access
	if accessToken := firstValue(md, common.AccessTokenHeaderName); accessToken != "" {
		claims, err := auth.ParseToken(accessToken, s.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				return nil, rpc.Error(codes.Unauthenticated, rpc.ReasonTokenExpired, common.ErrTokenExpired.Error())
			}
			return nil, rpc.Error(codes.Unauthenticated, rpc.ReasonInvalidToken, "invalid token")
		}
		access.OwnerID = claims.UserID
		access.Email = claims.Email
	}

	if linkMethods[info.FullMethod] {
		access.Token = firstValue(md, common.ShareTokenHeaderName)
		access.Password = firstValue(md, common.SharePasswordHeaderName)
	}

	if access.OwnerID == 0 && access.Token == "" {
		return nil, rpc.Error(codes.Unauthenticated, rpc.ReasonUnauthorized, "missing token")
	}

	ctx = context.WithValue(ctx, accessKey, access)
	return handler(ctx, req)
}

func accessFrom(ctx context.Context) services.Access {
	access, _ := ctx.Value(accessKey).(services.Access)
	return access
}

// ownerFrom returns the authenticated user id. Share tokens alone do not
// identify a user.
func ownerFrom(ctx context.Context) (int64, error) {
	access := accessFrom(ctx)
	if access.OwnerID == 0 {
		return 0, rpc.Error(codes.Unauthenticated, rpc.ReasonUnauthorized, "missing token")
	}
	return access.OwnerID, nil
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}
