// Package grpc exposes the storage services over gRPC as DriveService.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/rpc"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	rpc.UnimplementedDriveServiceServer
	address   string
	storage   *services.StorageService
	shares    *services.ShareService
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, storage *services.StorageService, shares *services.ShareService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		storage:   storage,
		shares:    shares,
		jwtSecret: []byte(secretKey),
	}
}

// newServer builds a grpc.Server with the interceptor chain and DriveService
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
		grpc.MaxRecvMsgSize(rpc.MaxMessageBytes),
		grpc.MaxSendMsgSize(rpc.MaxMessageBytes),
	)
	rpc.RegisterDriveServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
