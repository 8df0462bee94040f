package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "gophdrive.v1.DriveService"

const (
	MethodPing               = "Ping"
	MethodUpload             = "Upload"
	MethodCreateFolder       = "CreateFolder"
	MethodDownload           = "Download"
	MethodDownloadURL        = "DownloadURL"
	MethodRename             = "Rename"
	MethodDelete             = "Delete"
	MethodList               = "List"
	MethodSearch             = "Search"
	MethodStorageInfo        = "StorageInfo"
	MethodShareWithPrincipal = "ShareWithPrincipal"
	MethodCreateLink         = "CreateLink"
	MethodResolveLink        = "ResolveLink"
	MethodListSharedWithMe   = "ListSharedWithMe"
	MethodListGrants         = "ListGrants"
	MethodRevokeGrant        = "RevokeGrant"
)

// FullMethod returns the "/service/method" path gRPC routes on.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// DriveServiceServer is the server API for DriveService.
type DriveServiceServer interface {
	Ping(context.Context, *emptypb.Empty) (*PingResponse, error)
	Upload(context.Context, *UploadRequest) (*EntryResponse, error)
	CreateFolder(context.Context, *CreateFolderRequest) (*EntryResponse, error)
	Download(context.Context, *EntryRequest) (*DownloadResponse, error)
	DownloadURL(context.Context, *EntryRequest) (*URLResponse, error)
	Rename(context.Context, *RenameRequest) (*EntryResponse, error)
	Delete(context.Context, *EntryRequest) (*emptypb.Empty, error)
	List(context.Context, *ListRequest) (*EntriesResponse, error)
	Search(context.Context, *SearchRequest) (*EntriesResponse, error)
	StorageInfo(context.Context, *emptypb.Empty) (*StorageInfoResponse, error)
	ShareWithPrincipal(context.Context, *ShareRequest) (*GrantResponse, error)
	CreateLink(context.Context, *CreateLinkRequest) (*LinkResponse, error)
	ResolveLink(context.Context, *ResolveLinkRequest) (*LinkView, error)
	ListSharedWithMe(context.Context, *emptypb.Empty) (*SharedItemsResponse, error)
	ListGrants(context.Context, *EntryRequest) (*GrantsResponse, error)
	RevokeGrant(context.Context, *GrantRequest) (*emptypb.Empty, error)
}

// UnimplementedDriveServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedDriveServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedDriveServiceServer) Ping(context.Context, *emptypb.Empty) (*PingResponse, error) {
	return nil, unimplemented(MethodPing)
}
func (UnimplementedDriveServiceServer) Upload(context.Context, *UploadRequest) (*EntryResponse, error) {
	return nil, unimplemented(MethodUpload)
}
func (UnimplementedDriveServiceServer) CreateFolder(context.Context, *CreateFolderRequest) (*EntryResponse, error) {
	return nil, unimplemented(MethodCreateFolder)
}
func (UnimplementedDriveServiceServer) Download(context.Context, *EntryRequest) (*DownloadResponse, error) {
	return nil, unimplemented(MethodDownload)
}
func (UnimplementedDriveServiceServer) DownloadURL(context.Context, *EntryRequest) (*URLResponse, error) {
	return nil, unimplemented(MethodDownloadURL)
}
func (UnimplementedDriveServiceServer) Rename(context.Context, *RenameRequest) (*EntryResponse, error) {
	return nil, unimplemented(MethodRename)
}
func (UnimplementedDriveServiceServer) Delete(context.Context, *EntryRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodDelete)
}
func (UnimplementedDriveServiceServer) List(context.Context, *ListRequest) (*EntriesResponse, error) {
	return nil, unimplemented(MethodList)
}
func (UnimplementedDriveServiceServer) Search(context.Context, *SearchRequest) (*EntriesResponse, error) {
	return nil, unimplemented(MethodSearch)
}
func (UnimplementedDriveServiceServer) StorageInfo(context.Context, *emptypb.Empty) (*StorageInfoResponse, error) {
	return nil, unimplemented(MethodStorageInfo)
}
func (UnimplementedDriveServiceServer) ShareWithPrincipal(context.Context, *ShareRequest) (*GrantResponse, error) {
	return nil, unimplemented(MethodShareWithPrincipal)
}
func (UnimplementedDriveServiceServer) CreateLink(context.Context, *CreateLinkRequest) (*LinkResponse, error) {
	return nil, unimplemented(MethodCreateLink)
}
func (UnimplementedDriveServiceServer) ResolveLink(context.Context, *ResolveLinkRequest) (*LinkView, error) {
	return nil, unimplemented(MethodResolveLink)
}
func (UnimplementedDriveServiceServer) ListSharedWithMe(context.Context, *emptypb.Empty) (*SharedItemsResponse, error) {
	return nil, unimplemented(MethodListSharedWithMe)
}
func (UnimplementedDriveServiceServer) ListGrants(context.Context, *EntryRequest) (*GrantsResponse, error) {
	return nil, unimplemented(MethodListGrants)
}
func (UnimplementedDriveServiceServer) RevokeGrant(context.Context, *GrantRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodRevokeGrant)
}

// unaryMethod adapts a DriveServiceServer method expression into the
// handler shape grpc.ServiceDesc expects.
func unaryMethod[Req any, Resp any](name string, call func(DriveServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DriveServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DriveServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// DriveService_ServiceDesc is the grpc.ServiceDesc for DriveService.
var DriveService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DriveServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodPing, DriveServiceServer.Ping),
		unaryMethod(MethodUpload, DriveServiceServer.Upload),
		unaryMethod(MethodCreateFolder, DriveServiceServer.CreateFolder),
		unaryMethod(MethodDownload, DriveServiceServer.Download),
		unaryMethod(MethodDownloadURL, DriveServiceServer.DownloadURL),
		unaryMethod(MethodRename, DriveServiceServer.Rename),
		unaryMethod(MethodDelete, DriveServiceServer.Delete),
		unaryMethod(MethodList, DriveServiceServer.List),
		unaryMethod(MethodSearch, DriveServiceServer.Search),
		unaryMethod(MethodStorageInfo, DriveServiceServer.StorageInfo),
		unaryMethod(MethodShareWithPrincipal, DriveServiceServer.ShareWithPrincipal),
		unaryMethod(MethodCreateLink, DriveServiceServer.CreateLink),
		unaryMethod(MethodResolveLink, DriveServiceServer.ResolveLink),
		unaryMethod(MethodListSharedWithMe, DriveServiceServer.ListSharedWithMe),
		unaryMethod(MethodListGrants, DriveServiceServer.ListGrants),
		unaryMethod(MethodRevokeGrant, DriveServiceServer.RevokeGrant),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophdrive/v1/drive",
}

func RegisterDriveServiceServer(s grpc.ServiceRegistrar, srv DriveServiceServer) {
	s.RegisterService(&DriveService_ServiceDesc, srv)
}

// DriveServiceClient is the client API for DriveService. Every call is sent
// with the json content-subtype.
type DriveServiceClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*PingResponse, error)
	Upload(ctx context.Context, in *UploadRequest, opts ...grpc.CallOption) (*EntryResponse, error)
	CreateFolder(ctx context.Context, in *CreateFolderRequest, opts ...grpc.CallOption) (*EntryResponse, error)
	Download(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*DownloadResponse, error)
	DownloadURL(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*URLResponse, error)
	Rename(ctx context.Context, in *RenameRequest, opts ...grpc.CallOption) (*EntryResponse, error)
	Delete(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*EntriesResponse, error)
	Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*EntriesResponse, error)
	StorageInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*StorageInfoResponse, error)
	ShareWithPrincipal(ctx context.Context, in *ShareRequest, opts ...grpc.CallOption) (*GrantResponse, error)
	CreateLink(ctx context.Context, in *CreateLinkRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	ResolveLink(ctx context.Context, in *ResolveLinkRequest, opts ...grpc.CallOption) (*LinkView, error)
	ListSharedWithMe(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*SharedItemsResponse, error)
	ListGrants(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*GrantsResponse, error)
	RevokeGrant(ctx context.Context, in *GrantRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type driveServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDriveServiceClient(cc grpc.ClientConnInterface) DriveServiceClient {
	return &driveServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *driveServiceClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *driveServiceClient) Upload(ctx context.Context, in *UploadRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, MethodUpload, in, opts)
}

func (c *driveServiceClient) CreateFolder(ctx context.Context, in *CreateFolderRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, MethodCreateFolder, in, opts)
}

func (c *driveServiceClient) Download(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*DownloadResponse, error) {
	return invoke[DownloadResponse](ctx, c.cc, MethodDownload, in, opts)
}

func (c *driveServiceClient) DownloadURL(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*URLResponse, error) {
	return invoke[URLResponse](ctx, c.cc, MethodDownloadURL, in, opts)
}

func (c *driveServiceClient) Rename(ctx context.Context, in *RenameRequest, opts ...grpc.CallOption) (*EntryResponse, error) {
	return invoke[EntryResponse](ctx, c.cc, MethodRename, in, opts)
}

func (c *driveServiceClient) Delete(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodDelete, in, opts)
}

func (c *driveServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*EntriesResponse, error) {
	return invoke[EntriesResponse](ctx, c.cc, MethodList, in, opts)
}

func (c *driveServiceClient) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*EntriesResponse, error) {
	return invoke[EntriesResponse](ctx, c.cc, MethodSearch, in, opts)
}

func (c *driveServiceClient) StorageInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*StorageInfoResponse, error) {
	return invoke[StorageInfoResponse](ctx, c.cc, MethodStorageInfo, in, opts)
}

func (c *driveServiceClient) ShareWithPrincipal(ctx context.Context, in *ShareRequest, opts ...grpc.CallOption) (*GrantResponse, error) {
	return invoke[GrantResponse](ctx, c.cc, MethodShareWithPrincipal, in, opts)
}

func (c *driveServiceClient) CreateLink(ctx context.Context, in *CreateLinkRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	return invoke[LinkResponse](ctx, c.cc, MethodCreateLink, in, opts)
}

func (c *driveServiceClient) ResolveLink(ctx context.Context, in *ResolveLinkRequest, opts ...grpc.CallOption) (*LinkView, error) {
	return invoke[LinkView](ctx, c.cc, MethodResolveLink, in, opts)
}

func (c *driveServiceClient) ListSharedWithMe(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*SharedItemsResponse, error) {
	return invoke[SharedItemsResponse](ctx, c.cc, MethodListSharedWithMe, in, opts)
}

func (c *driveServiceClient) ListGrants(ctx context.Context, in *EntryRequest, opts ...grpc.CallOption) (*GrantsResponse, error) {
	return invoke[GrantsResponse](ctx, c.cc, MethodListGrants, in, opts)
}

func (c *driveServiceClient) RevokeGrant(ctx context.Context, in *GrantRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodRevokeGrant, in, opts)
}
