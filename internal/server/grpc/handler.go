package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/rpc"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"google.golang.org/protobuf/types/known/emptypb"
)

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Upload(ctx context.Context, req *rpc.UploadRequest) (*rpc.EntryResponse, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	e, err := s.storage.Upload(ctx, ownerID, req.ParentID, req.Name, req.MimeType, req.Data)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Uploaded", "owner_id", ownerID, "entry_id", e.ID, "size", e.SizeBytes)
	return &rpc.EntryResponse{Entry: toEntry(e)}, nil
}

func (s *GRPCServer) CreateFolder(ctx context.Context, req *rpc.CreateFolderRequest) (*rpc.EntryResponse, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	e, err := s.storage.CreateFolder(ctx, ownerID, req.ParentID, req.Name)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.EntryResponse{Entry: toEntry(e)}, nil
}

func (s *GRPCServer) Download(ctx context.Context, req *rpc.EntryRequest) (*rpc.DownloadResponse, error) {
	e, data, err := s.storage.Download(ctx, accessFrom(ctx), req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.DownloadResponse{Entry: toEntry(e), Data: data}, nil
}

func (s *GRPCServer) DownloadURL(ctx context.Context, req *rpc.EntryRequest) (*rpc.URLResponse, error) {
	u, err := s.storage.DownloadURL(ctx, accessFrom(ctx), req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.URLResponse{URL: u}, nil
}

func (s *GRPCServer) Rename(ctx context.Context, req *rpc.RenameRequest) (*rpc.EntryResponse, error) {
	e, err := s.storage.Rename(ctx, accessFrom(ctx), req.ID, req.Name)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.EntryResponse{Entry: toEntry(e)}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *rpc.EntryRequest) (*emptypb.Empty, error) {
	if err := s.storage.Delete(ctx, accessFrom(ctx), req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	s.logger.Info(ctx, "Deleted", "entry_id", req.ID)
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) List(ctx context.Context, req *rpc.ListRequest) (*rpc.EntriesResponse, error) {
	list, err := s.storage.List(ctx, accessFrom(ctx), req.ParentID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.EntriesResponse{Entries: toEntries(list)}, nil
}

func (s *GRPCServer) Search(ctx context.Context, req *rpc.SearchRequest) (*rpc.EntriesResponse, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.storage.Search(ctx, ownerID, req.Term)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.EntriesResponse{Entries: toEntries(list)}, nil
}

func (s *GRPCServer) StorageInfo(ctx context.Context, _ *emptypb.Empty) (*rpc.StorageInfoResponse, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	usage, err := s.storage.StorageInfo(ctx, ownerID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.StorageInfoResponse{Usage: toUsage(usage)}, nil
}

func (s *GRPCServer) ShareWithPrincipal(ctx context.Context, req *rpc.ShareRequest) (*rpc.GrantResponse, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	opts := services.ShareOptions{Permission: models.Permission(req.Permission), ExpiresAt: req.ExpiresAt}
	g, err := s.shares.ShareWithPrincipal(ctx, ownerID, models.SubjectType(req.SubjectType), req.SubjectID, req.Email, opts)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Shared", "owner_id", ownerID, "grant_id", g.ID, "subject_id", g.SubjectID)
	return &rpc.GrantResponse{Grant: toGrant(g)}, nil
}

func (s *GRPCServer) CreateLink(ctx context.Context, req *rpc.CreateLinkRequest) (*rpc.LinkResponse, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	opts := services.ShareOptions{Permission: models.Permission(req.Permission), ExpiresAt: req.ExpiresAt, Password: req.Password}
	g, err := s.shares.CreateLink(ctx, ownerID, models.SubjectType(req.SubjectType), req.SubjectID, opts)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Link created", "owner_id", ownerID, "grant_id", g.ID, "subject_id", g.SubjectID)
	return &rpc.LinkResponse{Grant: toGrant(g), URL: s.shares.LinkURL(g.Token)}, nil
}

func (s *GRPCServer) ResolveLink(ctx context.Context, req *rpc.ResolveLinkRequest) (*rpc.LinkView, error) {
	view, err := s.storage.OpenLink(ctx, req.Token, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &rpc.LinkView{Grant: toGrant(view.Grant), Entry: toEntry(view.Entry), URL: view.URL}
	if view.Entry.IsFolder {
		resp.Children = toEntries(view.Children)
	}
	return resp, nil
}

// ListSharedWithMe lists live direct grants addressed to the caller's email.
// Tokens without an email claim see nothing.
func (s *GRPCServer) ListSharedWithMe(ctx context.Context, _ *emptypb.Empty) (*rpc.SharedItemsResponse, error) {
	if _, err := ownerFrom(ctx); err != nil {
		return nil, err
	}

	resp := &rpc.SharedItemsResponse{Items: []*rpc.SharedItem{}}
	email := accessFrom(ctx).Email
	if email == "" {
		return resp, nil
	}

	items, err := s.shares.ListGrantsForPrincipal(ctx, email)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	for _, it := range items {
		resp.Items = append(resp.Items, &rpc.SharedItem{Grant: toGrant(it.Grant), Entry: toEntry(it.Entry)})
	}
	return resp, nil
}

func (s *GRPCServer) ListGrants(ctx context.Context, req *rpc.EntryRequest) (*rpc.GrantsResponse, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.shares.ListGrantsForSubject(ctx, ownerID, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &rpc.GrantsResponse{Grants: make([]*rpc.Grant, 0, len(list))}
	for _, g := range list {
		resp.Grants = append(resp.Grants, toGrant(g))
	}
	return resp, nil
}

func (s *GRPCServer) RevokeGrant(ctx context.Context, req *rpc.GrantRequest) (*emptypb.Empty, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.shares.RevokeGrant(ctx, ownerID, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Grant revoked", "owner_id", ownerID, "grant_id", req.ID)
	return &emptypb.Empty{}, nil
}
