package grpc

import (
	"github.com/dmitrijs2005/gophdrive/internal/rpc"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

func toEntry(e *models.Entry) *rpc.Entry {
	if e == nil {
		return nil
	}
	return &rpc.Entry{
		ID:        e.ID,
		ParentID:  e.ParentID,
		Name:      e.Name,
		IsFolder:  e.IsFolder,
		MimeType:  e.MimeType,
		SizeBytes: e.SizeBytes,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toEntries(list []*models.Entry) []*rpc.Entry {
	result := make([]*rpc.Entry, 0, len(list))
	for _, e := range list {
		result = append(result, toEntry(e))
	}
	return result
}

func toGrant(g *models.Grant) *rpc.Grant {
	if g == nil {
		return nil
	}
	return &rpc.Grant{
		ID:          g.ID,
		SubjectType: string(g.SubjectType),
		SubjectID:   g.SubjectID,
		Mode:        string(g.Mode),
		Principal:   g.Principal,
		Token:       g.Token,
		Permission:  string(g.Permission),
		HasPassword: g.HasPassword(),
		CreatedAt:   g.CreatedAt,
		ExpiresAt:   g.ExpiresAt,
	}
}

func toUsage(u *models.StorageUsage) *rpc.StorageUsage {
	return &rpc.StorageUsage{
		UsedBytes:      u.UsedBytes,
		LimitBytes:     u.LimitBytes,
		RemainingBytes: u.RemainingBytes,
		Percentage:     u.Percentage,
		Used:           u.UsedHuman,
		Limit:          u.LimitHuman,
	}
}
