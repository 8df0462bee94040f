package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/gin-gonic/gin"
)

// SharePasswordHeader is an alternative to the ?password= query parameter.
const SharePasswordHeader = "X-Share-Password"

type entryView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsFolder  bool      `json:"is_folder"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

type shareView struct {
	Entry       entryView   `json:"entry"`
	Permission  string      `json:"permission"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	Children    []entryView `json:"children,omitempty"`
	DownloadURL string      `json:"download_url,omitempty"`
}

func toEntryView(e *models.Entry) entryView {
	return entryView{
		ID:        e.ID,
		Name:      e.Name,
		IsFolder:  e.IsFolder,
		MimeType:  e.MimeType,
		SizeBytes: e.SizeBytes,
		UpdatedAt: e.UpdatedAt,
	}
}

func password(c *gin.Context) string {
	if p := c.Query("password"); p != "" {
		return p
	}
	return c.GetHeader(SharePasswordHeader)
}

// GetShare handles GET /share/:token.
func (s *HTTPServer) GetShare(c *gin.Context) {
	view, err := s.links.OpenLink(c.Request.Context(), c.Param("token"), password(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	resp := shareView{
		Entry:       toEntryView(view.Entry),
		Permission:  string(view.Grant.Permission),
		ExpiresAt:   view.Grant.ExpiresAt,
		DownloadURL: view.URL,
	}
	if view.Entry.IsFolder {
		resp.Children = make([]entryView, 0, len(view.Children))
		for _, child := range view.Children {
			resp.Children = append(resp.Children, toEntryView(child))
		}
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadShare handles GET /share/:token/download. It redirects to a signed
// URL for the linked file, or for ?id= when the link points at a folder
// containing that file.
func (s *HTTPServer) DownloadShare(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.Param("token")

	var (
		url string
		err error
	)
	if raw := c.Query("id"); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		url, err = s.links.DownloadURL(ctx, services.Access{Token: token, Password: password(c)}, id)
	} else {
		url, err = s.linkedFileURL(ctx, token, password(c))
	}
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, url)
}

func (s *HTTPServer) linkedFileURL(ctx context.Context, token, password string) (string, error) {
	view, err := s.links.OpenLink(ctx, token, password)
	if err != nil {
		return "", err
	}
	if view.Entry.IsFolder {
		return "", common.ErrInvalidOperation
	}
	return view.URL, nil
}

type statusMapping struct {
	err    error
	status int
}

var statusMappings = []statusMapping{
	{common.ErrStorageReadFailed, http.StatusBadGateway},
	{common.ErrStorageWriteFailed, http.StatusBadGateway},
	{common.ErrNotFound, http.StatusNotFound},
	{common.ErrForbidden, http.StatusForbidden},
	{common.ErrExpired, http.StatusGone},
	{common.ErrConflict, http.StatusConflict},
	{common.ErrQuotaExceeded, http.StatusInsufficientStorage},
	{common.ErrInvalidOperation, http.StatusBadRequest},
	{common.ErrInvalidArgument, http.StatusBadRequest},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

func (s *HTTPServer) abortWithError(c *gin.Context, err error) {
	for _, m := range statusMappings {
		if errors.Is(err, m.err) {
			c.AbortWithStatusJSON(m.status, gin.H{"error": m.err.Error()})
			return
		}
	}
	s.logger.Error(c.Request.Context(), "share link error", "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
