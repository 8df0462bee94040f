package rpc

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Client talks to a DriveService endpoint. It attaches the access token and,
// when set, a share token and password to every call, and converts status
// errors back into common sentinels.
type Client struct {
	endpointURL   string
	conn          *grpc.ClientConn
	client        DriveServiceClient
	accessToken   string
	shareToken    string
	sharePassword string
}

func withMetadata(ctx context.Context, kv map[string]string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	for k, v := range kv {
		md.Delete(k)
		if v != "" {
			md.Set(k, v)
		}
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	return withMetadata(ctx, map[string]string{common.AccessTokenHeaderName: token})
}

func (c *Client) credentialsInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	ctx = withAccessToken(ctx, c.accessToken)
	ctx = withMetadata(ctx, map[string]string{
		common.ShareTokenHeaderName:    c.shareToken,
		common.SharePasswordHeaderName: c.sharePassword,
	})
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewClient connects to endpointURL without transport security. Extra dial
// options are appended after the defaults.
func NewClient(endpointURL string, opts ...grpc.DialOption) (*Client, error) {
	c := &Client{endpointURL: endpointURL}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.credentialsInterceptor),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(MaxMessageBytes),
			grpc.MaxCallSendMsgSize(MaxMessageBytes),
		),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = NewDriveServiceClient(conn)
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// SetShareToken makes later calls act through a share link. An empty token
// clears it.
func (c *Client) SetShareToken(token, password string) {
	c.shareToken = token
	c.sharePassword = password
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	resp, err := c.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return "", FromStatus(err)
	}
	return resp.Status, nil
}

func (c *Client) Upload(ctx context.Context, parentID *int64, name, mimeType string, data []byte) (*Entry, error) {
	resp, err := c.client.Upload(ctx, &UploadRequest{ParentID: parentID, Name: name, MimeType: mimeType, Data: data})
	if err != nil {
		return nil, FromStatus(err)
	}
	return resp.Entry, nil
}

func (c *Client) CreateFolder(ctx context.Context, parentID *int64, name string) (*Entry, error) {
	resp, err := c.client.CreateFolder(ctx, &CreateFolderRequest{ParentID: parentID, Name: name})
	if err != nil {
		return nil, FromStatus(err)
	}
	return resp.Entry, nil
}

func (c *Client) Download(ctx context.Context, id int64) (*Entry, []byte, error) {
	resp, err := c.client.Download(ctx, &EntryRequest{ID: id})
	if err != nil {
		return nil, nil, FromStatus(err)
	}
	return resp.Entry, resp.Data, nil
}

func (c *Client) DownloadURL(ctx context.Context, id int64) (string, error) {
	resp, err := c.client.DownloadURL(ctx, &EntryRequest{ID: id})
	if err != nil {
		return "", FromStatus(err)
	}
	return resp.URL, nil
}

func (c *Client) Rename(ctx context.Context, id int64, name string) (*Entry, error) {
	resp, err := c.client.Rename(ctx, &RenameRequest{ID: id, Name: name})
	if err != nil {
		return nil, FromStatus(err)
	}
	return resp.Entry, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.client.Delete(ctx, &EntryRequest{ID: id})
	return FromStatus(err)
}

func (c *Client) List(ctx context.Context, parentID *int64) ([]*Entry, error) {
	resp, err := c.client.List(ctx, &ListRequest{ParentID: parentID})
	if err != nil {
		return nil, FromStatus(err)
	}
	return resp.Entries, nil
}

func (c *Client) Search(ctx context.Context, term string) ([]*Entry, error) {
	resp, err := c.client.Search(ctx, &SearchRequest{Term: term})
	if err != nil {
		return nil, FromStatus(err)
	}
	return resp.Entries, nil
}

func (c *Client) StorageInfo(ctx context.Context) (*StorageUsage, error) {
	resp, err := c.client.StorageInfo(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, FromStatus(err)
	}
	return resp.Usage, nil
}

func (c *Client) ShareWithPrincipal(ctx context.Context, req *ShareRequest) (*Grant, error) {
	resp, err := c.client.ShareWithPrincipal(ctx, req)
	if err != nil {
		return nil, FromStatus(err)
	}
	return resp.Grant, nil
}

// CreateLink returns the new link grant and the URL to hand out.
func (c *Client) CreateLink(ctx context.Context, req *CreateLinkRequest) (*Grant, string, error) {
	resp, err := c.client.CreateLink(ctx, req)
	if err != nil {
		return nil, "", FromStatus(err)
	}
	return resp.Grant, resp.URL, nil
}

func (c *Client) ResolveLink(ctx context.Context, token, password string) (*LinkView, error) {
	resp, err := c.client.ResolveLink(ctx, &ResolveLinkRequest{Token: token, Password: password})
	if err != nil {
		return nil, FromStatus(err)
	}
	return resp, nil
}

func (c *Client) ListSharedWithMe(ctx context.Context) ([]*SharedItem, error) {
	resp, err := c.client.ListSharedWithMe(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, FromStatus(err)
	}
	return resp.Items, nil
}

func (c *Client) ListGrants(ctx context.Context, entryID int64) ([]*Grant, error) {
	resp, err := c.client.ListGrants(ctx, &EntryRequest{ID: entryID})
	if err != nil {
		return nil, FromStatus(err)
	}
	return resp.Grants, nil
}

func (c *Client) RevokeGrant(ctx context.Context, grantID int64) error {
	_, err := c.client.RevokeGrant(ctx, &GrantRequest{ID: grantID})
	return FromStatus(err)
}
