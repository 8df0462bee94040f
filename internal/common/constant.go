package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// ShareTokenHeaderName carries a link-grant token for anonymous callers.
const ShareTokenHeaderName = "share_token"

// SharePasswordHeaderName carries the password of a protected link grant.
const SharePasswordHeaderName = "share_password"

// FolderMimeType is stored as the mime type of every folder entry.
const FolderMimeType = "application/x-directory"

// DefaultMimeType is used when content sniffing yields nothing useful.
const DefaultMimeType = "application/octet-stream"
