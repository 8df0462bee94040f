package rpc

import "time"

// Entry is a file or folder as clients see it. Blob keys stay server-side.
type Entry struct {
	ID        int64     `json:"id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	IsFolder  bool      `json:"is_folder"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Grant is a share as clients see it. Password hashes stay server-side.
type Grant struct {
	ID          int64      `json:"id"`
	SubjectType string     `json:"subject_type"`
	SubjectID   int64      `json:"subject_id"`
	Mode        string     `json:"mode"`
	Principal   string     `json:"principal,omitempty"`
	Token       string     `json:"token,omitempty"`
	Permission  string     `json:"permission"`
	HasPassword bool       `json:"has_password,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type StorageUsage struct {
	UsedBytes      int64  `json:"used_bytes"`
	LimitBytes     int64  `json:"limit_bytes"`
	RemainingBytes int64  `json:"remaining_bytes"`
	Percentage     int    `json:"percentage"`
	Used           string `json:"used"`
	Limit          string `json:"limit"`
}

type UploadRequest struct {
	ParentID *int64 `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data"`
}

type CreateFolderRequest struct {
	ParentID *int64 `json:"parent_id,omitempty"`
	Name     string `json:"name"`
}

// EntryRequest addresses a single entry by id.
type EntryRequest struct {
	ID int64 `json:"id"`
}

type RenameRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ListRequest struct {
	ParentID *int64 `json:"parent_id,omitempty"`
}

type SearchRequest struct {
	Term string `json:"term"`
}

type EntryResponse struct {
	Entry *Entry `json:"entry"`
}

type EntriesResponse struct {
	Entries []*Entry `json:"entries"`
}

type DownloadResponse struct {
	Entry *Entry `json:"entry"`
	Data  []byte `json:"data"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type StorageInfoResponse struct {
	Usage *StorageUsage `json:"usage"`
}

type ShareRequest struct {
	SubjectType string     `json:"subject_type"`
	SubjectID   int64      `json:"subject_id"`
	Email       string     `json:"email"`
	Permission  string     `json:"permission,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type CreateLinkRequest struct {
	SubjectType string     `json:"subject_type"`
	SubjectID   int64      `json:"subject_id"`
	Permission  string     `json:"permission,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Password    string     `json:"password,omitempty"`
}

type GrantRequest struct {
	ID int64 `json:"id"`
}

type GrantResponse struct {
	Grant *Grant `json:"grant"`
}

type GrantsResponse struct {
	Grants []*Grant `json:"grants"`
}

type LinkResponse struct {
	Grant *Grant `json:"grant"`
	URL   string `json:"url"`
}

type ResolveLinkRequest struct {
	Token    string `json:"token"`
	Password string `json:"password,omitempty"`
}

// LinkView is what a share link opens to. Folders carry Children, files a
// signed download URL.
type LinkView struct {
	Grant    *Grant   `json:"grant"`
	Entry    *Entry   `json:"entry"`
	Children []*Entry `json:"children,omitempty"`
	URL      string   `json:"url,omitempty"`
}

type SharedItem struct {
	Grant *Grant `json:"grant"`
	Entry *Entry `json:"entry"`
}

type SharedItemsResponse struct {
	Items []*SharedItem `json:"items"`
}

type PingResponse struct {
	Status string `json:"status"`
}
