// Package models defines the server-side records GophDrive persists:
// entries of a user's namespace and the grants that share them.
package models

import "time"

// Entry is a file or a folder in one owner's namespace.
//
// Folders always have SizeBytes == 0 and a nil BlobKey. Files carry the
// object-store key their bytes live under and the exact size persisted.
// ParentID == nil means the entry sits at the owner's root.
type Entry struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	IsFolder  bool      `json:"is_folder"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	BlobKey   *string   `json:"blob_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Kind reports which grant subject type addresses this entry.
func (e *Entry) Kind() SubjectType {
	if e.IsFolder {
		return SubjectFolder
	}
	return SubjectFile
}

// SameParent reports whether parentID points at the same location as the
// entry's own parent (both nil counts as the root).
func (e *Entry) SameParent(parentID *int64) bool {
	if e.ParentID == nil || parentID == nil {
		return e.ParentID == nil && parentID == nil
	}
	return *e.ParentID == *parentID
}
