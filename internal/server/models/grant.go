package models

import (
	"errors"
	"time"
)

type SubjectType string

const (
	SubjectFile   SubjectType = "file"
	SubjectFolder SubjectType = "folder"
)

func (t SubjectType) Valid() bool {
	return t == SubjectFile || t == SubjectFolder
}

type GrantMode string

const (
	ModeDirect GrantMode = "direct"
	ModeLink   GrantMode = "link"
)

type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// Allows reports whether a grant carrying p satisfies an operation that
// needs required. Edit implies view.
func (p Permission) Allows(required Permission) bool {
	switch required {
	case PermissionView:
		return p == PermissionView || p == PermissionEdit
	case PermissionEdit:
		return p == PermissionEdit
	default:
		return false
	}
}

// Grant gives someone other than the owner access to one entry.
//
// A direct grant names a Principal (an email, stored lowercased). A link
// grant instead carries a bearer Token. Grants are never updated; revoking
// one deletes it.
type Grant struct {
	ID           int64       `json:"id"`
	OwnerID      int64       `json:"owner_id"`
	SubjectType  SubjectType `json:"subject_type"`
	SubjectID    int64       `json:"subject_id"`
	Mode         GrantMode   `json:"mode"`
	Principal    string      `json:"principal,omitempty"`
	Token        string      `json:"token,omitempty"`
	Permission   Permission  `json:"permission"`
	PasswordHash []byte      `json:"password_hash,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	ExpiresAt    *time.Time  `json:"expires_at,omitempty"`
}

// Expired reports whether the grant is past its expiry at now.
func (g *Grant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !now.Before(*g.ExpiresAt)
}

// HasPassword reports whether resolving the grant needs a password.
func (g *Grant) HasPassword() bool {
	return len(g.PasswordHash) > 0
}

var errMalformedGrant = errors.New("malformed grant")

// Validate checks the mode-dependent shape of the grant.
func (g *Grant) Validate() error {
	if !g.SubjectType.Valid() || !g.Permission.Valid() {
		return errMalformedGrant
	}
	switch g.Mode {
	case ModeDirect:
		if g.Principal == "" || g.Token != "" || g.HasPassword() {
			return errMalformedGrant
		}
	case ModeLink:
		if g.Token == "" || g.Principal != "" {
			return errMalformedGrant
		}
	default:
		return errMalformedGrant
	}
	return nil
}

// SharedItem is a grant joined with the entry it points at.
type SharedItem struct {
	Grant *Grant
	Entry *Entry
}
