// Package keygen produces the unguessable identifiers GophDrive hands out:
// share-link tokens and object-store keys for uploaded blobs.
package keygen

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TokenBytes is the amount of CSPRNG entropy behind every link token.
const TokenBytes = 32

// Generator is what services depend on, so tests can pin the output.
type Generator interface {
	Token() (string, error)
	BlobKey(ownerID int64) string
}

// Random is the production Generator.
type Random struct {
	now func() time.Time
}

func NewRandom() *Random {
	return &Random{now: time.Now}
}

// Token returns TokenBytes of crypto/rand output, base64url encoded without
// padding. It has no relation to ids, names or time.
func (r *Random) Token() (string, error) {
	return NewToken()
}

// BlobKey returns a fresh object key: users/{owner}/{yyyy}/{mm}/{dd}/{uuid}.
// The file name never takes part in it.
func (r *Random) BlobKey(ownerID int64) string {
	d := r.now().UTC()
	return fmt.Sprintf("users/%d/%04d/%02d/%02d/%s", ownerID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// NewToken is Random.Token without a receiver.
func NewToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
