package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/keygen"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/grants"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// ShareOptions tunes a new grant. A zero Permission means view. Password is
// only honoured for links.
type ShareOptions struct {
	Permission models.Permission
	ExpiresAt  *time.Time
	Password   string
}

// ShareService creates, resolves and revokes grants.
type ShareService struct {
	entries    entries.Repository
	grants     grants.Repository
	keys       keygen.Generator
	baseURL    string
	bcryptCost int
	now        func() time.Time
}

// NewShareService builds a ShareService. baseURL prefixes the public link
// URLs returned by LinkURL.
func NewShareService(er entries.Repository, gr grants.Repository, keys keygen.Generator, baseURL string) *ShareService {
	return &ShareService{
		entries:    er,
		grants:     gr,
		keys:       keys,
		baseURL:    strings.TrimRight(baseURL, "/"),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// LinkURL is the public address of a link grant.
func (s *ShareService) LinkURL(token string) string {
	return s.baseURL + "/share/" + token
}

func (s *ShareService) normalize(opts ShareOptions) (ShareOptions, error) {
	if opts.Permission == "" {
		opts.Permission = models.PermissionView
	}
	if !opts.Permission.Valid() {
		return opts, fmt.Errorf("%w: unknown permission %q", common.ErrInvalidArgument, opts.Permission)
	}
	if opts.ExpiresAt != nil && !opts.ExpiresAt.After(s.now()) {
		return opts, fmt.Errorf("%w: expiry is in the past", common.ErrInvalidArgument)
	}
	return opts, nil
}

// ownedSubject loads the entry a grant is about to point at and checks the
// caller owns it and named its kind correctly.
func (s *ShareService) ownedSubject(ctx context.Context, ownerID int64, subjectType models.SubjectType, subjectID int64) (*models.Entry, error) {
	if !subjectType.Valid() {
		return nil, fmt.Errorf("%w: unknown subject type %q", common.ErrInvalidArgument, subjectType)
	}
	e, err := s.entries.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != ownerID {
		return nil, common.ErrForbidden
	}
	if e.Kind() != subjectType {
		return nil, fmt.Errorf("%w: entry %d is a %s", common.ErrInvalidOperation, e.ID, e.Kind())
	}
	return e, nil
}

// ShareWithPrincipal grants email access to one of ownerID's entries. The
// address is not checked against registered users.
func (s *ShareService) ShareWithPrincipal(ctx context.Context, ownerID int64, subjectType models.SubjectType, subjectID int64, email string, opts ShareOptions) (*models.Grant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrInvalidArgument)
	}
	opts, err := s.normalize(opts)
	if err != nil {
		return nil, err
	}
	if opts.Password != "" {
		return nil, fmt.Errorf("%w: passwords apply to links only", common.ErrInvalidArgument)
	}
	if _, err := s.ownedSubject(ctx, ownerID, subjectType, subjectID); err != nil {
		return nil, err
	}

	return s.grants.Create(ctx, &models.Grant{
		OwnerID:     ownerID,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Mode:        models.ModeDirect,
		Principal:   email,
		Permission:  opts.Permission,
		ExpiresAt:   opts.ExpiresAt,
	})
}

// CreateLink issues a bearer-token grant on one of ownerID's entries.
func (s *ShareService) CreateLink(ctx context.Context, ownerID int64, subjectType models.SubjectType, subjectID int64, opts ShareOptions) (*models.Grant, error) {
	opts, err := s.normalize(opts)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedSubject(ctx, ownerID, subjectType, subjectID); err != nil {
		return nil, err
	}

	token, err := s.keys.Token()
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}

	g := &models.Grant{
		OwnerID:     ownerID,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Mode:        models.ModeLink,
		Token:       token,
		Permission:  opts.Permission,
		ExpiresAt:   opts.ExpiresAt,
	}
	if opts.Password != "" {
		g.PasswordHash, err = bcrypt.GenerateFromPassword([]byte(opts.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash link password: %w", err)
		}
	}

	return s.grants.Create(ctx, g)
}

// ResolveByToken turns a link token into its grant and the entry it points
// at. Unknown tokens and grants whose entry was deleted are
// common.ErrNotFound, lapsed ones common.ErrExpired and a wrong password
// common.ErrForbidden.
func (s *ShareService) ResolveByToken(ctx context.Context, token, password string) (*models.Grant, *models.Entry, error) {
	if token == "" {
		return nil, nil, common.ErrNotFound
	}
	g, err := s.grants.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if subtle.ConstantTimeCompare([]byte(g.Token), []byte(token)) != 1 {
		return nil, nil, common.ErrNotFound
	}
	if g.Expired(s.now()) {
		return nil, nil, common.ErrExpired
	}
	if g.HasPassword() {
		if err := bcrypt.CompareHashAndPassword(g.PasswordHash, []byte(password)); err != nil {
			return nil, nil, fmt.Errorf("%w: wrong link password", common.ErrForbidden)
		}
	}

	e, err := s.subject(ctx, g)
	if err != nil {
		return nil, nil, err
	}
	return g, e, nil
}

// subject loads the entry g points at. A missing or mismatched entry means
// the grant is orphaned.
func (s *ShareService) subject(ctx context.Context, g *models.Grant) (*models.Entry, error) {
	e, err := s.entries.Get(ctx, g.SubjectID)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != g.OwnerID || e.Kind() != g.SubjectType {
		return nil, common.ErrNotFound
	}
	return e, nil
}

// activeDirectGrants returns the direct grants addressed to email that have
// not expired.
func (s *ShareService) activeDirectGrants(ctx context.Context, email string) ([]*models.Grant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	list, err := s.grants.ListByPrincipal(ctx, email)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := list[:0]
	for _, g := range list {
		if !g.Expired(now) {
			active = append(active, g)
		}
	}
	return active, nil
}

// ListGrantsForPrincipal lists what has been shared with email, joined with
// the current entries. Expired grants and grants on deleted entries are
// left out.
func (s *ShareService) ListGrantsForPrincipal(ctx context.Context, email string) ([]*models.SharedItem, error) {
	list, err := s.activeDirectGrants(ctx, email)
	if err != nil {
		return nil, err
	}

	items := make([]*models.SharedItem, 0, len(list))
	for _, g := range list {
		e, err := s.subject(ctx, g)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, &models.SharedItem{Grant: g, Entry: e})
	}
	return items, nil
}

// ListGrantsForSubject lists every grant on one of ownerID's entries.
func (s *ShareService) ListGrantsForSubject(ctx context.Context, ownerID, subjectID int64) ([]*models.Grant, error) {
	e, err := s.entries.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != ownerID {
		return nil, common.ErrForbidden
	}
	return s.grants.ListBySubject(ctx, e.Kind(), e.ID)
}

// RevokeGrant deletes a grant ownerID created. It works for orphaned grants
// too.
func (s *ShareService) RevokeGrant(ctx context.Context, ownerID, grantID int64) error {
	g, err := s.grants.Get(ctx, grantID)
	if err != nil {
		return err
	}
	if g.OwnerID != ownerID {
		return common.ErrForbidden
	}
	return s.grants.Delete(ctx, grantID)
}
