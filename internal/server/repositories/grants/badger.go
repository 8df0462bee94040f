package grants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// Key layout:
//
//	grant:<id>                          JSON-encoded models.Grant
//	gtoken:<token>                      id of the link grant
//	gprincipal:<email>\x00<id>          empty
//	gsubject:<type>:<subject>:<id>      empty
//	seq:grants                          id sequence
const (
	prefixGrant     = "grant:"
	prefixToken     = "gtoken:"
	prefixPrincipal = "gprincipal:"
	prefixSubject   = "gsubject:"
	seqKey          = "seq:grants"
	seqBandwidth    = 64
)

func keyGrant(id int64) []byte { return fmt.Appendf(nil, "%s%020d", prefixGrant, id) }

func keyToken(token string) []byte { return append([]byte(prefixToken), token...) }

func keyPrincipalPrefix(email string) []byte {
	return append(append([]byte(prefixPrincipal), email...), 0)
}

func keyPrincipal(email string, id int64) []byte {
	return fmt.Appendf(keyPrincipalPrefix(email), "%020d", id)
}

func keySubjectPrefix(t models.SubjectType, subjectID int64) []byte {
	return fmt.Appendf(nil, "%s%s:%020d:", prefixSubject, t, subjectID)
}

func keySubject(t models.SubjectType, subjectID, id int64) []byte {
	return fmt.Appendf(keySubjectPrefix(t, subjectID), "%020d", id)
}

// BadgerRepository implements Repository on an embedded BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	now func() time.Time
}

func NewBadgerRepository(db *badger.DB) (*BadgerRepository, error) {
	seq, err := db.GetSequence([]byte(seqKey), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("grants sequence: %w", err)
	}
	return &BadgerRepository{db: db, seq: seq, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (r *BadgerRepository) Close() error {
	return r.seq.Release()
}

func loadGrant(txn *badger.Txn, id int64) (*models.Grant, error) {
	item, err := txn.Get(keyGrant(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger error: %w", err)
	}
	var g models.Grant
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &g) }); err != nil {
		return nil, fmt.Errorf("decode grant %d: %w", id, err)
	}
	return &g, nil
}

func readID(item *badger.Item) (int64, error) {
	var id int64
	err := item.Value(func(val []byte) error {
		var err error
		id, err = strconv.ParseInt(string(val), 10, 64)
		return err
	})
	return id, err
}

func (r *BadgerRepository) Create(ctx context.Context, g *models.Grant) (*models.Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := r.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("grants sequence: %w", err)
	}

	created := *g
	created.ID = int64(n) + 1
	created.CreatedAt = r.now()

	err = r.db.Update(func(txn *badger.Txn) error {
		if created.Token != "" {
			if _, err := txn.Get(keyToken(created.Token)); err == nil {
				return fmt.Errorf("%w: token already issued", common.ErrConflict)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("badger error: %w", err)
			}
			if err := txn.Set(keyToken(created.Token), strconv.AppendInt(nil, created.ID, 10)); err != nil {
				return err
			}
		}
		if created.Principal != "" {
			if err := txn.Set(keyPrincipal(created.Principal, created.ID), nil); err != nil {
				return err
			}
		}
		if err := txn.Set(keySubject(created.SubjectType, created.SubjectID, created.ID), nil); err != nil {
			return err
		}

		b, err := json.Marshal(&created)
		if err != nil {
			return fmt.Errorf("encode grant: %w", err)
		}
		return txn.Set(keyGrant(created.ID), b)
	})
	if err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return nil, fmt.Errorf("%w: concurrent update", common.ErrConflict)
		}
		return nil, err
	}

	*g = created
	return g, nil
}

func (r *BadgerRepository) Get(ctx context.Context, id int64) (*models.Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var g *models.Grant
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		g, err = loadGrant(txn, id)
		return err
	})
	return g, err
}

func (r *BadgerRepository) GetByToken(ctx context.Context, token string) (*models.Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, common.ErrNotFound
	}
	var g *models.Grant
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyToken(token))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return common.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("badger error: %w", err)
		}
		id, err := readID(item)
		if err != nil {
			return fmt.Errorf("decode token index: %w", err)
		}
		g, err = loadGrant(txn, id)
		return err
	})
	return g, err
}

// listByPrefix loads every grant whose id is the 20-digit suffix of a key
// under prefix. Keys sort by id, which is creation order.
func (r *BadgerRepository) listByPrefix(prefix []byte) ([]*models.Grant, error) {
	result := make([]*models.Grant, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			id, err := strconv.ParseInt(string(it.Item().Key()[len(prefix):]), 10, 64)
			if err != nil {
				return fmt.Errorf("decode grant index: %w", err)
			}
			g, err := loadGrant(txn, id)
			if err != nil {
				return err
			}
			result = append(result, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *BadgerRepository) ListByPrincipal(ctx context.Context, email string) ([]*models.Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.listByPrefix(keyPrincipalPrefix(email))
}

func (r *BadgerRepository) ListBySubject(ctx context.Context, subjectType models.SubjectType, subjectID int64) ([]*models.Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.listByPrefix(keySubjectPrefix(subjectType, subjectID))
}

func (r *BadgerRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		g, err := loadGrant(txn, id)
		if err != nil {
			return err
		}
		if g.Token != "" {
			if err := txn.Delete(keyToken(g.Token)); err != nil {
				return err
			}
		}
		if g.Principal != "" {
			if err := txn.Delete(keyPrincipal(g.Principal, g.ID)); err != nil {
				return err
			}
		}
		if err := txn.Delete(keySubject(g.SubjectType, g.SubjectID, g.ID)); err != nil {
			return err
		}
		return txn.Delete(keyGrant(g.ID))
	})
}
