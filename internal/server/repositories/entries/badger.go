package entries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// Key layout:
//
//	entry:<id>                        JSON-encoded models.Entry
//	child:<owner>:<parent>:<lower>    id of the child named <lower> (parent 0 = root)
//	owned:<owner>:<id>                empty; enumerates an owner's entries
//	seq:entries                       id sequence
//
// Numbers are zero-padded to 20 digits so prefix scans stay unambiguous.
const (
	prefixEntry  = "entry:"
	prefixChild  = "child:"
	prefixOwned  = "owned:"
	seqKey       = "seq:entries"
	seqBandwidth = 64
)

func keyEntry(id int64) []byte {
	return fmt.Appendf(nil, "%s%020d", prefixEntry, id)
}

func keyChildPrefix(ownerID int64, parentID *int64) []byte {
	var p int64
	if parentID != nil {
		p = *parentID
	}
	return fmt.Appendf(nil, "%s%020d:%020d:", prefixChild, ownerID, p)
}

func keyChild(ownerID int64, parentID *int64, name string) []byte {
	return append(keyChildPrefix(ownerID, parentID), strings.ToLower(name)...)
}

func keyOwnedPrefix(ownerID int64) []byte {
	return fmt.Appendf(nil, "%s%020d:", prefixOwned, ownerID)
}

func keyOwned(ownerID, id int64) []byte {
	return fmt.Appendf(keyOwnedPrefix(ownerID), "%020d", id)
}

// BadgerRepository implements Repository on an embedded BadgerDB.
//
// Every mutation runs in one badger transaction; badger's conflict detection
// turns concurrent writers racing on the same sibling name or parent into
// common.ErrConflict for the loser.
type BadgerRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	now func() time.Time
}

// NewBadgerRepository leases an id sequence on db. Close must be called to
// return the unused part of the lease.
func NewBadgerRepository(db *badger.DB) (*BadgerRepository, error) {
	seq, err := db.GetSequence([]byte(seqKey), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("entries sequence: %w", err)
	}
	return &BadgerRepository{db: db, seq: seq, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (r *BadgerRepository) Close() error {
	return r.seq.Release()
}

func (r *BadgerRepository) nextID() (int64, error) {
	n, err := r.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("entries sequence: %w", err)
	}
	// badger sequences start at 0; ids start at 1 so 0 can mean root
	return int64(n) + 1, nil
}

func loadEntry(txn *badger.Txn, id int64) (*models.Entry, error) {
	item, err := txn.Get(keyEntry(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger error: %w", err)
	}
	var e models.Entry
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
		return nil, fmt.Errorf("decode entry %d: %w", id, err)
	}
	return &e, nil
}

func storeEntry(txn *badger.Txn, e *models.Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry %d: %w", e.ID, err)
	}
	return txn.Set(keyEntry(e.ID), b)
}

func mapTxnErr(err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: concurrent update", common.ErrConflict)
	}
	return err
}

func (r *BadgerRepository) Create(ctx context.Context, e *models.Entry) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := r.nextID()
	if err != nil {
		return nil, err
	}

	created := *e
	created.ID = id
	created.CreatedAt = r.now()
	created.UpdatedAt = created.CreatedAt

	err = r.db.Update(func(txn *badger.Txn) error {
		if created.ParentID != nil {
			parent, err := loadEntry(txn, *created.ParentID)
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidParent
			}
			if err != nil {
				return err
			}
			if !parent.IsFolder || parent.OwnerID != created.OwnerID {
				return common.ErrInvalidParent
			}
			// unchanged rewrite puts the parent in our write set, so a
			// concurrent Delete of it conflicts instead of orphaning us
			if err := storeEntry(txn, parent); err != nil {
				return err
			}
		}

		ck := keyChild(created.OwnerID, created.ParentID, created.Name)
		if _, err := txn.Get(ck); err == nil {
			return common.ErrNameConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("badger error: %w", err)
		}

		if err := storeEntry(txn, &created); err != nil {
			return err
		}
		if err := txn.Set(ck, fmt.Appendf(nil, "%d", created.ID)); err != nil {
			return err
		}
		return txn.Set(keyOwned(created.OwnerID, created.ID), nil)
	})
	if err != nil {
		return nil, mapTxnErr(err)
	}

	*e = created
	return e, nil
}

func (r *BadgerRepository) Get(ctx context.Context, id int64) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var e *models.Entry
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		e, err = loadEntry(txn, id)
		return err
	})
	return e, err
}

func (r *BadgerRepository) FindByName(ctx context.Context, ownerID int64, parentID *int64, name string) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var e *models.Entry
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyChild(ownerID, parentID, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return common.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("badger error: %w", err)
		}
		var id int64
		if err := item.Value(func(val []byte) error {
			_, err := fmt.Sscanf(string(val), "%d", &id)
			return err
		}); err != nil {
			return fmt.Errorf("decode child index: %w", err)
		}
		e, err = loadEntry(txn, id)
		return err
	})
	return e, err
}

func (r *BadgerRepository) HasChildren(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var busy bool
	err := r.db.View(func(txn *badger.Txn) error {
		e, err := loadEntry(txn, id)
		if err != nil {
			return err
		}
		busy = hasChildKeys(txn, e.OwnerID, &e.ID)
		return nil
	})
	return busy, err
}

func hasChildKeys(txn *badger.Txn, ownerID int64, parentID *int64) bool {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = keyChildPrefix(ownerID, parentID)
	it := txn.NewIterator(opts)
	defer it.Close()
	it.Rewind()
	return it.Valid()
}

func (r *BadgerRepository) ListChildren(ctx context.Context, ownerID int64, parentID *int64) ([]*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]*models.Entry, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		ids, err := collectChildIDs(txn, ownerID, parentID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			e, err := loadEntry(txn, id)
			if err != nil {
				return err
			}
			result = append(result, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(result, compareListing)
	return result, nil
}

func collectChildIDs(txn *badger.Txn, ownerID int64, parentID *int64) ([]int64, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyChildPrefix(ownerID, parentID)
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []int64
	for it.Rewind(); it.Valid(); it.Next() {
		var id int64
		if err := it.Item().Value(func(val []byte) error {
			_, err := fmt.Sscanf(string(val), "%d", &id)
			return err
		}); err != nil {
			return nil, fmt.Errorf("decode child index: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// compareListing orders folders first, then by lowercased name, then by id.
func compareListing(a, b *models.Entry) int {
	if a.IsFolder != b.IsFolder {
		if a.IsFolder {
			return -1
		}
		return 1
	}
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return compareInt64(a.ID, b.ID)
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (r *BadgerRepository) Rename(ctx context.Context, id int64, newName string) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var renamed *models.Entry
	err := r.db.Update(func(txn *badger.Txn) error {
		e, err := loadEntry(txn, id)
		if err != nil {
			return err
		}

		oldKey := keyChild(e.OwnerID, e.ParentID, e.Name)
		newKey := keyChild(e.OwnerID, e.ParentID, newName)

		if string(oldKey) != string(newKey) {
			if _, err := txn.Get(newKey); err == nil {
				return common.ErrNameConflict
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("badger error: %w", err)
			}
			if err := txn.Delete(oldKey); err != nil {
				return err
			}
			if err := txn.Set(newKey, fmt.Appendf(nil, "%d", e.ID)); err != nil {
				return err
			}
		}

		e.Name = newName
		e.UpdatedAt = r.now()
		if err := storeEntry(txn, e); err != nil {
			return err
		}
		renamed = e
		return nil
	})
	if err != nil {
		return nil, mapTxnErr(err)
	}
	return renamed, nil
}

func (r *BadgerRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		e, err := loadEntry(txn, id)
		if err != nil {
			return err
		}
		if e.IsFolder && hasChildKeys(txn, e.OwnerID, &e.ID) {
			return common.ErrNotEmpty
		}
		if err := txn.Delete(keyEntry(e.ID)); err != nil {
			return err
		}
		if err := txn.Delete(keyChild(e.OwnerID, e.ParentID, e.Name)); err != nil {
			return err
		}
		return txn.Delete(keyOwned(e.OwnerID, e.ID))
	})
	return mapTxnErr(err)
}

// eachOwned calls fn for every entry of the owner inside one read transaction.
func (r *BadgerRepository) eachOwned(ownerID int64, fn func(e *models.Entry)) error {
	return r.db.View(func(txn *badger.Txn) error {
		prefix := keyOwnedPrefix(ownerID)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var id int64
			if _, err := fmt.Sscanf(string(it.Item().Key()[len(prefix):]), "%d", &id); err != nil {
				return fmt.Errorf("decode owner index: %w", err)
			}
			e, err := loadEntry(txn, id)
			if err != nil {
				return err
			}
			fn(e)
		}
		return nil
	})
}

func (r *BadgerRepository) TotalFileBytes(ctx context.Context, ownerID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var total int64
	err := r.eachOwned(ownerID, func(e *models.Entry) {
		if !e.IsFolder {
			total += e.SizeBytes
		}
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *BadgerRepository) Search(ctx context.Context, ownerID int64, term string) ([]*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	result := make([]*models.Entry, 0)
	err := r.eachOwned(ownerID, func(e *models.Entry) {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			result = append(result, e)
		}
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(result, func(a, b *models.Entry) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return compareInt64(b.ID, a.ID)
	})
	return result, nil
}
