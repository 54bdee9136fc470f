package orm

import (
	"reflect"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	// Validate returns error if the model is not in a valid
	// state to save to the db (eg. field missing, out of range, ...)
	Validate() error
	// Copy returns a deep copy that does not share memory with the
	// original.
	Copy() Model
}

// ModelSlicePtr represents a pointer to a slice of models. Think of it as
// *[]Model Because of Go type system, using []Model type would not work for us.
// Instead we use a placeholder type and the validation is done during the
// runtime.
type ModelSlicePtr interface{}

// ModelBucket is implemented by buckets that operates on Models rather than
// raw bytes.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity,
	// ErrInvalidType is returned.
	One(db bounty.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns true if an entity with given key exists.
	Has(db bounty.ReadOnlyKVStore, key []byte) (bool, error)

	// ByPrefix loads all entities whose key starts with given prefix into
	// destination and returns their keys, in ascending order.
	// Destination must be a pointer to a slice of models.
	ByPrefix(db bounty.ReadOnlyKVStore, prefix []byte, dest ModelSlicePtr) ([][]byte, error)

	// Put saves given model in the database.
	Put(db bounty.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db bounty.KVStore, key []byte) error

	// Register registers the underlying bucket for queries.
	Register(name string, r bounty.QueryRouter)
}

// NewModelBucket returns a ModelBucket instance that stores models of the
// same type as given example. Example must be a pointer.
func NewModelBucket(name string, example Model) ModelBucket {
	tp := reflect.TypeOf(example)
	if tp == nil || tp.Kind() != reflect.Ptr {
		panic("model bucket example must be a pointer")
	}
	return &modelBucket{
		b:     NewBucket(name),
		model: tp,
	}
}

type modelBucket struct {
	b     Bucket
	model reflect.Type
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) One(db bounty.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != mb.model {
		return errors.Wrapf(errors.ErrInvalidType, "%T cannot be represented as %s", dest, mb.model)
	}
	bz, err := mb.b.Get(db, key)
	if err != nil {
		return err
	}
	if bz == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	return Unmarshal(bz, dest)
}

func (mb *modelBucket) Has(db bounty.ReadOnlyKVStore, key []byte) (bool, error) {
	return mb.b.Has(db, key)
}

func (mb *modelBucket) ByPrefix(db bounty.ReadOnlyKVStore, prefix []byte, dest ModelSlicePtr) ([][]byte, error) {
	dstv := reflect.ValueOf(dest)
	if dstv.Kind() != reflect.Ptr || dstv.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(errors.ErrHuman, "destination must be a pointer to slice of models, got %T", dest)
	}
	slice := dstv.Elem()
	elemType := slice.Type().Elem()
	asPtr := elemType == mb.model
	if !asPtr && reflect.PtrTo(elemType) != mb.model {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%s cannot be represented as %s", elemType, mb.model)
	}

	found, err := queryPrefix(db, mb.b.DBKey(prefix))
	if err != nil {
		return nil, err
	}
	keys := make([][]byte, 0, len(found))
	for _, m := range found {
		item := reflect.New(mb.model.Elem())
		if err := Unmarshal(m.Value, item.Interface()); err != nil {
			return nil, errors.Wrapf(err, "key %X", m.Key)
		}
		if asPtr {
			slice = reflect.Append(slice, item)
		} else {
			slice = reflect.Append(slice, item.Elem())
		}
		keys = append(keys, m.Key[len(mb.b.prefix):])
	}
	dstv.Elem().Set(slice)
	return keys, nil
}

func (mb *modelBucket) Put(db bounty.KVStore, key []byte, m Model) error {
	if reflect.TypeOf(m) != mb.model {
		return errors.Wrapf(errors.ErrInvalidType, "cannot store %T in %s bucket", m, mb.b.name)
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	bz, err := Marshal(m)
	if err != nil {
		return err
	}
	if err := mb.b.Set(db, key, bz); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db bounty.KVStore, key []byte) error {
	ok, err := mb.b.Has(db, key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.model)
	}
	return mb.b.Delete(db, key)
}

func (mb *modelBucket) Register(name string, r bounty.QueryRouter) {
	mb.b.Register(name, r)
}
