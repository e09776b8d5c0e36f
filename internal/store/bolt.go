package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/erazemk/magicvilla/internal/model"
)

var (
	villasBucket = []byte("villas")
	imagesBucket = []byte("villa_images")
)

// Bolt is a Store backed by an embedded BoltDB file. Villas are JSON values
// keyed by their big-endian ID, so iteration order is ID order.
type Bolt struct {
	db *bolt.DB
}

var _ Store = (*Bolt)(nil)

type storedImage struct {
	Data []byte `json:"data"`
	MIME string `json:"mime"`
}

// OpenBolt opens (or creates) a BoltDB file and ensures its buckets exist.
func OpenBolt(path string) (*Bolt, error) {
	database, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	err = database.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{villasBucket, imagesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating bolt buckets: %w", err)
	}

	return &Bolt{db: database}, nil
}

func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func getVilla(b *bolt.Bucket, id int64) (*model.Villa, error) {
	raw := b.Get(itob(id))
	if raw == nil {
		return nil, nil
	}
	var v model.Villa
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding villa %d: %w", id, err)
	}
	return &v, nil
}

func putVilla(b *bolt.Bucket, v *model.Villa) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding villa: %w", err)
	}
	return b.Put(itob(v.ID), data)
}

// Insert creates a villa and returns it with its assigned ID.
func (s *Bolt) Insert(ctx context.Context, v *model.Villa) (*model.Villa, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	created := *v
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(villasBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		created.ID = int64(seq)
		return putVilla(b, &created)
	})
	if err != nil {
		return nil, fmt.Errorf("creating villa: %w", err)
	}
	return &created, nil
}

// FindByID returns a villa by ID.
func (s *Bolt) FindByID(ctx context.Context, id int64) (*model.Villa, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var v *model.Villa
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		v, err = getVilla(tx.Bucket(villasBucket), id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting villa: %w", err)
	}
	return v, nil
}

// FindByName returns the first villa whose name equals name, ignoring case.
func (s *Bolt) FindByName(ctx context.Context, name string) (*model.Villa, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := model.NameKey(name)
	var found *model.Villa
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(villasBucket).Cursor()
		for k, raw := c.First(); k != nil; k, raw = c.Next() {
			var v model.Villa
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			if model.NameKey(v.Name) == key {
				found = &v
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding villa by name: %w", err)
	}
	return found, nil
}

// List returns all villas ordered by ID.
func (s *Bolt) List(ctx context.Context) ([]model.Villa, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var villas []model.Villa
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(villasBucket).ForEach(func(_, raw []byte) error {
			var v model.Villa
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			villas = append(villas, v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing villas: %w", err)
	}
	return villas, nil
}

// Update overwrites a villa, keeping its stored creation time.
func (s *Bolt) Update(ctx context.Context, v *model.Villa) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return updateBoltVilla(tx.Bucket(villasBucket), v)
	})
}

func updateBoltVilla(b *bolt.Bucket, v *model.Villa) error {
	existing, err := getVilla(b, v.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	updated := *v
	updated.CreatedAt = existing.CreatedAt
	return putVilla(b, &updated)
}

// Remove deletes a villa and its image.
func (s *Bolt) Remove(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(villasBucket)
		key := itob(id)
		if b.Get(key) == nil {
			return ErrNotFound
		}
		if err := b.Delete(key); err != nil {
			return err
		}
		return tx.Bucket(imagesBucket).Delete(key)
	})
}

// SetImage stores a villa's image and updates the villa in one transaction.
func (s *Bolt) SetImage(ctx context.Context, v *model.Villa, data []byte, mime string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := json.Marshal(storedImage{Data: data, MIME: mime})
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := updateBoltVilla(tx.Bucket(villasBucket), v); err != nil {
			return err
		}
		return tx.Bucket(imagesBucket).Put(itob(v.ID), img)
	})
}

// Image returns a villa's image data and MIME type, or nil data if none.
func (s *Bolt) Image(ctx context.Context, id int64) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	var img *storedImage
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(imagesBucket).Get(itob(id))
		if raw == nil {
			return nil
		}
		img = &storedImage{}
		return json.Unmarshal(raw, img)
	})
	if err != nil {
		return nil, "", fmt.Errorf("getting villa image: %w", err)
	}
	if img == nil {
		return nil, "", nil
	}
	return img.Data, img.MIME, nil
}

// Ping checks that the database file is readable.
func (s *Bolt) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(villasBucket) == nil {
			return fmt.Errorf("bucket %s missing", villasBucket)
		}
		return nil
	})
}

// Close releases the database file lock.
func (s *Bolt) Close() error {
	return s.db.Close()
}
