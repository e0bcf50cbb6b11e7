package measurement

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	measurementBucketName = "measurements"
	figureBucketName      = "figures"
)

// ErrNotFound is returned when a measurement or figure does not exist
var ErrNotFound = errors.New("not found")

// DB defines the interface for database operations
type DB interface {
	// SaveMeasurement saves a measurement to the database
	SaveMeasurement(m *Measurement) error

	// GetMeasurement retrieves a measurement by ID
	GetMeasurement(id string) (*Measurement, error)

	// ListMeasurements returns all measurements, oldest first
	ListMeasurements() ([]*Measurement, error)

	// DeleteMeasurement removes a measurement from the database
	DeleteMeasurement(id string) error

	// SaveFigure saves a figure to the database
	SaveFigure(f *Figure) error

	// GetFigure retrieves a figure by ID
	GetFigure(id string) (*Figure, error)

	// ListFigures returns all figures, oldest first
	ListFigures() ([]*Figure, error)

	// DeleteFigure removes a figure from the database
	DeleteFigure(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens or creates the database file at path
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{measurementBucketName, figureBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// put JSON encodes value under key in bucket
func (b *BoltDB) put(bucket, key string, value any) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", bucket, err)
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
	})
}

// get decodes the value stored under key in bucket into value
func (b *BoltDB) get(bucket, key string, value any) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: %s %s", ErrNotFound, bucket, key)
		}
		return json.Unmarshal(data, value)
	})
}

// remove deletes key from bucket, failing if it is absent
func (b *BoltDB) remove(bucket, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt.Get([]byte(key)) == nil {
			return fmt.Errorf("%w: %s %s", ErrNotFound, bucket, key)
		}
		return bkt.Delete([]byte(key))
	})
}

// SaveMeasurement saves a measurement to the database
func (b *BoltDB) SaveMeasurement(m *Measurement) error {
	return b.put(measurementBucketName, m.ID, m)
}

// GetMeasurement retrieves a measurement by ID
func (b *BoltDB) GetMeasurement(id string) (*Measurement, error) {
	var m Measurement
	if err := b.get(measurementBucketName, id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMeasurements returns all measurements, oldest first
func (b *BoltDB) ListMeasurements() ([]*Measurement, error) {
	measurements := make([]*Measurement, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(measurementBucketName)).ForEach(func(k, v []byte) error {
			var m Measurement
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("unmarshaling measurement: %w", err)
			}
			measurements = append(measurements, &m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(measurements, func(i, j int) bool {
		return measurements[i].CreatedAt.Before(measurements[j].CreatedAt)
	})
	return measurements, nil
}

// DeleteMeasurement removes a measurement from the database
func (b *BoltDB) DeleteMeasurement(id string) error {
	return b.remove(measurementBucketName, id)
}

// SaveFigure saves a figure to the database
func (b *BoltDB) SaveFigure(f *Figure) error {
	return b.put(figureBucketName, f.ID, f)
}

// GetFigure retrieves a figure by ID
func (b *BoltDB) GetFigure(id string) (*Figure, error) {
	var f Figure
	if err := b.get(figureBucketName, id, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFigures returns all figures, oldest first
func (b *BoltDB) ListFigures() ([]*Figure, error) {
	figures := make([]*Figure, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(figureBucketName)).ForEach(func(k, v []byte) error {
			var f Figure
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("unmarshaling figure: %w", err)
			}
			figures = append(figures, &f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(figures, func(i, j int) bool {
		return figures[i].CreatedAt.Before(figures[j].CreatedAt)
	})
	return figures, nil
}

// DeleteFigure removes a figure from the database
func (b *BoltDB) DeleteFigure(id string) error {
	return b.remove(figureBucketName, id)
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
