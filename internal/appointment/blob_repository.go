package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	blobSchemaVersion = 1

	ServicesKey     = "services"
	AppointmentsKey = "appointments"
)

// BlobStore is a key-scoped store of opaque documents, one key per
// collection.
type BlobStore interface {
	// Get returns nil data and a nil error when key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// Update replaces the document at key with the result of fn, applied
	// atomically with respect to other Update calls. If fn returns nil data
	// nothing is written.
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	Ping(ctx context.Context) error
}

type blobDocument[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// decodeBlob accepts a versioned document, or a bare JSON array written by
// the unversioned storefront.
func decodeBlob[T any](data []byte) ([]T, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, true, fmt.Errorf("decode legacy document: %w", err)
		}
		return items, true, nil
	}

	var doc blobDocument[T]
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, true, fmt.Errorf("decode document: %w", err)
	}
	if doc.Version != blobSchemaVersion {
		return nil, true, fmt.Errorf("%w: document version %d, want %d", ErrSchemaMismatch, doc.Version, blobSchemaVersion)
	}
	return doc.Items, true, nil
}

func encodeBlob[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.MarshalIndent(blobDocument[T]{Version: blobSchemaVersion, Items: items}, "", "  ")
}

// BlobRepository keeps each collection as one JSON document in a BlobStore.
// A missing services document reads as DefaultCatalog.
type BlobRepository struct {
	blobs BlobStore
}

func NewBlobRepository(blobs BlobStore) *BlobRepository {
	return &BlobRepository{blobs: blobs}
}

func (r *BlobRepository) Ping(ctx context.Context) error {
	return r.blobs.Ping(ctx)
}

func (r *BlobRepository) loadServices(data []byte) ([]Service, error) {
	services, found, err := decodeBlob[Service](data)
	if err != nil {
		return nil, err
	}
	if !found {
		return defaultCatalog(), nil
	}
	return services, nil
}

func (r *BlobRepository) ListServices(ctx context.Context) ([]Service, error) {
	data, err := r.blobs.Get(ctx, ServicesKey)
	if err != nil {
		return nil, err
	}
	return r.loadServices(data)
}

func (r *BlobRepository) CreateService(ctx context.Context, svc Service) (Service, error) {
	err := r.blobs.Update(ctx, ServicesKey, func(current []byte) ([]byte, error) {
		services, err := r.loadServices(current)
		if err != nil {
			return nil, err
		}
		for _, s := range services {
			if s.ID == svc.ID {
				return nil, ErrServiceExists
			}
		}
		return encodeBlob(append(services, svc))
	})
	if err != nil {
		return Service{}, err
	}
	return svc, nil
}

func (r *BlobRepository) UpdateService(ctx context.Context, svc Service) error {
	return r.blobs.Update(ctx, ServicesKey, func(current []byte) ([]byte, error) {
		services, err := r.loadServices(current)
		if err != nil {
			return nil, err
		}
		for i := range services {
			if services[i].ID == svc.ID {
				services[i] = svc
				return encodeBlob(services)
			}
		}
		return nil, nil
	})
}

func (r *BlobRepository) DeleteService(ctx context.Context, id string) error {
	return r.blobs.Update(ctx, ServicesKey, func(current []byte) ([]byte, error) {
		services, err := r.loadServices(current)
		if err != nil {
			return nil, err
		}
		kept := services[:0]
		for _, s := range services {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		if len(kept) == len(services) {
			return nil, nil
		}
		return encodeBlob(kept)
	})
}

func (r *BlobRepository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	data, err := r.blobs.Get(ctx, AppointmentsKey)
	if err != nil {
		return nil, err
	}
	appts, _, err := decodeBlob[Appointment](data)
	return appts, err
}

func (r *BlobRepository) InsertAppointment(ctx context.Context, appt Appointment) (Appointment, error) {
	err := r.blobs.Update(ctx, AppointmentsKey, func(current []byte) ([]byte, error) {
		appts, _, err := decodeBlob[Appointment](current)
		if err != nil {
			return nil, err
		}
		return encodeBlob(append([]Appointment{appt}, appts...))
	})
	if err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

func (r *BlobRepository) UpdateAppointment(ctx context.Context, id string, upd AppointmentUpdate) error {
	if upd.Empty() {
		return nil
	}
	return r.blobs.Update(ctx, AppointmentsKey, func(current []byte) ([]byte, error) {
		appts, _, err := decodeBlob[Appointment](current)
		if err != nil {
			return nil, err
		}
		for i := range appts {
			if appts[i].ID == id {
				upd.apply(&appts[i])
				return encodeBlob(appts)
			}
		}
		return nil, nil
	})
}

func (r *BlobRepository) DeleteAppointment(ctx context.Context, id string) error {
	return r.blobs.Update(ctx, AppointmentsKey, func(current []byte) ([]byte, error) {
		appts, _, err := decodeBlob[Appointment](current)
		if err != nil {
			return nil, err
		}
		kept := appts[:0]
		for _, a := range appts {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(appts) {
			return nil, nil
		}
		return encodeBlob(kept)
	})
}

// MemoryBlobs is a process-local BlobStore.
type MemoryBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{data: make(map[string][]byte)}
}

func (m *MemoryBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.data[key]), nil
}

func (m *MemoryBlobs) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fn(bytes.Clone(m.data[key]))
	if err != nil || next == nil {
		return err
	}
	m.data[key] = next
	return nil
}

func (m *MemoryBlobs) Ping(ctx context.Context) error {
	return ctx.Err()
}

// FileBlobs stores each key as <dir>/<key>.json. Writes go through a temp
// file and rename. It is safe for one process only.
type FileBlobs struct {
	dir string
	mu  sync.Mutex
}

func NewFileBlobs(dir string) (*FileBlobs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBlobs{dir: dir}, nil
}

func (f *FileBlobs) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileBlobs) read(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrBackendUnavailable, key, err)
	}
	return data, nil
}

func (f *FileBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(key)
}

func (f *FileBlobs) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read(key)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}
	if err := f.write(key, next); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrBackendUnavailable, key, err)
	}
	return nil
}

func (f *FileBlobs) write(key string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

func (f *FileBlobs) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrBackendUnavailable, f.dir)
	}
	return nil
}
