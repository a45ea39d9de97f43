package storefront

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	// ErrVendorNotFound is returned when no document is registered for a vendor.
	ErrVendorNotFound = errors.New("storefront: vendor not found")
	// ErrInvalidVendorID is returned for vendor ids that cannot appear in a route.
	ErrInvalidVendorID = errors.New("storefront: invalid vendor id")
	// ErrUnsupportedPage is returned for route slugs that name no page type.
	ErrUnsupportedPage = errors.New("storefront: unsupported page")
)

var (
	vendorIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	validate        = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("vendorid", func(fl validator.FieldLevel) bool {
		return vendorIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateVendorID checks that id is a lower-case route-safe identifier.
func ValidateVendorID(id string) error {
	if err := validate.Var(id, "required,max=64,vendorid"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidVendorID, id)
	}
	return nil
}

// Snapshot is an immutable view of a vendor document at one revision.
// Callers must not mutate Document.
type Snapshot struct {
	VendorID string
	Document Document
	Revision uint64
}

// Store keeps the current template document of every vendor in memory.
type Store struct {
	mu      sync.RWMutex
	vendors map[string]Snapshot
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{vendors: make(map[string]Snapshot)}
}

// Get returns the vendor's current snapshot.
func (s *Store) Get(vendorID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.vendors[vendorID]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrVendorNotFound, vendorID)
	}
	return snap, nil
}

// Revision returns the vendor's current revision, or 0 when unknown.
func (s *Store) Revision(vendorID string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vendors[vendorID].Revision
}

// Put replaces the vendor's document and bumps its revision. The document is deep-copied.
func (s *Store) Put(vendorID string, doc Document) (uint64, error) {
	if err := ValidateVendorID(vendorID); err != nil {
		return 0, err
	}
	if doc == nil {
		doc = Document{}
	}
	cloned, err := doc.Clone()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rev := s.vendors[vendorID].Revision + 1
	s.vendors[vendorID] = Snapshot{VendorID: vendorID, Document: cloned, Revision: rev}
	return rev, nil
}

// Vendors lists registered vendor ids in sorted order.
func (s *Store) Vendors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.vendors))
	for id := range s.vendors {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LoadDir seeds the store from <vendorID>.yaml, .yml or .json files in dir.
// A missing directory is not an error. It returns the number of documents loaded.
func LoadDir(ctx context.Context, store *Store, dir string, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("content directory not found", zap.String("dir", dir))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storefront: read content dir %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		vendorID := strings.TrimSuffix(name, filepath.Ext(name))
		doc, err := ReadDocument(filepath.Join(dir, name))
		if err != nil {
			return loaded, err
		}
		if _, err := store.Put(vendorID, doc); err != nil {
			return loaded, fmt.Errorf("storefront: register %s: %w", name, err)
		}
		logger.Debug("template document loaded", zap.String("vendor_id", vendorID), zap.String("file", name))
		loaded++
	}
	return loaded, nil
}

// ReadDocument decodes a YAML or JSON template document from disk.
func ReadDocument(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storefront: read %s: %w", path, err)
	}
	return DecodeDocument(raw)
}

// DecodeDocument decodes YAML (and therefore JSON) bytes into a Document.
func DecodeDocument(raw []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("storefront: decode document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}
