package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"WineScout/internal/domain"
	"WineScout/internal/ports"
)

// ErrInvalidOwner rejects owner ids that cannot name a store file. The
// id arrives from the client, so anything resembling a path is refused.
var ErrInvalidOwner = errors.New("invalid owner id")

// LocalFileStore keeps guest lists in one JSON file per owner (device)
// under a data directory. Guests have no account, so their lists live
// on the machine that created them.
type LocalFileStore struct {
	dir string
	mu  sync.Mutex
}

var _ ports.FavoritesStore = (*LocalFileStore)(nil)

// NewLocalFileStore creates the data directory if needed.
func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create favorites dir: %w", err)
	}
	return &LocalFileStore{dir: dir}, nil
}

// Lists returns every list owned by ownerID, oldest first.
func (s *LocalFileStore) Lists(ctx context.Context, ownerID string) ([]domain.WineList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, err := s.load(ownerID)
	if err != nil {
		return nil, err
	}

	lists := make([]domain.WineList, 0, len(byID))
	for _, list := range byID {
		lists = append(lists, list)
	}
	sort.Slice(lists, func(i, j int) bool {
		return lists[i].CreatedAt.Before(lists[j].CreatedAt)
	})
	return lists, nil
}

// GetList fetches one list owned by ownerID.
func (s *LocalFileStore) GetList(ctx context.Context, ownerID, listID string) (domain.WineList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, err := s.load(ownerID)
	if err != nil {
		return domain.WineList{}, err
	}
	list, ok := byID[listID]
	if !ok {
		return domain.WineList{}, ErrListNotFound
	}
	return list, nil
}

// SaveList creates or replaces a list.
func (s *LocalFileStore) SaveList(ctx context.Context, list domain.WineList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, err := s.load(list.OwnerID)
	if err != nil {
		return err
	}
	list.UpdatedAt = time.Now()
	byID[list.ID] = list
	return s.store(list.OwnerID, byID)
}

// DeleteList removes one list owned by ownerID.
func (s *LocalFileStore) DeleteList(ctx context.Context, ownerID, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, err := s.load(ownerID)
	if err != nil {
		return err
	}
	if _, ok := byID[listID]; !ok {
		return ErrListNotFound
	}
	delete(byID, listID)
	return s.store(ownerID, byID)
}

// AddWine appends a product id unless it is already present.
func (s *LocalFileStore) AddWine(ctx context.Context, ownerID, listID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, err := s.load(ownerID)
	if err != nil {
		return err
	}
	list, ok := byID[listID]
	if !ok {
		return ErrListNotFound
	}
	for _, id := range list.ProductIDs {
		if id == productID {
			return nil
		}
	}
	list.ProductIDs = append(list.ProductIDs, productID)
	list.UpdatedAt = time.Now()
	byID[listID] = list
	return s.store(ownerID, byID)
}

// RemoveWine drops a product id; absent ids are a no-op.
func (s *LocalFileStore) RemoveWine(ctx context.Context, ownerID, listID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, err := s.load(ownerID)
	if err != nil {
		return err
	}
	list, ok := byID[listID]
	if !ok {
		return ErrListNotFound
	}
	kept := list.ProductIDs[:0]
	for _, id := range list.ProductIDs {
		if id != productID {
			kept = append(kept, id)
		}
	}
	list.ProductIDs = kept
	list.UpdatedAt = time.Now()
	byID[listID] = list
	return s.store(ownerID, byID)
}

func (s *LocalFileStore) path(ownerID string) (string, error) {
	if ownerID == "" ||
		strings.ContainsAny(ownerID, `/\`) ||
		strings.Contains(ownerID, "..") ||
		ownerID != filepath.Base(ownerID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidOwner, ownerID)
	}
	return filepath.Join(s.dir, ownerID+".json"), nil
}

func (s *LocalFileStore) load(ownerID string) (map[string]domain.WineList, error) {
	path, err := s.path(ownerID)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]domain.WineList{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read favorites file: %w", err)
	}

	var byID map[string]domain.WineList
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, fmt.Errorf("parse favorites file: %w", err)
	}
	return byID, nil
}

func (s *LocalFileStore) store(ownerID string, byID map[string]domain.WineList) error {
	path, err := s.path(ownerID)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(byID, "", "  ")
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write favorites file: %w", err)
	}
	return nil
}
