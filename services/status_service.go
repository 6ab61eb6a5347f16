package services

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"project-management-api/models"
)

// Cached display-name lookups for task statuses and priorities. Triggers
// render "old → new" transitions with these names, never raw ids.

var (
	lookupMu  sync.RWMutex
	lookupTTL = 5 * time.Minute

	statusLookup   *lookupCacheEntry
	priorityLookup *lookupCacheEntry
)

type lookupCacheEntry struct {
	byID      map[uint]string
	fetchedAt time.Time
}

func loadStatusNames(db *gorm.DB, force bool) (*lookupCacheEntry, error) {
	lookupMu.RLock()
	cached := statusLookup
	lookupMu.RUnlock()

	if cached != nil && !force && time.Since(cached.fetchedAt) < lookupTTL {
		return cached, nil
	}

	lookupMu.Lock()
	defer lookupMu.Unlock()

	if statusLookup != nil && !force && time.Since(statusLookup.fetchedAt) < lookupTTL {
		return statusLookup, nil
	}

	var rows []models.TaskStatus
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load task statuses: %w", err)
	}

	byID := make(map[uint]string, len(rows))
	for _, row := range rows {
		byID[row.StatusID] = row.StatusName
	}

	entry := &lookupCacheEntry{byID: byID, fetchedAt: time.Now()}
	statusLookup = entry
	return entry, nil
}

func loadPriorityNames(db *gorm.DB, force bool) (*lookupCacheEntry, error) {
	lookupMu.RLock()
	cached := priorityLookup
	lookupMu.RUnlock()

	if cached != nil && !force && time.Since(cached.fetchedAt) < lookupTTL {
		return cached, nil
	}

	lookupMu.Lock()
	defer lookupMu.Unlock()

	if priorityLookup != nil && !force && time.Since(priorityLookup.fetchedAt) < lookupTTL {
		return priorityLookup, nil
	}

	var rows []models.TaskPriority
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load task priorities: %w", err)
	}

	byID := make(map[uint]string, len(rows))
	for _, row := range rows {
		byID[row.PriorityID] = row.PriorityName
	}

	entry := &lookupCacheEntry{byID: byID, fetchedAt: time.Now()}
	priorityLookup = entry
	return entry, nil
}

// ClearLookupCache invalidates the in-memory display-name caches.
func ClearLookupCache() {
	lookupMu.Lock()
	defer lookupMu.Unlock()
	statusLookup = nil
	priorityLookup = nil
}

// TaskStatusName resolves a status display name, refreshing the cache once on
// a miss before falling back to a placeholder.
func TaskStatusName(db *gorm.DB, statusID uint) string {
	entry, err := loadStatusNames(db, false)
	if err == nil {
		if name, ok := entry.byID[statusID]; ok {
			return name
		}
		if entry, err = loadStatusNames(db, true); err == nil {
			if name, ok := entry.byID[statusID]; ok {
				return name
			}
		}
	}
	return fmt.Sprintf("status #%d", statusID)
}

// TaskPriorityName resolves a priority display name, same refresh policy as
// TaskStatusName.
func TaskPriorityName(db *gorm.DB, priorityID uint) string {
	entry, err := loadPriorityNames(db, false)
	if err == nil {
		if name, ok := entry.byID[priorityID]; ok {
			return name
		}
		if entry, err = loadPriorityNames(db, true); err == nil {
			if name, ok := entry.byID[priorityID]; ok {
				return name
			}
		}
	}
	return fmt.Sprintf("priority #%d", priorityID)
}
