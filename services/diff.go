package services

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// FieldChange is one user-significant difference between the old and the new
// row of a domain entity.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Describe renders a change for the notification message. Fields with both
// values render as "field: old → new"; fields tracked only as changed render
// as "field updated".
func (c FieldChange) Describe() string {
	if c.Old == "" && c.New == "" {
		return c.Field + " updated"
	}
	return fmt.Sprintf("%s: %s → %s", c.Field, c.Old, c.New)
}

// DescribeChanges joins the rendered change list.
func DescribeChanges(changes []FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, c.Describe())
	}
	return strings.Join(parts, "; ")
}

// ChangesInclude reports whether any change touches one of the given fields.
func ChangesInclude(changes []FieldChange, fields ...string) bool {
	for _, c := range changes {
		for _, f := range fields {
			if c.Field == f {
				return true
			}
		}
	}
	return false
}

// ExcludeActor filters the actor out of a recipient set and drops duplicates.
// The actor of a change is never notified of their own action.
func ExcludeActor(recipients []uint, actorID uint) []uint {
	seen := make(map[uint]bool, len(recipients))
	out := make([]uint, 0, len(recipients))
	for _, id := range recipients {
		if id == 0 || id == actorID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// fanOut dispatches one notification per recipient, excluding the actor. It
// stops on the first error so the surrounding transaction aborts as a whole.
func fanOut(tx *gorm.DB, recipients []uint, actorID uint, build func(userID uint) CreateNotificationInput) error {
	for _, userID := range ExcludeActor(recipients, actorID) {
		if _, err := CreateNotification(tx, build(userID)); err != nil {
			return err
		}
	}
	return nil
}

func formatDueDate(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Format("2006-01-02")
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalUintPtr(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
