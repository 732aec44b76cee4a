package taskapi

import (
	"regexp"
	"testing"
	"time"
)

var taskIDPattern = regexp.MustCompile(`^TASK_[0-9]{10}[0-9A-F]{12}$`)
var categoryIDPattern = regexp.MustCompile(`^CAT_[0-9]{10}[0-9A-F]{12}$`)

func TestTaskIDFormat(t *testing.T) {
	g := NewIDGenerator("secret")
	id := g.TaskID()
	if !taskIDPattern.MatchString(id) {
		t.Fatalf("TaskID %q does not match the expected format", id)
	}
}

func TestCategoryIDFormat(t *testing.T) {
	g := NewIDGenerator("secret")
	id := g.CategoryID()
	if !categoryIDPattern.MatchString(id) {
		t.Fatalf("CategoryID %q does not match the expected format", id)
	}
}

func TestIDIsDeterministicForFixedClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC)
	g := NewIDGenerator("secret")
	g.now = func() time.Time { return fixed }

	first := g.TaskID()
	second := g.TaskID()
	if first != second {
		t.Fatalf("same clock and secret produced %q and %q", first, second)
	}
}

func TestIDDependsOnSecret(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC)

	a := NewIDGenerator("one")
	a.now = func() time.Time { return fixed }
	b := NewIDGenerator("two")
	b.now = func() time.Time { return fixed }

	idA, idB := a.TaskID(), b.TaskID()
	if idA == idB {
		t.Fatalf("different secrets produced the same ID %q", idA)
	}
	// Timestamp part is shared, only the hash tail differs.
	if idA[:15] != idB[:15] {
		t.Fatalf("timestamp parts differ: %q vs %q", idA, idB)
	}
}

func TestIDChangesOverTime(t *testing.T) {
	g := NewIDGenerator("secret")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return base }
	first := g.TaskID()
	g.now = func() time.Time { return base.Add(time.Microsecond) }
	second := g.TaskID()
	if first == second {
		t.Fatalf("IDs for different instants collided: %q", first)
	}
}
