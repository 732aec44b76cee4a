package taskapi

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// IDGenerator mints human-scannable identifiers like TASK_1234567890AB12CD34EF.
// The timestamp part makes IDs roughly sortable; the hash part salted with the
// service secret keeps them unguessable without exposing sequential numbers.
type IDGenerator struct {
	secret string
	now    func() time.Time
}

// NewIDGenerator creates a generator salted with secret.
func NewIDGenerator(secret string) *IDGenerator {
	return &IDGenerator{secret: secret, now: time.Now}
}

// TaskID returns a fresh task identifier.
func (g *IDGenerator) TaskID() string {
	return g.generate("TASK_")
}

// CategoryID returns a fresh category identifier.
func (g *IDGenerator) CategoryID() string {
	return g.generate("CAT_")
}

func (g *IDGenerator) generate(prefix string) string {
	micros := g.now().UnixMicro()

	ts := fmt.Sprintf("%d", micros)
	if len(ts) > 10 {
		ts = ts[len(ts)-10:]
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%d%s", micros, g.secret)))
	tail := strings.ToUpper(hex.EncodeToString(sum[:6]))

	return prefix + ts + tail
}
