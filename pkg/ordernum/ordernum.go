package ordernum

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

// Prefix identifies customer-facing order numbers.
const Prefix = "ORD"

var pattern = regexp.MustCompile(`^ORD-\d{6}-\d{4}$`)

// Generate produces a human-readable order number such as ORD-202608-4821.
// The month segment keeps numbers roughly sortable. Order numbers are a
// cosmetic reference, not a key; suffix collisions within a month are accepted.
func Generate(now time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", Prefix, now.UTC().Format("200601"), rand.IntN(10000))
}

// IsValid reports whether value looks like a generated order number.
func IsValid(value string) bool {
	return pattern.MatchString(value)
}
