package row

import (
	"fmt"
	"math"
	"strings"
)

// Identity is an immutable value representing a row's primary-key value(s).
// It is used as the identity-map key and never materializes a full row.
// Equality is structural: two identities built from the same ordered column set with
// equal values compare equal, including composite keys; differing in any one column
// value makes them distinct.
type Identity struct {
	// key is a canonical encoding of the ordered (column, value) pairs.
	// Keeping it as a single string makes Identity comparable and usable as a map key.
	key string
}

// NewIdentity builds an Identity from ordered primary-key column names and values.
// columns and values must have the same length and be in primary-key declaration order.
func NewIdentity(columns []string, values []interface{}) (Identity, error) {
	if len(columns) == 0 {
		return Identity{}, fmt.Errorf("identity requires at least one primary-key column")
	}
	if len(columns) != len(values) {
		return Identity{}, fmt.Errorf("identity requires %d value(s), got %d", len(columns), len(values))
	}
	var b strings.Builder
	for i, col := range columns {
		v := normalizeKeyValue(values[i])
		rendered := fmt.Sprintf("%v", v)
		// Length-prefix the column name and the rendered value so the encoding
		// stays injective for values that themselves contain delimiter bytes.
		fmt.Fprintf(&b, "%d:%s%T:%d:%s", len(col), col, v, len(rendered), rendered)
	}
	return Identity{key: b.String()}, nil
}

// IsZero reports whether the identity is the zero value (built from no columns).
func (id Identity) IsZero() bool {
	return id.key == ""
}

// String returns the canonical encoding. Intended for logging and debugging only.
func (id Identity) String() string {
	return id.key
}

// normalizeKeyValue widens numeric key values to a single representation so that a key
// fetched from storage (database/sql reports int64) and the same key supplied by a
// caller as a plain int produce equal identities. Unsigned values beyond the int64
// range keep their own representation; they have no int64 equivalent to widen into.
func normalizeKeyValue(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		if uint64(n) > math.MaxInt64 {
			return uint64(n)
		}
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		if n > math.MaxInt64 {
			return n
		}
		return int64(n)
	case float32:
		return float64(n)
	case []byte:
		return string(n)
	default:
		return v
	}
}
