// Package fingerprint derives the content fingerprint that identifies a quote
// submission. The fingerprint is a sha256 over a canonical rendering of the
// input snapshot plus the computed total, so identical submissions always map
// to the same value and can be deduplicated with a unique index.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Compute returns the hex fingerprint for a snapshot and total.
// The snapshot is canonicalized first, so key order and JSON number
// formatting never influence the result.
func Compute(data map[string]any, totalPrice int64) string {
	var b strings.Builder
	writeCanonical(&b, data)
	b.WriteString("|total=")
	b.WriteString(strconv.FormatInt(totalPrice, 10))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// writeCanonical renders v deterministically: object keys sorted, numbers
// normalized, strings trimmed. json.Unmarshal produces float64 for every
// number, so integral floats are printed without a fraction to keep 15000
// and 15000.0 identical.
func writeCanonical(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case string:
		b.WriteString(strconv.Quote(strings.TrimSpace(t)))
	case float64:
		writeNumber(b, t)
	case int:
		b.WriteString(strconv.Itoa(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, e)
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			writeCanonical(b, t[k])
		}
		b.WriteByte('}')
	default:
		// Unexpected type: fall back to its fmt-free string form.
		b.WriteString(strconv.Quote("?"))
	}
}

func writeNumber(b *strings.Builder, f float64) {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		b.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}
