package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/roach88/skein/internal/rt"
)

// DomainTrace separates trace fingerprints from any other hash of the same
// bytes. The version suffix allows the trace encoding to change.
const DomainTrace = "skein/trace/v1"

// Trace lists the decisions a path takes on its current run, one entry per
// decision: the chosen thread, the observed store or whether a spurious
// wakeup fired. Untried and already explored alternatives are left out, so
// two paths reaching the same run by different routes yield the same trace.
func Trace(snap rt.PathSnapshot) []any {
	trace := make([]any, 0, len(snap.Branches))
	for _, b := range snap.Branches {
		entry := map[string]any{"kind": b.Kind}
		switch b.Kind {
		case "schedule":
			entry["thread"] = strings.IndexByte(b.Threads, 'a')
		case "load":
			store := -1
			if b.Pos >= 0 && b.Pos < len(b.Values) {
				store = b.Values[b.Pos]
			}
			entry["store"] = store
		case "spurious":
			entry["taken"] = b.Taken
		}
		trace = append(trace, entry)
	}
	return trace
}

// Fingerprint returns the hex SHA-256 of the canonical trace of snap.
func Fingerprint(snap rt.PathSnapshot) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"decisions": Trace(snap),
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
func MustFingerprint(snap rt.PathSnapshot) string {
	fp, err := Fingerprint(snap)
	if err != nil {
		panic(err)
	}
	return fp
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
