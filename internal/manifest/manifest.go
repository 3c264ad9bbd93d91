// Package manifest materializes a resolved timeline into the canonical
// playlist manifest sent to players, and fingerprints it for change detection.
package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/Nixie-Tech-LLC/playout/internal/schedule"
)

// Domain separates manifest fingerprints from any other sha256 use.
const Domain = "playout/manifest/v1"

// Item is one playout window as seen by a player. Only fields that change
// what is played belong here.
type Item struct {
	Start           time.Time
	End             time.Time
	VideoID         uuid.UUID
	ContentHash     string
	DurationSeconds int
}

type Manifest struct {
	ScreenID uuid.UUID
	Items    []Item
}

// Build converts resolver output into a manifest ordered by start time.
func Build(screenID uuid.UUID, entries []schedule.Entry) Manifest {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{
			Start:           e.Start.UTC(),
			End:             e.End.UTC(),
			VideoID:         e.VideoID,
			ContentHash:     e.ContentHash,
			DurationSeconds: e.DurationSeconds,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Start.Equal(items[j].Start) {
			return items[i].Start.Before(items[j].Start)
		}
		return items[i].VideoID.String() < items[j].VideoID.String()
	})
	return Manifest{ScreenID: screenID, Items: items}
}

func (m Manifest) value() map[string]any {
	items := make([]any, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, map[string]any{
			"start":            it.Start.UTC().Format(time.RFC3339),
			"end":              it.End.UTC().Format(time.RFC3339),
			"video_id":         it.VideoID.String(),
			"content_hash":     it.ContentHash,
			"duration_seconds": it.DurationSeconds,
		})
	}
	return map[string]any{
		"screen_id": m.ScreenID.String(),
		"items":     items,
	}
}

// Canonical serializes the manifest deterministically: sorted keys, no
// insignificant whitespace, no HTML escaping, NFC strings, integers only.
// Equal manifests always yield identical bytes.
func (m Manifest) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, m.value()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fingerprint hashes canonical manifest bytes as sha256(Domain 0x00 data).
func Fingerprint(canonical []byte) string {
	h := sha256.New()
	h.Write([]byte(Domain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

// Materialize builds, serializes and fingerprints a timeline in one step.
func Materialize(screenID uuid.UUID, entries []schedule.Entry) ([]byte, string, error) {
	canonical, err := Build(screenID, entries).Canonical()
	if err != nil {
		return nil, "", fmt.Errorf("materialize manifest: %w", err)
	}
	return canonical, Fingerprint(canonical), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		return writeString(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}
