package overlays

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/tarkovhub/overlay/pkg/errors"
)

// MetaKey is the artifact's metadata key.
const MetaKey = "$meta"

// Meta field names inside the $meta object.
const (
	metaVersion   = "version"
	metaGenerated = "generated"
	metaSHA256    = "sha256"
)

// Meta describes a merged artifact's stamp.
type Meta struct {
	Version   string
	Generated time.Time
	SHA256    string
}

// Artifact builds the merged, hash-stamped artifact: one JSON object with
// a key per entity category mapping ID to the raw override or addition
// record, an optional modes subtree, and a $meta stamp. Serialization is
// canonical (2-space indentation, lexicographically sorted keys), and the
// sha256 covers the document with $meta.sha256 excluded.
func (o *Overlay) Artifact(version string, now time.Time) ([]byte, error) {
	doc := make(map[string]any, len(o.Categories)+2)

	for name, cat := range o.Categories {
		entries, err := categoryEntries(name, cat)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			doc[name] = entries
		}
	}

	if len(o.Modes) > 0 {
		modes := make(map[string]any, len(o.Modes))
		for mode, categories := range o.Modes {
			modeDoc := make(map[string]any, len(categories))
			for name, cat := range categories {
				entries, err := categoryEntries(mode+"/"+name, cat)
				if err != nil {
					return nil, err
				}
				if len(entries) > 0 {
					modeDoc[name] = entries
				}
			}
			if len(modeDoc) > 0 {
				modes[mode] = modeDoc
			}
		}
		if len(modes) > 0 {
			doc[modesDir] = modes
		}
	}

	meta := map[string]any{
		metaVersion:   version,
		metaGenerated: now.UTC().Format(time.RFC3339),
	}
	doc[MetaKey] = meta

	// Hash the canonical serialization without the sha256 field, then
	// insert it. Verification repeats the same dance.
	unstamped, err := marshalCanonical(doc)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(unstamped)
	meta[metaSHA256] = hex.EncodeToString(sum[:])

	return marshalCanonical(doc)
}

// Verify checks a merged artifact's $meta.sha256 stamp and returns the
// parsed Meta on success.
func Verify(artifact []byte) (*Meta, error) {
	var doc map[string]any
	if err := json.Unmarshal(artifact, &doc); err != nil {
		return nil, errors.WrapParse("json", "artifact", err)
	}

	rawMeta, ok := doc[MetaKey].(map[string]any)
	if !ok {
		return nil, &errors.ValidationError{Field: MetaKey, Message: "missing or malformed artifact metadata"}
	}
	recorded, ok := rawMeta[metaSHA256].(string)
	if !ok || recorded == "" {
		return nil, &errors.ValidationError{Field: MetaKey + "." + metaSHA256, Message: "missing hash stamp"}
	}

	delete(rawMeta, metaSHA256)
	unstamped, err := marshalCanonical(doc)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(unstamped)
	if hex.EncodeToString(sum[:]) != recorded {
		return nil, errors.ErrHashMismatch
	}

	meta := &Meta{SHA256: recorded}
	if v, ok := rawMeta[metaVersion].(string); ok {
		meta.Version = v
	}
	if g, ok := rawMeta[metaGenerated].(string); ok {
		if ts, err := time.Parse(time.RFC3339, g); err == nil {
			meta.Generated = ts
		}
	}
	return meta, nil
}

// categoryEntries flattens a category into one ID-keyed mapping of raw
// records. An ID declared both as an override and an addition is
// contradictory and rejected.
func categoryEntries(name string, cat *Category) (map[string]any, error) {
	entries := make(map[string]any, len(cat.Overrides)+len(cat.Additions))
	for id, patch := range cat.Overrides {
		entries[id] = patch.Raw()
	}
	for id, addition := range cat.Additions {
		if _, exists := entries[id]; exists {
			return nil, &errors.ValidationError{
				File:    name,
				Field:   id,
				Message: "declared as both an override and an addition",
			}
		}
		entries[id] = map[string]any(addition)
	}
	return entries, nil
}

// marshalCanonical produces the artifact's canonical byte form: 2-space
// indentation, sorted keys (encoding/json sorts map keys), trailing
// newline.
func marshalCanonical(doc map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.WrapParse("json", "artifact", err)
	}
	return append(data, '\n'), nil
}
