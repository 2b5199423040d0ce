/*
NAME
  metadata.go

DESCRIPTION
  metadata.go implements the PXF metadata dictionary: an ordered list of
  UTF-8 key/value pairs, serialized as a 1-byte pair count followed by
  {u8 key_len, u8 val_len, key, val} records, capped at 2048 bytes total.
  Key order is preserved across a round trip even though only the
  dictionary's contents need to match order-insensitively.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"github.com/ausocean/pxf/pxferr"
)

// MaxMetadataBytes is the maximum serialized size of a metadata block.
const MaxMetadataBytes = 2048

// ReservedKey is the single metadata key the encoder refuses from user
// input; "filename" is merely conventional, not reserved.
const ReservedKey = "fn"

// KV is a single metadata key/value pair.
type KV struct {
	Key, Value string
}

// Metadata is an ordered, unique-keyed dictionary of UTF-8 strings.
type Metadata []KV

// Get returns the value for key and whether it was present.
func (m Metadata) Get(key string) (string, bool) {
	for _, kv := range m {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Validate checks key uniqueness, non-emptiness, the reserved-key rule
// and the 2048-byte total size cap.
func (m Metadata) Validate() error {
	seen := make(map[string]bool, len(m))
	size := 1 // pair-count byte
	for _, kv := range m {
		if kv.Key == "" {
			return pxferr.New(pxferr.InvalidInput, "empty metadata key")
		}
		if kv.Key == ReservedKey {
			return pxferr.Newf(pxferr.InvalidInput, "reserved metadata key %q", ReservedKey)
		}
		if seen[kv.Key] {
			return pxferr.Newf(pxferr.InvalidInput, "duplicate metadata key %q", kv.Key)
		}
		seen[kv.Key] = true
		if len(kv.Key) > 255 || len(kv.Value) > 255 {
			return pxferr.Newf(pxferr.InvalidInput, "metadata field too long for key %q", kv.Key)
		}
		size += 2 + len(kv.Key) + len(kv.Value)
	}
	if len(m) > 255 {
		return pxferr.New(pxferr.InvalidInput, "too many metadata pairs")
	}
	if size > MaxMetadataBytes {
		return pxferr.Newf(pxferr.InvalidInput, "metadata too large: %d bytes", size)
	}
	return nil
}

// Bytes validates m and serializes it.
func (m Metadata) Bytes() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b := make([]byte, 0, 1)
	b = append(b, byte(len(m)))
	for _, kv := range m {
		b = append(b, byte(len(kv.Key)), byte(len(kv.Value)))
		b = append(b, kv.Key...)
		b = append(b, kv.Value...)
	}
	return b, nil
}

// ParseMetadata decodes a metadata block serialized by Bytes.
func ParseMetadata(b []byte) (Metadata, error) {
	if len(b) == 0 {
		return Metadata{}, nil
	}
	n := int(b[0])
	off := 1
	md := make(Metadata, 0, n)
	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return nil, pxferr.New(pxferr.BadMetadata, "truncated record header")
		}
		klen, vlen := int(b[off]), int(b[off+1])
		off += 2
		if off+klen+vlen > len(b) {
			return nil, pxferr.New(pxferr.BadMetadata, "truncated record body")
		}
		key := string(b[off : off+klen])
		off += klen
		val := string(b[off : off+vlen])
		off += vlen
		md = append(md, KV{Key: key, Value: val})
	}
	return md, nil
}
