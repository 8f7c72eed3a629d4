package types

import (
	"crypto/sha1"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
)

// SourceID is a Git-style SHA-1 content hash of a source file (20 bytes).
// Identical content always yields the same ID, so preprocessed results can
// be reused across scans.
type SourceID [20]byte

// ComputeSourceID computes SHA-1("blob {len}\0{content}").
func ComputeSourceID(content []byte) SourceID {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)

	var id SourceID
	copy(id[:], h.Sum(nil))
	return id
}

// Hex returns the 40-character hex form.
func (id SourceID) Hex() string {
	return hex.EncodeToString(id[:])
}

// String implements Stringer.
func (id SourceID) String() string {
	return id.Hex()
}

// ParseSourceID parses the 40-character hex form.
func ParseSourceID(hexStr string) (SourceID, error) {
	if len(hexStr) != 40 {
		return SourceID{}, fmt.Errorf("invalid source ID length: expected 40, got %d", len(hexStr))
	}
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return SourceID{}, fmt.Errorf("invalid hex string: %w", err)
	}
	var id SourceID
	copy(id[:], decoded)
	return id, nil
}

// Value implements driver.Valuer.
func (id SourceID) Value() (driver.Value, error) {
	return id.Hex(), nil
}

// Scan implements sql.Scanner.
func (id *SourceID) Scan(value interface{}) error {
	var hexStr string
	switch v := value.(type) {
	case string:
		hexStr = v
	case []byte:
		hexStr = string(v)
	default:
		return fmt.Errorf("cannot scan type %T into SourceID", value)
	}
	parsed, err := ParseSourceID(hexStr)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
