// Package hasher derives short hex identifiers with xxHash64.
package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the first hexLen hex chars of the xxHash64 of data
// (all 16 if hexLen is out of range).
func ContentHash(data []byte, hexLen int) string {
	return truncHex(xxhash.Sum64(data), hexLen)
}

// ItemID derives an item identifier from its display name and its
// position in the ingestion sequence, so two files with the same name
// still get distinct ids.
func ItemID(name string, seq uint64) string {
	d := xxhash.New()
	d.WriteString(name)
	d.WriteString("#")
	d.WriteString(strconv.FormatUint(seq, 10))
	return truncHex(d.Sum64(), 12)
}

func truncHex(v uint64, hexLen int) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	full := hex.EncodeToString(b[:])
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
