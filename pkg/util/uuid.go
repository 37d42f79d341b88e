package util

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"

	"github.com/google/uuid"
)

// Md5ThenHex is a quick hasher
func Md5ThenHex(value []byte) string {
	hasher := md5.New()
	hasher.Write(value)
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashUUID derives a stable name-style UUID from content, so identical
// files get identical fingerprints.
func HashUUID(content []byte) string {
	hash := md5.Sum(content)
	id, err := uuid.FromBytes(hash[:])
	if err != nil {
		return ""
	}
	return id.String()
}

// TempPath returns a unique sibling of path for write-then-rename.
func TempPath(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")
}
