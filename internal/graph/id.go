package graph

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// NodeID computes the stable id for a node: hex SHA-1 over the UTF-8 bytes
// of "kind:key:filePath". Paths are forward-slash normalized before hashing
// so ids agree across platforms.
func NodeID(kind, key, filePath string) string {
	sum := sha1.Sum([]byte(kind + ":" + key + ":" + NormalizePath(filePath)))
	return hex.EncodeToString(sum[:])
}

// NodeIDAt is NodeID with a byte offset appended, for constructs whose
// (kind, key, filePath) triple is not unique within a file.
func NodeIDAt(kind, key, filePath string, offset uint) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s:%s:%s:%d", kind, key, NormalizePath(filePath), offset)))
	return hex.EncodeToString(sum[:])
}

// NormalizePath converts backslashes to forward slashes.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Synthetic node pseudo-ids. These are deterministic literals, not hashes,
// so downstream consumers can address them directly.
const (
	GenericDatabaseID = "db:generic"
	GraphQLSchemaID   = "graphql:schema"
)

// ImageNodeID returns the pseudo-id for a container image reference.
func ImageNodeID(ref string) string { return "image:" + ref }

// TableNodeID returns the pseudo-id for a database table.
func TableNodeID(name string) string { return "table:" + name }
