package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// RecordID computes the stable synthetic record id for a (scope, workspace,
// key) triple: a 12-hex-character prefix of the hash of
// "scope|workspace_or_global|key", prefixed with "skill-" (spec §4.7). The
// same scheme is used for subagent ids — the literal prefix is the only
// thing distinguishing the two in practice, since keys never collide across
// kinds in the snapshot's two separate lists.
func RecordID(scope Scope, workspace, key string) string {
	ws := workspace
	if scope == ScopeGlobal || ws == "" {
		ws = "global"
	}
	sum := sha256.Sum256([]byte(string(scope) + "|" + ws + "|" + key))
	return "skill-" + hex.EncodeToString(sum[:])[:12]
}

// CatalogID computes the remote-tool catalog id for a (scope, workspace,
// key) triple (spec §3, §4.6): "global::<key>" or
// "project::<workspace>::<key>".
func CatalogID(scope Scope, workspace, key string) string {
	if scope == ScopeGlobal {
		return "global::" + key
	}
	return "project::" + workspace + "::" + key
}
