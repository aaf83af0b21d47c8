// Package mcuuid parses and formats UUIDs the way Mojang's APIs emit them.
package mcuuid

import (
	"crypto/md5"
	"strings"

	"github.com/gofrs/uuid"
)

const (
	dashedLen   = 36
	undashedLen = 32
)

// Parse accepts the 36 character hyphenated form or the 32 character
// hyphenless form that Mojang returns. Anything else is rejected.
func Parse(s string) (uuid.UUID, bool) {
	switch len(s) {
	case dashedLen:
	case undashedLen:
		s = Dash(s)
	default:
		return uuid.Nil, false
	}

	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return uuid.Nil, false
	}

	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Dash inserts the canonical dashes into a 32 character hex string.
// Strings of any other length are returned unchanged.
func Dash(hex string) string {
	if len(hex) != undashedLen {
		return hex
	}

	return strings.Join([]string{
		hex[0:8],
		hex[8:12],
		hex[12:16],
		hex[16:20],
		hex[20:32],
	}, "-")
}

// Undashed formats id as 32 lowercase hex characters.
func Undashed(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

// Offline derives the UUID the vanilla server assigns to username when
// running without authentication: MD5 over "OfflinePlayer:<username>" with
// the version 3 and RFC 4122 variant bits set.
func Offline(username string) uuid.UUID {
	id := uuid.UUID(md5.Sum([]byte("OfflinePlayer:" + username)))
	id.SetVersion(uuid.V3)
	id.SetVariant(uuid.VariantRFC4122)
	return id
}
