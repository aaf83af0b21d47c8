package auth

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// ServerHash computes the server id sent to the session server's hasJoined
// endpoint. Minecraft formats the SHA-1 digest as a signed big endian
// number in hex, so the result may start with a minus sign and has no
// leading zeros.
func ServerHash(serverID string, sharedSecret, publicKey []byte) string {
	h := sha1.New()
	// hash.Hash never returns an error on Write
	_, _ = h.Write([]byte(serverID))
	_, _ = h.Write(sharedSecret)
	_, _ = h.Write(publicKey)
	return signedHexDigest(h.Sum(nil))
}

func signedHexDigest(sum []byte) string {
	negative := sum[0]&0x80 == 0x80
	if negative {
		// two's complement, big endian
		carry := true
		for i := len(sum) - 1; i >= 0; i-- {
			sum[i] = ^sum[i]
			if carry {
				carry = sum[i] == 0xff
				sum[i]++
			}
		}
	}

	digest := strings.TrimLeft(hex.EncodeToString(sum), "0")
	if digest == "" {
		digest = "0"
	}
	if negative {
		digest = "-" + digest
	}
	return digest
}
