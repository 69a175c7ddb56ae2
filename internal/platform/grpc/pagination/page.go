// Package pagination normalizes page sizes and sequence page tokens.
package pagination

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int32, cfg PageSizeConfig) int {
	pageSize := int(value)
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// EncodeSeqToken renders the last returned sequence as an opaque page token.
// Zero yields the empty token.
func EncodeSeqToken(seq uint64) string {
	if seq == 0 {
		return ""
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

// DecodeSeqToken reverses EncodeSeqToken. The empty token decodes to zero.
func DecodeSeqToken(token string) (uint64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != 8 {
		return 0, fmt.Errorf("invalid page token")
	}
	return binary.BigEndian.Uint64(raw), nil
}
