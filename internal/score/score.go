// Package score derives the placeholder credit score shown during loan intake.
//
// The score is not a bureau check. It is a deterministic function of the applicant's tax
// identifier so the same applicant always sees the same number; a real scoring integration
// replaces HashScorer behind the Deriver interface.
package score

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/sha3"
)

const (
	MinScore = 300
	MaxScore = 900

	minIdentifierLen = 5
)

var identifierPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// Deriver maps an identifier to a score. ok is false when no score should be displayed.
type Deriver interface {
	Derive(identifier string) (score int, ok bool)
}

type HashScorer struct{}

func NewHashScorer() HashScorer {
	return HashScorer{}
}

func (HashScorer) Derive(identifier string) (int, bool) {
	if codeUnits(identifier) < minIdentifierLen {
		return 0, false
	}
	h := rollingHash(strings.ToUpper(identifier))
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return MinScore + int(abs%int64(MaxScore-MinScore+1)), true
}

// rollingHash is hash*31 + code over UTF-16 code units, wrapping at 32 bits.
func rollingHash(s string) int32 {
	var h int32
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			hi, lo := utf16.EncodeRune(r)
			h = h*31 + int32(hi)
			h = h*31 + int32(lo)
			continue
		}
		h = h*31 + int32(r)
	}
	return h
}

// codeUnits is the UTF-16 length of s, the unit rollingHash walks.
func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func NormalizeIdentifier(identifier string) string {
	return strings.ToUpper(strings.TrimSpace(identifier))
}

// ValidIdentifier reports whether identifier has the 5 letters, 4 digits, 1 letter shape.
func ValidIdentifier(identifier string) bool {
	return identifierPattern.MatchString(strings.ToUpper(identifier))
}

// Fingerprint is a short keccak digest of the normalized identifier, safe to log.
func Fingerprint(identifier string) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(NormalizeIdentifier(identifier)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
