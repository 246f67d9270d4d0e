package score

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKnownIdentifiers(t *testing.T) {
	s := NewHashScorer()
	cases := map[string]int{
		"ABCDE1234F": 355,
		"abcde1234f": 355,
		"ABCDE":      872,
		"PQRST9876Z": 483,
		"AAAAA0000A": 788,
	}
	for in, want := range cases {
		got, ok := s.Derive(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
}

func TestDeriveShortIdentifierIsEmpty(t *testing.T) {
	s := NewHashScorer()
	for _, in := range []string{"", "A", "ABCD"} {
		_, ok := s.Derive(in)
		require.False(t, ok, in)
	}
}

func TestDeriveCountsUTF16Units(t *testing.T) {
	s := NewHashScorer()
	_, ok := s.Derive("ÄÖÜß")
	require.False(t, ok, "four characters, eight bytes")
	_, ok = s.Derive("ÄÖÜßÉ")
	require.True(t, ok)
	_, ok = s.Derive("😀😀")
	require.False(t, ok, "two surrogate pairs")
	_, ok = s.Derive("😀😀😀")
	require.True(t, ok)
}

func TestDeriveStaysInRange(t *testing.T) {
	s := NewHashScorer()
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	for i := 0; i < 2000; i++ {
		var b strings.Builder
		for j := 0; j < 5; j++ {
			b.WriteByte(letters[(i*7+j*13)%26])
		}
		for j := 0; j < 4; j++ {
			b.WriteByte(byte('0' + (i+j*3)%10))
		}
		b.WriteByte(letters[(i*11)%26])
		id := b.String()

		got, ok := s.Derive(id)
		require.True(t, ok)
		require.GreaterOrEqual(t, got, MinScore)
		require.LessOrEqual(t, got, MaxScore)

		again, _ := s.Derive(strings.ToLower(id))
		require.Equal(t, got, again)
	}
}

func TestValidIdentifier(t *testing.T) {
	require.True(t, ValidIdentifier("ABCDE1234F"))
	require.True(t, ValidIdentifier("abcde1234f"))
	require.False(t, ValidIdentifier("ABCD1234F"))
	require.False(t, ValidIdentifier("ABCDE12345"))
	require.False(t, ValidIdentifier(" ABCDE1234F"))
}

func TestFingerprintIgnoresCase(t *testing.T) {
	require.Equal(t, Fingerprint("abcde1234f"), Fingerprint("ABCDE1234F"))
	require.Len(t, Fingerprint("ABCDE1234F"), 16)
	require.NotEqual(t, Fingerprint("ABCDE1234F"), Fingerprint("ABCDE1234G"))
}
