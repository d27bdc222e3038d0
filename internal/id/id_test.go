package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoundTrip(t *testing.T) {
	t.Parallel()

	gen := NewGenerator()
	for i := 0; i < 100; i++ {
		want, err := gen.NewID()
		require.NoError(t, err)

		got, ok := Normalize(want.String())
		require.True(t, ok)
		require.Equal(t, want, got)

		got, ok = Normalize(strings.ToUpper(want.String()))
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestNormalizeRejectsNonEncodings(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"abc123",
		"5f3c9a1e2b7d4c0012345678",
		uuid.Nil.String(),
		"urn:uuid:0190f1a2-7b3c-7d4e-8f00-112233445566",
		"{0190f1a2-7b3c-7d4e-8f00-112233445566}",
		"0190f1a27b3c7d4e8f00112233445566",
		"0190f1a2-7b3c-7d4e-8f00-11223344556g",
		"../../etc/passwd",
	}
	for _, raw := range cases {
		got, ok := Normalize(raw)
		require.False(t, ok, "input %q", raw)
		require.Equal(t, uuid.Nil, got)
	}
}

func TestGeneratorIDsAreUniqueAndOrdered(t *testing.T) {
	t.Parallel()

	gen := NewGenerator()
	first, err := gen.NewID()
	require.NoError(t, err)
	second, err := gen.NewID()
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.Equal(t, uuid.Version(7), first.Version())
	require.Less(t, first.String(), second.String())
}

func FuzzNormalize(f *testing.F) {
	for _, seed := range []string{"", "abc", uuid.NewString(), "ffffffff-ffff-ffff-ffff-ffffffffffff"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, raw string) {
		got, ok := Normalize(raw)
		if !ok {
			if got != uuid.Nil {
				t.Fatalf("Normalize(%q) returned %s with ok=false", raw, got)
			}
			return
		}
		again, ok := Normalize(got.String())
		if !ok || again != got {
			t.Fatalf("Normalize is not stable for %q", raw)
		}
	})
}
