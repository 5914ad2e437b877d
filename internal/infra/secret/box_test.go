package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxSealOpen(t *testing.T) {
	b := NewBox("passphrase")

	sealed, err := b.Seal("0123456789abcdef")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealedPrefix))
	assert.NotContains(t, sealed, "0123456789abcdef")

	opened, err := b.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", opened)
}

func TestBoxSealUsesFreshNonce(t *testing.T) {
	b := NewBox("passphrase")
	first, err := b.Seal("hash")
	require.NoError(t, err)
	second, err := b.Seal("hash")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestBoxOpenWrongKey(t *testing.T) {
	sealed, err := NewBox("one").Seal("hash")
	require.NoError(t, err)

	_, err = NewBox("two").Open(sealed)
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestBoxOpenLegacyPlaintext(t *testing.T) {
	opened, err := NewBox("key").Open("legacy-hash")
	require.NoError(t, err)
	assert.Equal(t, "legacy-hash", opened)
}

func TestPlain(t *testing.T) {
	sealed, err := Plain{}.Seal("hash")
	require.NoError(t, err)
	assert.Equal(t, "hash", sealed)

	_, err = Plain{}.Open(sealedPrefix + "abc")
	assert.ErrorIs(t, err, ErrCorrupted)
}
