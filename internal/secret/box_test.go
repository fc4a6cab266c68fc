package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	box, err := NewBox(key)
	require.NoError(t, err)

	sealed, err := box.Seal("Huawei@123")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "Huawei@123")

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "Huawei@123", opened)
}

func TestBoxNonceIsRandom(t *testing.T) {
	box, err := NewBox("correct horse battery staple")
	require.NoError(t, err)

	a, err := box.Seal("same")
	require.NoError(t, err)
	b, err := box.Seal("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBoxPassphraseIsStable(t *testing.T) {
	first, err := NewBox("correct horse battery staple")
	require.NoError(t, err)
	second, err := NewBox("correct horse battery staple")
	require.NoError(t, err)

	sealed, err := first.Seal("pw")
	require.NoError(t, err)

	opened, err := second.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "pw", opened)
}

func TestBoxOpenErrors(t *testing.T) {
	box, err := NewBox("one")
	require.NoError(t, err)
	other, err := NewBox("two")
	require.NoError(t, err)

	sealed, err := other.Seal("pw")
	require.NoError(t, err)

	tests := map[string]string{
		"wrong key":   sealed,
		"not base64":  "%%%",
		"too short":   "AAAA",
		"empty value": "",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := box.Open(value)
			assert.ErrorIs(t, err, ErrDecrypt)
		})
	}
}

func TestNewBoxEmptyKey(t *testing.T) {
	_, err := NewBox("")
	assert.ErrorIs(t, err, ErrEmptyKey)
}
