package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	t.Setenv("LODGE_MASTER_KEY", "test-master-key")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	sealed, err := Seal("bearer-token-value")
	require.NoError(t, err)
	require.NotEmpty(t, sealed)
	require.NotContains(t, sealed, "bearer-token-value")

	opened, err := Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "bearer-token-value", opened)
}

func TestSealIsNonDeterministic(t *testing.T) {
	t.Setenv("LODGE_MASTER_KEY", "test-master-key")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	a, err := Seal("same-value")
	require.NoError(t, err)
	b, err := Seal("same-value")
	require.NoError(t, err)

	// Random nonce per encryption
	require.NotEqual(t, a, b)
}

func TestOpenRejectsTampering(t *testing.T) {
	t.Setenv("LODGE_MASTER_KEY", "test-master-key")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	t.Run("not base64", func(t *testing.T) {
		_, err := Open("%%%not-base64%%%")
		require.Error(t, err)
	})

	t.Run("truncated ciphertext", func(t *testing.T) {
		_, err := Open("AAAA")
		require.Error(t, err)
	})

	t.Run("flipped byte fails auth", func(t *testing.T) {
		sealed, err := Seal("value")
		require.NoError(t, err)

		raw := []byte(sealed)
		if raw[len(raw)-1] == 'A' {
			raw[len(raw)-1] = 'B'
		} else {
			raw[len(raw)-1] = 'A'
		}

		_, err = Open(string(raw))
		require.Error(t, err)
	})
}
