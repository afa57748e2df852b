package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEncryptor(t *testing.T) {
	_, err := NewEncryptor(make([]byte, 32))
	require.NoError(t, err)

	enc, err := NewEncryptor(make([]byte, 16))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
	assert.Nil(t, enc)

	_, err = NewEncryptorFromBase64("not-valid-base64!!!")
	assert.Error(t, err)

	_, err = NewEncryptorFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 16)))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Run("explicit key wins", func(t *testing.T) {
		key, err := GenerateKey()
		require.NoError(t, err)
		enc, err := NewEncryptorFromConfig(key, "ignored")
		require.NoError(t, err)

		direct, err := NewEncryptorFromBase64(key)
		require.NoError(t, err)
		sealed, err := enc.Encrypt("zoom-pass")
		require.NoError(t, err)
		opened, err := direct.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, "zoom-pass", opened)
	})

	t.Run("derived from secret is stable", func(t *testing.T) {
		a, err := NewEncryptorFromConfig("", "session-secret")
		require.NoError(t, err)
		b, err := NewEncryptorFromConfig("", "session-secret")
		require.NoError(t, err)

		sealed, err := a.Encrypt("meet-123")
		require.NoError(t, err)
		opened, err := b.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, "meet-123", opened)
		assert.Len(t, DeriveKey("x"), KeySize)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := NewEncryptorFromConfig("", "")
		assert.ErrorIs(t, err, ErrNoKeyMaterial)
	})
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := GenerateKeyBytes()
	require.NoError(t, err)
	enc, err := NewEncryptor(key)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		for _, plaintext := range []string{"my-secret-pass", "🔐 Пароль 日本語"} {
			ciphertext, err := enc.Encrypt(plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, plaintext, ciphertext)

			decrypted, err := enc.Decrypt(ciphertext)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted)
		}
	})

	t.Run("empty string", func(t *testing.T) {
		ciphertext, err := enc.Encrypt("")
		require.NoError(t, err)
		assert.Empty(t, ciphertext)

		decrypted, err := enc.Decrypt("")
		require.NoError(t, err)
		assert.Empty(t, decrypted)
	})

	t.Run("unique ciphertexts for same plaintext", func(t *testing.T) {
		c1, err := enc.Encrypt("same-text")
		require.NoError(t, err)
		c2, err := enc.Encrypt("same-text")
		require.NoError(t, err)
		assert.NotEqual(t, c1, c2)
	})
}

func TestDecryptErrors(t *testing.T) {
	key, err := GenerateKeyBytes()
	require.NoError(t, err)
	enc, err := NewEncryptor(key)
	require.NoError(t, err)

	t.Run("invalid base64", func(t *testing.T) {
		_, err := enc.Decrypt("not-valid-base64!!!")
		assert.Error(t, err)
	})

	t.Run("ciphertext too short", func(t *testing.T) {
		_, err := enc.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
		assert.ErrorIs(t, err, ErrCiphertextTooShort)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		ciphertext, err := enc.Encrypt("secret")
		require.NoError(t, err)
		data, _ := base64.StdEncoding.DecodeString(ciphertext)
		data[len(data)-1] ^= 0xFF
		_, err = enc.Decrypt(base64.StdEncoding.EncodeToString(data))
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("wrong key", func(t *testing.T) {
		ciphertext, err := enc.Encrypt("secret")
		require.NoError(t, err)
		other, _ := NewEncryptor(DeriveKey("other"))
		_, err = other.Decrypt(ciphertext)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey()
	require.NoError(t, err)
	k2, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	_, err = NewEncryptorFromBase64(k1)
	assert.NoError(t, err)
}
