package httpsig

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEd25519Signer(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	t.Run("sign produces a verifiable signature", func(t *testing.T) {
		signer, err := NewEd25519Signer("test-key", priv)
		require.NoError(t, err)

		message := []byte("test message")
		sig, err := signer.Sign(message)
		require.NoError(t, err)

		assert.True(t, ed25519.Verify(priv.Public().(ed25519.PublicKey), message, sig))
		assert.Equal(t, AlgorithmEd25519, signer.Algorithm())
		assert.Equal(t, "test-key", signer.KeyID())
	})

	t.Run("invalid private key size", func(t *testing.T) {
		_, err := NewEd25519Signer("k", ed25519.PrivateKey(make([]byte, 10)))
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestECDSASigner(t *testing.T) {
	type ecdsaFactory struct {
		name       string
		curve      elliptic.Curve
		wrongCurve elliptic.Curve
		alg        Algorithm
		newSigner  func(string, *ecdsa.PrivateKey) (Signer, error)
	}

	factories := []ecdsaFactory{
		{
			name:       "P-256",
			curve:      elliptic.P256(),
			wrongCurve: elliptic.P384(),
			alg:        AlgorithmECDSAP256SHA256,
			newSigner:  NewECDSAP256Signer,
		},
		{
			name:       "P-384",
			curve:      elliptic.P384(),
			wrongCurve: elliptic.P256(),
			alg:        AlgorithmECDSAP384SHA384,
			newSigner:  NewECDSAP384Signer,
		},
	}

	for _, f := range factories {
		t.Run(f.name, func(t *testing.T) {
			key, err := ecdsa.GenerateKey(f.curve, rand.Reader)
			require.NoError(t, err)

			t.Run("sign produces a verifiable signature", func(t *testing.T) {
				signer, err := f.newSigner("ec-key", key)
				require.NoError(t, err)

				message := []byte("ecdsa test")
				sig, err := signer.Sign(message)
				require.NoError(t, err)

				assert.True(t, ecdsa.VerifyASN1(&key.PublicKey, digestFor(f.alg, message), sig))
				assert.Equal(t, f.alg, signer.Algorithm())
				assert.Equal(t, "ec-key", signer.KeyID())
			})

			t.Run("wrong curve rejected", func(t *testing.T) {
				wrongKey, err := ecdsa.GenerateKey(f.wrongCurve, rand.Reader)
				require.NoError(t, err)

				_, err = f.newSigner("k", wrongKey)
				assert.ErrorIs(t, err, ErrInvalidKey)
			})

			t.Run("nil key rejected", func(t *testing.T) {
				_, err := f.newSigner("k", nil)
				assert.ErrorIs(t, err, ErrInvalidKey)
			})
		})
	}
}

// digestFor hashes message with the digest matching alg, so the test can
// check the signature against Go's stdlib ECDSA verifier directly instead
// of depending on this package's own (signing-only) surface.
func digestFor(alg Algorithm, message []byte) []byte {
	if alg == AlgorithmECDSAP384SHA384 {
		sum := sha512.Sum384(message)
		return sum[:]
	}
	sum := sha256.Sum256(message)
	return sum[:]
}

func TestRSASigner(t *testing.T) {
	type rsaFactory struct {
		name      string
		alg       Algorithm
		newSigner func(string, *rsa.PrivateKey) (Signer, error)
	}

	factories := []rsaFactory{
		{name: "RSA-PSS", alg: AlgorithmRSAPSSSHA512, newSigner: NewRSAPSSSigner},
		{name: "RSA-v1.5", alg: AlgorithmRSAv15SHA256, newSigner: NewRSAv15Signer},
	}

	for _, f := range factories {
		t.Run(f.name, func(t *testing.T) {
			key, err := rsa.GenerateKey(rand.Reader, 2048)
			require.NoError(t, err)

			t.Run("sign succeeds", func(t *testing.T) {
				signer, err := f.newSigner("rsa-key", key)
				require.NoError(t, err)

				sig, err := signer.Sign([]byte("rsa test message"))
				require.NoError(t, err)
				assert.NotEmpty(t, sig)
				assert.Equal(t, f.alg, signer.Algorithm())
				assert.Equal(t, "rsa-key", signer.KeyID())
			})

			t.Run("nil key rejected", func(t *testing.T) {
				_, err := f.newSigner("k", nil)
				assert.ErrorIs(t, err, ErrInvalidKey)
			})

			t.Run("small key rejected", func(t *testing.T) {
				smallKey, err := rsa.GenerateKey(rand.Reader, 1024)
				require.NoError(t, err)

				_, err = f.newSigner("k", smallKey)
				assert.ErrorIs(t, err, ErrInvalidKey)
			})
		})
	}
}

func TestHMACSHA256Signer(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	t.Run("sign is deterministic for the same key and message", func(t *testing.T) {
		signer, err := NewHMACSHA256Signer("hmac-key", key)
		require.NoError(t, err)

		sig1, err := signer.Sign([]byte("hmac test"))
		require.NoError(t, err)
		sig2, err := signer.Sign([]byte("hmac test"))
		require.NoError(t, err)

		assert.Equal(t, sig1, sig2)
		assert.Equal(t, AlgorithmHMACSHA256, signer.Algorithm())
		assert.Equal(t, "hmac-key", signer.KeyID())
	})

	t.Run("short key rejected", func(t *testing.T) {
		_, err := NewHMACSHA256Signer("k", make([]byte, 16))
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("key is copied", func(t *testing.T) {
		keyCopy := make([]byte, 32)
		copy(keyCopy, key)

		signer, err := NewHMACSHA256Signer("k", keyCopy)
		require.NoError(t, err)

		before, err := signer.Sign([]byte("test key isolation"))
		require.NoError(t, err)

		// Mutate the original slice used to construct the signer.
		keyCopy[0] ^= 0xff

		after, err := signer.Sign([]byte("test key isolation"))
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}
