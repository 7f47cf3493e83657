package pake

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wormhole-core/wormhole/core"
)

func TestExchangeAgreesOnKey(t *testing.T) {
	c := New()

	msgA, session, err := c.StartPake("correct horse battery staple")
	require.NoError(t, err)

	msgB, leaderKey, err := c.ExchangePake("correct horse battery staple", msgA)
	require.NoError(t, err)

	followerKey, err := session.Finish(msgB)
	require.NoError(t, err)

	require.Equal(t, leaderKey, followerKey)
}

func TestExchangeWrongPasswordDisagrees(t *testing.T) {
	c := New()

	msgA, session, err := c.StartPake("correct horse battery staple")
	require.NoError(t, err)

	msgB, leaderKey, err := c.ExchangePake("wrong password entirely", msgA)
	require.NoError(t, err)

	followerKey, err := session.Finish(msgB)
	require.NoError(t, err)
	require.NotEqual(t, leaderKey, followerKey)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := New()
	key := core.Key(make([]byte, 32))
	for i := range key {
		key[i] = byte(i)
	}

	ciphertext := c.Encrypt(core.MySide("aaaa1111"), key, core.PhaseVersion, []byte("hello wormhole"))
	plaintext, err := c.Decrypt("aaaa1111", key, core.PhaseVersion, ciphertext)
	require.NoError(t, err)
	require.Equal(t, []byte("hello wormhole"), plaintext)
}

func TestDecryptWrongPhaseFails(t *testing.T) {
	c := New()
	key := core.Key(make([]byte, 32))

	ciphertext := c.Encrypt(core.MySide("aaaa1111"), key, core.Phase("0"), []byte("hello"))
	_, err := c.Decrypt("aaaa1111", key, core.Phase("1"), ciphertext)
	require.Error(t, err)
}

func TestDeriveVerifierIsDeterministicAndDistinctFromKey(t *testing.T) {
	c := New()
	key := core.Key(make([]byte, 32))

	v1 := c.DeriveVerifier(key)
	v2 := c.DeriveVerifier(key)
	require.Equal(t, v1, v2)
	require.NotEqual(t, []byte(v1), []byte(key))
}
