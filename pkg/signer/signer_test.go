package signer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Throwaway demo keypair from the reference deployment. Never fund it.
const (
	demoKey     = "0x8f2f6601c919fa725e4ccd4dae2af1aba1203545d2d9d157d1df57821fe9c7c0"
	demoAddress = "0x292F0E22A0245387a89d5DB50F016d18D6aF0bac"
)

func TestLocalSignerAddressDerivation(t *testing.T) {
	s, err := NewLocalSigner(demoKey)
	require.NoError(t, err)
	assert.True(t, AddressesEqual(s.Address(), demoAddress))
	assert.Len(t, s.Address(), 42)
}

func TestNewLocalSignerAcceptsUnprefixedHex(t *testing.T) {
	s, err := NewLocalSigner(demoKey[2:])
	require.NoError(t, err)
	assert.True(t, AddressesEqual(s.Address(), demoAddress))
}

func TestNewLocalSignerRejectsBadKeys(t *testing.T) {
	for name, key := range map[string]string{
		"not hex":    "0xzz",
		"too short":  "0xabcd",
		"zero":       "0x0000000000000000000000000000000000000000000000000000000000000000",
		"empty":      "",
		"whitespace": "   ",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewLocalSigner(key)
			require.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestSignRecoverRoundTrip(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)

	msg := "0xdeadbeef attestation hash placeholder"
	sig, err := s.SignPersonal(msg)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	assert.Contains(t, []byte{27, 28}, sig[64])

	recovered, err := RecoverPersonal(msg, sig)
	require.NoError(t, err)
	assert.True(t, AddressesEqual(recovered, s.Address()))
}

func TestSignDeterministicNonces(t *testing.T) {
	s, err := NewLocalSigner(demoKey)
	require.NoError(t, err)

	a, err := s.SignPersonal("same message")
	require.NoError(t, err)
	b, err := s.SignPersonal("same message")
	require.NoError(t, err)
	assert.Equal(t, a, b, "RFC 6979 signing must be deterministic")
}

func TestRecoverDifferentMessageYieldsDifferentSigner(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)

	sig, err := s.SignPersonal("original")
	require.NoError(t, err)

	recovered, err := RecoverPersonal("tampered", sig)
	if err == nil {
		// Recovery can succeed against the wrong message; it just yields
		// some other address.
		assert.False(t, AddressesEqual(recovered, s.Address()))
	}
}

func TestRecoverRejectsMalformedSignatures(t *testing.T) {
	_, err := RecoverPersonal("msg", []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidSignature)

	bad := make([]byte, SignatureLength)
	bad[64] = 99
	_, err = RecoverPersonal("msg", bad)
	require.ErrorIs(t, err, ErrInvalidSignature)

	// All-zero R/S cannot recover to any key.
	zero := make([]byte, SignatureLength)
	zero[64] = 27
	_, err = RecoverPersonal("msg", zero)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestZeroedSignerRefusesToSign(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)
	s.Zero()

	_, err = s.SignPersonal("msg")
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestChecksumAddressEIP55Vectors(t *testing.T) {
	// Test vectors from the EIP-55 specification.
	cases := map[string]string{
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359": "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb": "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb": "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for lower, want := range cases {
		assert.Equal(t, want, ChecksumAddress(lower))
		// Checksumming is idempotent and casing-insensitive on input.
		assert.Equal(t, want, ChecksumAddress(want))
	}
}

func TestAddressesEqual(t *testing.T) {
	assert.True(t, AddressesEqual(demoAddress, "0x292f0e22a0245387a89d5db50f016d18d6af0bac"))
	assert.True(t, AddressesEqual("292f0e22a0245387a89d5db50f016d18d6af0bac", demoAddress))
	assert.False(t, AddressesEqual(demoAddress, "0x0000000000000000000000000000000000000001"))
}
