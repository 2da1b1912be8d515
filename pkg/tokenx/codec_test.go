package tokenx

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/covergate/sessiond/pkg/clockx"
)

func testSecret() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func testClaims(clock clockx.Clock, kind string) Claims {
	now := clock.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "01HTESTPRINCIPAL0000000000",
			ID:        "01HTESTTOKENID000000000000",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Kind:                 kind,
		CredentialRevision:   "01HTESTREVISION00000000000",
		AuthenticationMethod: "ID_PW_LOGIN",
	}
}

func TestNewCodecValidatesSecret(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-base64 secrets", func(t *testing.T) {
		_, err := NewCodec("!!not base64!!", clockx.System{})
		require.Error(t, err)
	})

	t.Run("rejects short keys", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("too short"))
		_, err := NewCodec(short, clockx.System{})
		require.Error(t, err)
	})

	t.Run("accepts 32-byte keys", func(t *testing.T) {
		_, err := NewCodec(testSecret(), clockx.System{})
		require.NoError(t, err)
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFixed(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	codec, err := NewCodec(testSecret(), clock)
	require.NoError(t, err)

	in := testClaims(clock, KindAccess)
	in.InternalManagerID = "01HTESTINTERNALMANAGER0000"
	in.ExternalManagerIDs = []string{"01HTESTEXTERNALMANAGER0000"}

	raw, err := codec.Encode(in)
	require.NoError(t, err)

	out, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, in.Subject, out.Subject)
	require.Equal(t, in.ID, out.TokenID())
	require.Equal(t, KindAccess, out.Kind)
	require.True(t, out.IsAccess())
	require.False(t, out.IsRefresh())
	require.Equal(t, in.CredentialRevision, out.CredentialRevision)
	require.Equal(t, in.AuthenticationMethod, out.AuthenticationMethod)
	require.Equal(t, in.InternalManagerID, out.InternalManagerID)
	require.Equal(t, in.ExternalManagerIDs, out.ExternalManagerIDs)
}

func TestDecodeIsIdempotent(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFixed(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	codec, err := NewCodec(testSecret(), clock)
	require.NoError(t, err)

	raw, err := codec.Encode(testClaims(clock, KindRefresh))
	require.NoError(t, err)

	first, err := codec.Decode(raw)
	require.NoError(t, err)
	second, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDecodeRejectsTampering(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFixed(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	codec, err := NewCodec(testSecret(), clock)
	require.NoError(t, err)

	raw, err := codec.Encode(testClaims(clock, KindAccess))
	require.NoError(t, err)

	t.Run("garbage input", func(t *testing.T) {
		_, err := codec.Decode("not.a.token")
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("truncated token", func(t *testing.T) {
		_, err := codec.Decode(raw[:len(raw)/2])
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("flipped payload byte", func(t *testing.T) {
		parts := strings.Split(raw, ".")
		require.Len(t, parts, 3)
		mangled := parts[0] + "." + parts[1][:len(parts[1])-2] + "xx." + parts[2]
		_, err := codec.Decode(mangled)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("wrong key", func(t *testing.T) {
		otherSecret := base64.StdEncoding.EncodeToString([]byte("fedcba9876543210fedcba9876543210"))
		other, err := NewCodec(otherSecret, clock)
		require.NoError(t, err)

		_, err = other.Decode(raw)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("unsigned alg stripped token", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims(clock, KindAccess))
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = codec.Decode(raw)
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestDecodeEnforcesExpiry(t *testing.T) {
	t.Parallel()

	clock := clockx.NewFixed(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	codec, err := NewCodec(testSecret(), clock)
	require.NoError(t, err)

	raw, err := codec.Encode(testClaims(clock, KindAccess))
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = codec.Decode(raw)
	require.ErrorIs(t, err, ErrExpired)
}
