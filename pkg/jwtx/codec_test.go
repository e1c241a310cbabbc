package jwtx_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/scripthub/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "scripthub-admin"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newCodec(t *testing.T, clk *clock) *jwtx.HS256Codec {
	t.Helper()
	codec, err := jwtx.NewHS256Codec(testSecret, testIssuer, jwtx.WithClock(clk.Now))
	require.NoError(t, err)
	return codec
}

func TestSignVerifyRoundTrip(t *testing.T) {
	clk := &clock{now: time.Unix(1700000000, 0)}
	codec := newCodec(t, clk)

	claims := jwtx.NewAccessClaims("owner", "sid-1", time.Hour, testIssuer, clk.now)
	claims.Extra = map[string]any{"origin": "dashboard", "attempt": 2}

	token, err := codec.Sign(claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	got, err := codec.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "owner", got.Subject)
	require.Equal(t, "sid-1", got.SID)
	require.Equal(t, jwtx.RoleAdmin, got.Role)
	require.Equal(t, jwtx.TypeAccess, got.Type)
	require.Equal(t, claims.ID, got.ID)
	require.Equal(t, claims.Expiry().Unix(), got.Expiry().Unix())
	require.Equal(t, "dashboard", got.Extra["origin"])
	require.EqualValues(t, 2, got.Extra["attempt"])
}

func TestVerifyTamperedPayload(t *testing.T) {
	clk := &clock{now: time.Unix(1700000000, 0)}
	codec := newCodec(t, clk)

	refresh, err := codec.Sign(jwtx.NewRefreshClaims("owner", "sid-1", time.Hour, testIssuer, clk.now))
	require.NoError(t, err)
	access, err := codec.Sign(jwtx.NewAccessClaims("owner", "sid-1", time.Hour, testIssuer, clk.now))
	require.NoError(t, err)

	// Graft the admin payload onto the refresh token's signature.
	r := strings.Split(refresh, ".")
	a := strings.Split(access, ".")
	forged := r[0] + "." + a[1] + "." + r[2]

	_, err = codec.Verify(forged)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerifyMutatedSignature(t *testing.T) {
	clk := &clock{now: time.Unix(1700000000, 0)}
	codec := newCodec(t, clk)

	token, err := codec.Sign(jwtx.NewAccessClaims("owner", "sid-1", time.Hour, testIssuer, clk.now))
	require.NoError(t, err)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	cut := strings.LastIndexByte(token, '.') + 1
	head, sig := token[:cut], []byte(token[cut:])

	for i := range sig {
		orig := sig[i]
		for _, c := range []byte(alphabet) {
			if c == orig {
				continue
			}
			sig[i] = c
			_, err := codec.Verify(head + string(sig))
			require.Error(t, err, "signature with %q at %d verified", c, i)
		}
		sig[i] = orig
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	clk := &clock{now: time.Unix(1700000000, 0)}
	other, err := jwtx.NewHS256Codec([]byte("ffffffffffffffffffffffffffffffff"), testIssuer, jwtx.WithClock(clk.Now))
	require.NoError(t, err)

	token, err := other.Sign(jwtx.NewAccessClaims("owner", "sid", time.Hour, testIssuer, clk.now))
	require.NoError(t, err)

	_, err = newCodec(t, clk).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerifyExpiry(t *testing.T) {
	start := time.Unix(1700000000, 0)
	clk := &clock{now: start}
	codec := newCodec(t, clk)

	token, err := codec.Sign(jwtx.NewAccessClaims("owner", "sid", time.Minute, testIssuer, start))
	require.NoError(t, err)

	t.Run("one second before exp", func(t *testing.T) {
		clk.now = start.Add(time.Minute - time.Second)
		_, err := codec.Verify(token)
		require.NoError(t, err)
	})

	t.Run("exactly at exp", func(t *testing.T) {
		clk.now = start.Add(time.Minute)
		_, err := codec.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("after exp", func(t *testing.T) {
		clk.now = start.Add(2 * time.Minute)
		_, err := codec.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestVerifyMalformed(t *testing.T) {
	codec := newCodec(t, &clock{now: time.Now()})

	garbage := base64.RawURLEncoding.EncodeToString([]byte("{not json"))
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one segment", "abc"},
		{"two segments", "abc.def"},
		{"four segments", "a.b.c.d"},
		{"bad base64", "!!!.@@@.###"},
		{"bad json payload", header + "." + garbage + ".sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token)
			require.Error(t, err)
		})
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	clk := &clock{now: time.Unix(1700000000, 0)}
	codec := newCodec(t, clk)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"owner","role":"admin","type":"access","exp":1800000000}`))

	_, err := codec.Verify(header + "." + payload + ".")
	require.Error(t, err)
}

func TestVerifyIssuerMismatch(t *testing.T) {
	clk := &clock{now: time.Unix(1700000000, 0)}
	codec := newCodec(t, clk)

	token, err := codec.Sign(jwtx.NewAccessClaims("owner", "sid", time.Hour, "someone-else", clk.now))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestSignRequiresSubject(t *testing.T) {
	codec := newCodec(t, &clock{now: time.Now()})
	_, err := codec.Sign(jwtx.NewAccessClaims("", "sid", time.Hour, testIssuer, time.Now()))
	require.ErrorIs(t, err, jwtx.ErrMissingSubject)
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	_, err := jwtx.NewHS256Codec([]byte("short"), "")
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)

	secret, err := jwtx.GenerateSecret()
	require.NoError(t, err)
	_, err = jwtx.NewHS256Codec(secret, "")
	require.NoError(t, err)
}
