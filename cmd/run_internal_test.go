// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/obolnetwork/starsign/app/expbackoff"
	"github.com/obolnetwork/starsign/app/version"
	"github.com/obolnetwork/starsign/app/z"
	"github.com/obolnetwork/starsign/origination"
	"github.com/obolnetwork/starsign/signer"
	"github.com/obolnetwork/starsign/testutil"
)

const (
	zeroDigest = "0x8dc0da097284c6d1233ae98459aee54f943d168ab390a459fa51181d2d8bcfa3"
	zeroSig    = "0x680b3c8ecc47cc9f93be7b3a13a7bc591f949cf851b5b4971ab0345e7c792e790f9d1d0a5703aee103f665c481d43383593d3b30df2e3b02d3229dd6609e7e6a1b"
	fullDigest = "0x3ef12f00341616ab45efbeed886c87412a1ed58ae7cc1c2886aba3a53847aedd"
	fullSig    = "0xe4e7eff364d8b3dc5cd487a61289268e53641898dd99b930a4c0a73ce344729f78d303e7b4d9ffd2ef63e7031bd5863dc26c90c98b7a57aa55e6901465d82ad21c"
)

// fullCaveats are two caveats: 0x1111..11 with data 0xdeadbeef and 0x2222..22 with empty data.
const fullCaveats = "0x" +
	"0000000000000000000000000000000000000000000000000000000000000020" +
	"0000000000000000000000000000000000000000000000000000000000000002" +
	"0000000000000000000000000000000000000000000000000000000000000040" +
	"00000000000000000000000000000000000000000000000000000000000000c0" +
	"0000000000000000000000001111111111111111111111111111111111111111" +
	"0000000000000000000000000000000000000000000000000000000000000040" +
	"0000000000000000000000000000000000000000000000000000000000000004" +
	"deadbeef00000000000000000000000000000000000000000000000000000000" +
	"0000000000000000000000002222222222222222222222222222222222222222" +
	"0000000000000000000000000000000000000000000000000000000000000040" +
	"0000000000000000000000000000000000000000000000000000000000000000"

func fullArgs(signerKey string) []string {
	return slice(signerKey, testContract, testAccount, "7", "true", "0x01", "1700000000", fullCaveats, "31337")
}

// execute runs the starsign command with the args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := New()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestHashCmd(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		digest string
	}{
		{
			name:   "zero",
			args:   zeroArgs(testKey),
			digest: zeroDigest,
		},
		{
			name:   "full",
			args:   fullArgs(testKey),
			digest: fullDigest,
		},
		{
			name:   "signer key ignored",
			args:   zeroArgs("not a key"),
			digest: zeroDigest,
		},
		{
			name:   "hex and decimal equivalent",
			args:   slice("-", testContract, strings.ToLower(testAccount), "0x7", "1", "1", "0x6553f100", fullCaveats, "0x7a69"),
			digest: fullDigest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := execute(t, append(slice("hash"), test.args...)...)
			require.NoError(t, err)
			require.Equal(t, test.digest+"\n", out)
		})
	}
}

func TestHashCmdDomain(t *testing.T) {
	out, err := execute(t, append(slice("hash", "--domain-name=Other"), zeroArgs(testKey)...)...)
	require.NoError(t, err)
	require.NotEqual(t, zeroDigest+"\n", out)

	noName, err := execute(t, append(slice("hash", "--no-domain-name"), zeroArgs(testKey)...)...)
	require.NoError(t, err)
	require.NotEqual(t, out, noName)
	require.NotEqual(t, zeroDigest+"\n", noName)
}

func TestHashCmdErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func([]string) []string
		errMsg string
	}{
		{
			name:   "invalid contract",
			modify: func(a []string) []string {
				a[1] = "0x1234"

				return a
			},
			errMsg: "parse verifying contract",
		},
		{
			name:   "nonce overflow",
			modify: func(a []string) []string {
				a[3] = "0x1" + strings.Repeat("0", 64)

				return a
			},
			errMsg: "invalid value encoding",
		},
		{
			name:   "invalid caveats",
			modify: func(a []string) []string {
				a[7] = "0x1234"

				return a
			},
			errMsg: "caveats",
		},
		{
			name:   "invalid chain id",
			modify: func(a []string) []string {
				a[8] = "abc"

				return a
			},
			errMsg: "parse chain id",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := execute(t, append(slice("hash"), test.modify(zeroArgs(testKey))...)...)
			require.ErrorContains(t, err, test.errMsg)
		})
	}
}

func TestHashCmdMetrics(t *testing.T) {
	file := filepath.Join(t.TempDir(), "starsign.prom")

	_, err := execute(t, append(slice("hash", "--metrics-textfile="+file), zeroArgs(testKey)...)...)
	require.NoError(t, err)

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(b), `starsign_eip712_hash_total{command="hash"}`)
}

func TestSignCmd(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "signer.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte(testKey+"\n"), 0o600))

	tests := []struct {
		name string
		args []string
		sig  string
	}{
		{
			name: "zero",
			args: append(slice("sign"), zeroArgs(testKey)...),
			sig:  zeroSig,
		},
		{
			name: "full",
			args: append(slice("sign"), fullArgs("0x"+testKey)...),
			sig:  fullSig,
		},
		{
			name: "key file",
			args: append(slice("sign", "--signer-key-file="+keyFile), fullArgs(keyFromFile)...),
			sig:  fullSig,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := execute(t, test.args...)
			require.NoError(t, err)
			require.Equal(t, test.sig+"\n", out)
		})
	}
}

func TestSignCmdErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{
			name:   "invalid key",
			args:   append(slice("sign"), zeroArgs("0x1234")...),
			errMsg: "invalid signer key",
		},
		{
			name:   "no key",
			args:   append(slice("sign"), zeroArgs(keyFromFile)...),
			errMsg: "must be specified",
		},
		{
			name:   "missing key file",
			args:   append(slice("sign", "--signer-key-file=/does/not/exist"), zeroArgs(keyFromFile)...),
			errMsg: "load signer key",
		},
		{
			name:   "remote with key",
			args:   append(slice("sign", "--remote-signer-url="+signer.DefaultRemoteURL), zeroArgs(testKey)...),
			errMsg: "must be \"-\"",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := execute(t, test.args...)
			require.ErrorContains(t, err, test.errMsg)
			require.NotContains(t, err.Error(), testKey)
		})
	}
}

func TestSignCmdRemoteRetries(t *testing.T) {
	var backoffs int
	expbackoff.SetAfterForT(t, func(time.Duration) <-chan time.Time {
		backoffs++

		ch := make(chan time.Time, 1)
		ch <- time.Now()

		return ch
	})

	_, err := execute(t, append(slice("sign",
		"--remote-signer-url=http://127.0.0.1:1",
		"--remote-retries=2",
		"--remote-timeout=5s",
	), zeroArgs(keyFromFile)...)...)
	require.ErrorIs(t, err, signer.ErrSigning)
	require.ErrorContains(t, err, "remote signer unavailable")
	require.True(t, signer.Retryable(err))
	require.Equal(t, 2, backoffs)
}

func TestSignCmdRemoteTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		// The server only notices the client going away once the body is consumed.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer ts.Close()

	_, err := execute(t, append(slice("sign",
		"--remote-signer-url="+ts.URL,
		"--remote-timeout=50ms",
		"--remote-retries=2",
	), zeroArgs(keyFromFile)...)...)
	require.ErrorIs(t, err, signer.ErrSigning)
	require.ErrorContains(t, err, "remote signer request cancelled")
	require.True(t, z.ContainsField(err, z.Str("reason", "remote signing attempt: context deadline exceeded")))
	require.True(t, z.ContainsField(err, z.Any("timeout", 50*time.Millisecond)))
	require.False(t, signer.Retryable(err))
}

func TestRecoverCmd(t *testing.T) {
	out, err := execute(t, "recover", zeroDigest, zeroSig)
	require.NoError(t, err)
	require.Equal(t, testAccount+"\n", out)

	out, err = execute(t, "recover", fullDigest, fullSig)
	require.NoError(t, err)
	require.Equal(t, testAccount+"\n", out)

	// Recovering over another digest yields another address.
	out, err = execute(t, "recover", fullDigest, zeroSig)
	require.NoError(t, err)
	require.NotEqual(t, testAccount+"\n", out)

	_, err = execute(t, "recover", "0x1234", zeroSig)
	require.ErrorContains(t, err, "digest not 32 bytes")

	_, err = execute(t, "recover", zeroDigest, zeroSig[:len(zeroSig)-2]+"05")
	require.Error(t, err)
}

func TestCaveatsDecodeCmd(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		out, err := execute(t, "caveats", "decode", fullCaveats)
		require.NoError(t, err)

		var resp []caveatJSON
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		testutil.RequireGoldenJSON(t, resp, testutil.WithFilename("caveats_decode.golden"))
	})

	t.Run("empty", func(t *testing.T) {
		out, err := execute(t, "caveats", "decode", emptyCaveats)
		require.NoError(t, err)
		require.Equal(t, "[]\n", out)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := execute(t, "caveats", "decode", "0x00")
		require.Error(t, err)
	})
}

func TestCaveatsEncodeCmd(t *testing.T) {
	out, err := execute(t, "caveats", "encode",
		"0x1111111111111111111111111111111111111111:0xdeadbeef",
		"0x2222222222222222222222222222222222222222:0x",
	)
	require.NoError(t, err)
	require.Equal(t, fullCaveats+"\n", out)

	caveats, err := origination.ParseCaveats(strings.TrimSpace(out))
	require.NoError(t, err)
	testutil.RequireGoldenJSON(t, caveatsToJSON(caveats), testutil.WithFilename("caveats_decode.golden"))

	out, err = execute(t, "caveats", "encode")
	require.NoError(t, err)
	require.Equal(t, emptyCaveats+"\n", out)

	_, err = execute(t, "caveats", "encode", "0x1111111111111111111111111111111111111111")
	require.ErrorContains(t, err, "<enforcer>:<hexdata>")
}

func TestRunVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	runVersionCmd(&buf, versionConfig{})
	require.Equal(t, version.Version+"\n", buf.String())

	buf.Reset()
	runVersionCmd(&buf, versionConfig{Verbose: true})
	require.True(t, strings.HasPrefix(buf.String(), version.Version+"\n"))
	require.Contains(t, buf.String(), "Git commit hash:")
}
