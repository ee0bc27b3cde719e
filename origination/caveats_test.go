// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package origination_test

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/obolnetwork/starsign/origination"
)

// fullCaveatsWords are the ABI words of the caveats of fullMessage.
var fullCaveatsWords = []string{
	"0000000000000000000000000000000000000000000000000000000000000020", // offset of the array
	"0000000000000000000000000000000000000000000000000000000000000002", // array length
	"0000000000000000000000000000000000000000000000000000000000000040", // offset of tuple 0
	"00000000000000000000000000000000000000000000000000000000000000c0", // offset of tuple 1
	"0000000000000000000000001111111111111111111111111111111111111111",
	"0000000000000000000000000000000000000000000000000000000000000040",
	"0000000000000000000000000000000000000000000000000000000000000004",
	"deadbeef00000000000000000000000000000000000000000000000000000000",
	"0000000000000000000000002222222222222222222222222222222222222222",
	"0000000000000000000000000000000000000000000000000000000000000040",
	"0000000000000000000000000000000000000000000000000000000000000000",
}

const emptyCaveats = "0x" +
	"0000000000000000000000000000000000000000000000000000000000000020" +
	"0000000000000000000000000000000000000000000000000000000000000000"

func rawCaveats(t *testing.T, words []string) []byte {
	t.Helper()

	raw, err := hexutil.Decode("0x" + strings.Join(words, ""))
	require.NoError(t, err)

	return raw
}

// replaceWord returns a copy of the words with index i replaced.
func replaceWord(words []string, i int, word string) []string {
	resp := append([]string{}, words...)
	resp[i] = word

	return resp
}

func TestDecodeCaveats(t *testing.T) {
	raw := rawCaveats(t, fullCaveatsWords)

	caveats, err := origination.DecodeCaveats(raw)
	require.NoError(t, err)
	require.Equal(t, fullMessage().Caveats, caveats)

	encoded, err := origination.EncodeCaveats(caveats)
	require.NoError(t, err)
	require.Equal(t, raw, encoded)

	// Decoded caveats don't alias the input.
	raw[7*32] = 0x00
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, caveats[0].Data)
}

func TestDecodeEmptyCaveats(t *testing.T) {
	caveats, err := origination.ParseCaveats(emptyCaveats)
	require.NoError(t, err)
	require.Empty(t, caveats)

	encoded, err := origination.EncodeCaveats(nil)
	require.NoError(t, err)
	require.Equal(t, emptyCaveats, hexutil.Encode(encoded))
}

// TestDecodeHashStable asserts that decoding then hashing the same bytes is stable.
func TestDecodeHashStable(t *testing.T) {
	raw := rawCaveats(t, fullCaveatsWords)

	var digests [][32]byte
	for range 3 {
		caveats, err := origination.DecodeCaveats(raw)
		require.NoError(t, err)

		msg := fullMessage()
		msg.Caveats = caveats

		digest, err := msg.Hash(testDomain())
		require.NoError(t, err)
		digests = append(digests, digest)
	}

	expect, err := fullMessage().Hash(testDomain())
	require.NoError(t, err)
	for _, digest := range digests {
		require.Equal(t, expect, digest)
	}
}

func TestDecodeCaveatsErrors(t *testing.T) {
	valid := rawCaveats(t, fullCaveatsWords)
	last := len(fullCaveatsWords) - 1

	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "empty", raw: nil},
		{name: "partial word", raw: valid[:len(valid)-4]},
		{name: "missing last word", raw: valid[:len(valid)-32]},
		{name: "missing tuple", raw: valid[:6*32]},
		{name: "offset only", raw: valid[:32]},
		{name: "trailing word", raw: append(append([]byte{}, valid...), make([]byte, 32)...)},
		{
			name: "array offset out of range",
			raw:  rawCaveats(t, replaceWord(fullCaveatsWords, 0, "00000000000000000000000000000000000000000000000000000000000fffff")),
		},
		{
			name: "misaligned array offset",
			raw:  rawCaveats(t, replaceWord(fullCaveatsWords, 0, "0000000000000000000000000000000000000000000000000000000000000021")),
		},
		{
			name: "array length exceeds buffer",
			raw:  rawCaveats(t, replaceWord(fullCaveatsWords, 1, "0000000000000000000000000000000000000000000000000000000000000009")),
		},
		{
			name: "misaligned tuple offset",
			raw:  rawCaveats(t, replaceWord(fullCaveatsWords, 3, "00000000000000000000000000000000000000000000000000000000000000c1")),
		},
		{
			name: "bytes length exceeds buffer",
			raw:  rawCaveats(t, replaceWord(fullCaveatsWords, 6, "0000000000000000000000000000000000000000000000000000000000000400")),
		},
		{
			name: "dirty address padding",
			raw:  rawCaveats(t, replaceWord(fullCaveatsWords, 4, "ff00000000000000000000001111111111111111111111111111111111111111")),
		},
		{
			name: "dirty bytes padding",
			raw:  rawCaveats(t, replaceWord(fullCaveatsWords, 7, "deadbeef000000000000000000000000000000000000000000000000000000ff")),
		},
		{
			name: "last bytes offset out of range",
			raw:  rawCaveats(t, replaceWord(fullCaveatsWords, last-1, "0000000000000000000000000000000000000000000000000000000000000060")),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			caveats, err := origination.DecodeCaveats(test.raw)
			require.ErrorIs(t, err, origination.ErrDecoding)
			require.Nil(t, caveats)
		})
	}

	t.Run("invalid hex", func(t *testing.T) {
		_, err := origination.ParseCaveats("0xzz")
		require.ErrorIs(t, err, origination.ErrDecoding)
		_, err = origination.ParseCaveats(strings.TrimPrefix(emptyCaveats, "0x"))
		require.ErrorIs(t, err, origination.ErrDecoding)
	})
}

// TestDecodeCaveatsFuzz asserts that random and mutated input never panics or fabricates caveats.
func TestDecodeCaveatsFuzz(t *testing.T) {
	valid := rawCaveats(t, fullCaveatsWords)

	fuzzer := fuzz.New().NilChance(0).NumElements(0, 512)
	for range 1000 {
		var raw []byte
		fuzzer.Fuzz(&raw)

		caveats, err := origination.DecodeCaveats(raw)
		if err != nil {
			require.ErrorIs(t, err, origination.ErrDecoding)
			require.Nil(t, caveats)
		}
	}

	for range 1000 {
		var (
			index uint16
			value byte
		)
		fuzzer.Fuzz(&index)
		fuzzer.Fuzz(&value)

		raw := append([]byte{}, valid...)
		raw[int(index)%len(raw)] = value

		caveats, err := origination.DecodeCaveats(raw)
		if err != nil {
			require.ErrorIs(t, err, origination.ErrDecoding)
			require.Nil(t, caveats)

			continue
		}

		// Any accepted input round trips exactly.
		encoded, err := origination.EncodeCaveats(caveats)
		require.NoError(t, err)
		require.Equal(t, raw, encoded)
	}
}
