package main

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSeq(r *rand.Rand, n int) []byte {
	const bases = "ACGTN"
	res := make([]byte, n)
	for i := range res {
		res[i] = bases[r.Intn(len(bases))]
	}
	return res
}

func TestMask(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		read    string
		ref     string
		reverse bool
		want    string
	}{
		{"hard single forward", Policy{Mode: Hard}, "ATCGT", "", false, "ANCGN"},
		{"hard double forward", Policy{Mode: Hard, Strandedness: DoubleStranded}, "ATCGT", "", false, "NNCGN"},
		{"hard single reverse", Policy{Mode: Hard}, "ATCGA", "", true, "NTCGN"},
		{"hard double reverse", Policy{Mode: Hard, Strandedness: DoubleStranded}, "ATCGA", "", true, "NNCGN"},
		{"edge single forward", Policy{Mode: Edge, EdgeCount: 2}, "TTATTT", "", false, "NNATTT"},
		{"edge single reverse", Policy{Mode: Edge, EdgeCount: 2}, "AAATAA", "", true, "AAATNN"},
		{"edge double forward", Policy{Mode: Edge, Strandedness: DoubleStranded, EdgeCount: 2}, "TATATA", "", false, "NATATN"},
		{"edge double reverse", Policy{Mode: Edge, Strandedness: DoubleStranded, EdgeCount: 2}, "TATATA", "", true, "NATATN"},
		{"edge clamped", Policy{Mode: Edge, EdgeCount: 10}, "TTTTTT", "", false, "NNTTTT"},
		{"edge zero", Policy{Mode: Edge}, "TTTTTT", "", false, "TTTTTT"},
		{"reference single forward", Policy{Mode: ReferenceGuided}, "ATCGT", "ACCGT", false, "ANCGT"},
		{"reference single forward keeps G to A", Policy{Mode: ReferenceGuided}, "TTAA", "CCGG", false, "NNAA"},
		{"reference single reverse", Policy{Mode: ReferenceGuided}, "TTAA", "CCGG", true, "TTNN"},
		{"reference double", Policy{Mode: ReferenceGuided, Strandedness: DoubleStranded}, "TTAA", "CCGG", false, "NNNN"},
		{"reference ignores gaps", Policy{Mode: ReferenceGuided}, "A-T", "ACC", false, "A-N"},
		{"reference edge single forward", Policy{Mode: ReferenceGuidedEdge, EdgeCount: 2}, "TTTTTT", "CCCCCC", false, "NNTTTT"},
		{"reference edge single reverse", Policy{Mode: ReferenceGuidedEdge, EdgeCount: 2}, "AAAAAA", "GGGGGG", true, "AAAANN"},
		{"reference edge double", Policy{Mode: ReferenceGuidedEdge, Strandedness: DoubleStranded, EdgeCount: 2}, "TTTAAA", "CCCGGG", false, "NNTANN"},
		{"filter", Policy{Mode: Filter}, "ATCGT", "", true, "ATCGT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref []byte
			if tt.ref != "" {
				ref = []byte(tt.ref)
			}
			got, err := tt.policy.Mask([]byte(tt.read), ref, tt.reverse)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMaskDoesNotModifyInput(t *testing.T) {
	read := []byte("ATCGT")
	_, err := Policy{Mode: Hard, Strandedness: DoubleStranded}.Mask(read, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "ATCGT", string(read))
}

func TestMaskErrors(t *testing.T) {
	_, err := Policy{Mode: ReferenceGuided}.Mask([]byte("ACGT"), []byte("ACG"), false)
	assert.Equal(t, errAlignmentMismatch, errors.Cause(err))

	_, err = Policy{Mode: Mode(42)}.Mask([]byte("ACGT"), nil, false)
	assert.Error(t, err)
}

func TestHardMaskingProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		read := randomSeq(r, 1+r.Intn(80))
		reverse := i%2 == 1

		single, err := Policy{Mode: Hard}.Mask(read, nil, reverse)
		require.NoError(t, err)
		double, err := Policy{Mode: Hard, Strandedness: DoubleStranded}.Mask(read, nil, reverse)
		require.NoError(t, err)

		require.Len(t, single, len(read))
		require.Len(t, double, len(read))

		damaged := byte('T')
		if reverse {
			damaged = 'A'
		}

		assert.NotContains(t, string(single), string(damaged))
		assert.NotContains(t, string(double), "A")
		assert.NotContains(t, string(double), "T")

		for j, b := range read {
			if b != damaged {
				assert.Equal(t, b, single[j])
			}
			if b != 'A' && b != 'T' {
				assert.Equal(t, b, double[j])
			}
		}
	}
}

func TestEdgeMaskingIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	for _, strandedness := range []Strandedness{SingleStranded, DoubleStranded} {
		policy := Policy{Mode: Edge, Strandedness: strandedness, EdgeCount: 4}
		for i := 0; i < 100; i++ {
			read := randomSeq(r, r.Intn(40))
			once, err := policy.Mask(read, nil, i%2 == 0)
			require.NoError(t, err)
			twice, err := policy.Mask(once, nil, i%2 == 0)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		}
	}
}

func TestFilterKeepsSequence(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		read := randomSeq(r, r.Intn(60))
		got, err := Policy{Mode: Filter, Strandedness: DoubleStranded, EdgeCount: 3}.Mask(read, nil, i%2 == 0)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(read, got))
	}
}

func TestEdgeWindow(t *testing.T) {
	assert.Equal(t, 2, edgeWindow(6, 10))
	assert.Equal(t, 2, edgeWindow(6, 3))
	assert.Equal(t, 1, edgeWindow(6, 1))
	assert.Equal(t, 5, edgeWindow(100, 5))
	assert.Equal(t, 0, edgeWindow(1, 5))
	assert.Equal(t, 0, edgeWindow(0, 5))

	for length := 1; length < 50; length++ {
		for edge := length / 2; edge < length+3; edge++ {
			w := edgeWindow(length, edge)
			assert.Equal(t, maxWindow(length), w, "length %d edge %d", length, edge)
			assert.True(t, 2*w < length, "windows of %d overlap in %d bases", w, length)
		}
	}
}

func maxWindow(length int) int {
	if length/2-1 < 0 {
		return 0
	}
	return length/2 - 1
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		masking string
		guided  bool
		want    Mode
	}{
		{"F", false, Filter},
		{"f", true, Filter},
		{"H", false, Hard},
		{"h", true, ReferenceGuided},
		{"E", false, Edge},
		{"E", true, ReferenceGuidedEdge},
	}
	for _, tt := range tests {
		got, err := parseMode(tt.masking, tt.guided)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.masking)
	}

	_, err := parseMode("S", false)
	assert.Error(t, err)
}

func TestParseStrandedness(t *testing.T) {
	s, err := parseStrandedness("d")
	require.NoError(t, err)
	assert.Equal(t, DoubleStranded, s)

	s, err = parseStrandedness("S")
	require.NoError(t, err)
	assert.Equal(t, SingleStranded, s)

	_, err = parseStrandedness("X")
	assert.Error(t, err)
}
