package main

import (
	"strings"

	"github.com/pkg/errors"
)

// signature is a deamination footprint: a reference base sequenced as another base
type signature struct {
	ref  byte
	read byte
}

var (
	// forwardDamage is C read as T, found at the 5' end of forward reads
	forwardDamage = signature{ref: 'C', read: 'T'}
	// reverseDamage is G read as A, the complement seen on reverse reads
	reverseDamage = signature{ref: 'G', read: 'A'}
)

// hit reports whether a read base carries the signature. Without a reference
// every occurrence of the damaged base counts.
func (s signature) hit(ref, read byte, guided bool) bool {
	if read != s.read {
		return false
	}
	return !guided || ref == s.ref
}

// Policy decides which bases of a read are masked
type Policy struct {
	Mode         Mode
	Strandedness Strandedness
	EdgeCount    int
}

func parseMode(masking string, guided bool) (Mode, error) {
	switch strings.ToUpper(masking) {
	case "F":
		return Filter, nil
	case "H":
		if guided {
			return ReferenceGuided, nil
		}
		return Hard, nil
	case "E":
		if guided {
			return ReferenceGuidedEdge, nil
		}
		return Edge, nil
	}
	return Filter, errors.Errorf("the masking setting '%s' is not recognized, use 'H' for hard masking, 'E' for edge masking and 'F' for filtering", masking)
}

func parseStrandedness(strandness string) (Strandedness, error) {
	switch strings.ToUpper(strandness) {
	case "S":
		return SingleStranded, nil
	case "D":
		return DoubleStranded, nil
	}
	return SingleStranded, errors.Errorf("strandness '%s' is not recognized, only 'S' and 'D' are valid library types", strandness)
}

// edgeWindow clamps the edge count so that the 5' and 3' windows of a read never meet
func edgeWindow(length, edgeCount int) int {
	res := edgeCount
	if half := length/2 - 1; res > half {
		res = half
	}
	if res < 0 {
		res = 0
	}
	return res
}

// signatures returns which of the two damage signatures a read is checked for.
// Single stranded libraries only check the signature of the read strand.
func (p Policy) signatures(reverse bool) (forward, complement bool) {
	double := p.Strandedness == DoubleStranded
	return !reverse || double, reverse || double
}

// Mask returns a masked copy of read. ref is the aligned reference window and
// is only consulted by the reference guided modes, where it must match read in length.
// The forward signature is checked from the 5' end and the reverse signature
// from the 3' end of the stored sequence, over the whole read or the edge windows.
func (p Policy) Mask(read, ref []byte, reverse bool) ([]byte, error) {
	n := len(read)
	guided := p.Mode.Guided()
	if guided && len(ref) != n {
		return nil, errors.Wrapf(errAlignmentMismatch, "read of %d against reference of %d", n, len(ref))
	}

	var lead, trail int
	switch p.Mode {
	case Filter:
		return append([]byte(nil), read...), nil
	case Hard, ReferenceGuided:
		lead, trail = n, n
	case Edge, ReferenceGuidedEdge:
		lead = edgeWindow(n, p.EdgeCount)
		trail = lead
	default:
		return nil, errors.Errorf("masking mode %v is not recognized", p.Mode)
	}

	forward, complement := p.signatures(reverse)

	res := make([]byte, n)
	for i, b := range read {
		res[i] = b

		var f byte
		if guided {
			f = ref[i]
		}

		if (forward && i < lead && forwardDamage.hit(f, b, guided)) ||
			(complement && i >= n-trail && reverseDamage.hit(f, b, guided)) {
			res[i] = masked
		}
	}

	if len(res) != n {
		return nil, errors.Wrapf(errAlignmentMismatch, "masked %d bases out of %d", len(res), n)
	}
	return res, nil
}
