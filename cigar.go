package main

import (
	"bytes"

	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
)

var errAlignmentMismatch = errors.New("read does not fit its reference window")

// Aligned holds the read and its reference window in a shared coordinate space,
// both slices always have the same length
type Aligned struct {
	Read []byte
	Ref  []byte
}

// reconcile walks the cigar and builds equal length working copies of the read
// and the reference window. Insertions and soft clips pad the reference copy,
// deletions and skips pad the read copy.
func reconcile(read []byte, cigar sam.Cigar, ref []byte) (*Aligned, error) {
	size := 0
	for _, op := range cigar {
		switch op.Type() {
		case sam.CigarHardClipped, sam.CigarPadded:
		default:
			size += op.Len()
		}
	}

	res := &Aligned{Read: make([]byte, 0, size), Ref: make([]byte, 0, size)}

	// index keep the position in the read, start keep the position in the window
	index, start := 0, 0
	for _, op := range cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			if index+n > len(read) || start+n > len(ref) {
				return nil, errors.Wrapf(errAlignmentMismatch, "%v overruns read of %d or window of %d", cigar, len(read), len(ref))
			}
			res.Read = append(res.Read, read[index:index+n]...)
			res.Ref = append(res.Ref, ref[start:start+n]...)
			index += n
			start += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			if index+n > len(read) {
				return nil, errors.Wrapf(errAlignmentMismatch, "%v overruns read of %d", cigar, len(read))
			}
			pad := gap
			if op.Type() == sam.CigarSoftClipped {
				pad = clipPad
			}
			res.Read = append(res.Read, read[index:index+n]...)
			res.Ref = append(res.Ref, bytes.Repeat([]byte{pad}, n)...)
			index += n
		case sam.CigarDeletion, sam.CigarSkipped:
			if start+n > len(ref) {
				return nil, errors.Wrapf(errAlignmentMismatch, "%v overruns window of %d", cigar, len(ref))
			}
			res.Read = append(res.Read, bytes.Repeat([]byte{gap}, n)...)
			res.Ref = append(res.Ref, ref[start:start+n]...)
			start += n
		}
	}

	if index != len(read) || start != len(ref) {
		return nil, errors.Wrapf(errAlignmentMismatch, "%v covers %d of %d read bases and %d of %d reference bases", cigar, index, len(read), start, len(ref))
	}

	return res, res.check()
}

func (a *Aligned) check() error {
	if len(a.Read) != len(a.Ref) {
		return errors.Wrapf(errAlignmentMismatch, "read copy of %d against reference copy of %d", len(a.Read), len(a.Ref))
	}
	return nil
}

// stripGaps removes the deletion placeholders, giving back a sequence of the original read length
func stripGaps(seq []byte) []byte {
	res := make([]byte, 0, len(seq))
	for _, b := range seq {
		if b != gap {
			res = append(res, b)
		}
	}
	return res
}
