package main

import (
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"
)

// memoryReference keeps every contig of the reference in memory,
// faster lookups with higher memory usage
type memoryReference struct {
	contigs
	path string
	seqs map[string][]byte
}

func loadMemoryReference(path string, progress bool) (*memoryReference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	if progress {
		stats, err := f.Stat()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to stat %s", path)
		}
		r = newProgressReader(f, stats.Size(), "loading")
	}

	res := &memoryReference{contigs: newContigs(), path: path, seqs: make(map[string][]byte)}

	// fasta.Reader requires a known type template to fill
	// with FASTA data. Here we use *linear.Seq.
	template := linear.NewSeq("", nil, alphabet.DNAredundant)
	sc := seqio.NewScanner(fasta.NewReader(r, template))

	for sc.Next() {
		s := sc.Seq().(*linear.Seq)

		seq := make([]byte, len(s.Seq))
		for i, l := range s.Seq {
			seq[i] = byte(l)
		}

		sugar.Debugf("Loaded %s of %d bases", s.Name(), len(seq))
		res.seqs[s.Name()] = seq
		res.names.Insert(s.Name())
	}

	if err := sc.Error(); err != nil {
		return nil, errors.Wrapf(errMalformedReference, "%s is not a FASTA file: %v", path, err)
	}

	if len(res.seqs) == 0 {
		return nil, errors.Wrapf(errMalformedReference, "no sequences found in %s", path)
	}

	sugar.Infof("%d chromosome names found", len(res.seqs))
	return res, nil
}

// Window returns the upper cased bases of contig in [start, end)
func (r *memoryReference) Window(contig string, start, end int) ([]byte, error) {
	name, err := r.resolve(contig)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", r.path)
	}

	seq := r.seqs[name]
	if start < 0 || end > len(seq) || start > end {
		return nil, errors.Wrapf(errAlignmentMismatch, "%s:%d-%d is outside of %s with %d bases", name, start, end, r.path, len(seq))
	}

	return checkWindow(seq[start:end])
}

func (r *memoryReference) Close() error {
	return nil
}
