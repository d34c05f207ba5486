package main

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/biogo/hts/fai"
	"github.com/pkg/errors"
)

// faiReference reads reference windows on demand through a fai index
type faiReference struct {
	contigs
	path string
	f    *os.File
	file *fai.File
}

// loadFaiIndex reads <path>.fai, or indexes the FASTA itself when there is no index file
func loadFaiIndex(path string, f io.Reader) (fai.Index, error) {
	index := path + ".fai"

	idxF, err := os.Open(index)
	if err == nil {
		defer idxF.Close()

		sugar.Debugf("Loading index %s", index)
		idx, err := fai.ReadFrom(idxF)
		if err != nil {
			return nil, errors.Wrapf(errMalformedReference, "failed to read %s: %v", index, err)
		}
		return idx, nil
	}

	if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to open %s", index)
	}

	sugar.Infof("%s not found, indexing %s", index, path)
	idx, err := indexFasta(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to index %s", path)
	}
	return idx, nil
}

// indexFasta builds the fai index of a FASTA stream. All lines of a sequence
// but the last must have the same width.
func indexFasta(r io.Reader) (fai.Index, error) {
	reader := bufio.NewReader(r)
	idx := make(fai.Index)

	var (
		offset int64
		rec    *fai.Record
		ended  bool
	)

	for line := 1; ; line++ {
		b, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if len(b) == 0 {
			break
		}

		offset += int64(len(b))
		bases := bytes.TrimRight(b, "\r\n")

		switch {
		case bytes.HasPrefix(bases, []byte(">")):
			if rec != nil {
				idx[rec.Name] = *rec
			}

			fields := bytes.Fields(bases[1:])
			if len(fields) == 0 {
				return nil, errors.Wrapf(errMalformedReference, "line %d: sequence without name", line)
			}
			if _, ok := idx[string(fields[0])]; ok {
				return nil, errors.Wrapf(errMalformedReference, "line %d: duplicated sequence %s", line, fields[0])
			}

			rec = &fai.Record{Name: string(fields[0]), Start: offset}
			ended = false
		case len(bases) == 0:
			ended = rec != nil
		case rec == nil:
			return nil, errors.Wrapf(errMalformedReference, "line %d: bases before the first header", line)
		case ended || (rec.BasesPerLine > 0 && len(bases) > rec.BasesPerLine):
			return nil, errors.Wrapf(errMalformedReference, "line %d: %s has lines of different width", line, rec.Name)
		default:
			if rec.BasesPerLine == 0 {
				rec.BasesPerLine = len(bases)
				rec.BytesPerLine = len(b)
			} else if len(bases) < rec.BasesPerLine {
				ended = true
			}
			rec.Length += len(bases)
		}

		if err == io.EOF {
			break
		}
	}

	if rec != nil {
		idx[rec.Name] = *rec
	}
	return idx, nil
}

func openFaiReference(path string) (*faiReference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}

	idx, err := loadFaiIndex(path, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if len(idx) == 0 {
		_ = f.Close()
		return nil, errors.Wrapf(errMalformedReference, "no sequences found in %s", path)
	}

	res := &faiReference{contigs: newContigs(), path: path, f: f, file: fai.NewFile(f, idx)}
	for name := range idx {
		res.names.Insert(name)
	}

	sugar.Infof("%d chromosome names found", len(idx))
	return res, nil
}

// Window returns the upper cased bases of contig in [start, end)
func (r *faiReference) Window(contig string, start, end int) ([]byte, error) {
	name, err := r.resolve(contig)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", r.path)
	}

	seq, err := r.file.SeqRange(name, start, end)
	if err != nil {
		return nil, errors.Wrapf(errAlignmentMismatch, "failed to fetch %s:%d-%d from %s: %v", name, start, end, r.path, err)
	}

	res := make([]byte, end-start)
	if _, err := io.ReadFull(seq, res); err != nil {
		return nil, errors.Wrapf(errMalformedReference, "failed to read %s:%d-%d from %s: %v", name, start, end, r.path, err)
	}

	return checkWindow(res)
}

func (r *faiReference) Close() error {
	return r.f.Close()
}
