package main

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/sam"
	"github.com/golang-collections/collections/set"
	"github.com/pkg/errors"
)

var (
	errUnknownContig      = errors.New("contig not found in reference")
	errMalformedReference = errors.New("malformed reference")
	errUnknownFormat      = errors.New("unknown alignment format")
)

// Format is the container format of the alignments
type Format int

const (
	// SAM is plain text alignments
	SAM Format = iota
	// BAM is bgzf compressed binary alignments
	BAM
)

// Ext returns the file extension of the format
func (f Format) Ext() string {
	if f == BAM {
		return ".bam"
	}
	return ".sam"
}

func (f Format) String() string {
	return strings.ToUpper(strings.TrimPrefix(f.Ext(), "."))
}

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sam":
		return SAM, nil
	case ".bam":
		return BAM, nil
	}
	return SAM, errors.Wrapf(errUnknownFormat, "could not determine whether %s is a SAM or BAM file, it needs a .sam or .bam extension", path)
}

// forceExtension makes the output carry the extension of format,
// an existing .sam or .bam extension is replaced
func forceExtension(path string, format Format) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == format.Ext() {
		return path
	}
	if ext == SAM.Ext() || ext == BAM.Ext() {
		return strings.TrimSuffix(path, filepath.Ext(path)) + format.Ext()
	}
	return path + format.Ext()
}

// referenceIndex resolves a contig range into its sequence
type referenceIndex interface {
	Window(contig string, start, end int) ([]byte, error)
	Close() error
}

func openReference(settings *Settings) (referenceIndex, error) {
	sugar.Infof("load reference from %s", settings.Reference)
	if settings.Fast {
		return loadMemoryReference(settings.Reference, settings.Progress)
	}
	return openFaiReference(settings.Reference)
}

// contigs keeps the names known to a reference and the aliases already resolved
type contigs struct {
	names   *set.Set
	aliases map[string]string
}

func newContigs() contigs {
	return contigs{names: set.New(), aliases: make(map[string]string)}
}

// resolve maps an alignment contig name onto a reference name, falling back
// to the name with the chr prefix added or removed
func (c contigs) resolve(contig string) (string, error) {
	if c.names.Has(contig) {
		return contig, nil
	}

	if name, ok := c.aliases[contig]; ok {
		return name, nil
	}

	alias := "chr" + contig
	if strings.HasPrefix(contig, "chr") {
		alias = strings.TrimPrefix(contig, "chr")
	}

	if c.names.Has(alias) {
		sugar.Warnf("%s is not in the reference, use %s instead", contig, alias)
		c.aliases[contig] = alias
		return alias, nil
	}

	return "", errors.Wrapf(errUnknownContig, "%s", contig)
}

// checkWindow upper cases a reference window and rejects letters that are not nucleotides
func checkWindow(window []byte) ([]byte, error) {
	for i, b := range window {
		if !alphabet.DNAredundant.IsValid(alphabet.Letter(b)) {
			return nil, errors.Wrapf(errMalformedReference, "invalid letter %q at offset %d", b, i)
		}
	}
	return bytes.ToUpper(window), nil
}

// alignmentReader is the part shared by sam.Reader and bam.Reader
type alignmentReader interface {
	Header() *sam.Header
	Read() (*sam.Record, error)
}

// alignmentWriter is the part shared by sam.Writer and bam.Writer
type alignmentWriter interface {
	Write(*sam.Record) error
}

// alignmentSource reads records from a SAM or BAM file
type alignmentSource struct {
	alignmentReader
	f   *os.File
	bam *bam.Reader
}

func openAlignments(path string, format Format, progress bool) (*alignmentSource, error) {
	sugar.Infof("Fetching data from %s %s", format, path)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}

	res := &alignmentSource{f: f}

	var r io.Reader = f
	if progress {
		stats, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "failed to stat %s", path)
		}
		r = newProgressReader(f, stats.Size(), "masking")
	}

	switch format {
	case BAM:
		if ok, err := bgzf.HasEOF(f); err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "failed to check %s", path)
		} else if !ok {
			sugar.Warnf("EOF block missing from %s", path)
		}

		res.bam, err = bam.NewReader(r, 1)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "failed to read BAM header of %s", path)
		}
		res.alignmentReader = res.bam
	default:
		reader, err := sam.NewReader(r)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "failed to read SAM header of %s", path)
		}
		res.alignmentReader = reader
	}

	return res, nil
}

func (s *alignmentSource) Close() error {
	if s.bam != nil {
		if err := s.bam.Close(); err != nil {
			_ = s.f.Close()
			return err
		}
	}
	return s.f.Close()
}

// alignmentSink writes records in the input format, behind the header of the input
type alignmentSink struct {
	f      *os.File
	buffer *bufio.Writer
	sam    *sam.Writer
	bam    *bam.Writer
}

func createAlignments(path string, format Format, header *sam.Header) (*alignmentSink, error) {
	sugar.Infof("write into %s", path)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}

	res := &alignmentSink{f: f}
	switch format {
	case BAM:
		res.bam, err = bam.NewWriter(f, header, 1)
	default:
		res.buffer = bufio.NewWriter(f)
		res.sam, err = sam.NewWriter(res.buffer, header, sam.FlagDecimal)
	}

	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "failed to write header into %s", path)
	}
	return res, nil
}

func (s *alignmentSink) Write(record *sam.Record) error {
	if s.bam != nil {
		return s.bam.Write(record)
	}
	return s.sam.Write(record)
}

func (s *alignmentSink) Close() error {
	var err error
	if s.bam != nil {
		err = s.bam.Close()
	} else {
		err = s.buffer.Flush()
	}

	if err != nil {
		_ = s.f.Close()
		return err
	}

	if err := s.f.Sync(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}
