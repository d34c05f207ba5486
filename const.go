package main

import (
	"fmt"
	"time"

	"github.com/biogo/hts/sam"
	"github.com/voxelbrain/goptions"
	"go.uber.org/zap"
)

var logger = zap.NewNop()
var sugar = logger.Sugar()
var conf config

const (
	// VERSION is just the version number
	VERSION = "1.1.0"

	// gap is the placeholder spliced into a working copy for an indel
	gap byte = '-'

	// clipPad fills the reference copy in front of soft clipped read bases
	clipPad byte = '.'

	// masked is the unresolved base written over damaged positions
	masked byte = 'N'

	// histogramBuckets is the number of rows in the stats report, the last one collects overflow
	histogramBuckets = 10
)

type config struct {
	Input      string `goptions:"-i, --input_file, description='Input BAM or SAM file (mandatory)'"`
	Output     string `goptions:"-o, --output_file, description='Output SAM/BAM file with modified reads (default: output_modified.sam/.bam)'"`
	Masking    string `goptions:"-m, --masking, description='Masking behaviour: H for hard masking, E for edge masking, F for filtering only (default: H)'"`
	Strandness string `goptions:"-s, --strandness, description='Library type: S for single stranded, D for double stranded (default: S)'"`
	EdgeCount  int    `goptions:"-e, --edge_count, description='Number of bases masked from the read edges when --masking E is used (default: 5)'"`
	Reference  string `goptions:"-r, --ref_file, description='Reference FASTA file, turns on reference guided masking'"`
	MapQCutoff int    `goptions:"-q, --mapq_cutoff, description='Remove reads below this MAPQ value from the output (default: 0)'"`
	LenCutoff  int    `goptions:"-l, --len_cutoff, description='Remove reads shorter than this from the output (default: 0)'"`
	Fast       bool   `goptions:"--fast, description='Load the whole reference into memory instead of reading it through the fai index'"`
	NoProgress bool   `goptions:"--no-progress, description='Do not show the progress bar'"`
	Version    bool   `goptions:"-v, --version, description='Show version'"`
	Debug      bool   `goptions:"--debug, description='Show debug info'"`

	Log  string        `goptions:"--log, description='Save log to file'"`
	Help goptions.Help `goptions:"-h, --help, description='Show this help'"`
}

func defaultConfig() config {
	return config{
		Output: "output_modified.sam", Masking: "H",
		Strandness: "S", EdgeCount: 5,
		MapQCutoff: 0, LenCutoff: 0,
	}
}

// Mode is the masking strategy applied to every accepted read
type Mode int

const (
	// Filter only drops reads, sequences are left untouched
	Filter Mode = iota
	// Hard masks every damage prone base of the read
	Hard
	// Edge masks damage prone bases within the read edges
	Edge
	// ReferenceGuided masks bases showing a damage signature against the reference
	ReferenceGuided
	// ReferenceGuidedEdge is ReferenceGuided restricted to the read edges
	ReferenceGuidedEdge
)

func (m Mode) String() string {
	switch m {
	case Filter:
		return "filtering"
	case Hard:
		return "hard masking"
	case Edge:
		return "edge masking"
	case ReferenceGuided:
		return "reference guided hard masking"
	case ReferenceGuidedEdge:
		return "reference guided edge masking"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Guided is true when the mode compares reads against a reference window
func (m Mode) Guided() bool {
	return m == ReferenceGuided || m == ReferenceGuidedEdge
}

// Strandedness is the library preparation type
type Strandedness int

const (
	// SingleStranded libraries carry damage on the 5' end of the read strand only
	SingleStranded Strandedness = iota
	// DoubleStranded libraries carry damage on both ends
	DoubleStranded
)

func (s Strandedness) String() string {
	if s == DoubleStranded {
		return "double stranded"
	}
	return "single stranded"
}

// Settings is the validated, immutable form of config
type Settings struct {
	Input        string
	Output       string
	Stats        string
	Reference    string
	Format       Format
	Mode         Mode
	Strandedness Strandedness
	EdgeCount    int
	MapQCutoff   int
	LenCutoff    int
	Fast         bool
	Progress     bool
}

// Record is a wrap of sam.Record with the fields used for masking
type Record struct {
	Name        string
	Chrom       string
	Start       int
	End         int
	MapQ        byte
	Cigar       sam.Cigar
	Flags       sam.Flags
	Seq         []byte
	Record      *sam.Record
	QueryLength int
}

// NewRecord is function that create a pointer to record
func NewRecord(record *sam.Record) *Record {
	rec := &Record{
		Name: record.Name,
		MapQ: record.MapQ, Cigar: record.Cigar,
		Flags: record.Flags, Record: record,
		Seq:         record.Seq.Expand(),
		QueryLength: record.Seq.Length,
	}

	if record.Ref != nil {
		rec.Chrom = record.Ref.Name()
		rec.Start = record.Start()
		rec.End = record.End()
	}

	return rec
}

// String as name says
func (r *Record) String() string {
	return fmt.Sprintf("%s %s:%d-%d:%s %v", r.Name, r.Chrom, r.Start, r.End, r.Strand(), r.Cigar)
}

// IsUnmapped true if the read has no usable alignment
func (r *Record) IsUnmapped() bool {
	return r.Flags&sam.Unmapped != 0 || r.Record.Ref == nil
}

// IsReverse true if this is reversed
func (r *Record) IsReverse() bool {
	return r.Flags&sam.Reverse != 0
}

// Strand returns + for forward and - for reverse mapped reads
func (r *Record) Strand() string {
	if r.IsReverse() {
		return "-"
	}
	return "+"
}

// SetSeq replaces the sequence of the wrapped record, qualities are kept
func (r *Record) SetSeq(seq []byte) {
	r.Seq = seq
	r.Record.Seq = sam.NewSeq(seq)
}

//TicTocTimer is structure for timer
type TicTocTimer struct {
	duration time.Duration
	start    time.Time
}

//InitTimer is constructor with default values for timer
func InitTimer() *TicTocTimer {
	return &TicTocTimer{duration: 0, start: time.Now()}
}

// Tic is start timer
func (timer *TicTocTimer) Tic() {
	timer.start = time.Now()
}

//Toc is pause timer
func (timer *TicTocTimer) Toc() {
	timer.duration += time.Since(timer.start)
}

//TicToc is total time of timer
func (timer *TicTocTimer) TicToc() time.Duration {
	return timer.duration
}
