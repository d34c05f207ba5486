package main

import (
	"io"

	"github.com/pkg/errors"
)

// Masker runs filter, reconcile, mask and aggregate on one read at a time
type Masker struct {
	settings  *Settings
	policy    Policy
	reference referenceIndex
	stats     *Aggregator

	// Accepted is the number of reads that passed the filter
	Accepted int
}

// NewMasker as name says, reference is only used by the reference guided modes
func NewMasker(settings *Settings, reference referenceIndex) *Masker {
	return &Masker{
		settings: settings,
		policy: Policy{
			Mode:         settings.Mode,
			Strandedness: settings.Strandedness,
			EdgeCount:    settings.EdgeCount,
		},
		reference: reference,
		stats:     NewAggregator(),
	}
}

// Stats returns the histograms collected so far
func (m *Masker) Stats() *Aggregator {
	return m.stats
}

// Process masks the sequence of record in place. False means the read
// is filtered out and must not be written.
func (m *Masker) Process(record *Record) (bool, error) {
	if !filterReads(record, m.settings) {
		return false, nil
	}
	m.Accepted++

	if m.policy.Mode == Filter || len(record.Seq) == 0 {
		return true, nil
	}

	reverse := record.IsReverse()

	if !m.policy.Mode.Guided() {
		seq, err := m.policy.Mask(record.Seq, nil, reverse)
		if err != nil {
			return false, errors.Wrapf(err, "failed to mask %s", record.Name)
		}
		record.SetSeq(seq)
		return true, nil
	}

	window, err := m.reference.Window(record.Chrom, record.Start, record.End)
	if err != nil {
		return false, errors.Wrapf(err, "failed to fetch the reference of %s; make sure the reference is the one used to produce the alignments", record.Name)
	}

	aligned, err := reconcile(record.Seq, record.Cigar, window)
	if err != nil {
		return false, errors.Wrapf(err, "failed to align %s", record)
	}

	seq, err := m.policy.Mask(aligned.Read, aligned.Ref, reverse)
	if err != nil {
		return false, errors.Wrapf(err, "failed to mask %s", record)
	}

	m.stats.Add(countEvents(aligned, m.policy, reverse), reverse)

	seq = stripGaps(seq)
	if len(seq) != record.QueryLength {
		return false, errors.Wrapf(errAlignmentMismatch, "%s has %d bases after masking instead of %d", record, len(seq), record.QueryLength)
	}
	record.SetSeq(seq)

	return true, nil
}

// run masks every read of the input into the output and writes the statistics
// when the reference guides the masking. It returns the number of accepted reads.
func run(settings *Settings) (int, error) {
	var reference referenceIndex
	if settings.Mode.Guided() {
		ref, err := openReference(settings)
		if err != nil {
			return 0, err
		}
		defer ref.Close()
		reference = ref
	}

	source, err := openAlignments(settings.Input, settings.Format, settings.Progress)
	if err != nil {
		return 0, err
	}
	defer source.Close()

	sink, err := createAlignments(settings.Output, settings.Format, source.Header())
	if err != nil {
		return 0, err
	}

	masker := NewMasker(settings, reference)
	if err := masker.Consume(source, sink); err != nil {
		_ = sink.Close()
		return masker.Accepted, err
	}

	if err := sink.Close(); err != nil {
		return masker.Accepted, errors.Wrapf(err, "failed to close %s", settings.Output)
	}

	if settings.Mode.Guided() {
		if err := writeStats(settings.Stats, settings.Input, masker.Accepted, masker.Stats()); err != nil {
			return masker.Accepted, err
		}
	}

	return masker.Accepted, nil
}

// Consume processes records from source in order and writes the accepted ones to sink
func (m *Masker) Consume(source alignmentReader, sink alignmentWriter) error {
	total := 0
	for {
		rec, err := source.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "failed to read record %d", total+1)
		}
		total++

		record := NewRecord(rec)
		ok, err := m.Process(record)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if err := sink.Write(record.Record); err != nil {
			return errors.Wrapf(err, "failed to write %s", record.Name)
		}
	}

	sugar.Debugf("read %d reads, %d kept", total, m.Accepted)
	return nil
}
