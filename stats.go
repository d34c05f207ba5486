package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type metric int

const (
	damageMetric metric = iota
	indelMetric
	otherMetric
	totalMetric
	metricCount
)

// Histogram counts reads by the number of events they carry
type Histogram [histogramBuckets]int

// Add counts one read with n events, anything beyond the last bucket lands in it
func (h *Histogram) Add(n int) {
	if n >= histogramBuckets {
		n = histogramBuckets - 1
	}
	h[n]++
}

// Histograms is the set of per metric histograms of one strand
type Histograms [metricCount]Histogram

func (h *Histograms) merge(other *Histograms) {
	for m := range h {
		for i := range h[m] {
			h[m][i] += other[m][i]
		}
	}
}

// ReadCounts are the events found in one reconciled read
type ReadCounts struct {
	Damage int
	Indels int
	Other  int
}

// Total as name says
func (c ReadCounts) Total() int {
	return c.Damage + c.Indels + c.Other
}

// countEvents compares the reconciled read against its reference over the whole
// read, independent of any edge restriction. Damage follows the signatures the policy
// applies for this strand. Every base differing from the reference is a mismatch,
// damaged ones included. Deletions are indels, unresolved bases and clipped bases are ignored.
func countEvents(aligned *Aligned, policy Policy, reverse bool) ReadCounts {
	forward, complement := policy.signatures(reverse)

	var res ReadCounts
	for i, r := range aligned.Read {
		f := aligned.Ref[i]
		if r == gap {
			res.Indels++
			continue
		}

		if (forward && forwardDamage.hit(f, r, true)) || (complement && reverseDamage.hit(f, r, true)) {
			res.Damage++
		}
		if r != masked && f != clipPad && f != r {
			res.Other++
		}
	}
	return res
}

// Aggregator accumulates the per read event counts by strand.
// It is not safe for concurrent use, give each worker its own and Merge them.
type Aggregator struct {
	Reads   int
	Forward Histograms
	Reverse Histograms
}

// NewAggregator as name says
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add tabulates one read
func (a *Aggregator) Add(counts ReadCounts, reverse bool) {
	h := &a.Forward
	if reverse {
		h = &a.Reverse
	}

	h[damageMetric].Add(counts.Damage)
	h[indelMetric].Add(counts.Indels)
	h[otherMetric].Add(counts.Other)
	h[totalMetric].Add(counts.Total())
	a.Reads++
}

// Merge folds other into a
func (a *Aggregator) Merge(other *Aggregator) {
	a.Reads += other.Reads
	a.Forward.merge(&other.Forward)
	a.Reverse.merge(&other.Reverse)
}

// Combined sums forward and reverse histograms bucket by bucket
func (a *Aggregator) Combined() Histograms {
	res := a.Forward
	res.merge(&a.Reverse)
	return res
}

func getStatsHeader() []string {
	res := []string{"Mismatches"}
	for _, strand := range []string{"fwd", "rev", "tot"} {
		for _, name := range []string{"dmg", "indels", "other_mismatches", "mismatches_total"} {
			res = append(res, fmt.Sprintf("%s_reads_%s", strand, name))
		}
	}
	return res
}

// WriteReport writes the stats table for total analyzed reads of input
func (a *Aggregator) WriteReport(w io.Writer, input string, total int) error {
	writer := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(writer, "Analysis for %s, total reads analyzed: %d\n", input, total); err != nil {
		return err
	}

	if _, err := writer.WriteString(strings.Join(getStatsHeader(), "\t") + "\n"); err != nil {
		return err
	}

	combined := a.Combined()
	for i := 0; i < histogramBuckets; i++ {
		row := []string{fmt.Sprintf("%d", i)}
		for _, h := range []*Histograms{&a.Forward, &a.Reverse, &combined} {
			for m := damageMetric; m < metricCount; m++ {
				row = append(row, fmt.Sprintf("%d", h[m][i]))
			}
		}

		if _, err := writer.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
			return err
		}
	}

	return writer.Flush()
}

// writeStats appends the report to path, creating it when missing
func writeStats(path, input string, total int, aggregator *Aggregator) error {
	sugar.Infof("write statistics into %s", path)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}

	if err := aggregator.WriteReport(f, input, total); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}

	return f.Close()
}
