package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "sample.bam", "")
	reference := writeFile(t, dir, "ref.fa", testReference)

	c := defaultConfig()
	c.Input = input
	c.Masking = "e"
	c.Strandness = "d"
	c.Reference = reference
	c.Output = filepath.Join(dir, "masked.sam")

	settings, err := c.validate()
	require.NoError(t, err)
	assert.Equal(t, BAM, settings.Format)
	assert.Equal(t, ReferenceGuidedEdge, settings.Mode)
	assert.Equal(t, DoubleStranded, settings.Strandedness)
	assert.Equal(t, 5, settings.EdgeCount)
	assert.Equal(t, filepath.Join(dir, "masked.bam"), settings.Output)
	assert.Equal(t, filepath.Join(dir, "masked.bam_stats.tsv"), settings.Stats)
	assert.True(t, settings.Progress)
}

func TestValidateDefaults(t *testing.T) {
	dir := t.TempDir()

	c := defaultConfig()
	c.Input = writeFile(t, dir, "sample.sam", "")
	c.NoProgress = true

	settings, err := c.validate()
	require.NoError(t, err)
	assert.Equal(t, Hard, settings.Mode)
	assert.Equal(t, SingleStranded, settings.Strandedness)
	assert.Equal(t, "output_modified.sam", settings.Output)
	assert.False(t, settings.Progress)
}

func TestValidateErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "sample.sam", "")

	tests := []struct {
		name   string
		modify func(c *config)
	}{
		{"no input", func(c *config) { c.Input = "" }},
		{"missing input", func(c *config) { c.Input = filepath.Join(dir, "missing.sam") }},
		{"unknown extension", func(c *config) { c.Input = writeFile(t, dir, "sample.cram", "") }},
		{"unknown masking", func(c *config) { c.Masking = "S" }},
		{"unknown strandness", func(c *config) { c.Strandness = "X" }},
		{"negative edge count", func(c *config) { c.EdgeCount = -1 }},
		{"negative mapq", func(c *config) { c.MapQCutoff = -1 }},
		{"missing reference", func(c *config) { c.Reference = filepath.Join(dir, "missing.fa") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaultConfig()
			c.Input = input
			tt.modify(&c)

			_, err := c.validate()
			assert.Error(t, err)
		})
	}
}

func TestValidateFormatError(t *testing.T) {
	c := defaultConfig()
	c.Input = writeFile(t, t.TempDir(), "sample.txt", "")

	_, err := c.validate()
	assert.Equal(t, errUnknownFormat, errors.Cause(err))
}

func TestTicTocTimer(t *testing.T) {
	timer := InitTimer()
	timer.Tic()
	time.Sleep(2 * time.Millisecond)
	timer.Toc()
	first := timer.TicToc()
	assert.True(t, first >= 2*time.Millisecond)

	timer.Tic()
	timer.Toc()
	assert.True(t, timer.TicToc() >= first)
}
