package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/voxelbrain/goptions"
)

// validate checks the flags and converts them into Settings,
// nothing is written before the whole configuration is known to be usable
func (c *config) validate() (*Settings, error) {
	if c.Input == "" {
		return nil, errors.New("no input file was given, please specify an input SAM or BAM file (-i|--input_file)")
	}

	if _, err := os.Stat(c.Input); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("input SAM/BAM file '%s' not found", c.Input)
		}
		return nil, errors.Wrapf(err, "failed to access %s", c.Input)
	}

	format, err := detectFormat(c.Input)
	if err != nil {
		return nil, err
	}

	strandedness, err := parseStrandedness(c.Strandness)
	if err != nil {
		return nil, err
	}

	mode, err := parseMode(c.Masking, c.Reference != "")
	if err != nil {
		return nil, err
	}

	if c.EdgeCount < 0 {
		return nil, errors.Errorf("edge count must not be negative, got %d", c.EdgeCount)
	}

	if c.MapQCutoff < 0 || c.LenCutoff < 0 {
		return nil, errors.Errorf("cutoffs must not be negative, got MAPQ %d and length %d", c.MapQCutoff, c.LenCutoff)
	}

	if c.Reference != "" {
		if _, err := os.Stat(c.Reference); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Errorf("reference FASTA file '%s' not found", c.Reference)
			}
			return nil, errors.Wrapf(err, "failed to access %s", c.Reference)
		}
	}

	if c.Output == "" {
		c.Output = defaultConfig().Output
	}
	output := forceExtension(c.Output, format)

	return &Settings{
		Input: c.Input, Output: output,
		Stats:     output + "_stats.tsv",
		Reference: c.Reference, Format: format,
		Mode: mode, Strandedness: strandedness,
		EdgeCount:  c.EdgeCount,
		MapQCutoff: c.MapQCutoff, LenCutoff: c.LenCutoff,
		Fast: c.Fast, Progress: !c.NoProgress,
	}, nil
}

// summary logs the settings for reproducibility
func summary(settings *Settings) {
	sugar.Infof("DamageMasker will now process %s", settings.Input)
	sugar.Infof("Masking type: %s of a %s library", settings.Mode, settings.Strandedness)
	if settings.Mode.Guided() {
		sugar.Infof("Reference used: %s", settings.Reference)
	} else if settings.Reference != "" {
		sugar.Warnf("Reference %s is ignored when only filtering", settings.Reference)
	}
	if settings.Mode == Edge || settings.Mode == ReferenceGuidedEdge {
		sugar.Infof("Number of edge bases masked: %d", settings.EdgeCount)
	}
	if settings.MapQCutoff != 0 {
		sugar.Infof("Remove reads with MapQ score below: %d", settings.MapQCutoff)
	}
	if settings.LenCutoff != 0 {
		sugar.Infof("Remove reads with length below: %d bp", settings.LenCutoff)
	}
	sugar.Infof("Masked %s will be saved to: %s", settings.Format, settings.Output)
	if settings.Mode.Guided() {
		sugar.Infof("Additional edit distance analysis is stored to: %s", settings.Stats)
	}
}

func main() {
	conf = defaultConfig()
	goptions.ParseAndFail(&conf)

	setLogger(conf.Debug, conf.Log)
	defer logger.Sync()

	if conf.Version {
		sugar.Infof("current version: %v", VERSION)
		os.Exit(0)
	}

	settings, err := conf.validate()
	if err != nil {
		sugar.Fatal(err)
	}

	summary(settings)

	timer := InitTimer()
	timer.Tic()

	total, err := run(settings)
	if err != nil {
		sugar.Fatal(err)
	}

	timer.Toc()
	sugar.Infof("Finished processing %s, %d reads processed in %v", settings.Input, total, timer.TicToc())
}
