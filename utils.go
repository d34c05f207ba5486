package main

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// progressReader advances a bytes progress bar with everything read through it
type progressReader struct {
	io.Reader
	bar *progressbar.ProgressBar
}

func newProgressReader(r io.Reader, size int64, description string) *progressReader {
	return &progressReader{Reader: r, bar: progressbar.DefaultBytes(size, description)}
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.bar.Add(n)
	if err == io.EOF {
		r.bar.Finish()
	}
	return n, err
}
