// Package sstable reads and writes snapshots of the sampler: count and
// estimate matrices as sparse "row,col,value" text and the token
// assignments. A file name ending in .zst is zstd compressed.
package sstable

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var ErrCorrupted = errors.New("sstable: corrupted file")

const zstdSuffix = ".zst"

type writer struct {
	*bufio.Writer
	f   *os.File
	enc *zstd.Encoder
}

func create(fn string) (*writer, error) {
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	w := &writer{f: f}
	var out io.Writer = f
	if strings.HasSuffix(fn, zstdSuffix) {
		w.enc, err = zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		out = w.enc
	}
	w.Writer = bufio.NewWriter(out)
	return w, nil
}

// Close flushes every layer, the first error wins.
func (w *writer) Close() error {
	err := w.Flush()
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

type reader struct {
	f   *os.File
	dec *zstd.Decoder
}

func open(fn string) (*reader, *bufio.Scanner, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, nil, err
	}
	r := &reader{f: f}
	var in io.Reader = f
	if strings.HasSuffix(fn, zstdSuffix) {
		r.dec, err = zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		in = r.dec
	}
	return r, bufio.NewScanner(in), nil
}

func (r *reader) Close() error {
	if r.dec != nil {
		r.dec.Close()
	}
	return r.f.Close()
}
