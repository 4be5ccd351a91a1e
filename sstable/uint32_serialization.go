package sstable

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/golang/glog"

	"github.com/StevenLOL/LexSemTm/matrix"
)

// serialize a count matrix to file, zero cells are skipped
func Uint32Serialize(m matrix.Reader, fn string) (err error) {
	out, err := create(fn)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	r, c := m.Shape()
	// write the matrix shape
	fmt.Fprintf(out, "%d,%d\n", r, c)

	var val uint32
	for ridx := uint32(0); ridx < r; ridx += 1 {
		for cidx := uint32(0); cidx < c; cidx += 1 {
			val = m.Get(ridx, cidx)
			if val > 0 { // only write out nonzero value
				fmt.Fprintf(out, "%d,%d,%d\n", ridx, cidx, val)
			}
		}
	}
	return nil
}

// parseShape reads the "rows,cols" header line.
func parseShape(txt string) (uint32, uint32, error) {
	shape := strings.Split(txt, ",")
	if len(shape) != 2 {
		return 0, 0, fmt.Errorf("shape not found in %q: %w", txt, ErrCorrupted)
	}
	row, err := strconv.ParseUint(shape[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	col, err := strconv.ParseUint(shape[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	if row == 0 || col == 0 {
		return 0, 0, fmt.Errorf("empty shape %q: %w", txt, ErrCorrupted)
	}
	return uint32(row), uint32(col), nil
}

// parseCell splits a "row,col,value" line and checks the indices.
func parseCell(txt string, rows, cols uint32) (uint32, uint32, string, error) {
	value := strings.Split(txt, ",")
	if len(value) != 3 {
		return 0, 0, "", fmt.Errorf("bad cell %q: %w", txt, ErrCorrupted)
	}
	ridx, err := strconv.ParseUint(value[0], 10, 32)
	if err != nil {
		return 0, 0, "", err
	}
	cidx, err := strconv.ParseUint(value[1], 10, 32)
	if err != nil {
		return 0, 0, "", err
	}
	if uint32(ridx) >= rows || uint32(cidx) >= cols {
		return 0, 0, "", fmt.Errorf("cell %q outside %dx%d: %w", txt, rows, cols, ErrCorrupted)
	}
	return uint32(ridx), uint32(cidx), value[2], nil
}

// deserialize a count matrix from file
func Uint32Deserialize(fn string) (*matrix.Uint32Matrix, error) {
	in, scanner, err := open(fn)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	lineIdx := 0
	var tmp *matrix.Uint32Matrix
	var rows, cols uint32
	for scanner.Scan() {
		txt := scanner.Text()
		if lineIdx == 0 {
			rows, cols, err = parseShape(txt)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fn, err)
			}
			tmp = matrix.NewUint32Matrix(rows, cols)
			lineIdx += 1
			continue
		}

		ridx, cidx, raw, err := parseCell(txt, rows, cols)
		if err != nil {
			log.Warningf("%s: skipping line %d: %v", fn, lineIdx, err)
			lineIdx += 1
			continue
		}
		val, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", fn, lineIdx, err)
		}
		tmp.Set(ridx, cidx, uint32(val))
		lineIdx += 1
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if tmp == nil {
		return nil, fmt.Errorf("%s is empty: %w", fn, ErrCorrupted)
	}
	return tmp, nil
}
