package sstable

import (
	"fmt"
	"strconv"

	log "github.com/golang/glog"

	"github.com/StevenLOL/LexSemTm/matrix"
)

// serialize an estimate matrix to file, zero cells are skipped
func Float32Serialize(m *matrix.Float32Matrix, fn string) (err error) {
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

	var val float32
	for ridx := uint32(0); ridx < r; ridx += 1 {
		for cidx := uint32(0); cidx < c; cidx += 1 {
			val = m.Get(ridx, cidx)
			if val != 0 { // only write out nonzero value
				fmt.Fprintf(out, "%d,%d,%s\n", ridx, cidx, strconv.FormatFloat(float64(val), 'g', -1, 32))
			}
		}
	}
	return nil
}

// deserialize an estimate matrix from file
func Float32Deserialize(fn string) (*matrix.Float32Matrix, error) {
	in, scanner, err := open(fn)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	lineIdx := 0
	var tmp *matrix.Float32Matrix
	var rows, cols uint32
	for scanner.Scan() {
		txt := scanner.Text()
		if lineIdx == 0 {
			rows, cols, err = parseShape(txt)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fn, err)
			}
			tmp = matrix.NewFloat32Matrix(rows, cols)
			lineIdx += 1
			continue
		}

		ridx, cidx, raw, err := parseCell(txt, rows, cols)
		if err != nil {
			log.Warningf("%s: skipping line %d: %v", fn, lineIdx, err)
			lineIdx += 1
			continue
		}
		val, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", fn, lineIdx, err)
		}
		tmp.Set(ridx, cidx, float32(val))
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
