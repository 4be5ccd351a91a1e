package sstable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/StevenLOL/LexSemTm/table"
)

// AssignmentsSerialize writes one "topic,flag" line per token after a
// header holding the token count.
func AssignmentsSerialize(z table.Assignments, fn string) (err error) {
	out, err := create(fn)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	fmt.Fprintf(out, "%d\n", len(z))
	for _, tok := range z {
		flag := 0
		if tok.TableFlag() {
			flag = 1
		}
		fmt.Fprintf(out, "%d,%d\n", tok.Topic(), flag)
	}
	return nil
}

// AssignmentsDeserialize reads back what AssignmentsSerialize wrote. Every
// topic must be below topics.
func AssignmentsDeserialize(fn string, topics uint32) (table.Assignments, error) {
	in, scanner, err := open(fn)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s is empty: %w", fn, ErrCorrupted)
	}
	n, err := strconv.ParseUint(scanner.Text(), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%s header: %w", fn, err)
	}

	z := table.NewAssignments(uint32(n))
	i := 0
	for scanner.Scan() {
		if i >= len(z) {
			return nil, fmt.Errorf("%s has more than %d tokens: %w", fn, n, ErrCorrupted)
		}
		parts := strings.Split(scanner.Text(), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s token %d: %w", fn, i, ErrCorrupted)
		}
		t, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%s token %d: %w", fn, i, err)
		}
		if uint32(t) >= topics {
			return nil, fmt.Errorf("%s token %d has topic %d of %d: %w", fn, i, t, topics, ErrCorrupted)
		}
		z[i] = table.NewToken(uint32(t))
		if parts[1] == "1" {
			z[i].SetTableFlag()
		}
		i += 1
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if i != len(z) {
		return nil, fmt.Errorf("%s holds %d of %d tokens: %w", fn, i, n, ErrCorrupted)
	}
	return z, nil
}
