package model

import (
	"fmt"

	log "github.com/golang/glog"

	"github.com/StevenLOL/LexSemTm/sstable"
)

// name appends the suffix of a snapshot file to the output stem.
func (m *HCA) name(fn, ext string) string {
	fn += ext
	if m.cfg.Compress {
		fn += ".zst"
	}
	return fn
}

// serialize document-topic distribution
func (m *HCA) SaveTheta(fn string) error {
	return sstable.Float32Serialize(m.Theta(), m.name(fn, ".theta"))
}

// serialize word-topic distribution
func (m *HCA) SavePhi(fn string) error {
	return sstable.Float32Serialize(m.Phi(), m.name(fn, ".phi"))
}

// serialize the averaged sampling distribution, nothing before burn-in
func (m *HCA) SaveProb(fn string) error {
	prob := m.Prob()
	if prob == nil {
		return nil
	}
	return sstable.Float32Serialize(prob, m.name(fn, ".prob"))
}

// serialize doc-topic and word-topic counts, and their tables when the
// sides are Pitman-Yor
func (m *HCA) SaveCounts(fn string) error {
	if err := sstable.Uint32Serialize(m.s.Ndt, m.name(fn, ".dt")); err != nil {
		return err
	}
	if err := sstable.Uint32Serialize(m.s.Nwt, m.name(fn, ".wt")); err != nil {
		return err
	}
	if m.cfg.DocPY() {
		if err := sstable.Uint32Serialize(m.s.Tdt, m.name(fn, ".tdt")); err != nil {
			return err
		}
	}
	if m.cfg.WordPY() {
		if err := sstable.Uint32Serialize(m.s.Twt, m.name(fn, ".twt")); err != nil {
			return err
		}
	}
	return nil
}

func (m *HCA) SaveAssignments(fn string) error {
	return sstable.AssignmentsSerialize(m.z, m.name(fn, ".z"))
}

// LoadAssignments replaces the assignments with the ones saved under fn
// and rebuilds the statistics from them.
func (m *HCA) LoadAssignments(fn string) error {
	z, err := sstable.AssignmentsDeserialize(m.name(fn, ".z"), m.cfg.Topics)
	if err != nil {
		return err
	}
	if len(z) != len(m.z) {
		return fmt.Errorf("load %s: %d assignments for %d tokens: %w",
			fn, len(z), len(m.z), sstable.ErrCorrupted)
	}
	copy(m.z, z)
	if err := m.rebuild(); err != nil {
		return err
	}
	log.Infof("loaded assignments from %s", fn)
	return nil
}
