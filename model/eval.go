package model

import (
	"fmt"
	"math"
	"math/rand"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/floats"

	"github.com/StevenLOL/LexSemTm/burst"
	"github.com/StevenLOL/LexSemTm/gibbs"
	"github.com/StevenLOL/LexSemTm/table"
)

// initTest gives the test tokens random live topics. Assignments kept
// from an earlier Infer are reused so later calls start warm.
func (m *HCA) initTest() error {
	var live []uint32
	for t := uint32(0); t < m.cfg.Topics; t += 1 {
		if m.s.Live(t) {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		live = append(live, 0)
	}
	rnd := rand.New(rand.NewSource(m.cfg.Seed + 1))
	for i := m.trainTokens(); i < m.data.NumTokens(); i += 1 {
		m.z[i] = table.NewToken(live[rnd.Intn(len(live))])
	}
	if m.idx != nil {
		return burst.InitTableFlags(m.idx, m.z, m.cfg.Topics, m.data.TrainNum, m.data.DocNum)
	}
	return nil
}

// Infer estimates the per-token log-likelihood of the test documents. Each
// document is added to the statistics, sampled for Test.Iterations sweeps
// and removed again; the sweeps after Test.BurnIn are combined with a
// harmonic mean. With held-out tokens only those are scored and the
// rest of the document only fixes its topic proportions.
func (m *HCA) Infer() (float64, error) {
	if m.data.TrainNum >= m.data.DocNum {
		return 0, nil
	}
	if !m.ready {
		return 0, fmt.Errorf("infer: model not trained")
	}
	samples := m.cfg.Test.Iterations - m.cfg.Test.BurnIn
	if samples <= 0 {
		return 0, fmt.Errorf("infer: %d test iterations after burn-in", samples)
	}
	if !m.tested {
		if err := m.initTest(); err != nil {
			return 0, err
		}
		m.tested = true
	}

	mode := gibbs.Sample
	if m.hold.Len() > 0 {
		mode = gibbs.Hold
	}
	procs := m.pool.Procs()
	liks := make([]float64, procs)
	words := make([]uint64, procs)

	err := m.pool.Run(m.data.TrainNum, m.data.DocNum, func(wk *gibbs.Worker, d uint32) error {
		added, err := m.e.AddDoc(wk, d)
		if err != nil {
			return err
		}
		held := m.hold.Within(m.data.Doc(d))
		if added <= 1 || (mode == gibbs.Hold && held <= 1) {
			return m.e.RemoveDoc(wk, d)
		}

		inv := make([]float64, 0, samples)
		for r := 0; r < m.cfg.Test.Iterations; r += 1 {
			ll, err := m.e.Sweep(wk, d, mode, gibbs.PassResample, m.cfg.Topics)
			if err != nil {
				return err
			}
			if r >= m.cfg.Test.BurnIn {
				inv = append(inv, -ll)
			}
		}
		liks[wk.ID] += math.Log(float64(samples)) - floats.LogSumExp(inv)
		if mode == gibbs.Hold {
			words[wk.ID] += held
		} else {
			words[wk.ID] += uint64(added)
		}
		return m.e.RemoveDoc(wk, d)
	})
	if err != nil {
		return 0, fmt.Errorf("infer: %w", err)
	}

	lik := floats.Sum(liks)
	total := uint64(0)
	for _, w := range words {
		total += w
	}
	if total == 0 {
		return 0, nil
	}
	log.Infof("test %s log-likelihood %f over %d tokens, perplexity %f",
		mode, lik, total, math.Exp(-lik/float64(total)))
	return lik / float64(total), nil
}
