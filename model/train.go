package model

import (
	"fmt"
	"math"
	"math/rand"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/floats"

	"github.com/StevenLOL/LexSemTm/burst"
	"github.com/StevenLOL/LexSemTm/gibbs"
	"github.com/StevenLOL/LexSemTm/matrix"
	"github.com/StevenLOL/LexSemTm/table"
)

// Init draws a random topic below the first growth cap for every training
// token and rebuilds the statistics from it.
func (m *HCA) Init() error {
	rnd := rand.New(rand.NewSource(m.cfg.Seed))
	tinit := m.cfg.TopicCap(0)
	end := m.data.DocStart[m.data.TrainNum]
	for i := uint32(0); i < end; i += 1 {
		m.z[i] = table.NewToken(uint32(rnd.Int31n(int32(tinit))))
	}
	return m.rebuild()
}

// rebuild derives table flags where the burst model needs them and then
// every count from the assignments of the training documents.
func (m *HCA) rebuild() error {
	if m.idx != nil {
		if err := burst.InitTableFlags(m.idx, m.z, m.cfg.Topics, 0, m.data.TrainNum); err != nil {
			return err
		}
	}
	m.resetTables()
	if err := m.pool.Rebuild(0, m.data.TrainNum); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	m.ready = true
	return nil
}

// trainTokens is the number of tokens sampled per training pass.
func (m *HCA) trainTokens() uint32 {
	return m.data.DocStart[m.data.TrainNum]
}

// Train runs iter sampling passes over the training documents. The first
// call draws the initial assignment unless one was loaded.
func (m *HCA) Train(iter int) error {
	if !m.ready {
		if err := m.Init(); err != nil {
			return err
		}
	}
	tokens := float64(m.trainTokens())
	for it := 0; it < iter; it += 1 {
		if it == m.cfg.BurnIn && m.prob == nil {
			m.prob = matrix.NewFloat32Matrix(m.data.DocNum, m.cfg.Topics)
			m.e.SetProb(m.prob)
		}
		ll, err := m.pool.Pass(0, m.data.TrainNum, gibbs.Sample, gibbs.PassResample, m.cfg.TopicCap(it))
		if err != nil {
			return fmt.Errorf("iteration %d: %w", it, err)
		}
		if it%10 == 0 {
			log.Infof("iter %5d, log-likelihood %f, perplexity %f, %d live topics",
				it, ll, math.Exp(-ll/tokens), m.s.LiveTopics())
		}
	}
	m.e.SetProb(nil)

	if m.cfg.Strict {
		if err := m.s.CheckWords(); err != nil {
			return err
		}
	}
	if m.idx != nil {
		if m.cfg.Strict {
			if err := burst.Check(m.idx, m.z, m.cfg.Topics, 0, m.data.TrainNum); err != nil {
				return err
			}
		}
		lik, err := m.BurstLikelihood()
		if err != nil {
			return err
		}
		log.Infof("burst log-likelihood %f", lik)
	}
	log.Infof("joint log-likelihood %f", m.Likelihood())
	return nil
}

// BurstLikelihood scores the repeat statistics of the training documents.
func (m *HCA) BurstLikelihood() (float64, error) {
	docs, err := burst.Export(m.idx, m.z, m.cfg.Topics, m.cfg.Procs)
	if err != nil {
		return 0, err
	}
	return burst.Likelihood(docs, m.cfg.Burst.A, m.bdk, m.sb, nil), nil
}

// normalize scales row to sum to one and stores it as float32.
func normalize(row []float64, out []float32) {
	if sum := floats.Sum(row); sum > 0 {
		floats.Scale(1/sum, row)
	}
	for k, v := range row {
		out[k] = float32(v)
	}
}

// compute the posterior point estimation of document-topic mixture
func (m *HCA) Theta() *matrix.Float32Matrix {
	T := m.cfg.Topics
	theta := matrix.NewFloat32Matrix(m.data.DocNum, T)
	row := make([]float64, T)
	for d := uint32(0); d < m.data.DocNum; d += 1 {
		tables := m.s.TdT[d]
		for k := uint32(0); k < T; k += 1 {
			row[k] = m.DocProb(d, k, tables)
		}
		normalize(row, theta.Row(d))
	}
	return theta
}

// compute the posterior point estimation of word-topic mixture, W x T
func (m *HCA) Phi() *matrix.Float32Matrix {
	W, T := m.data.VocabSize, m.cfg.Topics
	phi := matrix.NewFloat32Matrix(W, T)
	col := make([]float64, W)
	out := make([]float32, W)
	for k := uint32(0); k < T; k += 1 {
		for w := uint32(0); w < W; w += 1 {
			col[w] = m.WordProb(w, k)
		}
		normalize(col, out)
		for w, v := range out {
			phi.Set(uint32(w), k, v)
		}
	}
	return phi
}

// Prob is the averaged sampling distribution of every document since
// burn-in, nil before.
func (m *HCA) Prob() *matrix.Float32Matrix {
	if m.prob == nil {
		return nil
	}
	D, T := m.prob.Shape()
	out := matrix.NewFloat32Matrix(D, T)
	row := make([]float64, T)
	for d := uint32(0); d < D; d += 1 {
		for k, v := range m.prob.Row(d) {
			row[k] = float64(v)
		}
		normalize(row, out.Row(d))
	}
	return out
}

// compute the joint likelihood of the training documents
func (m *HCA) Likelihood() float64 {
	phi := m.Phi()
	theta := m.Theta()

	T := m.cfg.Topics
	sum := 0.0
	for d := uint32(0); d < m.data.TrainNum; d += 1 {
		start, end := m.data.Doc(d)
		for i := start; i < end; i += 1 {
			w := m.data.Words[i]
			topicSum := 0.0
			for k := uint32(0); k < T; k += 1 {
				topicSum += float64(phi.Get(w, k)) * float64(theta.Get(d, k))
			}
			sum += math.Log(topicSum)
		}
	}
	return sum
}
