// Package stable tabulates generalized Stirling numbers S^n_{t,a} of the
// two-parameter Poisson-Dirichlet process in log space.
//
// The recursion is S^{n+1}_{t,a} = S^n_{t-1,a} + (n - t a) S^n_{t,a} with
// S^0_{0,a} = 1. Rows are built once up to a fixed size, the table is
// read-only afterwards and may be shared by every sampling worker.
package stable

import (
	"errors"
	"math"

	"github.com/StevenLOL/LexSemTm/util"
)

var ErrDiscount = errors.New("stable: discount must be in [0, 1)")

type Table struct {
	a    float64
	maxN uint32
	logS [][]float64
}

// New tabulates S^n_{t,a} for n <= maxN.
func New(a float64, maxN uint32) (*Table, error) {
	if a < 0 || a >= 1 {
		return nil, ErrDiscount
	}
	if maxN < 1 {
		maxN = 1
	}
	logS := make([][]float64, maxN+1)
	logS[0] = []float64{0}
	for n := uint32(0); n < maxN; n += 1 {
		row := make([]float64, n+2)
		row[0] = math.Inf(-1)
		for t := uint32(1); t <= n+1; t += 1 {
			v := logS[n][t-1]
			if t <= n {
				v = util.LogAdd(v, math.Log(float64(n)-float64(t)*a)+logS[n][t])
			}
			row[t] = v
		}
		logS[n+1] = row
	}
	return &Table{a: a, maxN: maxN, logS: logS}, nil
}

// discount the table was built for
func (s *Table) Discount() float64 {
	return s.a
}

// largest n held exactly
func (s *Table) MaxN() uint32 {
	return s.maxN
}

// log S^n_{t,a}, -Inf when the number is zero. Beyond the table the row
// at maxN is extended with the leading-order growth of the recursion.
func (s *Table) LogS(n, t uint32) float64 {
	if t > n || (t == 0 && n > 0) {
		return math.Inf(-1)
	}
	if n <= s.maxN {
		return s.logS[n][t]
	}
	if t > s.maxN {
		// only reachable through huge t, treat as S^n_n = 1
		return 0
	}
	v := s.logS[s.maxN][t]
	for m := s.maxN; m < n; m += 1 {
		v += math.Log(float64(m) - float64(t)*s.a)
	}
	return v
}

// U returns S^{n+1}_{t+1,a} / S^n_{t,a}, the weight of adding a
// customer that opens a new table.
func (s *Table) U(n, t uint32) float64 {
	if n == 0 && t == 0 {
		return 1
	}
	if t == 0 || t > n {
		return 0
	}
	if n+1 <= s.maxN {
		return math.Exp(s.logS[n+1][t+1] - s.logS[n][t])
	}
	// S^n_{t-1}/S^n_t vanishes for large n, leaving one
	return 1
}

// V returns S^{n+1}_{t,a} / S^n_{t,a}, the weight of adding a customer
// to an existing table.
func (s *Table) V(n, t uint32) float64 {
	if t == 0 || t > n {
		return 0
	}
	if n+1 <= s.maxN {
		return math.Exp(s.logS[n+1][t] - s.logS[n][t])
	}
	return float64(n) - float64(t)*s.a
}
