// Package config holds the sampler settings, read from a YAML file and
// overridden from the command line.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid value")

// PYP are the discount and concentration of a Pitman-Yor process. Root is
// the concentration of the process above it, when there is one.
type PYP struct {
	A    float64 `yaml:"a"`
	B    float64 `yaml:"b"`
	Root float64 `yaml:"root"`
}

// Growth limits the number of live topics early in training: Init topics
// at first, Inc more every Cycle iterations, no limit after Free.
type Growth struct {
	Init  uint32 `yaml:"init"`
	Inc   uint32 `yaml:"inc"`
	Cycle int    `yaml:"cycle"`
	Free  int    `yaml:"free"`
}

// Hold selects the held-out tokens of test documents.
type Hold struct {
	Every    int     `yaml:"every"`
	Fraction float64 `yaml:"fraction"`
	Dict     int     `yaml:"dict"`
}

// Test controls the likelihood of test documents.
type Test struct {
	Docs       uint32 `yaml:"docs"`
	Iterations int    `yaml:"iterations"`
	BurnIn     int    `yaml:"burn_in"`
}

type Config struct {
	Model      string `yaml:"model"` // lda, hpyp or bursty
	Topics     uint32 `yaml:"topics"`
	Iterations int    `yaml:"iterations"`
	BurnIn     int    `yaml:"burn_in"` // probability diagnostics start after this
	Procs      int    `yaml:"procs"`
	Seed       int64  `yaml:"seed"`

	Alpha float64 `yaml:"alpha"` // Dirichlet document prior
	Beta  float64 `yaml:"beta"`  // Dirichlet word prior
	Doc   PYP     `yaml:"doc"`
	Word  PYP     `yaml:"word"`
	Burst PYP     `yaml:"burst"`

	Growth Growth `yaml:"growth"`
	Hold   Hold   `yaml:"hold"`
	Test   Test   `yaml:"test"`

	Stirling uint32 `yaml:"stirling"` // exact rows of the Stirling tables
	Strict   bool   `yaml:"strict"`
	Output   string `yaml:"output"`
	Compress bool   `yaml:"compress"`
}

func Default() *Config {
	return &Config{
		Model:      "bursty",
		Topics:     20,
		Iterations: 100,
		BurnIn:     50,
		Procs:      1,
		Seed:       1,
		Alpha:      0.1,
		Beta:       0.01,
		Doc:        PYP{A: 0.0, B: 10, Root: 10},
		Word:       PYP{A: 0.5, B: 500},
		Burst:      PYP{A: 0.0, B: 100},
		Test:       Test{Iterations: 40, BurnIn: 10},
		Stirling:   1000,
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func invalid(field string, v any) error {
	return fmt.Errorf("%s = %v: %w", field, v, ErrInvalidConfig)
}

func (c *Config) Validate() error {
	switch c.Model {
	case "lda", "hpyp", "bursty":
	default:
		return invalid("model", c.Model)
	}
	switch {
	case c.Topics == 0:
		return invalid("topics", c.Topics)
	case c.Iterations < 0:
		return invalid("iterations", c.Iterations)
	case c.Procs < 1:
		return invalid("procs", c.Procs)
	case c.Alpha <= 0:
		return invalid("alpha", c.Alpha)
	case c.Beta <= 0:
		return invalid("beta", c.Beta)
	case c.Stirling < 1:
		return invalid("stirling", c.Stirling)
	case c.Growth.Init > c.Topics:
		return invalid("growth.init", c.Growth.Init)
	case c.Growth.Init > 0 && c.Growth.Inc > 0 && c.Growth.Cycle <= 0:
		return invalid("growth.cycle", c.Growth.Cycle)
	case c.Hold.Fraction < 0 || c.Hold.Fraction >= 1:
		return invalid("hold.fraction", c.Hold.Fraction)
	case c.Test.BurnIn >= c.Test.Iterations && c.Test.Docs > 0:
		return invalid("test.burn_in", c.Test.BurnIn)
	}
	for _, p := range []struct {
		name string
		pyp  PYP
	}{{"doc", c.Doc}, {"word", c.Word}, {"burst", c.Burst}} {
		if p.pyp.A < 0 || p.pyp.A >= 1 {
			return invalid(p.name+".a", p.pyp.A)
		}
		if p.pyp.B <= -p.pyp.A {
			return invalid(p.name+".b", p.pyp.B)
		}
	}
	if c.Doc.Root <= 0 {
		return invalid("doc.root", c.Doc.Root)
	}
	return nil
}

// TopicCap is the most topics that may be live during iteration iter.
func (c *Config) TopicCap(iter int) uint32 {
	g := c.Growth
	if g.Init == 0 || (g.Free > 0 && iter >= g.Free) {
		return c.Topics
	}
	limit := g.Init
	if g.Cycle > 0 {
		limit += uint32(iter/g.Cycle) * g.Inc
	}
	return min(limit, c.Topics)
}

// whether the document side uses tables
func (c *Config) DocPY() bool {
	return c.Model != "lda"
}

// whether the word side uses tables
func (c *Config) WordPY() bool {
	return c.Model != "lda"
}

func (c *Config) Bursty() bool {
	return c.Model == "bursty"
}
