package main

import (
	"crypto/rand"
	"flag"

	log "github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/StevenLOL/LexSemTm/config"
	"github.com/StevenLOL/LexSemTm/corpus"
	"github.com/StevenLOL/LexSemTm/model"
)

var (
	configFile = flag.String("config", "", "YAML sampler configuration")
	input      = flag.String("input_file", "", "input training file")
	topicModel = flag.String("model", "bursty", "model type: lda, hpyp or bursty")
	topicNum   = flag.Uint("k", 20, "number of topics")
	iteration  = flag.Int("iter", 100, "number of iteration")
	procs      = flag.Int("procs", 1, "number of sampling workers")
	seed       = flag.Int64("seed", 1, "random seed")
	testDocs   = flag.Uint("test_docs", 0, "number of final documents kept for testing")
	output     = flag.String("output", "", "output file stem, a fresh run id when empty")
	load       = flag.String("load", "", "stem of saved topic assignments to start from")
	compress   = flag.Bool("compress", false, "zstd compress the output files")
	strict     = flag.Bool("strict", false, "check the statistic invariants around every document")
)

// settings reads the configuration file and applies the flags given on
// the command line over it.
func settings() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return nil, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.Model = *topicModel
		case "k":
			cfg.Topics = uint32(*topicNum)
		case "iter":
			cfg.Iterations = *iteration
		case "procs":
			cfg.Procs = *procs
		case "seed":
			cfg.Seed = *seed
		case "test_docs":
			cfg.Test.Docs = uint32(*testDocs)
		case "output":
			cfg.Output = *output
		case "compress":
			cfg.Compress = *compress
		case "strict":
			cfg.Strict = *strict
		}
	})
	if cfg.Output == "" {
		cfg.Output = ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()
	}
	return cfg, cfg.Validate()
}

func main() {
	flag.Parse()
	defer log.Flush()

	cfg, err := settings()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}
	log.Infof("run %s: model %s, %d topics, %d workers", cfg.Output, cfg.Model, cfg.Topics, cfg.Procs)

	// read training data
	data := &corpus.Corpus{}
	if err := data.Load(*input); err != nil {
		log.Fatalf("load %s: %v", *input, err)
	}
	if cfg.Test.Docs > 0 {
		if err := data.Split(cfg.Test.Docs); err != nil {
			log.Fatalf("%v", err)
		}
	}

	// init model
	ctor, err := model.GetModel(cfg.Model)
	if err != nil {
		log.Fatalf("%v", err)
	}
	m, err := ctor(data, cfg)
	if err != nil {
		log.Fatalf("init model: %v", err)
	}
	if *load != "" {
		if err := m.LoadAssignments(*load); err != nil {
			log.Fatalf("%v", err)
		}
	}

	if err := m.Train(cfg.Iterations); err != nil {
		log.Fatalf("train: %v", err)
	}
	if cfg.Test.Docs > 0 {
		lik, err := m.Infer()
		if err != nil {
			log.Fatalf("test: %v", err)
		}
		log.Infof("test log-likelihood per token %f", lik)
	}

	for _, save := range []func(string) error{
		m.SaveCounts, m.SaveTheta, m.SavePhi, m.SaveProb, m.SaveAssignments,
	} {
		if err := save(cfg.Output); err != nil {
			log.Fatalf("save: %v", err)
		}
	}
	log.Infof("results written to %s.*", cfg.Output)
}
