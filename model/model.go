package model

import (
	"fmt"

	"github.com/StevenLOL/LexSemTm/config"
	"github.com/StevenLOL/LexSemTm/corpus"
	"github.com/StevenLOL/LexSemTm/matrix"
)

var constructors = make(map[string]ModelCtor)

// the common interface topic samplers should follow
type Model interface {
	// train model for iter iteration
	Train(iter int) error
	// per-token log-likelihood of the test documents
	Infer() (float64, error)
	// get doc-topic distribution
	Theta() *matrix.Float32Matrix
	// get word-topic distribution
	Phi() *matrix.Float32Matrix
	// serialize posterior document topic distribution
	SaveTheta(fn string) error
	// serialize posterior word topic distribution
	SavePhi(fn string) error
	// serialize the averaged sampling distribution of each document
	SaveProb(fn string) error
	// serialize word topic and doc topic count tables
	SaveCounts(fn string) error
	// serialize token topic assignments
	SaveAssignments(fn string) error
	// deserialize token topic assignments and rebuild the statistics
	LoadAssignments(fn string) error
}

// new samplers should register themselves using this function
func Register(modelType string, m ModelCtor) {
	constructors[modelType] = m
}

type ModelCtor func(dat *corpus.Corpus, cfg *config.Config) (Model, error)

func GetModel(modelType string) (ModelCtor, error) {
	if _, ok := constructors[modelType]; !ok {
		return nil, fmt.Errorf("model %s not registered", modelType)
	}
	return constructors[modelType], nil
}
