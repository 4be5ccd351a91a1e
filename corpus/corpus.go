package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/golang/glog"
)

var ErrEmptyCorpus = errors.New("corpus: no documents")

// Corpus keeps every token of every document in one flat sequence.
// Document d owns Words[DocStart[d]:DocStart[d+1]]. The first TrainNum
// documents are training documents, the rest are test documents.
type Corpus struct {
	VocabSize uint32
	DocNum    uint32
	TrainNum  uint32
	Words     []uint32
	DocStart  []uint32
}

type WordCount struct {
	WordId uint32
	Count  uint32
}

func ExpandWords(wcs []*WordCount) []uint32 {
	var words []uint32
	for _, wc := range wcs {
		for i := uint32(0); i < wc.Count; i += 1 {
			words = append(words, wc.WordId)
		}
	}
	return words
}

// FromDocs builds a corpus from explicit token lists, all documents are
// training documents until Split is called.
func FromDocs(docs [][]uint32) *Corpus {
	c := &Corpus{DocStart: []uint32{0}}
	for _, words := range docs {
		c.appendDoc(words)
	}
	c.TrainNum = c.DocNum
	return c
}

func (this *Corpus) appendDoc(words []uint32) {
	for _, w := range words {
		if w+1 > this.VocabSize {
			this.VocabSize = w + 1
		}
	}
	this.Words = append(this.Words, words...)
	this.DocStart = append(this.DocStart, uint32(len(this.Words)))
	this.DocNum += 1
}

// Split marks the final testNum documents as test documents.
func (this *Corpus) Split(testNum uint32) error {
	if testNum >= this.DocNum {
		return fmt.Errorf("corpus: %d test documents leave no training data in %d", testNum, this.DocNum)
	}
	this.TrainNum = this.DocNum - testNum
	return nil
}

// token range [start, end) of document d
func (this *Corpus) Doc(d uint32) (uint32, uint32) {
	return this.DocStart[d], this.DocStart[d+1]
}

// number of tokens in document d
func (this *Corpus) Len(d uint32) uint32 {
	return this.DocStart[d+1] - this.DocStart[d]
}

// total number of tokens
func (this *Corpus) NumTokens() uint32 {
	return uint32(len(this.Words))
}

// load data from file, the file format should be like:
// [docId wordId:wordCount wordId:wordCount ... wordId:wordCount]
// documents are kept in file order, docId is only used for reporting
func (this *Corpus) Load(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()

	if this.DocStart == nil {
		this.DocStart = []uint32{0}
	}

	lineIdx := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineIdx += 1
		doc := strings.TrimSpace(scanner.Text())
		vals := strings.Fields(doc)
		if len(vals) < 2 {
			log.Warningf("bad document at line %d: %q", lineIdx, doc)
			continue
		}

		if _, err := strconv.ParseUint(vals[0], 10, 32); err != nil {
			return fmt.Errorf("line %d: doc id: %w", lineIdx, err)
		}

		var wcs []*WordCount
		for _, kv := range vals[1:] {
			wc := strings.Split(kv, ":")
			if len(wc) != 2 {
				log.Warningf("bad word count at line %d: %s", lineIdx, kv)
				continue
			}

			wordId, err := strconv.ParseUint(wc[0], 10, 32)
			if err != nil {
				return fmt.Errorf("line %d: word id: %w", lineIdx, err)
			}

			count, err := strconv.ParseUint(wc[1], 10, 32)
			if err != nil {
				return fmt.Errorf("line %d: word count: %w", lineIdx, err)
			}

			wcs = append(wcs, &WordCount{
				WordId: uint32(wordId),
				Count:  uint32(count),
			})
		}
		this.appendDoc(ExpandWords(wcs))
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if this.DocNum == 0 {
		return ErrEmptyCorpus
	}
	this.TrainNum = this.DocNum

	log.Infof("number of documents %d", this.DocNum)
	log.Infof("number of tokens %d", len(this.Words))
	log.Infof("vocabulary size %d", this.VocabSize)
	return nil
}
