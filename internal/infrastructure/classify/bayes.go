package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"
)

// BayesModel is a multinomial naive Bayes bag-of-words model with Laplace
// smoothing. Models are trained offline and shipped as JSON.
type BayesModel struct {
	Labels     []string                  `json:"labels"`
	WordCounts map[string]map[string]int `json:"word_counts"`
	TotalWords map[string]int            `json:"total_words"`
	DocCounts  map[string]int            `json:"doc_counts"`
	TotalDocs  int                       `json:"total_docs"`
	VocabSize  int                       `json:"vocab_size"`
}

// TrainBayes builds a model from labeled sample texts.
func TrainBayes(samples map[string][]string) *BayesModel {
	m := &BayesModel{
		WordCounts: make(map[string]map[string]int),
		TotalWords: make(map[string]int),
		DocCounts:  make(map[string]int),
	}
	vocab := make(map[string]struct{})

	for label, texts := range samples {
		m.Labels = append(m.Labels, label)
		m.WordCounts[label] = make(map[string]int)
		for _, text := range texts {
			m.DocCounts[label]++
			m.TotalDocs++
			for _, token := range tokenize(text) {
				m.WordCounts[label][token]++
				m.TotalWords[label]++
				vocab[token] = struct{}{}
			}
		}
	}
	m.VocabSize = len(vocab)
	return m
}

// LoadBayesModel reads a trained model from a JSON file.
func LoadBayesModel(path string) (*BayesModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bayes model: %w", err)
	}
	var m BayesModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse bayes model: %w", err)
	}
	if m.TotalDocs == 0 || len(m.Labels) == 0 {
		return nil, fmt.Errorf("bayes model %s is empty", path)
	}
	return &m, nil
}

// Save writes the model as JSON.
func (m *BayesModel) Save(path string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bayes model: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write bayes model: %w", err)
	}
	return nil
}

// Probabilities returns the per-label likelihoods for the text, normalized
// so they sum to 1. Log-space accumulation keeps long documents stable.
func (m *BayesModel) Probabilities(text string) map[string]float64 {
	tokens := tokenize(text)
	logScores := make(map[string]float64, len(m.Labels))

	for _, label := range m.Labels {
		// Laplace-smoothed prior and likelihoods.
		score := math.Log(float64(m.DocCounts[label]+1) / float64(m.TotalDocs+len(m.Labels)))
		denom := float64(m.TotalWords[label] + m.VocabSize)
		for _, token := range tokens {
			score += math.Log(float64(m.WordCounts[label][token]+1) / denom)
		}
		logScores[label] = score
	}

	// Normalize via log-sum-exp.
	maxLog := math.Inf(-1)
	for _, s := range logScores {
		if s > maxLog {
			maxLog = s
		}
	}
	var sum float64
	probs := make(map[string]float64, len(logScores))
	for label, s := range logScores {
		p := math.Exp(s - maxLog)
		probs[label] = p
		sum += p
	}
	for label := range probs {
		probs[label] /= sum
	}
	return probs
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
