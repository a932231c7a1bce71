// Command trainbayes builds a naive Bayes model file from a directory of
// labeled samples. The directory holds one subdirectory per category, each
// containing plain-text example documents:
//
//	samples/admissions/app1.txt
//	samples/scholarship/grant1.txt
//
// Usage: trainbayes -samples ./samples -out ./model.json
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/docflowhq/docflow/internal/infrastructure/classify"
	"github.com/docflowhq/docflow/internal/observability/logging"
)

func main() {
	samplesDir := flag.String("samples", "./samples", "directory with one subdirectory per category")
	outPath := flag.String("out", "./model.json", "output model file")
	flag.Parse()

	slog.SetDefault(logging.NewJSONLogger("trainbayes", "info"))

	samples, err := readSamples(*samplesDir)
	if err != nil {
		slog.Error("read_samples_failed", "dir", *samplesDir, "error", err)
		os.Exit(1)
	}
	if len(samples) < 2 {
		slog.Error("too_few_categories", "count", len(samples))
		os.Exit(1)
	}

	model := classify.TrainBayes(samples)
	if err := model.Save(*outPath); err != nil {
		slog.Error("save_model_failed", "path", *outPath, "error", err)
		os.Exit(1)
	}

	total := 0
	for _, docs := range samples {
		total += len(docs)
	}
	slog.Info("model_trained", "categories", len(samples), "documents", total, "path", *outPath)
}

func readSamples(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	samples := make(map[string][]string)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		label := entry.Name()
		files, err := os.ReadDir(filepath.Join(dir, label))
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".txt") {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(dir, label, file.Name()))
			if err != nil {
				return nil, err
			}
			samples[label] = append(samples[label], string(raw))
		}
	}
	return samples, nil
}
