package main

import (
	"flag"
	"time"

	"exodetect/internal/cfg"
	"exodetect/internal/dataset"
	"exodetect/internal/schema"
	"exodetect/internal/storage"
	"exodetect/internal/train"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	var (
		datasetPath = flag.String("dataset", "", "path to the cumulative KOI catalogue CSV (default from config)")
		outputPath  = flag.String("out", "", "artifact output path (default from config)")
		download    = flag.Bool("download", false, "download the catalogue if the dataset file is missing")
	)
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *datasetPath == "" {
		*datasetPath = c.DatasetPath
	}
	if *outputPath == "" {
		*outputPath = c.ModelPath
	}

	if *download {
		fetcher := dataset.NewFetcher(c.DatasetURL, c.FetchTimeout)
		if _, err := fetcher.Ensure(*datasetPath); err != nil {
			log.Fatal().Err(err).Msg("catalogue download failed")
		}
	}

	rows, err := dataset.ReadCatalogFile(*datasetPath)
	if err != nil {
		log.Fatal().Err(err).Str("dataset", *datasetPath).Msg("catalogue load failed")
	}
	log.Info().Int("rows", len(rows)).Str("dataset", *datasetPath).Msg("catalogue loaded")

	hp := train.Hyperparams{LearningRate: c.LearningRate, Epochs: c.Epochs}

	artifact, summary, err := train.Fit(rows, hp)
	if err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}
	log.Info().
		Int("samples", summary.Samples).
		Float64("accuracy", summary.Accuracy).
		Msg("training finished")

	if err := artifact.Save(*outputPath); err != nil {
		log.Fatal().Err(err).Msg("artifact save failed")
	}
	log.Info().Str("path", *outputPath).Msg("model artifact saved")

	recordRun(c, summary, hp, *outputPath)
}

// recordRun stores the run summary when persistence is configured.
func recordRun(c cfg.Settings, summary train.Summary, hp train.Hyperparams, artifactPath string) {
	if c.DataPath == "" {
		return
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage unavailable, training run not recorded")
		return
	}
	defer store.Close()

	run := storage.TrainingRun{
		Timestamp:    time.Now(),
		Samples:      summary.Samples,
		Features:     len(schema.FeatureKeys),
		Epochs:       hp.Epochs,
		LearningRate: hp.LearningRate,
		Accuracy:     summary.Accuracy,
		ArtifactPath: artifactPath,
	}
	if err := store.StoreTrainingRun(run); err != nil {
		log.Warn().Err(err).Msg("failed to record training run")
	}
}
