// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline runs the train and publish stages of a fraud model in
// order, failing on the first error.
package pipeline

import (
	"context"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pingcap/log"
	"github.com/victoriarmitchell/fraud-detection/pkg/artifact"
	"github.com/victoriarmitchell/fraud-detection/pkg/config"
	"github.com/victoriarmitchell/fraud-detection/pkg/dataset"
	"github.com/victoriarmitchell/fraud-detection/pkg/evaluate"
	"github.com/victoriarmitchell/fraud-detection/pkg/metrics"
	"github.com/victoriarmitchell/fraud-detection/pkg/model"
	"github.com/victoriarmitchell/fraud-detection/pkg/registry"
	"github.com/victoriarmitchell/fraud-detection/pkg/util"
	"go.uber.org/zap"
)

// Stage names, also used as metric labels.
const (
	StageLoadConfig = "load_config"
	StageGenerate   = "generate"
	StageSplit      = "split"
	StageTrain      = "train"
	StageEvaluate   = "evaluate"
	StagePersist    = "persist"
	StagePublish    = "publish"
)

// DatasetProvider synthesizes the labeled dataset of a run.
type DatasetProvider func(seed int64) (*dataset.Dataset, error)

// StorageFactory opens the object store an artifact is uploaded to.
type StorageFactory func(ctx context.Context, uri string, opts *util.StorageOptions) (util.ExternalStorage, error)

// RegistryFactory creates the model registry selected by a publish config.
type RegistryFactory func(ctx context.Context, cfg *config.PublishConfig) (registry.Registry, error)

// Options configures a Pipeline. Zero values fall back to the defaults of
// the fraud model.
type Options struct {
	ParamsPath string
	// PlatformConfigPath is optional. Without it every platform saves to
	// config.DefaultModelPath.
	PlatformConfigPath string
	Platform           config.Platform
	// BaseDir resolves relative model paths. Empty means the working directory.
	BaseDir string
	// Publish holds the remote publish settings. Nil or disabled skips the
	// publish stage.
	Publish *config.PublishConfig

	DatasetProvider DatasetProvider
	StorageFactory  StorageFactory
	RegistryFactory RegistryFactory
	Now             func() time.Time
}

// RunResult summarizes a finished run.
type RunResult struct {
	RunID     string
	Platform  config.Platform
	RunConfig config.RunConfig

	TrainSamples int
	TestSamples  int
	Model        *model.LogisticRegression
	Report       *evaluate.Report

	ModelPath     string
	ArtifactBytes int
	// RemoteURI is the uploaded artifact, empty when nothing was uploaded.
	RemoteURI string
	// RegisteredModel is the registry resource name, empty when the model
	// was not registered.
	RegisteredModel string
}

// Pipeline executes one training run.
type Pipeline struct {
	opts  Options
	runID string
	stats *metrics.Statistics
}

// New creates a Pipeline with a fresh run id.
func New(opts Options) *Pipeline {
	if opts.ParamsPath == "" {
		opts.ParamsPath = config.DefaultParamsPath
	}
	if opts.Platform == "" {
		opts.Platform = config.PlatformLocal
	}
	if opts.DatasetProvider == nil {
		opts.DatasetProvider = func(seed int64) (*dataset.Dataset, error) {
			return dataset.MakeClassification(dataset.DefaultOptions(seed))
		}
	}
	if opts.StorageFactory == nil {
		opts.StorageFactory = util.GetExternalStorageWithDefaultTimeout
	}
	if opts.RegistryFactory == nil {
		opts.RegistryFactory = registry.New
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		opts:  opts,
		runID: uuid.NewString(),
		stats: metrics.NewStatistics(string(opts.Platform)),
	}
}

// RunID returns the id of the run.
func (p *Pipeline) RunID() string {
	return p.runID
}

type loadedConfig struct {
	run      config.RunConfig
	platform config.PlatformConfig
}

// Run executes every stage in order. Configuration is loaded and validated
// before any data is generated. The first failing stage ends the run and its
// error is returned as is.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	res := &RunResult{RunID: p.runID, Platform: p.opts.Platform}
	log.Info("fraud training run started",
		zap.String("runID", p.runID),
		zap.String("platform", string(p.opts.Platform)),
		zap.String("params", p.opts.ParamsPath))
	start := time.Now()

	var cfg *loadedConfig
	err := p.stage(StageLoadConfig, func() (err error) {
		cfg, err = p.loadConfig()
		return err
	})
	if err != nil {
		return nil, err
	}
	res.RunConfig = cfg.run

	var ds *dataset.Dataset
	if err := p.stage(StageGenerate, func() (err error) {
		ds, err = p.generate(cfg.run)
		return err
	}); err != nil {
		return nil, err
	}

	var split *dataset.Split
	if err := p.stage(StageSplit, func() (err error) {
		split, err = p.split(ds, cfg.run)
		return err
	}); err != nil {
		return nil, err
	}
	res.TrainSamples, res.TestSamples = split.Train.Len(), split.Test.Len()

	if err := p.stage(StageTrain, func() (err error) {
		res.Model, err = p.train(ctx, split.Train, cfg.run)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.stage(StageEvaluate, func() (err error) {
		res.Report, err = p.evaluate(res.Model, split.Test)
		return err
	}); err != nil {
		return nil, err
	}

	var data []byte
	if err := p.stage(StagePersist, func() (err error) {
		res.ModelPath = p.modelPath(cfg.platform)
		data, err = p.persist(res.Model, res.ModelPath)
		return err
	}); err != nil {
		return nil, err
	}
	res.ArtifactBytes = len(data)

	if p.opts.Publish.Enabled() {
		if err := p.stage(StagePublish, func() error {
			return p.publish(ctx, data, res)
		}); err != nil {
			return nil, err
		}
	}

	log.Info("fraud training run finished",
		zap.String("runID", p.runID),
		zap.String("modelPath", res.ModelPath),
		zap.String("remoteURI", res.RemoteURI),
		zap.String("registeredModel", res.RegisteredModel),
		zap.Float64("accuracy", res.Report.Accuracy),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

func (p *Pipeline) stage(name string, fn func() error) error {
	log.Debug("stage started", zap.String("runID", p.runID), zap.String("stage", name))
	start := time.Now()
	err := p.stats.RecordStage(name, fn)
	if err != nil {
		log.Error("stage failed",
			zap.String("runID", p.runID),
			zap.String("stage", name),
			zap.Error(err))
		return err
	}
	log.Info("stage finished",
		zap.String("runID", p.runID),
		zap.String("stage", name),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (p *Pipeline) loadConfig() (*loadedConfig, error) {
	run, err := config.LoadRunConfig(p.opts.ParamsPath)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateSolver(run.Solver); err != nil {
		return nil, err
	}

	platform := config.NewPlatformConfig(nil)
	if p.opts.PlatformConfigPath != "" {
		if platform, err = config.LoadPlatformConfig(p.opts.PlatformConfigPath); err != nil {
			return nil, err
		}
	}

	if p.opts.Publish != nil {
		if err := p.opts.Publish.ValidateAndAdjust(); err != nil {
			return nil, err
		}
	}
	log.Info("run config loaded",
		zap.Int64("randomState", run.RandomState),
		zap.Float64("testSize", run.TestSize),
		zap.String("solver", run.Solver))
	return &loadedConfig{run: run, platform: platform}, nil
}

func (p *Pipeline) generate(run config.RunConfig) (*dataset.Dataset, error) {
	ds, err := p.opts.DatasetProvider(run.RandomState)
	if err != nil {
		return nil, err
	}
	counts := ds.ClassCounts()
	log.Info("dataset generated",
		zap.Int("samples", ds.Len()),
		zap.Int("features", ds.NumFeatures()),
		zap.Int("negatives", counts[0]),
		zap.Int("positives", counts[1]))
	p.stats.RecordDatasetSize("all", ds.Len())
	return ds, nil
}

func (p *Pipeline) split(ds *dataset.Dataset, run config.RunConfig) (*dataset.Split, error) {
	split, err := dataset.TrainTestSplit(ds, run.TestSize, run.RandomState)
	if err != nil {
		return nil, err
	}
	p.stats.RecordDatasetSize("train", split.Train.Len())
	p.stats.RecordDatasetSize("test", split.Test.Len())
	return split, nil
}

func (p *Pipeline) train(
	ctx context.Context, train *dataset.Dataset, run config.RunConfig,
) (*model.LogisticRegression, error) {
	m, err := model.Fit(ctx, train, model.DefaultFitOptions(run.Solver))
	if err != nil {
		return nil, err
	}
	p.stats.RecordFit(m.Solver, m.NIter)
	return m, nil
}

func (p *Pipeline) evaluate(m *model.LogisticRegression, test *dataset.Dataset) (*evaluate.Report, error) {
	pred, err := m.Predict(test)
	if err != nil {
		return nil, err
	}
	report, err := evaluate.ClassificationReport(test.Labels(), pred)
	if err != nil {
		return nil, err
	}
	for _, label := range report.Labels {
		class := strconv.Itoa(label)
		scores, _ := report.Class(label)
		p.stats.RecordScore(class, "precision", scores.Precision)
		p.stats.RecordScore(class, "recall", scores.Recall)
		p.stats.RecordScore(class, "f1", scores.F1)
	}
	p.stats.RecordAccuracy(report.Accuracy)
	return report, nil
}

// modelPath resolves the save location of the run's platform.
func (p *Pipeline) modelPath(platform config.PlatformConfig) string {
	path := platform.ModelPath(p.opts.Platform)
	if p.opts.BaseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(p.opts.BaseDir, path)
	}
	return path
}

func (p *Pipeline) persist(m *model.LogisticRegression, path string) ([]byte, error) {
	data, err := artifact.Save(path, m, artifact.Meta{
		RunID:     p.runID,
		CreatedAt: p.opts.Now(),
		Platform:  string(p.opts.Platform),
	})
	if err != nil {
		return nil, err
	}
	p.stats.RecordArtifact(len(data))
	return data, nil
}

func (p *Pipeline) publish(ctx context.Context, data []byte, res *RunResult) error {
	cfg := p.opts.Publish
	storage, err := p.opts.StorageFactory(ctx, cfg.StorageURI, &util.StorageOptions{
		Region:                cfg.Region,
		AzureConnectionString: cfg.AzureConnectionString,
		Timeout:               cfg.RemoteTimeout(),
	})
	if err != nil {
		return err
	}
	defer storage.Close()

	if err := storage.WriteFile(ctx, cfg.BlobName, data); err != nil {
		return err
	}
	res.RemoteURI = storage.URI(cfg.BlobName)
	log.Info("model artifact uploaded",
		zap.String("uri", res.RemoteURI),
		zap.Int("bytes", len(data)))

	reg, err := p.opts.RegistryFactory(ctx, cfg)
	if err != nil {
		return err
	}
	if reg == nil {
		return nil
	}
	defer func() {
		if err := reg.Close(); err != nil {
			log.Warn("close model registry client failed", zap.Error(err))
		}
	}()

	name, err := reg.Register(ctx, registry.SpecFromConfig(cfg, p.runID))
	if err != nil {
		return err
	}
	p.stats.RecordRegistration(string(cfg.Registry))
	res.RegisteredModel = name
	return nil
}
