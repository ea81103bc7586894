package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/b0tShaman/fcnet/config"
	"github.com/b0tShaman/fcnet/data"
	"github.com/b0tShaman/fcnet/ml"
)

// -------- MAIN -------- //
func main() {
	cfgPath := flag.String("config", "configs/mnist.yaml", "Path to YAML config")
	trainPath := flag.String("train", "", "Override training CSV")
	testPath := flag.String("test", "", "Override test CSV")
	epochs := flag.Int("epochs", 0, "Number of epochs")
	batchSize := flag.Int("batch-size", 0, "Training batch size")
	printEvery := flag.Int("print-every", 0, "Log every N iterations")
	lr := flag.Float64("lr", 0, "Learning rate")
	seed := flag.Uint64("seed", 0, "PRNG seed")
	predict := flag.String("predict", "", "Classify this image after training")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.ApplyOverrides(config.Overrides{
		TrainPath:    *trainPath,
		TestPath:     *testPath,
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		PrintEvery:   *printEvery,
		LearningRate: *lr,
		Seed:         *seed,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Data
	fmt.Println("Loading dataset...")
	trainX, trainY, err := loadSplit(cfg.Data.TrainPath)
	if err != nil {
		log.Fatalf("load training data: %v", err)
	}
	testX, testY, err := loadSplit(cfg.Data.TestPath)
	if err != nil {
		log.Fatalf("load test data: %v", err)
	}

	// Both splits are scaled with the training range.
	lo, hi := data.MinMaxRange(trainX)
	data.ScaleRange(trainX, lo, hi)
	data.ScaleRange(testX, lo, hi)
	fmt.Printf("Scaling inputs from [%g, %g] to [0, 1]\n", lo, hi)

	trainLoader, err := newLoader(cfg.Data, trainX, trainY, cfg.Train.BatchSize, cfg.Train.Shuffle, cfg.Train.Seed)
	if err != nil {
		log.Fatalf("batch training data: %v", err)
	}
	testLoader, err := newLoader(cfg.Data, testX, testY, cfg.Train.TestBatch, false, 0)
	if err != nil {
		log.Fatalf("batch test data: %v", err)
	}

	// 2. Initialize Network
	rng := rand.New(rand.NewPCG(cfg.Train.Seed, cfg.Train.Seed))
	n := cfg.Network
	nw, err := ml.NewNetwork(n.InDim, n.OutDim, n.HiddenDim, n.NumHidden, rng)
	if err != nil {
		log.Fatalf("build network: %v", err)
	}
	fmt.Printf("Network: %v (%d parameters)\n", nw, nw.NumParams())

	// 3. Configure & Train
	opt := ml.NewOptimizer(nw, ml.OptimizerConfig{
		Type:         ml.OptimizerType(cfg.Train.Optimizer),
		LearningRate: cfg.Train.LearningRate,
		MomentumMu:   cfg.Train.Momentum,
	})
	lossFn := ml.CrossEntropy{}

	trainingLoss, err := ml.Train(ctx, nw, trainLoader, lossFn, opt, ml.TrainingConfig{
		Epochs:     cfg.Train.Epochs,
		PrintEvery: cfg.Train.PrintEvery,
		Out:        os.Stdout,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	s := ml.SummarizeLoss(trainingLoss)
	fmt.Printf("Training Complete. %d iterations, loss first=%.4f last=%.4f mean=%.4f std=%.4f\n\n",
		s.Count, s.First, s.Last, s.Mean, s.StdDev)

	// 4. Evaluate
	res, err := ml.Evaluate(ctx, nw, testLoader, lossFn)
	if err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}
	fmt.Printf("Test examples: %d, Accuracy: %.4f, Average loss: %.4f\n", res.TotalExamples, res.Accuracy, res.AverageLoss())
	if legacy, err := res.LegacyAverageLoss(); err == nil {
		fmt.Printf("Average loss (per last batch index): %.4f\n", legacy)
	}

	cm, mistakes, err := ml.NewConfusionMatrix(res.Predictions)
	if err != nil {
		log.Fatalf("confusion matrix: %v", err)
	}
	fmt.Printf("\nConfusion Matrix (rows: predicted, columns: true):\n%v", cm)
	fmt.Printf("Mistakes: %d of %d\n", len(mistakes), res.TotalExamples)

	// 5. Inference
	if *predict != "" {
		d := cfg.Data
		if d.Channels != 1 {
			log.Fatalf("image prediction needs single-channel input (got %d channels)", d.Channels)
		}
		if _, _, err := ml.InferenceImg(nw, *predict, d.Width, d.Height, data.LoadImage, os.Stdout); err != nil {
			log.Fatalf("predict: %v", err)
		}
	}
}

// loadSplit reads one CSV split.
func loadSplit(path string) ([][]float64, []int, error) {
	X, Y, err := data.LoadCSV(path)
	if err != nil {
		return nil, nil, err
	}
	fmt.Printf("Loaded %s: %d samples, %d input features\n", path, len(X), len(X[0]))
	return X, Y, nil
}

func newLoader(d config.DataConfig, X [][]float64, Y []int, batchSize int, shuffle bool, seed uint64) (*data.Loader, error) {
	ds := &data.Dataset{
		Images:   X,
		Labels:   Y,
		Channels: d.Channels,
		Height:   d.Height,
		Width:    d.Width,
	}
	var opts []data.LoaderOption
	if shuffle {
		opts = append(opts, data.WithShuffle(seed))
	}
	return data.NewLoader(ds, batchSize, opts...)
}
