package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/cs-coach/internal/log"
	"github.com/pable/cs-coach/internal/predict"
)

var trainRidge float64

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the rating predictor on every stored training record",
	Args:  cobra.NoArgs,
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().Float64Var(&trainRidge, "ridge", 0, "ridge penalty on the weights (default 1e-6)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer log.Closer(db)

	recs, err := db.TrainingRecords()
	if err != nil {
		return fmt.Errorf("load training records: %w", err)
	}
	m, err := predict.Train(predict.Samples(recs), predict.TrainOptions{Ridge: trainRidge})
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	blob, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := db.SavePredictor(predictorName, blob, m.Samples, time.Now()); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Trained on %d records across %d maps.\n", m.Samples, len(m.Maps))
	return nil
}
