package leadscoring

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/rocket-training/ai-service/pkg/logger"
)

// NeutralScore is returned when no model is loaded or prediction fails.
const NeutralScore = 0.5

// Predictor maps a feature map to a conversion probability in [0,1].
type Predictor interface {
	Predict(features FeatureMap) (float64, error)
}

// LogisticModel is a trained logistic-regression scorer exported to JSON by
// the offline training pipeline: an ordered feature-column list, the fitted
// standard-scaler parameters, and the regression coefficients.
type LogisticModel struct {
	FeatureColumns []string  `json:"feature_columns"`
	ScalerMean     []float64 `json:"scaler_mean"`
	ScalerScale    []float64 `json:"scaler_scale"`
	Coefficients   []float64 `json:"coefficients"`
	Intercept      float64   `json:"intercept"`
}

// LoadModel reads a model file from disk. A missing file is not an error
// condition for the service; callers should fall back to rule-based-only
// scoring.
func LoadModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var model LogisticModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}

	n := len(model.FeatureColumns)
	if n == 0 {
		return nil, fmt.Errorf("model has no feature columns")
	}
	if len(model.ScalerMean) != n || len(model.ScalerScale) != n || len(model.Coefficients) != n {
		return nil, fmt.Errorf("model dimensions mismatch: %d columns, %d means, %d scales, %d coefficients",
			n, len(model.ScalerMean), len(model.ScalerScale), len(model.Coefficients))
	}

	logger.Info("Lead scoring model loaded",
		zap.String("path", path),
		zap.Int("features", n),
	)

	return &model, nil
}

// Predict projects the feature map onto the model's column order (missing
// columns default to 0), applies the fitted scaler, and returns the
// positive-class probability.
func (m *LogisticModel) Predict(features FeatureMap) (float64, error) {
	z := m.Intercept
	for i, column := range m.FeatureColumns {
		value := features[column]

		scale := m.ScalerScale[i]
		if scale == 0 {
			scale = 1
		}
		scaled := (value - m.ScalerMean[i]) / scale

		z += m.Coefficients[i] * scaled
	}

	probability := 1 / (1 + math.Exp(-z))
	if math.IsNaN(probability) || math.IsInf(probability, 0) {
		return 0, fmt.Errorf("prediction produced non-finite probability")
	}
	return probability, nil
}
