package model

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Bundle is a trained predictor artefact: the model(s) plus the encoding tables
// used to build its feature vectors.
type Bundle struct {
	Name     string     `json:"name"`
	Features []string   `json:"features"`
	Encoders EncoderSet `json:"encoders"`

	// Model is set for single-output regressors.
	Model *Ensemble `json:"model,omitempty"`

	// StatusModel and PriorityModel are the two classification heads of the
	// stock-status predictor.
	StatusModel   *Ensemble `json:"status_model,omitempty"`
	PriorityModel *Ensemble `json:"priority_model,omitempty"`
}

// DecodeBundle reads a JSON bundle and checks it carries at least one model.
func DecodeBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, errors.Wrap(err, "decode model bundle")
	}
	if b.Model == nil && (b.StatusModel == nil || b.PriorityModel == nil) {
		return nil, errors.Errorf("model bundle %q has no model", b.Name)
	}
	if b.Encoders == nil {
		b.Encoders = EncoderSet{}
	}
	return &b, nil
}

// Predict evaluates the single-output model.
func (b *Bundle) Predict(x []float64) (float64, error) {
	if b == nil || b.Model == nil {
		return 0, errors.New("bundle has no regression model")
	}
	if len(b.Features) > 0 && len(x) != len(b.Features) {
		return 0, errors.Errorf("%s expects %d features, got %d", b.Name, len(b.Features), len(x))
	}
	return b.Model.Predict(x)
}
