package service

import "context"

// Scaler applies a frozen, externally fitted scaling transform to one row.
type Scaler interface {
	Transform(row []float64) ([]float64, error)
	InputWidth() int
}

// Projector applies a frozen linear projection (PCA) to one row.
type Projector interface {
	Transform(row []float64) ([]float64, error)
	InputWidth() int
}

// Classifier is an opaque pre-trained model returning one label per row.
type Classifier interface {
	Predict(ctx context.Context, row []float64) (int, error)
	InputWidth() int
}
