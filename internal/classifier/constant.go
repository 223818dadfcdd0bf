package classifier

// Constant predicts the same label for every row. It is the majority-class
// fallback and a convenient stand-in for tests.
type Constant struct {
	Label int `json:"label"`
}

// Fit sets Label to the weighted majority class; ties go to 0.
func (c *Constant) Fit(X [][]float64, y []int, weights []float64) error {
	w, err := checkFitInputs(X, y, weights)
	if err != nil {
		return err
	}
	var pos, neg float64
	for i, label := range y {
		if label == 1 {
			pos += w[i]
		} else {
			neg += w[i]
		}
	}
	c.Label = 0
	if pos > neg {
		c.Label = 1
	}
	return nil
}

// Predict returns Label for every row.
func (c *Constant) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range out {
		out[i] = c.Label
	}
	return out
}

// PredictProba returns Label as a probability for every row.
func (c *Constant) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = float64(c.Label)
	}
	return out
}
