package vectorstore

// Hit is a store position and its distance to the query vector.
type Hit struct {
	Position int
	Distance float64
}

// Storage holds vectors by insertion position and answers k-nearest-neighbor queries.
// Positions are dense and start at zero, so callers can keep metadata in a parallel slice.
type Storage interface {
	Init(dimension int) error
	Add(vectors [][]float32) error
	Search(vector []float32, topK int) ([]Hit, error)
	Len() int
	Dimension() int
	Clear() error
}
