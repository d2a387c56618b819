package fastembed

import (
	"errors"
	"fmt"

	fastembed "github.com/anush008/fastembed-go"

	"github.com/poiesic/skillscope/ai"
)

// ErrNotAvailable is returned when the binary was built without cgo.
var ErrNotAvailable = errors.New("fastembed: not available in builds without cgo")

var modelNames = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembed.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembed.BGEBaseEN,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
}

var modelDimensions = map[fastembed.EmbeddingModel]int{
	fastembed.BGESmallENV15: 384,
	fastembed.BGESmallEN:    384,
	fastembed.BGEBaseENV15:  768,
	fastembed.BGEBaseEN:     768,
	fastembed.AllMiniLML6V2: 384,
}

// resolveModel maps a configured model name to the fastembed constant and its
// native dimension. Fastembed names ("fast-bge-small-en-v1.5") are accepted as is.
func resolveModel(name string) (fastembed.EmbeddingModel, int, error) {
	model, ok := modelNames[name]
	if !ok {
		model = fastembed.EmbeddingModel(name)
	}
	dim, ok := modelDimensions[model]
	if !ok {
		return "", 0, fmt.Errorf("%w: unsupported fastembed model %q", ai.ErrInvalidConfig, name)
	}
	return model, dim, nil
}
