// Package artifact loads the trained model and its fitted preprocessing
// objects. A bundle is loaded once at process start and shared read-only.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"loanscore/internal/model"
	"loanscore/internal/preprocess"
)

// Default artifact file names inside a bundle directory.
const (
	ModelFile         = "best_model.json"
	PreprocessingFile = "preprocessing_objects.json"
)

var (
	// ErrArtifactNotFound is returned when an artifact file does not exist.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrArtifactCorrupt is returned when an artifact cannot be decoded or
	// is inconsistent.
	ErrArtifactCorrupt = errors.New("artifact corrupt")
)

// Keys of the preprocessing blob. All are required.
const (
	KeyScaler          = "min_max_scaler"
	KeyOneHot          = "oh_encoder"
	KeyOrdinal         = "od_encoder"
	KeyNumerical       = "numerical_cols"
	KeyCategorical     = "categorical_cols"
	KeyNonHierarchical = "non_hierarchal_cat"
	KeyHierarchical    = "hierarchal_col"
)

var requiredKeys = []string{
	KeyScaler, KeyOneHot, KeyOrdinal,
	KeyNumerical, KeyCategorical, KeyNonHierarchical, KeyHierarchical,
}

var gzipMagic = []byte{0x1f, 0x8b}

// Info describes where a bundle came from.
type Info struct {
	ModelPath           string    `json:"model_path"`
	PreprocessingPath   string    `json:"preprocessing_path"`
	ModelSHA256         string    `json:"model_sha256"`
	PreprocessingSHA256 string    `json:"preprocessing_sha256"`
	ModelModTime        time.Time `json:"model_mod_time"`
	LoadedAt            time.Time `json:"loaded_at"`
	ModelKind           string    `json:"model_kind"`
	NumFeatures         int       `json:"num_features"`
}

// Bundle is a fully loaded and validated set of artifacts.
type Bundle struct {
	Model   model.Classifier
	Scaler  *preprocess.MinMaxScaler
	OneHot  *preprocess.OneHotEncoder
	Ordinal *preprocess.OrdinalEncoder
	Roles   preprocess.Roles
	Info    Info

	pipeline *preprocess.Pipeline
}

// Pipeline returns the preprocessing pipeline built from the bundle.
func (b *Bundle) Pipeline() *preprocess.Pipeline { return b.pipeline }

// FeatureNames returns the model's feature order, or nil when the model
// consumes the pipeline's column order as is.
func (b *Bundle) FeatureNames() []string { return b.Model.Features() }

// New validates the pieces of a bundle and builds its pipeline.
func New(m model.Classifier, scaler *preprocess.MinMaxScaler, oneHot *preprocess.OneHotEncoder,
	ordinal *preprocess.OrdinalEncoder, roles preprocess.Roles, opts ...preprocess.Option) (*Bundle, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: model is missing", ErrArtifactCorrupt)
	}
	p, err := preprocess.NewPipeline(scaler, oneHot, ordinal, roles, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}
	if err := checkFeatures(m, scaler, oneHot, roles); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}
	return &Bundle{
		Model:    m,
		Scaler:   scaler,
		OneHot:   oneHot,
		Ordinal:  ordinal,
		Roles:    roles,
		pipeline: p,
		Info: Info{
			ModelKind:   m.Kind(),
			NumFeatures: m.NumFeatures(),
		},
	}, nil
}

// checkFeatures makes sure the model consumes exactly what the pipeline
// produces.
func checkFeatures(m model.Classifier, scaler *preprocess.MinMaxScaler, oneHot *preprocess.OneHotEncoder, roles preprocess.Roles) error {
	produced := make(map[string]bool)
	for _, c := range scaler.Columns {
		produced[c] = true
	}
	produced[roles.Hierarchical] = true
	for _, c := range oneHot.FeatureNames() {
		produced[c] = true
	}

	names := m.Features()
	if len(names) == 0 {
		if m.NumFeatures() != len(produced) {
			return fmt.Errorf("model expects %d features, preprocessing produces %d", m.NumFeatures(), len(produced))
		}
		return nil
	}
	if len(names) != len(produced) {
		return fmt.Errorf("model expects %d features, preprocessing produces %d", len(names), len(produced))
	}
	var unknown []string
	for _, n := range names {
		if !produced[n] {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("model features %v are not produced by preprocessing", unknown)
	}
	return nil
}

// Load reads and validates the model and preprocessing artifacts. Either a
// complete Bundle or an error is returned.
func Load(modelPath, preprocessingPath string) (*Bundle, error) {
	modelBlob, modelStat, err := readBlob(modelPath)
	if err != nil {
		return nil, err
	}
	prepBlob, _, err := readBlob(preprocessingPath)
	if err != nil {
		return nil, err
	}

	m, err := model.Decode(modelBlob.data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, modelPath, err)
	}
	prep, err := decodePreprocessing(prepBlob.data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, preprocessingPath, err)
	}

	b, err := New(m, prep.Scaler, prep.OneHot, prep.Ordinal, prep.Roles)
	if err != nil {
		return nil, err
	}
	b.Info.ModelPath = modelPath
	b.Info.PreprocessingPath = preprocessingPath
	b.Info.ModelSHA256 = modelBlob.digest
	b.Info.PreprocessingSHA256 = prepBlob.digest
	b.Info.ModelModTime = modelStat.ModTime()
	b.Info.LoadedAt = time.Now()

	log.Info().
		Str("model_path", modelPath).
		Str("preprocessing_path", preprocessingPath).
		Str("model_kind", m.Kind()).
		Int("features", m.NumFeatures()).
		Msg("Artifacts loaded")
	return b, nil
}

type blob struct {
	data   []byte
	digest string
}

// readBlob reads a file, inflating it when it is gzip-compressed. The digest
// covers the bytes on disk.
func readBlob(path string) (blob, fs.FileInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return blob{}, nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return blob{}, nil, fmt.Errorf("read %s: %w", path, err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return blob{}, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	sum := sha256.Sum256(raw)
	b := blob{data: raw, digest: hex.EncodeToString(sum[:])}

	if bytes.HasPrefix(raw, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return blob{}, nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
		}
		defer zr.Close()
		if b.data, err = io.ReadAll(zr); err != nil {
			return blob{}, nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
		}
	}
	return b, stat, nil
}

type preprocessing struct {
	Scaler  *preprocess.MinMaxScaler
	OneHot  *preprocess.OneHotEncoder
	Ordinal *preprocess.OrdinalEncoder
	Roles   preprocess.Roles
}

func decodePreprocessing(data []byte) (*preprocessing, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode preprocessing objects: %w", err)
	}
	var missing []string
	for _, k := range requiredKeys {
		if v, ok := raw[k]; !ok || string(v) == "null" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing keys: %s", strings.Join(missing, ", "))
	}

	p := &preprocessing{
		Scaler:  &preprocess.MinMaxScaler{},
		OneHot:  &preprocess.OneHotEncoder{},
		Ordinal: &preprocess.OrdinalEncoder{},
	}
	fields := []struct {
		key string
		dst any
	}{
		{KeyScaler, p.Scaler},
		{KeyOneHot, p.OneHot},
		{KeyOrdinal, p.Ordinal},
		{KeyNumerical, &p.Roles.Numerical},
		{KeyCategorical, &p.Roles.Categorical},
		{KeyNonHierarchical, &p.Roles.NonHierarchical},
		{KeyHierarchical, &p.Roles.Hierarchical},
	}
	for _, f := range fields {
		if err := json.Unmarshal(raw[f.key], f.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.key, err)
		}
	}
	return p, nil
}

// Save writes the bundle to the two paths. A path ending in ".gz" is
// written gzip-compressed.
func Save(b *Bundle, modelPath, preprocessingPath string) error {
	modelData, err := model.Encode(b.Model)
	if err != nil {
		return err
	}
	prepData, err := json.MarshalIndent(map[string]any{
		KeyScaler:          b.Scaler,
		KeyOneHot:          b.OneHot,
		KeyOrdinal:         b.Ordinal,
		KeyNumerical:       b.Roles.Numerical,
		KeyCategorical:     b.Roles.Categorical,
		KeyNonHierarchical: b.Roles.NonHierarchical,
		KeyHierarchical:    b.Roles.Hierarchical,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preprocessing objects: %w", err)
	}

	if err := writeBlob(modelPath, modelData); err != nil {
		return err
	}
	return writeBlob(preprocessingPath, prepData)
}

func writeBlob(path string, data []byte) error {
	if strings.HasSuffix(path, ".gz") {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
		data = buf.Bytes()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
