// Package preprocessing provides feature scalers that read their input
// through table blocks, so they work on every table layout including
// merged ones.
package preprocessing

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numtable/core/model"
	"github.com/YuminosukeSato/numtable/core/parallel"
	"github.com/YuminosukeSato/numtable/pkg/errors"
	"github.com/YuminosukeSato/numtable/pkg/log"
	"github.com/YuminosukeSato/numtable/table"
)

// DefaultBatchSize は1回のブロック取得で読む行数のデフォルト値
const DefaultBatchSize = 1024

// 列数がこれ以下なら列ごとの集計を並列化しない
const parallelColumnThreshold = 16

var (
	_ model.InverseTransformer = (*StandardScaler)(nil)
	_ model.InverseTransformer = (*MinMaxScaler)(nil)
)

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
//
// カテゴリ列は変換せずにそのまま出力する。
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64

	// Skip はスケーリングしない列 (カテゴリ列)
	Skip []bool

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool

	// BatchSize は1ブロックあたりの行数
	BatchSize int
}

// ScalerOption はStandardScalerの設定を変更する
type ScalerOption func(*StandardScaler)

// WithMean は平均を引くかどうかを設定する
func WithMean(enabled bool) ScalerOption {
	return func(s *StandardScaler) { s.WithMean = enabled }
}

// WithStd は標準偏差で割るかどうかを設定する
func WithStd(enabled bool) ScalerOption {
	return func(s *StandardScaler) { s.WithStd = enabled }
}

// WithBatchSize はブロックあたりの行数を設定する。0以下はデフォルト値になる
func WithBatchSize(n int) ScalerOption {
	return func(s *StandardScaler) { s.BatchSize = n }
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(preprocessing.WithBatchSize(256))
//	scaled, err := scaler.FitTransform(t)
func NewStandardScaler(opts ...ScalerOption) *StandardScaler {
	s := &StandardScaler{
		WithMean:  true,
		WithStd:   true,
		BatchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.BatchSize <= 0 {
		s.BatchSize = DefaultBatchSize
	}
	return s
}

// Fit はテーブルをBatchSize行ずつ読み、各列の平均と標準偏差を計算する
func (s *StandardScaler) Fit(t table.NumericTable) error {
	const op = "StandardScaler.Fit"
	began := time.Now()
	r, c := t.NumRows(), t.NumColumns()
	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	s.Reset()
	s.Skip = categoricalColumns(t)
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	for j := range s.Scale {
		s.Scale[j] = 1.0
	}

	// 1パス目: 平均
	if s.WithMean || s.WithStd {
		sums := make([]float64, c)
		err := forEachBatch(t, s.BatchSize, func(b *table.Block[float64]) {
			columnwise(c, func(j int) {
				for i := 0; i < b.NumRows(); i++ {
					sums[j] += b.At(i, j)
				}
			})
		})
		if err != nil {
			return errors.NewModelError(op, "read", err)
		}
		for j := range sums {
			if s.Skip[j] {
				continue
			}
			if math.IsInf(sums[j], 0) {
				return errors.NewValueError(op, fmt.Sprintf("column %d contains infinity or a value too large", j))
			}
			s.Mean[j] = sums[j] / float64(r)
		}
	}

	// 2パス目: 分散
	if s.WithStd {
		sq := make([]float64, c)
		err := forEachBatch(t, s.BatchSize, func(b *table.Block[float64]) {
			columnwise(c, func(j int) {
				for i := 0; i < b.NumRows(); i++ {
					d := b.At(i, j) - s.Mean[j]
					sq[j] += d * d
				}
			})
		})
		if err != nil {
			return errors.NewModelError(op, "read", err)
		}
		for j := range sq {
			if s.Skip[j] {
				continue
			}
			s.Scale[j] = math.Sqrt(sq[j] / float64(r))
			// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
			if s.Scale[j] < 1e-8 {
				s.Scale[j] = 1.0
			}
		}
	}

	if !s.WithMean {
		clear(s.Mean)
	}

	s.SetFitted(c, r)
	logFitted("StandardScaler", r, c, s.BatchSize, began)
	return nil
}

// Transform は学習済みの統計情報を使ってテーブルを標準化し、新しいテーブルを返す
func (s *StandardScaler) Transform(t table.NumericTable) (*table.MatrixTable, error) {
	return s.apply("Transform", t, func(j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(t table.NumericTable) (*table.MatrixTable, error) {
	if err := s.Fit(t); err != nil {
		return nil, err
	}
	return s.Transform(t)
}

// InverseTransform は標準化されたテーブルを元のスケールに戻す
func (s *StandardScaler) InverseTransform(t table.NumericTable) (*table.MatrixTable, error) {
	return s.apply("InverseTransform", t, func(j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	})
}

func (s *StandardScaler) apply(method string, t table.NumericTable, fn func(j int, v float64) float64) (*table.MatrixTable, error) {
	if err := s.CheckFitted("StandardScaler", method); err != nil {
		return nil, err
	}
	return mapTable("StandardScaler."+method, &s.BaseEstimator, s.Skip, s.BatchSize, t, fn)
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean":  s.WithMean,
		"with_std":   s.WithStd,
		"batch_size": s.BatchSize,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler はscikit-learn互換のMin-Maxスケーラー
// データを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量のスケール (max - min)
	Scale []float64

	// Skip はスケーリングしない列 (カテゴリ列)
	Skip []bool

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64

	// BatchSize は1ブロックあたりの行数
	BatchSize int
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{-1, 1})
//	scaled, err := scaler.FitTransform(t)
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
		BatchSize:    DefaultBatchSize,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit はテーブルをBatchSize行ずつ読み、各列の最小値・最大値を計算する
func (m *MinMaxScaler) Fit(t table.NumericTable) error {
	const op = "MinMaxScaler.Fit"
	began := time.Now()
	r, c := t.NumRows(), t.NumColumns()
	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValidationError("feature_range", "minimum must be smaller than maximum", m.FeatureRange)
	}
	if m.BatchSize <= 0 {
		m.BatchSize = DefaultBatchSize
	}

	m.Reset()
	m.Skip = categoricalColumns(t)
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		m.DataMin[j] = math.Inf(1)
		m.DataMax[j] = math.Inf(-1)
	}

	err := forEachBatch(t, m.BatchSize, func(b *table.Block[float64]) {
		columnwise(c, func(j int) {
			for i := 0; i < b.NumRows(); i++ {
				v := b.At(i, j)
				m.DataMin[j] = math.Min(m.DataMin[j], v)
				m.DataMax[j] = math.Max(m.DataMax[j], v)
			}
		})
	})
	if err != nil {
		return errors.NewModelError(op, "read", err)
	}

	for j := 0; j < c; j++ {
		if !m.Skip[j] && (math.IsInf(m.DataMin[j], 0) || math.IsInf(m.DataMax[j], 0)) {
			return errors.NewValueError(op, fmt.Sprintf("column %d contains infinity", j))
		}
		// 定数特徴量の場合、スケールを1に設定
		m.Scale[j] = m.DataMax[j] - m.DataMin[j]
		if math.Abs(m.Scale[j]) < 1e-8 {
			m.Scale[j] = 1.0
		}
	}

	m.SetFitted(c, r)
	logFitted("MinMaxScaler", r, c, m.BatchSize, began)
	return nil
}

// Transform は学習済みの最小値・最大値でテーブルをスケーリングする
func (m *MinMaxScaler) Transform(t table.NumericTable) (*table.MatrixTable, error) {
	if err := m.CheckFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return mapTable("MinMaxScaler.Transform", &m.BaseEstimator, m.Skip, m.BatchSize, t, func(j int, v float64) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(t table.NumericTable) (*table.MatrixTable, error) {
	if err := m.Fit(t); err != nil {
		return nil, err
	}
	return m.Transform(t)
}

// InverseTransform はスケーリングされたテーブルを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(t table.NumericTable) (*table.MatrixTable, error) {
	if err := m.CheckFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return mapTable("MinMaxScaler.InverseTransform", &m.BaseEstimator, m.Skip, m.BatchSize, t, func(j int, v float64) float64 {
		return (v-m.FeatureRange[0])/width*m.Scale[j] + m.DataMin[j]
	})
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}

// ===========================================================================
// ブロック走査
// ===========================================================================

// forEachBatch はテーブルを先頭からbatch行ずつ読み取り専用で取得し、fnに渡す
func forEachBatch(t table.NumericTable, batch int, fn func(b *table.Block[float64])) error {
	rows := t.NumRows()
	for start := 0; start < rows; start += batch {
		n := min(batch, rows-start)
		err := table.WithRowBlock(t, start, n, table.ReadOnly, func(b *table.Block[float64]) error {
			fn(b)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// columnwise は各列jについてfnを呼ぶ。列ごとの書き込み先が独立している前提
func columnwise(cols int, fn func(j int)) {
	parallel.ParallelizeWithThreshold(cols, parallelColumnThreshold, func(start, end int) {
		for j := start; j < end; j++ {
			fn(j)
		}
	})
}

func categoricalColumns(t table.NumericTable) []bool {
	feats := table.Features(t)
	skip := make([]bool, len(feats))
	for j, f := range feats {
		skip[j] = f.Kind == table.Categorical
	}
	return skip
}

// mapTable はtの各セルにfnを適用した新しいMatrixTableを返す。skip列はそのまま写す
func mapTable(op string, est *model.BaseEstimator, skip []bool, batch int, t table.NumericTable, fn func(j int, v float64) float64) (*table.MatrixTable, error) {
	r, c := t.NumRows(), t.NumColumns()
	if err := est.CheckColumns(op, c); err != nil {
		return nil, err
	}
	if r == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	out := mat.NewDense(r, c, nil)
	raw := out.RawMatrix()
	start := 0
	err := forEachBatch(t, batch, func(b *table.Block[float64]) {
		columnwise(c, func(j int) {
			for i := 0; i < b.NumRows(); i++ {
				v := b.At(i, j)
				if !skip[j] {
					v = fn(j, v)
				}
				raw.Data[(start+i)*raw.Stride+j] = v
			}
		})
		start += b.NumRows()
	})
	if err != nil {
		return nil, errors.NewModelError(op, "read", err)
	}

	result := table.FromDense(out)
	for j, f := range table.Features(t) {
		if err := copyFeature(result, j, f); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// copyFeature は列の名前と種類を出力テーブルに引き継ぐ。要素型はfloat64のまま
func copyFeature(dst table.NumericTable, col int, f table.Feature) error {
	if err := table.SetFeatureName(dst, col, f.Name); err != nil {
		return err
	}
	switch f.Kind {
	case table.Categorical:
		if err := table.SetColumnCategorical(dst, col); err != nil {
			return err
		}
		return table.SetNumCategories(dst, col, f.NumCategories)
	case table.Ordinal:
		return table.SetColumnOrdinal(dst, col)
	}
	return nil
}

func logFitted(name string, rows, cols, batch int, began time.Time) {
	log.GetLoggerWithName("preprocessing").Info("model fitted",
		log.OperationKey, log.OperationFit,
		log.ModelNameKey, name,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.BatchSizeKey, batch,
		log.DurationMsKey, time.Since(began).Milliseconds(),
	)
}
