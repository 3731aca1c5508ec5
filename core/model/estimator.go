package model

import (
	"github.com/YuminosukeSato/numtable/table"
)

// TableFitter はテーブルから学習するモデルのインターフェース
type TableFitter interface {
	// Fit はブロック単位でテーブルを読み、モデルを学習させる
	Fit(t table.NumericTable) error
}

// TableTransformer はテーブルを変換するモデルのインターフェース
type TableTransformer interface {
	TableFitter

	// Transform は学習済みのパラメータでテーブルを変換し、新しいテーブルを返す
	Transform(t table.NumericTable) (*table.MatrixTable, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(t table.NumericTable) (*table.MatrixTable, error)
}

// InverseTransformer は変換を元に戻せるモデルのインターフェース
type InverseTransformer interface {
	TableTransformer

	// InverseTransform は変換後のテーブルを元のスケールに戻す
	InverseTransform(t table.NumericTable) (*table.MatrixTable, error)
}
