package model

import (
	"github.com/YuminosukeSato/numtable/pkg/errors"
)

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator はテーブルを消費する全てのアルゴリズムの基底となる構造体
//
// フィールドはgobで保存できるように公開している。
type BaseEstimator struct {
	State EstimatorState
	// NFeatures は学習時に見たテーブルの列数
	NFeatures int
	// NSamples は学習時に見たテーブルの行数
	NSamples int
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted はモデルを学習済み状態に設定し、学習データの形状を記録する
func (e *BaseEstimator) SetFitted(nFeatures, nSamples int) {
	e.State = Fitted
	e.NFeatures = nFeatures
	e.NSamples = nSamples
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	*e = BaseEstimator{}
}

// CheckFitted は未学習なら NotFittedError を返す
func (e *BaseEstimator) CheckFitted(modelName, method string) error {
	if !e.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// CheckColumns は入力テーブルの列数が学習時と一致するか検証する
func (e *BaseEstimator) CheckColumns(op string, got int) error {
	if got != e.NFeatures {
		return errors.NewDimensionMismatchError(op, 1, e.NFeatures, got)
	}
	return nil
}
