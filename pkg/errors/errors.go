// Package errors はnumtable全体のエラーハンドリングと警告システムを提供します。
// テーブルのブロックアクセス規約に違反した呼び出しは、構造化されたエラー型として即座に返されます。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("numtable-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nilを渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// DataConversionWarning はデータの型が暗黙的に変換された場合に発生する警告です。
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning は新しいDataConversionWarningを作成します。
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// ===========================================================================
//
//	テーブルアクセスのエラー型
//
// ===========================================================================

// InvalidLayoutError は構築引数がレイアウトと矛盾する場合のエラーです。
// 例えば、CSRの行オフセットの長さが rows+1 でない場合など。
type InvalidLayoutError struct {
	Op     string
	Reason string
}

func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("numtable: %s: invalid layout: %s", e.Op, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidLayoutError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "InvalidLayoutError")
}

// NewInvalidLayoutError は新しいInvalidLayoutErrorを作成し、スタックトレースを付与します。
func NewInvalidLayoutError(op, format string, args ...interface{}) error {
	err := &InvalidLayoutError{Op: op, Reason: fmt.Sprintf(format, args...)}
	return errors.WithStack(err)
}

// OutOfRangeError はブロック要求がテーブルの範囲を超えた場合のエラーです。
type OutOfRangeError struct {
	Op    string
	Axis  int // 0: 行, 1: 列
	Start int
	Count int
	Limit int
}

func axisName(axis int) string {
	if axis == 0 {
		return "rows"
	}
	return "columns"
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("numtable: %s: %s [%d, %d) out of range [0, %d)",
		e.Op, axisName(e.Axis), e.Start, e.Start+e.Count, e.Limit)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *OutOfRangeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("axis", e.Axis).
		Str("axis_name", axisName(e.Axis)).
		Int("start", e.Start).
		Int("count", e.Count).
		Int("limit", e.Limit).
		Str("type", "OutOfRangeError")
}

// NewOutOfRangeError は新しいOutOfRangeErrorを作成し、スタックトレースを付与します。
func NewOutOfRangeError(op string, axis, start, count, limit int) error {
	err := &OutOfRangeError{Op: op, Axis: axis, Start: start, Count: count, Limit: limit}
	return errors.WithStack(err)
}

// DimensionMismatchError は複合テーブルの構成要素の形状が一致しない場合のエラーです。
type DimensionMismatchError struct {
	Op       string
	Axis     int // 0: 行数, 1: 列数
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("numtable: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisName(e.Axis), e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName(e.Axis)).
		Str("type", "DimensionMismatchError")
}

// NewDimensionMismatchError は新しいDimensionMismatchErrorを作成し、スタックトレースを付与します。
func NewDimensionMismatchError(op string, axis, expected, got int) error {
	err := &DimensionMismatchError{Op: op, Axis: axis, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// ConcurrentAccessError は解放されていないブロックがあるテーブルに再度アクセスした場合のエラーです。
type ConcurrentAccessError struct {
	Op string
}

func (e *ConcurrentAccessError) Error() string {
	return fmt.Sprintf("numtable: %s: table already has an outstanding block; release it first", e.Op)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConcurrentAccessError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("type", "ConcurrentAccessError")
}

// NewConcurrentAccessError は新しいConcurrentAccessErrorを作成し、スタックトレースを付与します。
func NewConcurrentAccessError(op string) error {
	return errors.WithStack(&ConcurrentAccessError{Op: op})
}

// UnsupportedAccessError はレイアウトが要求されたアクセスモードを扱えない場合のエラーです。
// CSRテーブルへの書き込みブロック要求など。
type UnsupportedAccessError struct {
	Op     string
	Layout string
	Mode   string
}

func (e *UnsupportedAccessError) Error() string {
	return fmt.Sprintf("numtable: %s: %s layout does not support %s blocks", e.Op, e.Layout, e.Mode)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnsupportedAccessError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("layout", e.Layout).
		Str("mode", e.Mode).
		Str("type", "UnsupportedAccessError")
}

// NewUnsupportedAccessError は新しいUnsupportedAccessErrorを作成し、スタックトレースを付与します。
func NewUnsupportedAccessError(op, layout, mode string) error {
	return errors.WithStack(&UnsupportedAccessError{Op: op, Layout: layout, Mode: mode})
}

// ===========================================================================
//
//	推定器・入力検証のエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Transform` などを呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("numtable: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("numtable: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("numtable: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError はテーブルを消費するアルゴリズムに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("numtable: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("numtable: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// Stacktrace はcockroachdb/errorsが記録したスタックトレースを返します。記録がなければ空文字列です。
func Stacktrace(err error) string {
	details := errors.GetSafeDetails(err).SafeDetails
	if len(details) > 0 {
		return details[0]
	}
	return ""
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
