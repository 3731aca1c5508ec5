package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

// SaveModel はモデルをファイルに保存する
//
// パラメータ:
//   - model: 保存するモデル（BaseEstimatorを埋め込んだ構造体）
//   - filename: 保存先のファイルパス
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler()
//	// ... テーブルで学習 ...
//	err := model.SaveModel(scaler, "scaler.gob")
func SaveModel(model interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()
	return SaveModelToWriter(model, file)
}

// LoadModel はファイルからモデルを読み込む
//
// model にはBaseEstimatorを埋め込んだ構造体のポインタを渡す。
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
