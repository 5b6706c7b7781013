// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"bytes"
	"context"
	"io"

	"github.com/pierrec/lz4"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
)

const (
	frameRaw uint8 = 0
	frameLZ4 uint8 = 1
)

// EncodeFrame wraps a data batch payload with a one byte frame type,
// compressing it with lz4 when compress is set.
func EncodeFrame(data []byte, compress bool) ([]byte, error) {
	if !compress {
		out := make([]byte, 0, 1+len(data))
		out = append(out, frameRaw)
		return append(out, data...), nil
	}

	var b bytes.Buffer
	b.WriteByte(frameLZ4)
	w := lz4.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		return nil, moerr.ConvertGoError(context.Background(), err)
	}
	if err := w.Close(); err != nil {
		return nil, moerr.ConvertGoError(context.Background(), err)
	}
	return b.Bytes(), nil
}

// DecodeFrame returns the payload inside a frame.
func DecodeFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, moerr.NewInvalidInput(context.Background(), "empty frame")
	}
	switch frame[0] {
	case frameRaw:
		return frame[1:], nil
	case frameLZ4:
		data, err := io.ReadAll(lz4.NewReader(bytes.NewReader(frame[1:])))
		if err != nil {
			return nil, moerr.ConvertGoError(context.Background(), err)
		}
		return data, nil
	default:
		return nil, moerr.NewInvalidInput(context.Background(), "unknown frame type %d", frame[0])
	}
}
