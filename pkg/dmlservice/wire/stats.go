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
	"github.com/fagongzi/goetty/v2/buf"
)

// QueryStats is returned by the query-execution service after CodeStats.
type QueryStats struct {
	Query    string
	Extended string
	Mini     string
}

func (s QueryStats) Encode() []byte {
	out := buf.NewByteBuf(12 + len(s.Query) + len(s.Extended) + len(s.Mini))
	writeString(out, s.Query)
	writeString(out, s.Extended)
	writeString(out, s.Mini)
	return readAll(out)
}

func DecodeQueryStats(data []byte) (QueryStats, error) {
	r := newReader("query stats", data)
	s := QueryStats{
		Query:    r.string(),
		Extended: r.string(),
		Mini:     r.string(),
	}
	return s, r.err
}
