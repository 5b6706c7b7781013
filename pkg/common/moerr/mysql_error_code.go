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

package moerr

// MySQL error numbers used by errorMsgRefer.
const (
	ER_UNKNOWN_ERROR             uint16 = 1105
	ER_NO_SUCH_TABLE             uint16 = 1146
	ER_LOCK_WAIT_TIMEOUT         uint16 = 1205
	WARN_DATA_TRUNCATED          uint16 = 1265
	ER_OPTION_PREVENTS_STATEMENT uint16 = 1290
	ER_QUERY_INTERRUPTED         uint16 = 1317
	ER_AUTOINC_READ_FAILED       uint16 = 1467
	ER_LOST_CONNECTION           uint16 = 2013
)
