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

package dmlservice

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/matrixorigin/dmlproc/pkg/common/moerr"
	"github.com/matrixorigin/dmlproc/pkg/lockcache"
	"github.com/matrixorigin/dmlproc/pkg/util/toml"
)

const (
	defaultWaitPeriod       = 10
	defaultLockPollInterval = 100 * time.Millisecond
	defaultProcessName      = "DMLProc"
)

// Config is the dml service config.
type Config struct {
	// WaitPeriod bounds the table lock wait. After the first attempt
	// the coordinator retries WaitPeriod*10 times before giving up.
	WaitPeriod int `toml:"wait-period"`
	// LockPollInterval is the pause between two table lock attempts.
	LockPollInterval toml.Duration `toml:"lock-poll-interval"`
	// CompressRowGroups compresses data batches sent to write engines.
	CompressRowGroups bool `toml:"compress-row-groups"`
	// ProcessName identifies this process as a table lock owner.
	ProcessName string `toml:"process-name"`
}

func (c *Config) adjust() {
	if c.WaitPeriod == 0 {
		c.WaitPeriod = defaultWaitPeriod
	}
	if c.LockPollInterval.Duration == 0 {
		c.LockPollInterval.Duration = defaultLockPollInterval
	}
	if c.ProcessName == "" {
		c.ProcessName = defaultProcessName
	}
}

// Validate validates the config.
func (c *Config) Validate() error {
	if c.WaitPeriod < 0 {
		return moerr.NewBadConfig(context.Background(), "wait-period %d must not be negative", c.WaitPeriod)
	}
	if c.LockPollInterval.Duration < 0 {
		return moerr.NewBadConfig(context.Background(), "lock-poll-interval %s must not be negative", c.LockPollInterval.Duration)
	}
	return nil
}

// maxLockRetries is the number of table lock retries after the first
// attempt.
func (c *Config) maxLockRetries() int {
	return c.WaitPeriod * 10
}

// Dependencies are the collaborators of the service.
type Dependencies struct {
	Resource   ResourceManager
	Catalog    Catalog
	Membership Membership
	Fabric     Fabric
}

// Option is used to set up the service.
type Option func(*service)

// WithLogger sets the logger of the service.
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithLockCache shares a lock cache with the service instead of creating
// one.
func WithLockCache(cache *lockcache.Cache) Option {
	return func(s *service) {
		s.locks = cache
	}
}

var getpid = os.Getpid

// sleep is the pause between table lock attempts. It returns early when
// ctx is done.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
