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

package lockcache

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/matrixorigin/dmlproc/pkg/logutil"
)

// Entry is one cached table lock.
type Entry struct {
	TableID uint64
	LockID  uint64
}

// Option is used to set up the Cache.
type Option func(*Cache)

// WithLogger sets the logger of the Cache.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// Cache maps a session to the table locks it already holds, so repeated
// statements on the same table in a session skip the resource manager.
// A Cache is safe for concurrent use.
type Cache struct {
	logger *zap.Logger

	mu struct {
		sync.Mutex
		sessions map[uint32]*SessionLocks
	}
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logutil.Adjust(c.logger).Named("lockcache")
	c.mu.sessions = make(map[uint32]*SessionLocks)
	return c
}

// GetOrCreateSession returns the lock set of the session, creating it
// on first use. Concurrent callers with the same id get the same set.
func (c *Cache) GetOrCreateSession(sessionID uint32) *SessionLocks {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.mu.sessions[sessionID]
	if !ok {
		s = newSessionLocks(sessionID)
		c.mu.sessions[sessionID] = s
		c.logger.Debug("session lock set created",
			logutil.SessionIDField(sessionID))
	}
	return s
}

// RemoveSession drops the lock set of the session and returns what it
// held. Removing an unknown session is a no-op and returns nil.
func (c *Cache) RemoveSession(sessionID uint32) []Entry {
	c.mu.Lock()
	s, ok := c.mu.sessions[sessionID]
	if ok {
		delete(c.mu.sessions, sessionID)
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}
	entries := s.Entries()
	c.logger.Debug("session lock set removed",
		logutil.SessionIDField(sessionID),
		zap.Int("locks", len(entries)))
	return entries
}

// Sessions returns the number of sessions that have a lock set.
func (c *Cache) Sessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mu.sessions)
}

// SessionLocks is the table to lock mapping of one session.
type SessionLocks struct {
	sessionID uint32

	mu struct {
		sync.RWMutex
		locks map[uint64]uint64
	}
}

func newSessionLocks(sessionID uint32) *SessionLocks {
	s := &SessionLocks{sessionID: sessionID}
	s.mu.locks = make(map[uint64]uint64)
	return s
}

func (s *SessionLocks) SessionID() uint32 {
	return s.sessionID
}

// Lookup returns the lock id held on the table.
func (s *SessionLocks) Lookup(tableID uint64) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lockID, ok := s.mu.locks[tableID]
	return lockID, ok
}

// Store records the lock id of the table, replacing any previous one.
func (s *SessionLocks) Store(tableID, lockID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.locks[tableID] = lockID
}

// Entries returns all cached locks ordered by table id.
func (s *SessionLocks) Entries() []Entry {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.mu.locks))
	for table, lock := range s.mu.locks {
		entries = append(entries, Entry{TableID: table, LockID: lock})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TableID < entries[j].TableID
	})
	return entries
}
