// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Therapy replies are sensitive by nature, so the websocket transport
// assembles them in mlocked memory: the text never swaps to disk and is
// wiped as soon as it has been delivered and persisted.
package handlers

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/awnumar/memguard"
	"golang.org/x/sys/unix"
)

// replyBufferSize bounds one assembled therapy reply. 64 KB is far above
// any real reply; overflow means a runaway upstream, not a long answer.
const replyBufferSize = 64 * 1024

const minMlockKB = 64

var (
	memguardInitOnce sync.Once
	mlockSufficient  bool
	mlockLimitKB     int64
)

// ReplyBuffer accumulates streamed reply fragments for one turn.
//
// The secure variant stores fragments in a memguard locked buffer; when
// the system's mlock limit is too low, construction fails unless
// HAVEN_INSECURE_MEMORY=true, in which case plain memory is used with a
// logged warning. Not safe for concurrent use; a turn has one writer.
type ReplyBuffer struct {
	locked    *memguard.LockedBuffer
	plain     []byte
	offset    int
	destroyed bool
}

// NewReplyBuffer allocates a buffer for one therapy reply.
func NewReplyBuffer() (*ReplyBuffer, error) {
	memguardInitOnce.Do(func() {
		memguard.CatchInterrupt()
		mlockSufficient, mlockLimitKB = checkMlockLimit()
	})

	if !mlockSufficient {
		if os.Getenv("HAVEN_INSECURE_MEMORY") != "true" {
			return nil, fmt.Errorf(
				"mlock limit insufficient: have %d KB, need %d KB; raise the limit or set HAVEN_INSECURE_MEMORY=true",
				mlockLimitKB, minMlockKB)
		}
		slog.Warn("assembling therapy replies in unlocked memory",
			"mlock_limit_kb", mlockLimitKB)
		return &ReplyBuffer{plain: make([]byte, 0, replyBufferSize)}, nil
	}

	buf := memguard.NewBuffer(replyBufferSize)
	buf.Melt()
	return &ReplyBuffer{locked: buf}, nil
}

// Append adds one reply fragment.
func (b *ReplyBuffer) Append(fragment string) error {
	if b.destroyed {
		return fmt.Errorf("reply buffer already destroyed")
	}
	raw := []byte(fragment)
	if b.locked != nil {
		if b.offset+len(raw) > replyBufferSize {
			return fmt.Errorf("reply buffer overflow: reply exceeds %d bytes", replyBufferSize)
		}
		copy(b.locked.Bytes()[b.offset:], raw)
		b.offset += len(raw)
		return nil
	}
	if len(b.plain)+len(raw) > replyBufferSize {
		return fmt.Errorf("reply buffer overflow: reply exceeds %d bytes", replyBufferSize)
	}
	b.plain = append(b.plain, raw...)
	return nil
}

// String returns the assembled reply so far. The returned string is an
// unlocked copy; callers hand it off and let the buffer be destroyed.
func (b *ReplyBuffer) String() string {
	if b.destroyed {
		return ""
	}
	if b.locked != nil {
		return string(b.locked.Bytes()[:b.offset])
	}
	return string(b.plain)
}

// Destroy wipes the buffer. Idempotent.
func (b *ReplyBuffer) Destroy() {
	if b.destroyed {
		return
	}
	if b.locked != nil {
		b.locked.Destroy()
	}
	for i := range b.plain {
		b.plain[i] = 0
	}
	b.plain = nil
	b.destroyed = true
}

// checkMlockLimit probes the kernel's mlock resource limit. An unlimited
// or unreadable limit is treated as sufficient.
func checkMlockLimit() (bool, int64) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rlimit); err != nil {
		slog.Warn("could not determine mlock limit", "error", err)
		return true, -1
	}
	if rlimit.Cur == unix.RLIM_INFINITY {
		return true, -1
	}
	limitKB := int64(rlimit.Cur / 1024)
	return limitKB >= minMlockKB, limitKB
}
