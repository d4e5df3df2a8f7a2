/*
Package idgen 订单号生成器（snowflake 布局）

	41 bits 毫秒时间戳（相对 Epoch） | 10 bits 机器号 | 12 bits 毫秒内序号

生成器状态（lastTimestamp、sequence）由实例持有并加锁，不使用包级单例。
*/
package idgen

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	machineBits  = 10
	sequenceBits = 12

	MaxMachineID = 1<<machineBits - 1
	maxSequence  = 1<<sequenceBits - 1

	machineShift   = sequenceBits
	timestampShift = sequenceBits + machineBits
)

// Epoch 2024-01-01T00:00:00Z
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ErrClockMovedBackwards 时钟回拨，拒绝生成（不复用旧时间戳）
var ErrClockMovedBackwards = errors.New("clock moved backwards")

type Generator struct {
	mu            sync.Mutex
	machineID     int64
	lastTimestamp int64
	sequence      int64
	now           func() time.Time
}

type Option func(*Generator)

// WithClock replaces the wall clock; used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func New(machineID int64, opts ...Option) (*Generator, error) {
	if machineID < 0 || machineID > MaxMachineID {
		return nil, fmt.Errorf("machine id %d out of range [0, %d]", machineID, MaxMachineID)
	}
	g := &Generator{machineID: machineID, lastTimestamp: -1, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Next returns the next id as an integer.
func (g *Generator) Next() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.millis()
	if ts < g.lastTimestamp {
		return 0, fmt.Errorf("%w: last=%d now=%d", ErrClockMovedBackwards, g.lastTimestamp, ts)
	}

	if ts == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// 同一毫秒序号用尽，自旋等待下一毫秒
			for ts <= g.lastTimestamp {
				ts = g.millis()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTimestamp = ts

	return ts<<timestampShift | g.machineID<<machineShift | g.sequence, nil
}

// Generate returns the next id in decimal form.
func (g *Generator) Generate() (string, error) {
	id, err := g.Next()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (g *Generator) millis() int64 {
	return g.now().Sub(Epoch).Milliseconds()
}
