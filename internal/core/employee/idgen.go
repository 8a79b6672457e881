package employee

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// IDGenerator は社員 ID を採番します。exists が true を返す ID は使いません。
type IDGenerator interface {
	NewID(exists func(id string) bool) string
}

// SequenceIDGenerator は時刻・単調増加カウンタ・乱数を組み合わせて ID を生成します。
type SequenceIDGenerator struct {
	clock  Clock
	random func() string

	mu  sync.Mutex
	seq uint64
}

// NewIDGenerator は SequenceIDGenerator を生成します。
func NewIDGenerator(clock Clock) *SequenceIDGenerator {
	if clock == nil {
		clock = realClock{}
	}
	return &SequenceIDGenerator{clock: clock, random: randomSuffix}
}

// NewID は exists と衝突しない ID を返します。
func (g *SequenceIDGenerator) NewID(exists func(id string) bool) string {
	for {
		id := g.next()
		if exists == nil || !exists(id) {
			return id
		}
	}
}

func (g *SequenceIDGenerator) next() string {
	g.mu.Lock()
	g.seq++
	seq := g.seq
	g.mu.Unlock()

	return fmt.Sprintf("emp_%d_%d_%s", g.clock.Now().UnixMilli(), seq, g.random())
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
