package employee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Store は社員コレクションの正本をメモリ上に保持し、変更のたびにスロットへ同期します。
type Store struct {
	slot Slot
	ids  IDGenerator
	log  zerolog.Logger

	mu          sync.Mutex
	employees   []Employee
	index       map[string]int
	subscribers []subscriber
	nextSubID   int
	seq         uint64

	// 通知は seq の順に 1 件ずつ配送します。
	turnMu    sync.Mutex
	turn      *sync.Cond
	delivered uint64
}

type subscriber struct {
	id int
	fn func([]Employee)
}

// Option は Store の生成オプションです。
type Option func(*Store)

// WithIDGenerator は ID の採番方法を差し替えます。
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Store) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore は Store を生成します。Load を呼ぶまでコレクションは空です。
func NewStore(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot:  slot,
		ids:   NewIDGenerator(nil),
		log:   zerolog.Nop(),
		index: make(map[string]int),
	}
	s.turn = sync.NewCond(&s.turnMu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IDs は Store が使う ID 採番器を返します。CSV 取り込みでも同じ採番を使います。
func (s *Store) IDs() IDGenerator {
	return s.ids
}

// Load はスロットからコレクションを読み込みます。
// 未保存・読み込み失敗・形式不正のときは初期データを使い、エラーは返しません。
func (s *Store) Load(ctx context.Context) []Employee {
	loaded, err := s.readSlot(ctx)
	if err != nil {
		if errors.Is(err, ErrSlotEmpty) {
			s.log.Debug().Msg("employee slot is empty, using seed data")
		} else {
			s.log.Warn().Err(err).Msg("employee slot unreadable, using seed data")
		}
		loaded = SeedEmployees()
	}

	s.mu.Lock()
	s.replaceLocked(loaded)
	snapshot := s.snapshotLocked()
	s.log.Info().Int("count", len(snapshot)).Msg("employees loaded")
	s.unlockAndNotify(snapshot)
	return snapshot
}

func (s *Store) readSlot(ctx context.Context) ([]Employee, error) {
	if s.slot == nil {
		return nil, ErrSlotEmpty
	}
	data, err := s.slot.Read(ctx)
	if err != nil {
		return nil, err
	}

	var emps []Employee
	if err := json.Unmarshal(data, &emps); err != nil {
		return nil, fmt.Errorf("employee: parse slot: %w", err)
	}
	if emps == nil {
		return nil, fmt.Errorf("employee: parse slot: %w", ErrSlotEmpty)
	}
	if err := validateCollection(emps); err != nil {
		return nil, fmt.Errorf("employee: slot shape: %w", err)
	}
	return emps, nil
}

// Snapshot は現在のコレクションの複製を挿入順で返します。
func (s *Store) Snapshot() []Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get は ID で社員を取得します。
func (s *Store) Get(id string) (Employee, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return Employee{}, false
	}
	return s.employees[idx], true
}

// Create は新しい ID を採番して社員を末尾に追加します。
// 戻り値のエラーが ErrPersistFailed を含む場合も追加は完了しています。
func (s *Store) Create(ctx context.Context, in Fields) (Employee, error) {
	s.mu.Lock()
	id := s.ids.NewID(func(candidate string) bool {
		_, taken := s.index[candidate]
		return taken
	})
	created := Employee{ID: id, Fields: in}
	s.index[id] = len(s.employees)
	s.employees = append(s.employees, created)
	err := s.persistLocked(ctx, "create")
	s.unlockAndNotify(s.snapshotLocked())
	return created, err
}

// Update は社員の属性を丸ごと置き換えます。ID は変わりません。
// 該当 ID が存在しない場合は何もせず false を返します。
func (s *Store) Update(ctx context.Context, id string, in Fields) (bool, error) {
	return s.mutate(ctx, "update", id, func(Fields) Fields { return in })
}

// Patch は指定された属性のみを更新します。
func (s *Store) Patch(ctx context.Context, id string, p Patch) (bool, error) {
	return s.mutate(ctx, "patch", id, p.Apply)
}

func (s *Store) mutate(ctx context.Context, op, id string, fn func(Fields) Fields) (bool, error) {
	s.mu.Lock()
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	s.employees[idx].Fields = fn(s.employees[idx].Fields)
	err := s.persistLocked(ctx, op)
	s.unlockAndNotify(s.snapshotLocked())
	return true, err
}

// Delete は社員を削除します。該当 ID が存在しない場合は何もせず false を返します。
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	remaining := make([]Employee, 0, len(s.employees)-1)
	remaining = append(remaining, s.employees[:idx]...)
	remaining = append(remaining, s.employees[idx+1:]...)
	s.replaceLocked(remaining)
	err := s.persistLocked(ctx, "delete")
	s.unlockAndNotify(s.snapshotLocked())
	return true, err
}

// ReplaceAll はコレクション全体を emps で置き換えます。CSV 取り込みで使います。
// ID が空または重複している場合は何も変更せずエラーを返します。
func (s *Store) ReplaceAll(ctx context.Context, emps []Employee) error {
	if err := validateCollection(emps); err != nil {
		return err
	}

	s.mu.Lock()
	s.replaceLocked(append([]Employee(nil), emps...))
	err := s.persistLocked(ctx, "replace")
	snapshot := s.snapshotLocked()
	s.log.Info().Int("count", len(snapshot)).Msg("employees replaced")
	s.unlockAndNotify(snapshot)
	return err
}

// Subscribe は変更後のスナップショットを受け取る関数を登録し、解除関数を返します。
// 通知は登録順に、変更と同じ順序で届きます。fn の中から Store を変更してはいけません。
func (s *Store) Subscribe(fn func([]Employee)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// unlockAndNotify は s.mu を保持した状態で呼び出します。
// 購読者一覧と通知順を確定してから s.mu を解放し、先行する通知の配送を待って配送します。
func (s *Store) unlockAndNotify(snapshot []Employee) {
	subs := append([]subscriber(nil), s.subscribers...)
	seq := s.seq
	s.seq++
	s.mu.Unlock()

	s.turnMu.Lock()
	for s.delivered != seq {
		s.turn.Wait()
	}
	s.turnMu.Unlock()

	defer func() {
		s.turnMu.Lock()
		s.delivered++
		s.turn.Broadcast()
		s.turnMu.Unlock()
	}()

	for _, sub := range subs {
		sub.fn(append([]Employee(nil), snapshot...))
	}
}

func (s *Store) replaceLocked(emps []Employee) {
	s.employees = emps
	s.index = make(map[string]int, len(emps))
	for i, e := range emps {
		s.index[e.ID] = i
	}
}

func (s *Store) snapshotLocked() []Employee {
	return append([]Employee(nil), s.employees...)
}

func (s *Store) persistLocked(ctx context.Context, op string) error {
	if s.slot == nil {
		return nil
	}

	emps := s.employees
	if emps == nil {
		emps = []Employee{}
	}
	data, err := json.Marshal(emps)
	if err != nil {
		return &PersistError{Op: op, Err: err}
	}

	if err := s.slot.Write(ctx, data); err != nil {
		s.log.Warn().Err(err).Str("op", op).Msg("employee slot write failed, keeping in-memory state")
		return &PersistError{Op: op, Err: err}
	}
	return nil
}
