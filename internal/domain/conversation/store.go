package conversation

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/matiasleandrokruk/charla/internal/infra/eventbus"
	"github.com/matiasleandrokruk/charla/pkg/uuid"
)

// Storage is the durable key/value medium behind the store. Values are JSON
// blobs; a missing key reads as (nil, false). The store is the only writer.
type Storage interface {
	Read(key string) ([]byte, bool)
	Write(key string, data []byte) error
}

// Storage keys. KeyLegacyMessages is the flat message list written by the
// pre-multi-conversation versions; it is read once for migration and then
// superseded by KeyConversations.
const (
	KeyConversations  = "conversations"
	KeyActiveID       = "activeConversationId"
	KeyLegacyMessages = "ai-chatbot-messages"
)

// Event bus topics published by the store.
const (
	TopicCreated  = "conversation.created"
	TopicSelected = "conversation.selected"
	TopicMessage  = "conversation.message"
)

// NoopStorage persists nothing and reads nothing. It backs the store in
// non-interactive contexts where durable state must not be touched.
type NoopStorage struct{}

func (NoopStorage) Read(string) ([]byte, bool) { return nil, false }
func (NoopStorage) Write(string, []byte) error { return nil }

// Store owns the set of conversations, the active-conversation pointer, and
// their persistence. Every mutating call persists the full state before
// returning; persistence failures are silent and the in-memory state stays
// authoritative for the session.
type Store struct {
	mu            sync.Mutex
	storage       Storage
	bus           eventbus.EventBus
	conversations []*Conversation
	activeID      string
	loading       bool
	err           string
	now           func() int64
}

// NewStore creates a store over the given storage. bus may be nil when no
// subscriber cares about change events.
func NewStore(storage Storage, bus eventbus.EventBus) *Store {
	if storage == nil {
		storage = NoopStorage{}
	}
	return &Store{
		storage: storage,
		bus:     bus,
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

// CreateConversation creates a fresh empty conversation, makes it active,
// inserts it at the front of the set and persists. Returns the new id.
func (s *Store) CreateConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

func (s *Store) createLocked() string {
	conv := &Conversation{
		ID:        uuid.NewV7().String(),
		Title:     TitleSentinel,
		Messages:  []Message{},
		UpdatedAt: s.now(),
	}
	s.conversations = append([]*Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	s.persistLocked()
	s.publish(TopicCreated, conv.ID)
	return conv.ID
}

// SelectConversation makes id the active conversation. Unknown ids are a
// no-op. Selection is durable: the active conversation survives reload.
func (s *Store) SelectConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(id) == nil {
		return
	}
	s.activeID = id
	s.persistLocked()
	s.publish(TopicSelected, id)
}

// AddMessage appends msg to the active conversation, creating one first if
// none is active. The first user message fixes the conversation title, once.
func (s *Store) AddMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(s.activeID)
	if conv == nil {
		s.createLocked()
		conv = s.findLocked(s.activeID)
	}

	conv.Messages = append(conv.Messages, msg)
	if msg.Role == RoleUser && conv.Title == TitleSentinel {
		conv.Title = titleFrom(msg.Content)
	}
	conv.UpdatedAt = s.now()
	s.sortLocked()
	s.persistLocked()
	s.publish(TopicMessage, conv.ID)
}

// Load hydrates the store from durable storage. It runs once, at startup, on
// the presentation boundary only. Malformed data is treated as absent: the
// store always ends up with at least one conversation and never reports a
// hydration error to the caller.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := s.storage.Read(KeyConversations); ok && s.hydrateLocked(raw) {
		// The record exists and parsed; the legacy key is never consulted
		// again, even if every entry was filtered out.
		if len(s.conversations) == 0 {
			s.createLocked()
		}
		return
	}
	if raw, ok := s.storage.Read(KeyLegacyMessages); ok && s.migrateLegacyLocked(raw) {
		return
	}
	s.createLocked()
}

// SetLoading sets the transient loading flag. Not persisted.
func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// SetError sets the transient error text. Not persisted.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
}

// Loading reports the transient loading flag.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err reports the transient error text.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ActiveID returns the active conversation id, or "" if the set is empty.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active conversation.
func (s *Store) Active() (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(s.activeID)
	if conv == nil {
		return Conversation{}, false
	}
	return copyOf(conv), true
}

// Conversations returns copies of all conversations, most recent first.
func (s *Store) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = copyOf(c)
	}
	return out
}

// ─── hydration and migration ────────────────────────────────────────────────

// storedMessage mirrors the persisted message shape. Content is a pointer so
// a missing content field is distinguishable from an empty string and the
// entry can be dropped.
type storedMessage struct {
	Role    Role    `json:"role"`
	Content *string `json:"content"`
}

type storedConversation struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Messages  []storedMessage `json:"messages"`
	UpdatedAt int64           `json:"updatedAt"`
}

// hydrateLocked rebuilds the set from the conversations record. Returns false
// when the record does not parse as a sequence, in which case the caller
// falls through as if no record existed.
func (s *Store) hydrateLocked(raw []byte) bool {
	var stored []storedConversation
	if err := json.Unmarshal(raw, &stored); err != nil {
		return false
	}

	convs := make([]*Conversation, 0, len(stored))
	for _, sc := range stored {
		if sc.ID == "" {
			continue
		}
		conv := &Conversation{
			ID:        sc.ID,
			Title:     sc.Title,
			Messages:  filterMessages(sc.Messages),
			UpdatedAt: sc.UpdatedAt,
		}
		if conv.Title == "" {
			conv.Title = TitleSentinel
		}
		if conv.UpdatedAt <= 0 {
			conv.UpdatedAt = s.now()
		}
		convs = append(convs, conv)
	}
	s.conversations = convs
	s.sortLocked()

	s.activeID = s.readActiveIDLocked()
	if s.findLocked(s.activeID) == nil {
		s.activeID = ""
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
		}
	}
	return true
}

// migrateLegacyLocked converts the legacy flat message list into a single
// conversation titled ImportedTitle and persists the new shape. Returns false
// when the legacy record parses to nothing usable, leaving state untouched.
func (s *Store) migrateLegacyLocked(raw []byte) bool {
	var stored []storedMessage
	if err := json.Unmarshal(raw, &stored); err != nil {
		return false
	}

	msgs := filterMessages(stored)
	if len(msgs) == 0 {
		return false
	}

	conv := &Conversation{
		ID:        uuid.NewV7().String(),
		Title:     ImportedTitle,
		Messages:  msgs,
		UpdatedAt: s.now(),
	}
	s.conversations = []*Conversation{conv}
	s.activeID = conv.ID
	s.persistLocked()
	return true
}

func filterMessages(stored []storedMessage) []Message {
	msgs := make([]Message, 0, len(stored))
	for _, sm := range stored {
		if sm.Content == nil {
			continue
		}
		m := Message{Role: sm.Role, Content: *sm.Content}
		if !m.IsValid() {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs
}

// readActiveIDLocked reads the persisted active id, or "" if absent/corrupt.
func (s *Store) readActiveIDLocked() string {
	raw, ok := s.storage.Read(KeyActiveID)
	if !ok {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}
	return id
}

// ─── internals ──────────────────────────────────────────────────────────────

func (s *Store) findLocked(id string) *Conversation {
	if id == "" {
		return nil
	}
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// sortLocked orders the set by UpdatedAt descending. The sort is stable so
// re-sorting an unchanged set (including UpdatedAt ties) is idempotent.
func (s *Store) sortLocked() {
	sort.SliceStable(s.conversations, func(i, j int) bool {
		return s.conversations[i].UpdatedAt > s.conversations[j].UpdatedAt
	})
}

// persistLocked writes the full state synchronously. Write failures are
// swallowed: durable storage problems must never block chat usage.
func (s *Store) persistLocked() {
	data, err := json.Marshal(s.conversations)
	if err != nil {
		return
	}
	_ = s.storage.Write(KeyConversations, data)

	id, err := json.Marshal(s.activeID)
	if err != nil {
		return
	}
	_ = s.storage.Write(KeyActiveID, id)
}

func (s *Store) publish(topic, conversationID string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(topic, conversationID)
}

func copyOf(c *Conversation) Conversation {
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	return out
}
