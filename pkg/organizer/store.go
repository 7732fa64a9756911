package organizer

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// State is the persisted form of all collections.
type State struct {
	Todos          []Todo          `msgpack:"todos"`
	Shopping       []ShoppingItem  `msgpack:"shopping"`
	Notes          []Note          `msgpack:"notes"`
	CustomLists    []CustomList    `msgpack:"custom_lists"`
	Projects       []Project       `msgpack:"projects"`
	Contacts       []Contact       `msgpack:"contacts"`
	CalendarEvents []CalendarEvent `msgpack:"calendar_events"`
}

var stateKey = []byte("organizer/state")

// StoreOptions configures the badger-backed store.
type StoreOptions struct {
	// Dir is the directory for data files. Required unless InMemory.
	Dir string

	// InMemory runs badger without disk persistence. Useful for tests.
	InMemory bool

	// Logger sets the badger logger. Nil silences badger output.
	Logger badger.Logger
}

// Store persists organizer state in BadgerDB, msgpack-encoded under a single
// key. One writer at a time; the Organizer serializes access.
type Store struct {
	db *badger.DB
}

// OpenStore opens (or creates) the store.
func OpenStore(opts StoreOptions) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("organizer: StoreOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(opts.Logger)
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("organizer: open store: %w", err)
	}
	return &Store{db: db}, nil
}

// Load reads the persisted state. Returns (nil, nil) when nothing has been
// saved yet.
func (s *Store) Load() (*State, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("organizer: load: %w", err)
	}
	var st State
	if err := msgpack.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("organizer: decode state: %w", err)
	}
	return &st, nil
}

// Save writes the full state.
func (s *Store) Save(st *State) error {
	raw, err := msgpack.Marshal(st)
	if err != nil {
		return fmt.Errorf("organizer: encode state: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey, raw)
	})
	if err != nil {
		return fmt.Errorf("organizer: save: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
