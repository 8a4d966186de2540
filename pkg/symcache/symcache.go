package symcache

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("key does not exist")

// funcKey is a function index within the index space of a module.
type funcKey struct {
	module uint32
	fn     uint32
}

type name string

// SymCache holds function names keyed by module and function index.
type SymCache struct {
	syms map[funcKey]name
	lock sync.RWMutex
}

func NewSymCache() *SymCache {
	cache := new(SymCache)
	cache.syms = make(map[funcKey]name)

	return cache
}

func (s *SymCache) Set(module, fn uint32, sym string) {
	s.lock.Lock()
	s.syms[funcKey{module, fn}] = name(sym)
	s.lock.Unlock()
}

func (s *SymCache) Get(module, fn uint32) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sym, ok := s.syms[funcKey{module, fn}]
	if !ok {
		return "", ErrNotFound
	}

	return string(sym), nil
}

// Drop removes every name of the module.
func (s *SymCache) Drop(module uint32) {
	s.lock.Lock()
	for k := range s.syms {
		if k.module == module {
			delete(s.syms, k)
		}
	}
	s.lock.Unlock()
}

func (s *SymCache) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.syms)
}
