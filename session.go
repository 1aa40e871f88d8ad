package bookstore

import "sync"

// Session holds the connected wallet, if any.
type Session struct {
	mu     sync.RWMutex
	wallet Wallet
}

// Wallet returns the connected wallet or nil.
func (s *Session) Wallet() Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet
}

func (s *Session) set(w Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallet = w
}

// requireWallet fails fast when no wallet is connected.
func (s *Session) requireWallet() (Wallet, error) {
	w := s.Wallet()
	if w == nil {
		return nil, NewError(ErrCodeNotConnected, "wallet not connected", 0, nil)
	}
	return w, nil
}
