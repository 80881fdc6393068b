package memstore

import "distshm/internal/wire"

// Holders returns a copy of addr's copy-holder chain in insertion order.
func (s *Store) Holders(addr int) ([]wire.Endpoint, error) {
	it, err := s.at(addr)
	if err != nil {
		return nil, err
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	return append([]wire.Endpoint(nil), it.holders...), nil
}

// AddHolder records holder as a copy-holder of addr, forcing status to S.
// Adding an endpoint already present is a no-op that still reports ok=true
// (§4.5: "If cascade=false and the requester endpoint differs from self,
// add the requester to the copy-holder list"); duplicate suppression keeps
// the chain well-formed across retried forwards.
func (s *Store) AddHolder(addr int, holder wire.Endpoint) (ok bool, err error) {
	it, err := s.at(addr)
	if err != nil {
		return false, err
	}
	it.mu.Lock()
	defer it.mu.Unlock()

	for _, h := range it.holders {
		if h == holder {
			return true, nil
		}
	}
	it.holders = append(it.holders, holder)
	it.status = wire.StatusS
	return true, nil
}

// RemoveHoldersFrom truncates addr's copy-holder chain at the first
// occurrence of holder, dropping holder and every endpoint after it
// (§4.7 step 3: the failing endpoint and the unreachable suffix behind
// it). If the resulting chain is empty, status reverts to E (§4.7 step
// 4). Returns ok=false if holder is not currently in the chain.
func (s *Store) RemoveHoldersFrom(addr int, holder wire.Endpoint) (ok bool, err error) {
	it, err := s.at(addr)
	if err != nil {
		return false, err
	}
	it.mu.Lock()
	defer it.mu.Unlock()

	idx := -1
	for i, h := range it.holders {
		if h == holder {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	it.holders = it.holders[:idx]
	if len(it.holders) == 0 {
		it.status = wire.StatusE
	}
	return true, nil
}

// RemoveHolder drops a single holder from addr's copy-holder chain
// without disturbing the rest of the chain, reverting status to E if the
// chain becomes empty. Removing an endpoint not present is a no-op that
// still reports ok=true.
func (s *Store) RemoveHolder(addr int, holder wire.Endpoint) (ok bool, err error) {
	it, err := s.at(addr)
	if err != nil {
		return false, err
	}
	it.mu.Lock()
	defer it.mu.Unlock()

	idx := -1
	for i, h := range it.holders {
		if h == holder {
			idx = i
			break
		}
	}
	if idx < 0 {
		return true, nil
	}

	it.holders = append(it.holders[:idx], it.holders[idx+1:]...)
	if len(it.holders) == 0 {
		it.status = wire.StatusE
	}
	return true, nil
}
