package memstore

import (
	"testing"
	"time"

	"distshm/internal/wire"
)

func TestWriteBumpsWTagAndSetsData(t *testing.T) {
	s := New(100, 200)

	before, err := s.Read(150)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	after, err := s.Write(150, "hello")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if after.Data != "hello" {
		t.Fatalf("Data = %v, want hello", after.Data)
	}
	if after.WTag <= before.WTag {
		t.Fatalf("WTag did not strictly increase: before=%d after=%d", before.WTag, after.WTag)
	}
}

func TestReadWriteOutOfRange(t *testing.T) {
	s := New(100, 200)
	if _, err := s.Read(50); err == nil {
		t.Fatal("expected error reading address outside store range")
	}
	if _, err := s.Write(250, "x"); err == nil {
		t.Fatal("expected error writing address outside store range")
	}
}

func TestAcquireReleaseLockRoundTrip(t *testing.T) {
	s := New(0, 10)

	ok, ltag1, _, err := s.AcquireLock(5, 0)
	if err != nil || !ok {
		t.Fatalf("AcquireLock: ok=%v err=%v", ok, err)
	}

	ok, ltag2, _, err := s.ReleaseLock(5, ltag1)
	if err != nil || !ok {
		t.Fatalf("ReleaseLock: ok=%v err=%v", ok, err)
	}
	if ltag2 <= ltag1 {
		t.Fatalf("ltag did not advance on release: %d -> %d", ltag1, ltag2)
	}
}

func TestReleaseLockStaleTagNoOp(t *testing.T) {
	s := New(0, 10)

	_, ltag1, _, _ := s.AcquireLock(5, 0)
	s.ReleaseLock(5, ltag1)

	ok, _, _, err := s.ReleaseLock(5, ltag1)
	if err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}
	if ok {
		t.Fatal("releasing a stale ltag should report ok=false")
	}
}

func TestAddHolderSetsStatusShared(t *testing.T) {
	s := New(0, 10)
	ep := wire.Endpoint{Host: "10.0.0.2", Port: 9001}

	if ok, err := s.AddHolder(3, ep); err != nil || !ok {
		t.Fatalf("AddHolder: ok=%v err=%v", ok, err)
	}

	snap, err := s.Read(3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Status != wire.StatusS {
		t.Fatalf("status = %q, want %q", snap.Status, wire.StatusS)
	}
	if len(snap.Holders) != 1 || snap.Holders[0] != ep {
		t.Fatalf("unexpected holders: %+v", snap.Holders)
	}
}

func TestAddHolderDeduplicates(t *testing.T) {
	s := New(0, 10)
	ep := wire.Endpoint{Host: "10.0.0.2", Port: 9001}

	s.AddHolder(3, ep)
	s.AddHolder(3, ep)

	holders, _ := s.Holders(3)
	if len(holders) != 1 {
		t.Fatalf("expected dedup, got %d holders", len(holders))
	}
}

func TestRemoveHoldersFromTruncatesSuffix(t *testing.T) {
	s := New(0, 10)
	h1 := wire.Endpoint{Host: "s1", Port: 1}
	h2 := wire.Endpoint{Host: "s2", Port: 2}
	h3 := wire.Endpoint{Host: "s3", Port: 3}

	s.AddHolder(0, h1)
	s.AddHolder(0, h2)
	s.AddHolder(0, h3)

	ok, err := s.RemoveHoldersFrom(0, h2)
	if err != nil || !ok {
		t.Fatalf("RemoveHoldersFrom: ok=%v err=%v", ok, err)
	}

	holders, _ := s.Holders(0)
	if len(holders) != 1 || holders[0] != h1 {
		t.Fatalf("unexpected holders after truncation: %+v", holders)
	}
}

func TestRemoveHoldersFromEmptiesRevertsToExclusive(t *testing.T) {
	s := New(0, 10)
	h1 := wire.Endpoint{Host: "s1", Port: 1}

	s.AddHolder(0, h1)
	if ok, err := s.RemoveHoldersFrom(0, h1); err != nil || !ok {
		t.Fatalf("RemoveHoldersFrom: ok=%v err=%v", ok, err)
	}

	snap, _ := s.Read(0)
	if snap.Status != wire.StatusE {
		t.Fatalf("status = %q, want %q after holder list emptied", snap.Status, wire.StatusE)
	}
}

func TestLeaseExpiryReleasesLockForStore(t *testing.T) {
	s := New(0, 10)

	_, ltag1, _, _ := s.AcquireLock(1, 15*time.Millisecond)

	acquired := make(chan uint64, 1)
	go func() {
		ok, ltag2, _, _ := s.AcquireLock(1, 0)
		if ok {
			acquired <- ltag2
		}
	}()

	select {
	case ltag2 := <-acquired:
		if ltag2 <= ltag1 {
			t.Fatalf("post-expiry ltag %d should exceed %d", ltag2, ltag1)
		}
	case <-time.After(time.Second):
		t.Fatal("lease expiry never freed the lock")
	}
}

func TestSetStatusForcesStatusWithoutHolders(t *testing.T) {
	s := New(0, 10)

	if err := s.SetStatus(3, wire.StatusS); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	snap, err := s.Read(3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Status != wire.StatusS {
		t.Fatalf("Status = %q, want %q", snap.Status, wire.StatusS)
	}
	if len(snap.Holders) != 0 {
		t.Fatalf("expected no holders to be synthesized, got %v", snap.Holders)
	}
}
