package topology

import "testing"

func testTopology(t *testing.T) *Topology {
	t.Helper()
	tp, err := New([]string{"s0:9001", "s1:9002", "s2:9003"}, 300, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tp
}

func TestHomeIndexPartitioning(t *testing.T) {
	tp := testTopology(t)

	cases := []struct {
		addr int
		want int
	}{
		{0, 0},
		{99, 0},
		{100, 1},
		{199, 1},
		{200, 2},
		{299, 2},
	}
	for _, c := range cases {
		if got := tp.HomeIndex(c.addr); got != c.want {
			t.Errorf("HomeIndex(%d) = %d, want %d", c.addr, got, c.want)
		}
	}
}

func TestHomeIndexOutOfRange(t *testing.T) {
	tp := testTopology(t)
	if got := tp.HomeIndex(9999); got != -1 {
		t.Fatalf("HomeIndex(9999) = %d, want -1", got)
	}
	if got := tp.HomeIndex(-1); got != -1 {
		t.Fatalf("HomeIndex(-1) = %d, want -1", got)
	}
}

func TestIsHome(t *testing.T) {
	tp := testTopology(t)
	if !tp.IsHome(50) {
		t.Fatal("expected server 0 to own address 50")
	}
	if tp.IsHome(150) {
		t.Fatal("expected server 0 not to own address 150")
	}
}

func TestNewRejectsUnevenPartition(t *testing.T) {
	if _, err := New([]string{"a", "b"}, 301, 0); err == nil {
		t.Fatal("expected error for uneven partition")
	}
}
