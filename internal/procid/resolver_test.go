package procid

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/filewatch/fw/internal/events"
)

// fakeProc builds a /proc-like tree with one comm file per pid.
func fakeProc(t *testing.T, comms map[uint32]string) string {
	t.Helper()
	root := t.TempDir()
	for pid, name := range comms {
		dir := filepath.Join(root, strconv.FormatUint(uint64(pid), 10))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("creating fake proc dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "comm"), []byte(name+"\n"), 0o644); err != nil {
			t.Fatalf("writing fake comm: %v", err)
		}
	}
	return root
}

func newTestResolver(t *testing.T, root string) *Resolver {
	t.Helper()
	r, err := NewResolver(16, time.Minute)
	if err != nil {
		t.Fatalf("NewResolver() error: %v", err)
	}
	r.procRoot = root
	return r
}

func TestResolver_Name(t *testing.T) {
	root := fakeProc(t, map[uint32]string{1234: "rustc"})
	r := newTestResolver(t, root)

	name, ok := r.Name(1234)
	if !ok {
		t.Fatal("Name() reported failure for existing pid")
	}
	if name != "rustc" {
		t.Errorf("Name() = %q, want rustc", name)
	}
}

func TestResolver_MissingPid(t *testing.T) {
	r := newTestResolver(t, t.TempDir())

	if _, ok := r.Name(9999); ok {
		t.Error("Name() should fail for a pid with no proc entry")
	}
	if got := r.NameOrPlaceholder(9999); got != events.UnknownProcess {
		t.Errorf("NameOrPlaceholder() = %q, want %q", got, events.UnknownProcess)
	}
}

func TestResolver_CachesUntilTTL(t *testing.T) {
	root := fakeProc(t, map[uint32]string{42: "vim"})
	r := newTestResolver(t, root)

	now := time.Unix(1700000000, 0)
	r.now = func() time.Time { return now }

	if got := r.NameOrPlaceholder(42); got != "vim" {
		t.Fatalf("NameOrPlaceholder() = %q, want vim", got)
	}

	// Swap the underlying name; the cached value must win inside TTL.
	if err := os.WriteFile(filepath.Join(root, "42", "comm"), []byte("nvim\n"), 0o644); err != nil {
		t.Fatalf("rewriting comm: %v", err)
	}
	now = now.Add(30 * time.Second)
	if got := r.NameOrPlaceholder(42); got != "vim" {
		t.Errorf("NameOrPlaceholder() inside TTL = %q, want cached vim", got)
	}

	// Past the TTL the entry expires and the new name is read: the
	// pid may belong to a different process by now.
	now = now.Add(time.Minute)
	if got := r.NameOrPlaceholder(42); got != "nvim" {
		t.Errorf("NameOrPlaceholder() past TTL = %q, want nvim", got)
	}
}

func TestResolver_BoundedCache(t *testing.T) {
	comms := make(map[uint32]string)
	for pid := uint32(1); pid <= 64; pid++ {
		comms[pid] = "proc"
	}
	root := fakeProc(t, comms)

	r, err := NewResolver(8, time.Minute)
	if err != nil {
		t.Fatalf("NewResolver() error: %v", err)
	}
	r.procRoot = root

	for pid := uint32(1); pid <= 64; pid++ {
		r.Name(pid)
	}
	if r.cache.Len() > 8 {
		t.Errorf("cache grew to %d entries, capacity 8", r.cache.Len())
	}
}
