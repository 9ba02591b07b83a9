package filter

import "testing"

func TestConfig_Normalization(t *testing.T) {
	cfg := New([]string{".RS", " md ", "", "toml"})

	want := []string{"md", "rs", "toml"}
	got := cfg.Extensions()
	if len(got) != len(want) {
		t.Fatalf("Extensions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Extensions()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestConfig_Match(t *testing.T) {
	tests := []struct {
		name string
		exts []string
		path string
		want bool
	}{
		{"empty set passes everything", nil, "/tmp/file.bin", true},
		{"empty set passes no-extension paths", nil, "/usr/bin/vim", true},
		{"matching extension", []string{"rs"}, "/tmp/a.rs", true},
		{"non-matching extension", []string{"md"}, "/tmp/a.rs", false},
		{"case-insensitive path", []string{"rs"}, "/tmp/MAIN.RS", true},
		{"dot-prefixed config entry", []string{".md"}, "/notes/x.md", true},
		{"no extension with filter", []string{"rs"}, "/usr/bin/vim", false},
		{"trailing dot is no extension", []string{"rs"}, "/tmp/odd.", false},
		{"dot in directory not in name", []string{"rs"}, "/some.dir/file", false},
		{"last dot wins", []string{"gz"}, "/backup/data.tar.gz", true},
		{"middle extension does not match", []string{"tar"}, "/backup/data.tar.gz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New(tt.exts)
			if got := cfg.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) with %v = %v, want %v", tt.path, tt.exts, got, tt.want)
			}
		})
	}
}

func TestConfig_Empty(t *testing.T) {
	if !New(nil).Empty() {
		t.Error("New(nil).Empty() = false, want true")
	}
	if New([]string{"rs"}).Empty() {
		t.Error(`New([rs]).Empty() = true, want false`)
	}
}
