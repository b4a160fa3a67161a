package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solatis/eventtrail/internal/patterns"
)

const testHMACSecret = "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"

const abandonedCartYAML = `sequence:
  - repeat:
      pattern: {event: {attribute: event_type, value: add_item}}
      min: 1
  - event: {attribute: event_type, value: abandon}
`

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--log-format", "text", "--log-level", "warn"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
	}{
		{"info", "json", false},
		{"debug", "text", false},
		{"WARN", "json", false},
		{"loud", "json", true},
		{"info", "xml", true},
	}

	for _, tt := range tests {
		_, err := newLogger(&bytes.Buffer{}, tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("newLogger(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
		}
	}
}

func TestDecodeDefinition(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		isJSON   bool
		describe string
		wantErr  bool
	}{
		{"yaml", abandonedCartYAML, false, `seq(repeat(event(event_type="add_item"), 1, *), event(event_type="abandon"))`, false},
		{"json", `{"repeat": {"pattern": {"event": {"any": true}}, "min": 2, "max": 2}}`, true, `repeat(event(*), 2, 2)`, false},
		{"yaml accepts json", `{"any": true}`, false, `any`, false},
		{"unknown yaml key", "anything: true\n", false, "", true},
		{"unknown json key", `{"anything": true}`, true, "", true},
		{"empty yaml", "", false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := decodeDefinition([]byte(tt.data), tt.isJSON)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeDefinition() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			cp, err := patterns.Compile(def)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if got := cp.Pattern.String(); got != tt.describe {
				t.Errorf("pattern = %s, want %s", got, tt.describe)
			}
		})
	}
}

func TestReadHistories(t *testing.T) {
	t.Run("json array", func(t *testing.T) {
		path := writeFile(t, "h.json", `[{"event_type": "a"}, {"event_type": "b"}]`)
		hs, err := readHistories(path)
		if err != nil {
			t.Fatalf("readHistories() error = %v", err)
		}
		if len(hs) != 1 || len(hs[0]) != 2 {
			t.Errorf("got %d histories, want 1 of length 2", len(hs))
		}
	})

	t.Run("jsonl", func(t *testing.T) {
		path := writeFile(t, "h.jsonl", "[{\"event_type\": \"a\"}]\n\n[]\n[{\"cart_id\": 7}, {\"event_type\": \"b\"}]\n")
		hs, err := readHistories(path)
		if err != nil {
			t.Fatalf("readHistories() error = %v", err)
		}
		want := []int{1, 0, 2}
		if len(hs) != len(want) {
			t.Fatalf("got %d histories, want %d", len(hs), len(want))
		}
		for i, n := range want {
			if len(hs[i]) != n {
				t.Errorf("len(histories[%d]) = %d, want %d", i, len(hs[i]), n)
			}
		}
	})

	t.Run("bad line", func(t *testing.T) {
		path := writeFile(t, "h.jsonl", "[]\n[{\"colour\": \"red\"}]\n")
		_, err := readHistories(path)
		if err == nil || !strings.Contains(err.Error(), "line 2") {
			t.Errorf("readHistories() error = %v, want line 2", err)
		}
	})
}

func TestSelectSecret(t *testing.T) {
	one := map[string][]byte{"aa": []byte("x")}
	two := map[string][]byte{"aa": []byte("x"), "bb": []byte("y")}

	if id, err := selectSecret(one, ""); err != nil || id != "aa" {
		t.Errorf("selectSecret(one) = %q, %v", id, err)
	}
	if _, err := selectSecret(two, ""); err == nil {
		t.Errorf("selectSecret(two) error = nil, want ambiguity error")
	}
	if id, err := selectSecret(two, "bb"); err != nil || id != "bb" {
		t.Errorf("selectSecret(two, bb) = %q, %v", id, err)
	}
	if _, err := selectSecret(two, "cc"); err == nil {
		t.Errorf("selectSecret(two, cc) error = nil")
	}
	if _, err := selectSecret(nil, ""); err == nil {
		t.Errorf("selectSecret(nil) error = nil")
	}
}

func TestCLI_Check(t *testing.T) {
	patternPath := writeFile(t, "cart.yaml", abandonedCartYAML)
	historyPath := writeFile(t, "h.jsonl",
		`[{"event_type": "add_item"}, {"event_type": "abandon"}, {"event_type": "login"}]`+"\n"+
			`[{"event_type": "abandon"}]`+"\n")

	out, err := run(t, "check", "--pattern", patternPath, "--history", historyPath)
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	want := "history 1: matched (consumed 2 of 3 events)\nhistory 2: no match\n"
	if out != want {
		t.Errorf("check output =\n%s\nwant\n%s", out, want)
	}
}

func TestCLI_PatternShow(t *testing.T) {
	out, err := run(t, "pattern", "show", writeFile(t, "cart.yaml", abandonedCartYAML))
	if err != nil {
		t.Fatalf("pattern show error = %v", err)
	}
	if !strings.Contains(out, "span:     2..*") {
		t.Errorf("pattern show output missing span:\n%s", out)
	}
}

func TestCLI_Registry(t *testing.T) {
	t.Setenv("ET_HMAC_SECRET", testHMACSecret)
	url := "sqlite://" + filepath.Join(t.TempDir(), "cli.db")

	if _, err := run(t, "--db-url", url, "pattern", "list", "--tenant", "acme"); err == nil {
		t.Fatalf("pattern list before migrate error = nil, want migration error")
	}

	out, err := run(t, "--db-url", url, "migrate", "up")
	if err != nil {
		t.Fatalf("migrate up error = %v", err)
	}
	if !strings.Contains(out, "applied 001_initial_schema.sql") {
		t.Errorf("migrate up output = %q", out)
	}

	out, err = run(t, "--db-url", url, "migrate", "status")
	if err != nil {
		t.Fatalf("migrate status error = %v", err)
	}
	if !strings.Contains(out, "001_initial_schema.sql  applied") {
		t.Errorf("migrate status output = %q", out)
	}

	out, err = run(t, "--db-url", url, "pattern", "add", "--tenant", "acme", "--name", "abandoned-cart",
		"--file", writeFile(t, "cart.yaml", abandonedCartYAML))
	if err != nil {
		t.Fatalf("pattern add error = %v", err)
	}
	id := strings.TrimSpace(out)

	out, err = run(t, "--db-url", url, "pattern", "list", "--tenant", "acme")
	if err != nil {
		t.Fatalf("pattern list error = %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "abandoned-cart") {
		t.Errorf("pattern list output missing %s:\n%s", id, out)
	}

	out, err = run(t, "--db-url", url, "api-key", "create", "--tenant", "acme")
	if err != nil {
		t.Fatalf("api-key create error = %v", err)
	}
	if key := strings.TrimSpace(out); !strings.HasPrefix(key, "et-v1-0123456789abcdef0123456789abcdef-") {
		t.Errorf("api key = %q", key)
	}

	if _, err := run(t, "--db-url", url, "pattern", "delete", "--tenant", "acme", id); err != nil {
		t.Fatalf("pattern delete error = %v", err)
	}
	if _, err := run(t, "--db-url", url, "pattern", "delete", "--tenant", "acme", id); err == nil {
		t.Errorf("second delete error = nil, want not found")
	}
}
