package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"castos/internal/api"
)

const (
	extractionReply = `{"characters":[{"name":"Captain Rhea","gender":"Female","age_range":"35-45","traits":["stern","brave"]}]}`
	allocationReply = `{"allocations":[{"name":"Captain Rhea","min_budget":100000,"max_budget":300000}]}`
	searchReply     = `[{"name":"Ada Stone","salary":150000,"box_office":90000000,"rating":7.8,"versatility":80,"risk":0.2},` +
		`{"name":"Mira Vale","salary":250000,"box_office":120000000,"rating":8.1,"versatility":75,"risk":0.3},` +
		`{"name":"June Park","salary":120000,"box_office":40000000,"rating":6.9,"versatility":60,"risk":0.4}]`
)

// newChatServer answers chat-completion requests by prompt kind.
func newChatServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var prompt strings.Builder
		for _, m := range req.Messages {
			prompt.WriteString(m.Content)
		}
		reply := ""
		switch text := prompt.String(); {
		case strings.Contains(text, "screenplay analyst"):
			reply = extractionReply
		case strings.Contains(text, `"allocations"`):
			reply = allocationReply
		case strings.Contains(text, "Role: Captain Rhea "):
			reply = searchReply
		default:
			http.Error(w, "unexpected prompt", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeCLIConfig writes a config whose api_bind has no listener, so every
// queue command falls back to the job database.
func writeCLIConfig(t *testing.T, llmURL string) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "castos.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
api_bind = "127.0.0.1:1"

[llm]
api_key = "test-key"
base_url = %q
retry_attempts = 1

[cache]
in_memory = true

[optimizer]
total_timesteps = 256
training_concurrency = 1

[logging]
format = "json"
level = "error"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"), llmURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestJobCommandsAgainstDatabase(t *testing.T) {
	cfgPath := writeCLIConfig(t, "http://127.0.0.1:1/unused")

	out, err := runCLI(t, "-c", cfgPath, "submit", "--title", "Night Shift", "--plot", "A stern captain.", "--budget", "500000")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Queued job 1 (pending)")

	out, err = runCLI(t, "-c", cfgPath, "jobs", "list", "--json")
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	var listed api.JobListResponse
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(listed.Jobs) != 1 || listed.Jobs[0].Title != "Night Shift" || listed.Jobs[0].Industry != "Hollywood" {
		t.Fatalf("unexpected jobs: %+v", listed.Jobs)
	}

	out, err = runCLI(t, "-c", cfgPath, "jobs", "list", "--status", "completed")
	if err != nil {
		t.Fatalf("jobs list completed: %v", err)
	}
	requireContains(t, out, "No jobs found")

	if _, err := runCLI(t, "-c", cfgPath, "jobs", "list", "--status", "running"); err == nil {
		t.Fatal("expected unknown status error")
	}

	out, err = runCLI(t, "-c", cfgPath, "jobs", "show", "1")
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, "Job 1: Night Shift")
	requireContains(t, out, "$500,000")

	out, err = runCLI(t, "-c", cfgPath, "jobs", "status", "--json")
	if err != nil {
		t.Fatalf("jobs status: %v", err)
	}
	var stats map[string]int
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["pending"] != 1 || stats["completed"] != 0 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	out, err = runCLI(t, "-c", cfgPath, "jobs", "remove", "1", "7")
	if err != nil {
		t.Fatalf("jobs remove: %v", err)
	}
	requireContains(t, out, "Removed job 1")
	requireContains(t, out, "Job 7 not found")

	if _, err := runCLI(t, "-c", cfgPath, "jobs", "show", "1"); err == nil {
		t.Fatal("expected missing job error")
	}
}

func TestSubmitRejectsInvalidJob(t *testing.T) {
	cfgPath := writeCLIConfig(t, "http://127.0.0.1:1/unused")

	_, err := runCLI(t, "-c", cfgPath, "submit", "--title", "Night Shift", "--plot", "A stern captain.", "--budget", "0")
	if err == nil {
		t.Fatal("expected validation error")
	}
	requireContains(t, err.Error(), "budget_cap")
}

func TestSubmitReadsPlotFile(t *testing.T) {
	cfgPath := writeCLIConfig(t, "http://127.0.0.1:1/unused")
	plotPath := filepath.Join(t.TempDir(), "plot.txt")
	if err := os.WriteFile(plotPath, []byte("A captain returns home."), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "-c", cfgPath, "submit", "--title", "Homecoming", "--plot-file", plotPath, "--budget", "1000", "--industry", "bollywood"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	out, err := runCLI(t, "-c", cfgPath, "jobs", "show", "1", "--json")
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	var job api.Job
	if err := json.Unmarshal([]byte(out), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.Plot != "A captain returns home." || job.Industry != "Bollywood" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestCastRunsPipelineInProcess(t *testing.T) {
	srv := newChatServer(t)
	cfgPath := writeCLIConfig(t, srv.URL)
	plotPath := filepath.Join(t.TempDir(), "plot.txt")
	if err := os.WriteFile(plotPath, []byte("A stern captain holds a failing station together."), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "-c", cfgPath, "cast", "--plot-file", plotPath, "--budget", "400000", "--json")
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	var result castResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode cast result: %v\n%s", err, out)
	}
	if len(result.Selections) != 1 {
		t.Fatalf("expected one selection, got %+v", result.Selections)
	}
	sel := result.Selections[0]
	if sel.Role != "Captain Rhea" || sel.Placeholder {
		t.Fatalf("unexpected selection: %+v", sel)
	}
	switch sel.ActorName {
	case "Ada Stone", "Mira Vale", "June Park":
	default:
		t.Fatalf("selected unknown actor %q", sel.ActorName)
	}

	out, err = runCLI(t, "-c", cfgPath, "jobs", "list")
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "No jobs found")
}

func TestCastRequiresPositiveBudget(t *testing.T) {
	cfgPath := writeCLIConfig(t, "http://127.0.0.1:1/unused")
	_, err := runCLI(t, "-c", cfgPath, "cast", "--plot", "A captain.", "--budget", "-5")
	if err == nil {
		t.Fatal("expected validation error")
	}
	requireContains(t, err.Error(), "budget_cap")
}

func TestCacheClearInMemory(t *testing.T) {
	cfgPath := writeCLIConfig(t, "http://127.0.0.1:1/unused")
	out, err := runCLI(t, "-c", cfgPath, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "in memory")
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "castos.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected existing config error")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	cfgPath := writeCLIConfig(t, "http://127.0.0.1:1/unused")
	out, err = runCLI(t, "-c", cfgPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "castos.db")
}
