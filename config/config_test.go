package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `optimizer:
  max_iterations: 40
  solver_timeout: "2s"
  parallelism: 2
  cost:
    fixed: 1
    task_weighted: true
solver:
  type: simplex
  conf:
    node_limit: 500
input:
  categories: ["ortho", "cardio"]
  timezone: "Europe/Madrid"
  costs: costes.csv
metrics:
  sinks:
    - type: "nop"
  prometheus_addr: ":9100"
history:
  backend: sqlite
  path: runs.db
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  topic: "theatre/plans"
  qos: 1
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"max_iterations", cfg.Optimizer.MaxIterations, 40},
		{"solver_timeout", cfg.Optimizer.SolverTimeout, 2 * time.Second},
		{"parallelism", cfg.Optimizer.Parallelism, 2},
		{"task_weighted", cfg.Optimizer.Cost.TaskWeighted, true},
		{"solver.type", cfg.Solver.Type, "simplex"},
		{"solver.node_limit", cfg.Solver.Conf["node_limit"], 500},
		{"categories", len(cfg.Input.Categories), 2},
		{"timezone", cfg.Input.Options().Location.String(), "Europe/Madrid"},
		{"costs", cfg.Input.Costs, "costes.csv"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"history.backend", cfg.History.Backend, "sqlite"},
		{"history.path", cfg.History.Path, "runs.db"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"topic", cfg.MQTT.Topic, "theatre/plans"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"server.address", cfg.Server.Address, ":8080"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v (%T)", c.name, c.got, c.got)
		}
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"optimizer":{"max_iterations":10}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("K_OPTIMIZER__MAX_ITERATIONS", "25")
	t.Setenv("K_HISTORY__BACKEND", "none")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Optimizer.MaxIterations != 25 {
		t.Errorf("env override not applied: %d", cfg.Optimizer.MaxIterations)
	}
	if cfg.History.Backend != "none" {
		t.Errorf("history backend: %s", cfg.History.Backend)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Optimizer.MaxIterations != 500 || cfg.Optimizer.SolverTimeout != 30*time.Second {
		t.Errorf("optimizer defaults not applied: %+v", cfg.Optimizer)
	}
	if cfg.Solver.Type != "simplex" || cfg.History.Backend != "jsonl" || cfg.MQTT.Enabled() {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad.yaml": "optimizer:\n  parallelism: -2\n",
		"tz.yaml":  "input:\n  timezone: Mars/Olympus\n",
		"hist.yml": "history:\n  backend: postgres\n",
		"conf.ini": "",
	}
	for name, data := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
