package exec

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestExecutor_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses unix commands")
	}

	var stdout bytes.Buffer
	e := NewExecutor(&Options{Stdout: &stdout})

	if err := e.Run(context.Background(), "echo", "hello"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(stdout.String(), "hello") {
		t.Errorf("expected 'hello' in output, got %q", stdout.String())
	}
}

func TestExecutor_Output(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses unix commands")
	}

	e := NewExecutor(nil)

	out, err := e.Output(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if out != "hello" {
		t.Errorf("expected 'hello', got %q", out)
	}
}

func TestExecutor_OutputFailureIncludesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses unix commands")
	}

	e := NewExecutor(nil)

	_, err := e.Output(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("expected error from failing command")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestExecutor_ExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses unix commands")
	}

	e := NewExecutor(nil)

	code, err := e.ExitCode(context.Background(), nil, "sh", "-c", "exit 2")
	if err != nil {
		t.Fatalf("ExitCode failed: %v", err)
	}
	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}

	code, err = e.ExitCode(context.Background(), nil, "true")
	if err != nil {
		t.Fatalf("ExitCode failed: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestExecutor_CommandNotFound(t *testing.T) {
	e := NewExecutor(nil)

	err := e.Run(context.Background(), "definitely-not-a-real-command-xyz")
	if err == nil {
		t.Fatal("expected error for missing command")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected enhanced not-found error, got %v", err)
	}
}

func TestExecutor_ContextCancellation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses unix commands")
	}

	e := NewExecutor(&Options{Stdout: &bytes.Buffer{}})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := e.Run(ctx, "sleep", "10")
	if err == nil {
		t.Fatal("expected error from cancelled command")
	}
	if !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("expected cancellation error, got %v", err)
	}
}

func TestExecutor_InDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses unix commands")
	}

	dir := t.TempDir()
	e := NewExecutor(nil).InDir(dir)

	out, err := e.Output(context.Background(), "pwd")
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	// macOS tempdirs resolve through /private
	if !strings.HasSuffix(out, strings.TrimPrefix(dir, "/private")) {
		t.Errorf("expected pwd to end with %q, got %q", dir, out)
	}
}

func TestTaskRegistry_Register(t *testing.T) {
	r := NewTaskRegistry()

	if err := r.Register(Task{Name: "tidy", Command: "go", Args: []string{"mod", "tidy"}}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := r.Register(Task{Name: "tidy", Command: "go"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if err := r.Register(Task{Name: "", Command: "go"}); err == nil {
		t.Error("expected empty name to fail")
	}
	if err := r.Register(Task{Name: "fmt"}); err == nil {
		t.Error("expected empty command to fail")
	}

	task, ok := r.Get("tidy")
	if !ok {
		t.Fatal("expected to find registered task")
	}
	if task.Command != "go" {
		t.Errorf("expected command 'go', got %q", task.Command)
	}
}

func TestTaskRegistry_RunAllOrder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses unix commands")
	}

	var stdout bytes.Buffer
	e := NewExecutor(&Options{Stdout: &stdout})

	r := NewTaskRegistry()
	r.Register(Task{Name: "first", Command: "echo", Args: []string{"one"}})
	r.Register(Task{Name: "second", Command: "echo", Args: []string{"two"}})

	if err := r.RunAll(context.Background(), e); err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}

	out := stdout.String()
	if strings.Index(out, "one") > strings.Index(out, "two") {
		t.Errorf("tasks ran out of order: %q", out)
	}
}

func TestTaskRegistry_RunAllStopsOnFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses unix commands")
	}

	var stdout bytes.Buffer
	e := NewExecutor(&Options{Stdout: &stdout})

	r := NewTaskRegistry()
	r.Register(Task{Name: "boom", Command: "false"})
	r.Register(Task{Name: "after", Command: "echo", Args: []string{"should-not-run"}})

	err := r.RunAll(context.Background(), e)
	if err == nil {
		t.Fatal("expected RunAll to fail")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected failing task name in error, got %v", err)
	}
	if strings.Contains(stdout.String(), "should-not-run") {
		t.Error("tasks after a failure should not run")
	}
}

func TestTask_ExecuteAppliesTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses unix commands")
	}

	e := NewExecutor(&Options{Stdout: &bytes.Buffer{}})
	task := Task{Name: "slow", Command: "sleep", Args: []string{"10"}, Timeout: 100 * time.Millisecond}

	err := task.Execute(context.Background(), e)
	if err == nil {
		t.Fatal("expected timeout to fail the task")
	}
	if !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("expected cancellation error, got %v", err)
	}
}

func TestExecutor_RunWithSpinner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses unix commands")
	}

	var stderr bytes.Buffer
	e := NewExecutor(&Options{Stderr: &stderr})

	if err := e.RunWithSpinner(context.Background(), "Testing", "echo", "test"); err != nil {
		t.Fatalf("RunWithSpinner failed: %v", err)
	}

	err := e.RunWithSpinner(context.Background(), "Failing", "false")
	if err == nil {
		t.Error("expected failing command to surface its error")
	}
}
