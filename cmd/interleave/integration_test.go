package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/luhuaei/interleave/internal/tuitest"
)

func TestOpenScreenRenders(t *testing.T) {
	t.Parallel()

	binary := buildBinary(t)
	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "--no-alt-screen"},
		Dir:     t.TempDir(),
		Width:   100,
		Height:  32,
		Steps: []tuitest.Step{
			{Delay: time.Second},
			{Input: tuitest.KeyCtrlC},
		},
		Timeout:        10 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	if _, ok := rec.FrameContaining("interleave"); !ok {
		t.Fatal("hero title never rendered")
	}
	if _, ok := rec.FrameContaining("Enter an outline file or a PDF to begin."); !ok {
		t.Fatal("open screen hint never rendered")
	}
}

func TestMissingTargetReportsError(t *testing.T) {
	t.Parallel()

	binary := buildBinary(t)
	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "--no-alt-screen", "does-not-exist.org"},
		Dir:     t.TempDir(),
		Width:   100,
		Height:  32,
		Steps: []tuitest.Step{
			{Delay: 2 * time.Second},
			{Input: tuitest.KeyCtrlC},
		},
		Timeout:        15 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	if _, ok := rec.FrameContaining("Try another outline or document path."); !ok {
		t.Fatal("open failure never surfaced in the UI")
	}
}

func TestPathPromptAppearsForOrphanOutline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outlinePath := filepath.Join(dir, "orphan.org")
	if err := os.WriteFile(outlinePath, []byte("* First heading\nSome body.\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	binary := buildBinary(t)
	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "--no-alt-screen", "orphan.org"},
		Dir:     dir,
		Width:   100,
		Height:  32,
		Steps: []tuitest.Step{
			{Delay: 2 * time.Second},
			{Input: tuitest.KeyEsc},
			{Delay: time.Second},
			{Input: tuitest.KeyCtrlC},
		},
		Timeout:        15 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	if _, ok := rec.FrameContaining("Document Path"); !ok {
		t.Fatal("document path prompt never rendered")
	}
	if _, ok := rec.FrameContaining("Open canceled."); !ok {
		t.Fatal("esc did not cancel the prompt")
	}
}

func buildBinary(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime caller unavailable")
	}
	cmdDir := filepath.Dir(file)

	tmp := t.TempDir()
	name := "interleave-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
