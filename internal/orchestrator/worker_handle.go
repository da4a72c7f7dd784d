package orchestrator

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"hearthd/internal/proto"
)

// Worker is the orchestrator's handle on the single inference process.
// Only the orchestrator starts, messages, or terminates it.
type Worker interface {
	// Send writes one task onto the task channel.
	Send(proto.Task) error
	// Recv blocks for the next result. Results arrive strictly in task
	// submission order.
	Recv() (proto.Result, error)
	// Alive reports whether the process is still running.
	Alive() bool
	// Terminate shuts the worker down: poison pill then up to grace for a
	// clean exit, kill if it does not comply. force skips the grace wait.
	Terminate(grace time.Duration, force bool) error
}

// Factory spawns a fresh Worker. Injected so tests can run the worker
// loop in-process over pipes.
type Factory func() (Worker, error)

// ExecConfig parameterizes the subprocess-backed worker.
type ExecConfig struct {
	// Binary to execute; defaults to the current executable, which serves
	// the worker loop under the "worker" subcommand.
	Binary      string
	ModelPath   string
	GrammarsDir string
	// Stderr receives the worker's log output; defaults to os.Stderr.
	Stderr io.Writer
}

// NewExecFactory returns a Factory that re-execs this binary as
// `hearthd worker`, with stdin/stdout as the task and result channels.
func NewExecFactory(cfg ExecConfig) Factory {
	return func() (Worker, error) {
		bin := cfg.Binary
		if bin == "" {
			exe, err := os.Executable()
			if err != nil {
				return nil, fmt.Errorf("resolve executable: %w", err)
			}
			bin = exe
		}
		args := []string{"worker"}
		if cfg.ModelPath != "" {
			args = append(args, "--model-path", cfg.ModelPath)
		}
		if cfg.GrammarsDir != "" {
			args = append(args, "--grammars-dir", cfg.GrammarsDir)
		}
		cmd := exec.Command(bin, args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe: %w", err)
		}
		if cfg.Stderr != nil {
			cmd.Stderr = cfg.Stderr
		} else {
			cmd.Stderr = os.Stderr
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start worker: %w", err)
		}
		w := &execWorker{
			cmd:     cmd,
			stdin:   stdin,
			tasks:   proto.NewTaskWriter(stdin),
			results: proto.NewResultReader(stdout),
			done:    make(chan struct{}),
		}
		go func() {
			w.waitErr = cmd.Wait()
			close(w.done)
		}()
		return w, nil
	}
}

// execWorker wraps a spawned `hearthd worker` subprocess.
type execWorker struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	tasks   *proto.TaskWriter
	results *proto.ResultReader

	sendMu  sync.Mutex
	done    chan struct{}
	waitErr error
}

func (w *execWorker) Send(t proto.Task) error {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	return w.tasks.Write(t)
}

func (w *execWorker) Recv() (proto.Result, error) {
	return w.results.Read()
}

func (w *execWorker) Alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

func (w *execWorker) Terminate(grace time.Duration, force bool) error {
	if !w.Alive() {
		return nil
	}
	if !force {
		// Shutdown signal: poison pill, then close the task channel so
		// the loop also sees EOF. The run loop exits after the current
		// task finishes.
		_ = w.Send(proto.Task{Type: proto.TaskPoisonPill})
		w.sendMu.Lock()
		_ = w.stdin.Close()
		w.sendMu.Unlock()
		select {
		case <-w.done:
			return nil
		case <-time.After(grace):
		}
	}
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	<-w.done
	return nil
}
