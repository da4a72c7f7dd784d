package proto

import (
	"bufio"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// maxLineBytes bounds a single protocol frame. Prompts are user text, not
// model weights; 16MiB is generous.
const maxLineBytes = 16 << 20

// TaskWriter frames tasks onto the worker's task channel.
type TaskWriter struct {
	w io.Writer
}

func NewTaskWriter(w io.Writer) *TaskWriter { return &TaskWriter{w: w} }

func (tw *TaskWriter) Write(t Task) error {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	b = append(b, '\n')
	if _, err := tw.w.Write(b); err != nil {
		return fmt.Errorf("write task: %w", err)
	}
	return nil
}

// TaskReader decodes tasks line by line inside the worker.
type TaskReader struct {
	sc *bufio.Scanner
}

func NewTaskReader(r io.Reader) *TaskReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &TaskReader{sc: sc}
}

// Read returns the next task, io.EOF when the channel closed.
func (tr *TaskReader) Read() (Task, error) {
	var t Task
	for tr.sc.Scan() {
		line := tr.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, &t); err != nil {
			return t, fmt.Errorf("decode task: %w", err)
		}
		return t, nil
	}
	if err := tr.sc.Err(); err != nil {
		return t, err
	}
	return t, io.EOF
}

// ResultWriter frames results onto the worker's result channel.
type ResultWriter struct {
	w io.Writer
}

func NewResultWriter(w io.Writer) *ResultWriter { return &ResultWriter{w: w} }

func (rw *ResultWriter) Write(r Result) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	b = append(b, '\n')
	if _, err := rw.w.Write(b); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// ResultReader decodes results on the orchestrator side.
type ResultReader struct {
	sc *bufio.Scanner
}

func NewResultReader(r io.Reader) *ResultReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &ResultReader{sc: sc}
}

// Read returns the next result, io.EOF when the channel closed.
func (rr *ResultReader) Read() (Result, error) {
	var res Result
	for rr.sc.Scan() {
		line := rr.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, &res); err != nil {
			return res, fmt.Errorf("decode result: %w", err)
		}
		return res, nil
	}
	if err := rr.sc.Err(); err != nil {
		return res, err
	}
	return res, io.EOF
}
