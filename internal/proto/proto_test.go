package proto

import (
	"bytes"
	"io"
	"testing"
)

func TestTaskRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tw := NewTaskWriter(&buf)
	in := Task{
		Type:               TaskGenerate,
		Prompt:             "a quiet harbor at dawn",
		Mode:               "prose",
		MaxTokens:          128,
		Temperature:        0.7,
		GrammarPath:        "/g/screenplay.gbnf",
		ShadowNodes:        "open loop: the lighthouse keeper",
		IncludeShadowNodes: true,
	}
	if err := tw.Write(in); err != nil {
		t.Fatalf("write: %v", err)
	}
	tr := NewTaskReader(&buf)
	out, err := tr.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Type != in.Type || out.Prompt != in.Prompt || out.GrammarPath != in.GrammarPath || !out.IncludeShadowNodes {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if _, err := tr.Read(); err != io.EOF {
		t.Fatalf("expected EOF got %v", err)
	}
}

func TestResultOrderPreserved(t *testing.T) {
	var buf bytes.Buffer
	rw := NewResultWriter(&buf)
	for _, text := range []string{"first", "second", "third"} {
		if err := rw.Write(Result{Choices: []Choice{{Text: text}}}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	rr := NewResultReader(&buf)
	for _, want := range []string{"first", "second", "third"} {
		res, err := rr.Read()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if res.Text() != want {
			t.Fatalf("expected %q got %q", want, res.Text())
		}
	}
}

func TestReaderSkipsBlankLines(t *testing.T) {
	rr := NewResultReader(bytes.NewBufferString("\n\n{\"status\":\"alive\"}\n"))
	res, err := rr.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if res.Status != "alive" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestReaderRejectsGarbage(t *testing.T) {
	tr := NewTaskReader(bytes.NewBufferString("not json\n"))
	if _, err := tr.Read(); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestErrorResultCarriesDegradedText(t *testing.T) {
	r := ErrorResult("boom")
	if r.Error != "boom" || r.Text() == "" {
		t.Fatalf("unexpected error result: %+v", r)
	}
}
