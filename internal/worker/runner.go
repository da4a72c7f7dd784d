// Package worker implements the isolated inference loop. It runs in its
// own OS process (`hearthd worker`), reads tasks from stdin and writes
// results to stdout, one JSON document per line; stderr carries logs.
// Inference failures become error results, they never crash the loop.
package worker

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"hearthd/internal/proto"
)

// Defaults applied when a task leaves sampling parameters unset.
const (
	defaultMaxTokens   = 256
	defaultTemperature = 0.7
)

// Config carries the worker's static parameters.
type Config struct {
	// DefaultModelPath is used when a task does not name a model.
	DefaultModelPath string
	GrammarsDir      string
	Logger           zerolog.Logger
}

// Runner owns the single loaded model and drives the task loop.
type Runner struct {
	rt  Runtime
	cfg Config
	log zerolog.Logger

	model       Model
	currentPath string
}

// New constructs a Runner around an inference runtime.
func New(rt Runtime, cfg Config) *Runner {
	return &Runner{rt: rt, cfg: cfg, log: cfg.Logger}
}

// Run processes tasks until the task channel closes or a poison pill
// arrives. Every task except the poison pill produces exactly one result.
func (r *Runner) Run(in io.Reader, out io.Writer) error {
	tasks := proto.NewTaskReader(in)
	results := proto.NewResultWriter(out)
	defer r.closeModel()

	r.log.Info().Msg("inference worker started")
	for {
		task, err := tasks.Read()
		if err == io.EOF {
			// Orchestrator hung up; treat like a shutdown.
			r.log.Info().Msg("task channel closed, worker exiting")
			return nil
		}
		if err != nil {
			// Malformed frame: answer it so the caller does not hang,
			// then keep serving.
			if werr := results.Write(proto.ErrorResult(err.Error())); werr != nil {
				return werr
			}
			continue
		}

		var res proto.Result
		switch task.Type {
		case proto.TaskGenerate:
			res = r.generate(task)
		case proto.TaskBatchGenerate:
			res = r.batchGenerate(task)
		case proto.TaskReloadModel:
			res = r.reload(task)
		case proto.TaskStatus:
			res = proto.Result{Status: "alive", ModelLoaded: r.model != nil, CurrentModel: r.currentPath}
		case proto.TaskPoisonPill:
			r.log.Info().Msg("poison pill received, shutting down worker")
			return nil
		default:
			r.log.Warn().Str("type", string(task.Type)).Msg("unknown task type")
			res = proto.Result{Error: fmt.Sprintf("unknown task type: %s", task.Type)}
		}
		if err := results.Write(res); err != nil {
			return err
		}
	}
}

// generate runs one prompt through the loaded model.
func (r *Runner) generate(task proto.Task) proto.Result {
	path := task.ModelPath
	if path == "" {
		path = r.cfg.DefaultModelPath
	}
	if err := r.ensureModel(path); err != nil {
		// Startup failures are terminal: the orchestrator must treat
		// this worker as dead.
		res := proto.ErrorResult(err.Error())
		res.Fatal = true
		return res
	}

	grammar := r.resolveGrammar(task.Mode, task.GrammarPath)
	shadow := ""
	if task.IncludeShadowNodes {
		shadow = task.ShadowNodes
	}
	prompt := BuildPrompt(task.Prompt, task.Mode, task.Context, shadow)

	opts := GenOpts{
		MaxTokens:   task.MaxTokens,
		Temperature: task.Temperature,
		Stop:        stopSequences,
		GrammarPath: grammar,
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}

	r.log.Info().Str("mode", task.Mode).Int("max_tokens", opts.MaxTokens).Msg("generating")
	text, usage, err := r.model.Generate(prompt, opts)
	if err != nil {
		r.log.Error().Err(err).Msg("generation error")
		return proto.ErrorResult(err.Error())
	}
	r.log.Info().Int("completion_tokens", usage.CompletionTokens).Msg("generation complete")
	return proto.Result{Choices: []proto.Choice{{Text: text}}, Usage: usage}
}

// batchGenerate runs each prompt through the single-generation path in
// order. Branches fail independently: one bad branch yields an error entry
// while its siblings still execute.
func (r *Runner) batchGenerate(task proto.Task) proto.Result {
	results := make([]proto.BranchResult, 0, len(task.Prompts))
	for i, prompt := range task.Prompts {
		sub := task
		sub.Type = proto.TaskGenerate
		sub.Prompt = prompt
		sub.Prompts = nil
		results = append(results, proto.BranchResult{
			Branch: i,
			Prompt: prompt,
			Output: r.generate(sub),
		})
	}
	return proto.Result{Type: "batch", Results: results}
}

// reload discards the loaded model state and loads from the given path.
func (r *Runner) reload(task proto.Task) proto.Result {
	r.closeModel()
	path := task.ModelPath
	if path == "" {
		path = r.cfg.DefaultModelPath
	}
	if err := r.ensureModel(path); err != nil {
		res := proto.ErrorResult(err.Error())
		res.Fatal = true
		return res
	}
	return proto.Result{Status: "model_reloaded", Path: path}
}

// ensureModel loads weights lazily: at most once per distinct path until
// a reload or process restart. Switching paths closes the previous model.
func (r *Runner) ensureModel(path string) error {
	if r.model != nil && r.currentPath == path {
		return nil
	}
	if path == "" {
		return fmt.Errorf("no model path configured")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("model file: %w", err)
	}
	r.closeModel()
	r.log.Info().Str("model", path).Msg("loading model")
	m, err := r.rt.Load(path)
	if err != nil {
		return fmt.Errorf("load model %s: %w", path, err)
	}
	r.model = m
	r.currentPath = path
	r.log.Info().Str("model", path).Msg("model loaded")
	return nil
}

func (r *Runner) closeModel() {
	if r.model != nil {
		_ = r.model.Close()
		r.model = nil
		r.currentPath = ""
	}
}
