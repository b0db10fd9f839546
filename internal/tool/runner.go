package tool

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/KaramelBytes/tabsum/internal/analysis"
	"github.com/KaramelBytes/tabsum/internal/logging"
	"github.com/KaramelBytes/tabsum/internal/utils"
)

// Runner answers summarize requests with a fixed set of analysis options.
type Runner struct {
	opt analysis.Options
	log *slog.Logger
}

// NewRunner returns a Runner; a nil logger falls back to slog.Default().
func NewRunner(opt analysis.Options, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{opt: opt, log: log}
}

// Summarize analyzes path and returns the report as indented JSON.
func (r *Runner) Summarize(path string) (string, error) {
	return r.summarize(path, r.opt)
}

func (r *Runner) summarize(path string, opt analysis.Options) (string, error) {
	rep, err := analysis.Analyze(path, opt)
	if err != nil {
		return "", err
	}
	b, err := utils.PrettyJSON(rep)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return string(b), nil
}

// Handle decodes one request document and returns its response. It never
// fails: every error is rendered into the envelope text.
func (r *Runner) Handle(input []byte) (resp Response) {
	log := logging.ForInvocation(r.log)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("request panicked", slog.Any("panic", rec))
			resp = TextResponse(Message(fmt.Errorf("%v", rec)))
		}
	}()

	path, err := filePath(input)
	if err != nil {
		log.Warn("request rejected", slog.String("error", err.Error()))
		return TextResponse(Message(err))
	}
	log.Debug("request decoded", slog.String("file_path", path))
	return r.respond(path, log)
}

// Respond summarizes path and renders the outcome as a response envelope.
func (r *Runner) Respond(path string) Response {
	return r.respond(path, logging.ForInvocation(r.log))
}

func (r *Runner) respond(path string, log *slog.Logger) Response {
	opt := r.opt
	opt.Logger = log
	text, err := r.summarize(path, opt)
	if err != nil {
		return TextResponse(Message(err))
	}
	return TextResponse(text)
}

// Serve reads the whole of in as one request and writes exactly one response
// document to out.
func (r *Runner) Serve(in io.Reader, out io.Writer) error {
	var resp Response
	input, err := io.ReadAll(in)
	if err != nil {
		resp = TextResponse(Message(fmt.Errorf("read request: %w", err)))
	} else {
		resp = r.Handle(input)
	}
	return WriteResponse(out, resp)
}

// WriteResponse encodes resp as one JSON document followed by a newline.
func WriteResponse(out io.Writer, resp Response) error {
	if err := json.NewEncoder(out).Encode(resp); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// filePath extracts arguments.file_path from a request document.
// A missing arguments object counts as empty; any falsy file_path is missing.
func filePath(input []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(input, &doc); err != nil {
		return "", &DecodeError{Err: err}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return "", fmt.Errorf("request must be a JSON object, got %s", kindOf(doc))
	}
	args := map[string]any{}
	if raw, present := obj["arguments"]; present {
		if args, ok = raw.(map[string]any); !ok {
			return "", fmt.Errorf("arguments must be a JSON object, got %s", kindOf(raw))
		}
	}
	v := args["file_path"]
	if falsy(v) {
		return "", ErrMissingArgument
	}
	s, ok := v.(string)
	if !ok {
		return "", &analysis.Error{
			Path: fmt.Sprint(v),
			Err:  fmt.Errorf("file_path must be a string, got %s", kindOf(v)),
		}
	}
	return s, nil
}

func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
