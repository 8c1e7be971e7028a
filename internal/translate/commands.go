package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/blockpad/internal/models"
)

var (
	// ErrNotCommand is returned by Dispatch for input that is not a slash command.
	ErrNotCommand = errors.New("translate: not a command")
	// ErrUnknownCommand is returned for a slash command nobody registered.
	ErrUnknownCommand = errors.New("translate: unknown command")
)

// Reply is the outcome of a command.
type Reply struct {
	Command  string           `json:"command"`
	Text     string           `json:"text,omitempty"`
	Snapshot *models.Snapshot `json:"snapshot,omitempty"`
}

// Handler runs one command. args is everything after the command name.
type Handler func(ctx context.Context, args string) (Reply, error)

// Registry maps slash command names to handlers.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty command registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger, handlers: make(map[string]Handler)}
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(name)] = h
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var commandRe = regexp.MustCompile(`(?is)^\s*/([a-z][\w-]*)(?:\s+(.+))?$`)

// ParseCommand splits "/name args" into its parts.
func ParseCommand(input string) (name, args string, ok bool) {
	m := commandRe.FindStringSubmatch(input)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), strings.TrimSpace(m[2]), true
}

// Dispatch runs the command in input. Handler errors and panics are
// returned as errors and logged.
func (r *Registry) Dispatch(ctx context.Context, input string) (reply Reply, err error) {
	name, args, ok := ParseCommand(input)
	if !ok {
		return Reply{}, ErrNotCommand
	}
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return Reply{}, fmt.Errorf("%w: /%s", ErrUnknownCommand, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("/%s: panic: %v", name, rec)
		}
		if err != nil {
			r.logger.Error("command failed", slog.String("command", name), slog.String("error", err.Error()))
		}
	}()
	reply, err = h(ctx, args)
	reply.Command = name
	return reply, err
}

// Source returns the document a command should work on.
type Source func(ctx context.Context) (models.Snapshot, error)

// CompareModel is the second model used by "/translate compare".
const CompareModel = "claude-sonnet-4"

// TranslateCommand implements /translate.
type TranslateCommand struct {
	tr     Translator
	source Source

	mu   sync.Mutex
	opts Options
}

// NewTranslateCommand returns the /translate handler state. opts are the
// defaults for every translation; "/translate model" changes the model.
func NewTranslateCommand(tr Translator, source Source, opts Options) *TranslateCommand {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	return &TranslateCommand{tr: tr, source: source, opts: opts}
}

// Model returns the model used for the next translation.
func (c *TranslateCommand) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.Model
}

// Handle is the Handler for /translate.
func (c *TranslateCommand) Handle(ctx context.Context, args string) (Reply, error) {
	sub, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(sub) {
	case "", "help":
		return Reply{Text: c.help()}, nil
	case "list":
		return Reply{Text: listLanguages(rest)}, nil
	case "model":
		return c.setModel(rest)
	case "compare":
		return c.compare(ctx, rest)
	}
	return c.translate(ctx, args)
}

func (c *TranslateCommand) help() string {
	var b strings.Builder
	b.WriteString("Usage:\n")
	b.WriteString("  /translate <language>          translate the current document\n")
	b.WriteString("  /translate list [region]       list supported languages\n")
	b.WriteString("  /translate model <name>        choose the translation model\n")
	b.WriteString("  /translate compare <language>  translate with two models side by side\n")
	fmt.Fprintf(&b, "\nCurrent model: %s\nModels:", c.Model())
	for _, m := range knownModels {
		fmt.Fprintf(&b, " %s", m.ID)
	}
	b.WriteString("\n")
	return b.String()
}

func listLanguages(region string) string {
	langs := languages
	if region != "" {
		langs = LanguagesByRegion(region)
	}
	if len(langs) == 0 {
		return fmt.Sprintf("No languages in region %q.\n", region)
	}
	var b strings.Builder
	for _, l := range langs {
		fmt.Fprintf(&b, "%-6s %s (%s)\n", l.Code, l.Name, l.Native)
	}
	return b.String()
}

func (c *TranslateCommand) setModel(name string) (Reply, error) {
	if name == "" {
		return Reply{Text: "Current model: " + c.Model() + "\n"}, nil
	}
	m, ok := LookupModel(name)
	if !ok {
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	c.mu.Lock()
	c.opts.Model = m.ID
	c.mu.Unlock()
	return Reply{Text: "Model set to " + m.Name + "\n"}, nil
}

func (c *TranslateCommand) options() Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

func (c *TranslateCommand) prepare(ctx context.Context, lang string) (Language, models.Snapshot, error) {
	if c.tr == nil || !c.tr.Initialized() {
		return Language{}, models.Snapshot{}, ErrNotInitialized
	}
	language, ok := LookupLanguage(lang)
	if !ok {
		return Language{}, models.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	snap, err := c.source(ctx)
	if err != nil {
		return Language{}, models.Snapshot{}, fmt.Errorf("load document: %w", err)
	}
	return language, snap, nil
}

func (c *TranslateCommand) translate(ctx context.Context, lang string) (Reply, error) {
	language, snap, err := c.prepare(ctx, lang)
	if err != nil {
		return Reply{}, err
	}
	out, err := TranslateSnapshot(ctx, c.tr, snap, language.Code, c.options())
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Text:     fmt.Sprintf("Translated %d blocks to %s.\n", len(out.Blocks), language.Name),
		Snapshot: &out,
	}, nil
}

func (c *TranslateCommand) compare(ctx context.Context, lang string) (Reply, error) {
	language, snap, err := c.prepare(ctx, lang)
	if err != nil {
		return Reply{}, err
	}
	primary := c.options()
	secondary := primary
	secondary.Model = CompareModel
	if m, ok := LookupModel(primary.Model); ok && m.ID == CompareModel {
		secondary.Model = DefaultModel
	}

	var first, second models.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		first, err = TranslateSnapshot(gctx, c.tr, snap, language.Code, primary)
		return err
	})
	g.Go(func() (err error) {
		second, err = TranslateSnapshot(gctx, c.tr, snap, language.Code, secondary)
		return err
	})
	if err := g.Wait(); err != nil {
		return Reply{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s translation (%s):\n%s\n", language.Name, primary.Model, plainText(first))
	fmt.Fprintf(&b, "\n%s translation (%s):\n%s\n", language.Name, secondary.Model, plainText(second))
	return Reply{Text: b.String(), Snapshot: &first}, nil
}

// Block data fields whose string content is prose.
var textFields = map[string]bool{
	"text":    true,
	"caption": true,
	"items":   true,
	"content": true,
	"title":   true,
	"message": true,
	"alt":     true,
}

// TranslateSnapshot returns a copy of snap with the prose of every block
// translated to lang. Block ids, types and non-text fields are kept.
func TranslateSnapshot(ctx context.Context, tr Translator, snap models.Snapshot, lang string, opts Options) (models.Snapshot, error) {
	if tr == nil || !tr.Initialized() {
		return models.Snapshot{}, ErrNotInitialized
	}
	out := snap.Clone()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range out.Blocks {
		rec := &out.Blocks[i]
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("block %s (%s): panic: %v", rec.ID, rec.Type, r)
				}
			}()
			data, err := translateData(ctx, rec.Data, func(s string) (string, error) {
				return tr.TranslateText(ctx, s, lang, opts)
			})
			if err != nil {
				return fmt.Errorf("block %s (%s): %w", rec.ID, rec.Type, err)
			}
			rec.Data = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Snapshot{}, err
	}
	return out, nil
}

func translateData(ctx context.Context, raw json.RawMessage, fn func(string) (string, error)) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode block data: %w", err)
	}
	v, err := walk(ctx, v, false, fn)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func walk(ctx context.Context, v any, prose bool, fn func(string) (string, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case string:
		if !prose || strings.TrimSpace(x) == "" {
			return x, nil
		}
		return fn(x)
	case []any:
		for i := range x {
			out, err := walk(ctx, x[i], prose, fn)
			if err != nil {
				return nil, err
			}
			x[i] = out
		}
		return x, nil
	case map[string]any:
		for k, val := range x {
			out, err := walk(ctx, val, textFields[k], fn)
			if err != nil {
				return nil, err
			}
			x[k] = out
		}
		return x, nil
	}
	return v, nil
}

// plainText joins the prose of every block, one block per line.
func plainText(snap models.Snapshot) string {
	var lines []string
	for _, rec := range snap.Blocks {
		var v any
		if err := json.Unmarshal(rec.Data, &v); err != nil {
			continue
		}
		var parts []string
		collect(v, false, &parts)
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func collect(v any, prose bool, parts *[]string) {
	switch x := v.(type) {
	case string:
		if prose && strings.TrimSpace(x) != "" {
			*parts = append(*parts, x)
		}
	case []any:
		for _, item := range x {
			collect(item, prose, parts)
		}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collect(x[k], textFields[k], parts)
		}
	}
}
