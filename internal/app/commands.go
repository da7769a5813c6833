package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pstuifzand/tui-columns/internal/columns"
	"github.com/pstuifzand/tui-columns/internal/rect"
	"github.com/pstuifzand/tui-columns/internal/search"
	"github.com/pstuifzand/tui-columns/internal/storage"
	"github.com/pstuifzand/tui-columns/internal/timestamps"
)

// command is one entry of the command line. run receives the text after
// the command name unparsed.
type command struct {
	name    string
	aliases []string
	// args lists the fixed first arguments, for completion.
	args  []string
	usage string
	run   func(ctx context.Context, w *Workspace, rest string) (string, error)
}

var commandTable []command

func init() {
	commandTable = []command{
		{name: "align", args: []string{"left", "right", "numeric", "text", "last", "regex"},
			usage: "align left|right|numeric, align text|last <s>, align regex /re/", run: cmdAlign},
		{name: "sort", usage: "sort [asc|desc] [binary|locale|numeric] [column] [blanks] [keys] [/re/]", run: cmdSort},
		{name: "find", usage: "find /re/[icwbel]", run: cmdFind},
		{name: "replace", usage: "replace /re/replacement/[icwel]", run: cmdReplace},
		{name: "count", usage: "count [/re/]", run: cmdCount},
		{name: "selectall", usage: "selectall [/re/]", run: cmdSelectAll},
		{name: "region", args: []string{"clear"}, usage: "region [clear]", run: cmdRegion},
		{name: "add", usage: "add", run: cmdAccumulate(false)},
		{name: "average", aliases: []string{"avg"}, usage: "average", run: cmdAccumulate(true)},
		{name: "calc", usage: "calc [/re/] <formula>", run: cmdCalc},
		{name: "tabs2spaces", usage: "tabs2spaces", run: cmdTabsToSpaces},
		{name: "elastic", args: []string{"on", "off"}, usage: "elastic [on|off]", run: cmdElastic},
		{name: "profile", usage: "profile [name]", run: cmdProfile},
		{name: "select", args: []string{"up", "down", "left", "right", "enclose", "extend"},
			usage: "select up|down|left|right|enclose|extend", run: cmdSelect},
		{name: "timestamps", args: []string{"todate", "tocounter"},
			usage: "timestamps todate|tocounter [counter]", run: cmdTimestamps},
		{name: "set", usage: "set [key=value]", run: cmdSet},
		{name: "undo", aliases: []string{"u"}, usage: "undo", run: cmdUndo},
		{name: "write", aliases: []string{"w"}, usage: "write [file]", run: cmdWrite},
		{name: "quit", aliases: []string{"q"}, usage: "quit", run: cmdQuit(false)},
		{name: "quit!", aliases: []string{"q!"}, usage: "quit!", run: cmdQuit(true)},
		{name: "wq", usage: "wq", run: cmdWriteQuit},
		{name: "backups", usage: "backups", run: cmdBackups},
		{name: "restore", usage: "restore <n>", run: cmdRestore},
		{name: "dump", usage: "dump", run: cmdDump},
		{name: "help", usage: "help [command]", run: cmdHelp},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commandTable {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return command{}, false
}

func cmdAlign(ctx context.Context, w *Workspace, rest string) (string, error) {
	how, arg := splitCommand(rest)
	opts := w.options()
	var (
		res columns.Result
		err error
	)
	switch how {
	case "left", "":
		res, err = columns.AlignLeft(ctx, w.Doc, opts)
	case "right":
		res, err = columns.AlignRight(ctx, w.Doc, opts)
	case "numeric":
		res, err = columns.AlignNumeric(ctx, w.Doc, opts)
	case "text", "last":
		spec := columns.CustomAlign{Find: trimQuotes(arg), MatchCase: true}
		if how == "last" {
			spec.On = columns.AlignLast
		}
		res, err = columns.AlignCustom(ctx, w.Doc, opts, spec)
	case "regex":
		fields, rem, perr := splitDelimited(arg, 1)
		if perr != nil {
			return "", perr
		}
		flags, _ := cutFlags(rem)
		spec := columns.CustomAlign{Find: fields[0], On: columns.AlignRegex, MatchCase: !strings.Contains(flags, "i")}
		res, err = columns.AlignCustom(ctx, w.Doc, opts, spec)
	default:
		return "", fmt.Errorf("unknown alignment %q", how)
	}
	if err != nil {
		return "", err
	}
	return resultMessage(res, "Aligned.", "Nothing to align."), nil
}

// parseSort reads the words of a sort command into a spec.
func parseSort(w *Workspace, rest string) (columns.SortSpec, error) {
	spec := columns.SortSpec{Locale: w.Config.LocaleOptions()}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		fields, rem, err := splitDelimited(rest[i:], 1)
		if err != nil {
			return spec, err
		}
		flags, after := cutFlags(rem)
		spec.Regex, spec.KeyType = fields[0], columns.KeyRegex
		spec.MatchCase = !strings.Contains(flags, "i")
		rest = rest[:i] + " " + after
	}
	var groups []string
	for _, word := range strings.Fields(rest) {
		switch strings.ToLower(word) {
		case "asc", "ascending":
			spec.Descending = false
		case "desc", "descending":
			spec.Descending = true
		case "binary":
			spec.Type = columns.SortBinary
		case "locale":
			spec.Type = columns.SortLocale
		case "numeric":
			spec.Type = columns.SortNumeric
		case "column":
			spec.ColumnOnly = true
		case "blanks":
			spec.KeyType = columns.KeyIgnoreBlanks
		default:
			groups = append(groups, word)
		}
	}
	if len(groups) > 0 {
		spec.Groups = strings.Join(groups, ",")
		if _, err := columns.ParseKeyGroups(spec.Groups, spec.Type, spec.Descending); err != nil {
			return spec, err
		}
		if spec.KeyType != columns.KeyRegex {
			spec.KeyType = columns.KeyTabbed
		}
	}
	return spec, nil
}

func cmdSort(ctx context.Context, w *Workspace, rest string) (string, error) {
	spec, err := parseSort(w, rest)
	if err != nil {
		return "", err
	}
	res, err := columns.Sort(ctx, w.Doc, w.options(), spec)
	if err != nil {
		return "", err
	}
	return resultMessage(res, "Sorted.", "Already sorted."), nil
}

// setSearch applies a /find/ pattern and its flags to the session. An
// empty rest keeps the previous find string.
func setSearch(w *Workspace, rest string, n int) ([]string, error) {
	if rest == "" {
		return nil, nil
	}
	fields, rem, err := splitDelimited(rest, n)
	if err != nil {
		return nil, err
	}
	flags, extra := cutFlags(rem)
	if extra != "" {
		return nil, fmt.Errorf("unexpected %q after the pattern", extra)
	}
	opts := w.Config.SearchOptions(search.Regex)
	for _, f := range flags {
		switch f {
		case 'i':
			opts.MatchCase = false
		case 'c':
			opts.MatchCase = true
		case 'w':
			opts.WholeWord = true
		case 'b':
			opts.Backward = true
		case 'e':
			opts.Mode = search.Extended
		case 'l':
			opts.Mode = search.Normal
		default:
			return nil, fmt.Errorf("unknown flag %q", f)
		}
	}
	w.Search.SetOptions(opts)
	w.Search.SetFind(fields[0])
	return fields, nil
}

func cmdFind(ctx context.Context, w *Workspace, rest string) (string, error) {
	if _, err := setSearch(w, rest, 1); err != nil {
		return "", err
	}
	found, err := w.Search.Find(ctx)
	if err != nil {
		return "", err
	}
	if !found && w.Search.Message == "" {
		return "Not found.", nil
	}
	return w.Search.Message, nil
}

func cmdReplace(ctx context.Context, w *Workspace, rest string) (string, error) {
	fields, err := setSearch(w, rest, 2)
	if err != nil {
		return "", err
	}
	if fields == nil {
		return "", errors.New("expected /find/replacement/")
	}
	w.Search.SetReplace(fields[1])
	if _, err := w.Search.ReplaceAll(ctx); err != nil {
		return "", err
	}
	return w.Search.Message, nil
}

func cmdCount(ctx context.Context, w *Workspace, rest string) (string, error) {
	if _, err := setSearch(w, rest, 1); err != nil {
		return "", err
	}
	if _, err := w.Search.Count(ctx); err != nil {
		return "", err
	}
	return w.Search.Message, nil
}

func cmdSelectAll(ctx context.Context, w *Workspace, rest string) (string, error) {
	if _, err := setSearch(w, rest, 1); err != nil {
		return "", err
	}
	if _, err := w.Search.SelectAll(ctx); err != nil {
		return "", err
	}
	return w.Search.Message, nil
}

func cmdRegion(ctx context.Context, w *Workspace, rest string) (string, error) {
	if rest == "clear" {
		w.Search.ClearRegion()
		return "Search region cleared.", nil
	}
	ok, err := w.Search.ConvertSelectionToRegion(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return w.Search.Message, nil
	}
	return "Selection is now the search region.", nil
}

func cmdAccumulate(mean bool) func(context.Context, *Workspace, string) (string, error) {
	return func(ctx context.Context, w *Workspace, rest string) (string, error) {
		t, err := columns.Accumulate(ctx, w.Doc, w.options(), w.Config.AccumulateSpec(mean))
		if err != nil {
			return "", err
		}
		if t.Message != "" {
			return t.Message, nil
		}
		label := "Sum"
		if mean {
			label = "Average"
		}
		return fmt.Sprintf("%s of %s numbers: %s", label, humanize.Comma(int64(t.Numbers)),
			strings.ReplaceAll(t.Text, "\t", "  ")), nil
	}
}

func cmdCalc(ctx context.Context, w *Workspace, rest string) (string, error) {
	spec := w.Config.CalcSpec("")
	if strings.HasPrefix(rest, "/") {
		fields, rem, err := splitDelimited(rest, 1)
		if err != nil {
			return "", err
		}
		flags, formula := cutFlags(rem)
		spec.Regex = fields[0]
		spec.MatchCase = !strings.Contains(flags, "i")
		spec.SkipUnmatched = strings.Contains(flags, "s")
		rest = formula
	}
	spec.Formula = strings.TrimSpace(rest)
	if spec.Formula == "" {
		return "", errors.New("missing formula")
	}
	res, err := columns.Calculate(ctx, w.Doc, w.options(), spec)
	if err != nil {
		return "", err
	}
	return resultMessage(res, "Calculated.", "Nothing to calculate."), nil
}

func cmdTabsToSpaces(ctx context.Context, w *Workspace, rest string) (string, error) {
	before := w.Doc.String()
	if err := w.Elastic.TabsToSpaces(ctx); err != nil {
		return "", err
	}
	if w.Doc.String() == before {
		return "No tabs to convert.", nil
	}
	return "Tabs converted to spaces.", nil
}

func cmdElastic(ctx context.Context, w *Workspace, rest string) (string, error) {
	switch rest {
	case "":
		return w.describeElastic(), nil
	case "on", "off":
		w.Elastic.SetEnabled(rest == "on")
		w.refreshSearch()
		if err := w.Elastic.Update(ctx); err != nil {
			return "", err
		}
		return w.describeElastic(), nil
	}
	return "", fmt.Errorf("expected on or off, got %q", rest)
}

func cmdProfile(ctx context.Context, w *Workspace, rest string) (string, error) {
	sel := w.Config.Selector()
	if rest == "" {
		return "Profiles: " + strings.Join(sel.Names(), ", "), nil
	}
	p, ok := sel.Lookup(trimQuotes(rest))
	if !ok {
		return "", fmt.Errorf("no profile named %q", rest)
	}
	w.Elastic.SetProfile(p)
	if !w.Elastic.Enabled() {
		w.Elastic.SetEnabled(true)
		w.refreshSearch()
	}
	if err := w.Elastic.Update(ctx); err != nil {
		return "", err
	}
	return w.describeElastic(), nil
}

func cmdSelect(ctx context.Context, w *Workspace, rest string) (string, error) {
	var fn func(context.Context, *Workspace) error
	switch rest {
	case "up":
		fn = func(ctx context.Context, w *Workspace) error { return rect.SelectUp(ctx, w.Doc, w.layout()) }
	case "down":
		fn = func(ctx context.Context, w *Workspace) error { return rect.SelectDown(ctx, w.Doc, w.layout()) }
	case "left":
		fn = func(ctx context.Context, w *Workspace) error { return rect.SelectLeft(ctx, w.Doc, w.layout()) }
	case "right":
		fn = func(ctx context.Context, w *Workspace) error { return rect.SelectRight(ctx, w.Doc, w.layout()) }
	case "enclose":
		fn = func(ctx context.Context, w *Workspace) error { return rect.SelectEnclose(ctx, w.Doc, w.layout()) }
	case "extend":
		fn = func(ctx context.Context, w *Workspace) error { return rect.SelectExtend(ctx, w.Doc, w.layout()) }
	default:
		return "", fmt.Errorf("unknown direction %q", rest)
	}
	if err := fn(ctx, w); err != nil {
		return "", err
	}
	return fmt.Sprintf("Selected %d rows.", w.Doc.Selections()), nil
}

func cmdTimestamps(ctx context.Context, w *Workspace, rest string) (string, error) {
	args := parseCommand(rest)
	if len(args) == 0 {
		return "", errors.New("expected todate or tocounter")
	}
	spec := w.Config.TimestampSpec()
	if len(args) > 1 {
		c, err := timestamps.ParseCounter(args[1])
		if err != nil {
			return "", err
		}
		spec.From, spec.To = c, c
	}
	var (
		res columns.Result
		err error
	)
	switch args[0] {
	case "todate":
		res, err = timestamps.ToDatetime(ctx, w.Doc, w.options(), spec)
	case "tocounter":
		res, err = timestamps.ToCounter(ctx, w.Doc, w.options(), spec)
	default:
		return "", fmt.Errorf("expected todate or tocounter, got %q", args[0])
	}
	if err != nil {
		return "", err
	}
	return resultMessage(res, "Converted.", "Nothing converted."), nil
}

func cmdSet(ctx context.Context, w *Workspace, rest string) (string, error) {
	if rest == "" {
		all := w.Config.Describe()
		if all == "" {
			return "No settings.", nil
		}
		return joinLines(all), nil
	}
	key, value, ok := strings.Cut(rest, "=")
	if !ok {
		key, value, _ = strings.Cut(rest, " ")
	}
	key, value = strings.TrimSpace(key), trimQuotes(strings.TrimSpace(value))
	if err := w.Config.Set(key, value); err != nil {
		return "", err
	}
	if strings.HasPrefix(key, "selection.") || strings.HasPrefix(key, "numeric.") {
		w.refreshSearch()
	}
	return fmt.Sprintf("%s=%s", key, value), nil
}

func cmdUndo(ctx context.Context, w *Workspace, rest string) (string, error) {
	if !w.Doc.Undo() {
		return "Nothing to undo.", nil
	}
	return "Undone.", nil
}

func cmdWrite(ctx context.Context, w *Workspace, rest string) (string, error) {
	var err error
	if rest != "" {
		err = w.SaveAs(trimQuotes(rest))
	} else {
		err = w.Save()
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved %s.", w.Title()), nil
}

func cmdQuit(force bool) func(context.Context, *Workspace, string) (string, error) {
	return func(ctx context.Context, w *Workspace, rest string) (string, error) {
		if w.dirty && !force {
			return "Unsaved changes! Use :q! to force quit or :w to save", nil
		}
		w.quit = true
		return "", nil
	}
}

func cmdWriteQuit(ctx context.Context, w *Workspace, rest string) (string, error) {
	if err := w.Save(); err != nil {
		return "", err
	}
	w.quit = true
	return "", nil
}

func (w *Workspace) findBackups() ([]storage.BackupMetadata, error) {
	if w.backups == nil || w.Path() == "" {
		return nil, errors.New("no backups for this document")
	}
	return w.backups.FindBackupsForFile(w.Path())
}

func cmdBackups(ctx context.Context, w *Workspace, rest string) (string, error) {
	backups, err := w.findBackups()
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "No backups found for this file.", nil
	}
	parts := make([]string, len(backups))
	for i, b := range backups {
		parts[i] = fmt.Sprintf("%d: %s", i+1, humanize.Time(b.Timestamp))
	}
	return strings.Join(parts, ", "), nil
}

// cmdRestore replaces the document with a backup as one undoable edit.
func cmdRestore(ctx context.Context, w *Workspace, rest string) (string, error) {
	backups, err := w.findBackups()
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > len(backups) {
		return "", fmt.Errorf("expected a backup number from 1 to %d", len(backups))
	}
	text, err := storage.NewFileStore(backups[n-1].FilePath).Load()
	if err != nil {
		return "", err
	}
	w.Doc.BeginUndoAction()
	err = w.Doc.Replace(0, w.Doc.Length(), text)
	w.Doc.EndUndoAction()
	if err != nil {
		return "", err
	}
	w.Doc.SetSelection(0, 0)
	return fmt.Sprintf("Restored backup from %s.", humanize.Time(backups[n-1].Timestamp)), nil
}

func cmdDump(ctx context.Context, w *Workspace, rest string) (string, error) {
	dump := w.Elastic.Dump()
	log.Printf("elastic layout of %s:\n%s", w.Title(), dump)
	return fmt.Sprintf("%s Layout written to the log.", w.describeElastic()), nil
}

func cmdHelp(ctx context.Context, w *Workspace, rest string) (string, error) {
	if rest != "" {
		c, ok := lookupCommand(rest)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownCommand, rest)
		}
		return c.usage, nil
	}
	names := make([]string, len(commandTable))
	for i, c := range commandTable {
		names[i] = c.name
	}
	return "Commands: " + strings.Join(names, " "), nil
}
