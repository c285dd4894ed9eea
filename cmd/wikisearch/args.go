package main

import (
	"flag"
	"io"
	"strings"

	"github.com/hyperjump/wikisearch/internal/cli"
	"github.com/hyperjump/wikisearch/internal/models"
)

// termList is a repeatable string flag: --not java --not coffee.
type termList []string

func (l *termList) String() string {
	return strings.Join(*l, ",")
}

func (l *termList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// reorderArgs moves flags (and the values of flags in valueFlags) ahead of positional
// arguments so flag.Parse sees them. Go's flag package stops at the first non-flag
// argument, so "wikisearch search java --not coffee" would otherwise leave --not unparsed.
// Everything after "--" stays positional.
func reorderArgs(args []string, valueFlags map[string]bool) []string {
	flags := make([]string, 0, len(args))
	positional := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if valueFlags[name] && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

// searchOptions are the parsed flags of the search command.
type searchOptions struct {
	configPath string
	serverURL  string
	format     cli.SearchOutputFormat
}

var searchValueFlags = map[string]bool{"not": true, "config": true, "server": true, "output": true}

// parseSearchArgs parses "search" arguments into a query. Every positional argument is a
// term (multi-word arguments are split), combined with AND unless --or is given.
func parseSearchArgs(args []string, output io.Writer) (*models.SearchQuery, searchOptions, error) {
	var opts searchOptions
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "config file path (for direct storage mode)")
	fs.StringVar(&opts.serverURL, "server", defaultServerURL, "server URL (empty = use direct storage when server is not running)")
	or := fs.Bool("or", false, "match documents containing any term instead of all terms")
	var exclude termList
	fs.Var(&exclude, "not", "exclude documents containing this term (repeatable)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() { printSearchUsage(fs) }
	if err := fs.Parse(reorderArgs(args, searchValueFlags)); err != nil {
		return nil, opts, err
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		return nil, opts, err
	}
	opts.format = format

	query := &models.SearchQuery{
		Terms:   splitTerms(fs.Args()),
		Mode:    models.ModeAnd,
		Exclude: splitTerms(exclude),
	}
	if *or {
		query.Mode = models.ModeOr
	}
	if err := query.Validate(); err != nil {
		return nil, opts, err
	}
	return query, opts, nil
}

// splitTerms splits each argument on whitespace so "java programming" and java programming
// give the same terms.
func splitTerms(args []string) []string {
	var terms []string
	for _, a := range args {
		terms = append(terms, strings.Fields(a)...)
	}
	return terms
}

func printSearchUsage(fs *flag.FlagSet) {
	w := fs.Output()
	io.WriteString(w, "Usage: wikisearch search [flags] <term>...\n\n")
	fs.PrintDefaults()
	io.WriteString(w, `
Terms are combined with AND; use --or to match any term. --not removes documents
containing the given term and may be repeated. Results are listed from the lowest
to the highest score, so the best match is printed last.

Examples:
  wikisearch search java programming
  wikisearch search --or java python
  wikisearch search java --not coffee --not island
  wikisearch search --output json java
`)
}
