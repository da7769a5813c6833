package app

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/pstuifzand/tui-columns/internal/config"
)

// rank returns the targets that fuzzily contain word, closest first.
// An empty word matches everything in the given order.
func rank(word string, targets []string) []string {
	if word == "" {
		return append([]string(nil), targets...)
	}
	ranks := fuzzy.RankFindNormalizedFold(word, targets)
	sort.Stable(ranks)
	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.Target)
	}
	return out
}

// Complete returns the command lines that can replace input: command
// names for the first word, then the arguments the command knows about.
func (w *Workspace) Complete(input string) []string {
	name, rest := splitCommand(input)
	if !strings.ContainsAny(input, " \t") {
		names := make([]string, 0, len(commandTable))
		for _, c := range commandTable {
			names = append(names, c.name)
		}
		return rank(name, names)
	}

	cmd, ok := lookupCommand(name)
	if !ok {
		return nil
	}
	var (
		targets []string
		suffix  string
	)
	switch cmd.name {
	case "set":
		targets, suffix = config.Keys, "="
		if strings.Contains(rest, "=") {
			return nil
		}
	case "profile":
		targets = w.ProfileNames()
	default:
		targets = cmd.args
	}
	if strings.ContainsAny(rest, " \t") {
		return nil
	}
	var out []string
	for _, t := range rank(rest, targets) {
		out = append(out, cmd.name+" "+t+suffix)
	}
	return out
}
