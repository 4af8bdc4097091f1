package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tokengate-xyz/go-tokengate/layout"
	"github.com/tokengate-xyz/go-tokengate/token"
)

func layoutDiff(args []string) error {
	fs := flag.NewFlagSet("layout", flag.ExitOnError)
	from := fs.String("from", "v1", "Previous version name")
	to := fs.String("to", "v2", "Next version name")
	list := fs.Bool("list", false, "List known versions and their layouts")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: tokengate layout [options]

Check storage-layout compatibility between two published versions. Run this
in CI for every release: a moved slot silently corrupts persisted state.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Compare consecutive versions
  tokengate layout --from v1 --to v2

  # Show every published layout
  tokengate layout --list
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	layouts := token.Layouts()

	if *list {
		names := make([]string, 0, len(layouts))
		for name := range layouts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			printSchema(layouts[name])
		}
		return nil
	}

	prev, ok := layouts[*from]
	if !ok {
		return fmt.Errorf("unknown version %q (known: %s)", *from, knownVersions(layouts))
	}
	next, ok := layouts[*to]
	if !ok {
		return fmt.Errorf("unknown version %q (known: %s)", *to, knownVersions(layouts))
	}

	if err := layout.Diff(prev, next); err != nil {
		return fmt.Errorf("layout check failed: %w", err)
	}
	fmt.Printf("OK: %s -> %s (%d fields, gap %d -> %d)\n",
		prev.Version, next.Version, len(next.Fields), prev.Gap, next.Gap)
	return nil
}

func printSchema(s layout.Schema) {
	fmt.Printf("%s:\n", s.Version)
	for _, f := range s.Sorted() {
		fmt.Printf("  slot %3d  %-18s %s\n", f.Slot, f.Name, f.Type)
	}
	fmt.Printf("  gap %d\n", s.Gap)
}

func knownVersions(layouts map[string]layout.Schema) string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
