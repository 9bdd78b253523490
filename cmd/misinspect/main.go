package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"seacatgo/pkg/script"
)

func main() {
	verbose := flag.Bool("v", false, "Print every numbered line")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-v] <mission file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *verbose, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(path string, verbose bool, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open mission file: %w", err)
	}
	defer f.Close()

	lines, err := script.Parse(f)
	if err != nil {
		return err
	}
	if err := script.CheckNumbering(lines); err != nil {
		return err
	}

	headers := 0
	directives := make(map[string]int)
	for _, l := range lines {
		switch l.Kind {
		case script.Header:
			headers++
			fmt.Fprintf(out, "header   %-26s %v\n", l.Token, l.Params)
		case script.Setting, script.Command:
			directives[fmt.Sprintf("%c %c %s", l.Kind, l.Directive, l.Token)]++
		}
	}

	numbered := script.Numbered(lines)
	if verbose {
		for _, l := range numbered {
			fmt.Fprintln(out, l.String())
		}
	}

	keys := make([]string, 0, len(directives))
	for k := range directives {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%-34s %d\n", k, directives[k])
	}

	last := int64(0)
	if len(numbered) > 0 {
		last = numbered[len(numbered)-1].Number
	}
	fmt.Fprintf(out, "%d headers, %d numbered lines, last line %d: OK\n", headers, len(numbered), last)
	return nil
}
