// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// docgen renders docs/commands/<cmd>.md into a man page and a tldr page for
// each spotctl command.
//
//	go run ./tools/docgen -root .
package main

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

const project = "https://github.com/oroclass/spotctl"

const (
	sectionShort    = "short description"
	sectionExamples = "quick examples"
	sectionFlags    = "flags and related docs"
)

var (
	titleRe       = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	placeholderRe = regexp.MustCompile(`<([^<>\s]+)>`)
)

// target is one generated artifact per command.
type target struct {
	dir    string
	ext    string
	render func(p page, raw []byte) []byte
}

var targets = []target{
	{
		dir:    filepath.Join("docs", "man", "share", "man1"),
		ext:    ".1",
		render: func(_ page, raw []byte) []byte { return md2man.Render(raw) },
	},
	{
		dir:    filepath.Join("docs", "tldr"),
		ext:    ".md",
		render: func(p page, _ []byte) []byte { return []byte(p.TLDR()) },
	},
}

func main() {
	root := flag.String("root", ".", "repository root holding docs/commands")
	force := flag.Bool("force", false, "rewrite outputs even when unchanged")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: docgen [-root dir] [-force]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	pages, written, err := generate(*root, *force)
	if err != nil {
		fmt.Fprintln(os.Stderr, "docgen:", err)
		os.Exit(1)
	}
	fmt.Printf("docgen: %d commands, %d files written\n", pages, written)
}

// generate renders every command doc under root. It returns the number of
// command docs read and the number of files written.
func generate(root string, force bool) (int, int, error) {
	src := filepath.Join(root, "docs", "commands")
	docs, err := filepath.Glob(filepath.Join(src, "*.md"))
	if err != nil {
		return 0, 0, err
	}
	if len(docs) == 0 {
		return 0, 0, fmt.Errorf("no command docs in %s", src)
	}

	for _, t := range targets {
		if err := os.MkdirAll(filepath.Join(root, t.dir), 0o755); err != nil { //nolint:mnd
			return 0, 0, fmt.Errorf("failed to create %s: %w", t.dir, err)
		}
	}

	var written int
	for _, doc := range docs {
		raw, err := os.ReadFile(doc)
		if err != nil {
			return 0, written, err
		}
		p := parsePage(strings.TrimSuffix(filepath.Base(doc), ".md"), raw)

		for _, t := range targets {
			out := filepath.Join(root, t.dir, "spotctl-"+p.Command+t.ext)
			changed, err := writeIfChanged(out, t.render(p, raw), force)
			if err != nil {
				return 0, written, fmt.Errorf("%s: %w", p.Command, err)
			}
			if changed {
				written++
			}
		}
	}

	return len(docs), written, nil
}

// writeIfChanged skips the write when the file already holds data, ignoring
// surrounding whitespace. It reports whether the file was written.
func writeIfChanged(path string, data []byte, force bool) (bool, error) {
	if !force {
		old, err := os.ReadFile(path)
		switch {
		case err == nil && bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(data)):
			return false, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return false, err
		}
	}
	return true, os.WriteFile(path, data, 0o644) //nolint:mnd
}

type example struct {
	Desc string
	Cmd  string
}

// page is what a command doc contributes to the tldr output.
type page struct {
	Command  string
	Title    string
	Short    string
	Examples []example
}

func parsePage(cmd string, raw []byte) page {
	md := string(raw)
	p := page{Command: cmd}
	if m := titleRe.FindStringSubmatch(md); m != nil {
		p.Title = strings.TrimSpace(m[1])
	}

	secs := sections(md)
	p.Short = firstParagraph(secs[sectionShort])
	if p.Short == "" && p.Title != "" {
		p.Short = p.Title + "."
	}
	p.Examples = examples(secs[sectionExamples])
	return p
}

// sections splits a command doc on its plain-text section headings. Lines
// inside code fences never start a section.
func sections(md string) map[string][]string {
	out := map[string][]string{}
	current := ""
	fenced := false

	sc := bufio.NewScanner(strings.NewReader(md))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fenced = !fenced
		}
		if !fenced {
			switch name := strings.ToLower(strings.TrimSpace(strings.TrimLeft(line, "# "))); name {
			case sectionShort, sectionExamples, sectionFlags:
				current = name
				continue
			}
		}
		if current != "" {
			out[current] = append(out[current], line)
		}
	}
	return out
}

func firstParagraph(lines []string) string {
	var words []string
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			if len(words) > 0 {
				break
			}
			continue
		}
		words = append(words, ln)
	}
	return strings.Join(words, " ")
}

// examples reads the first fenced block: "# text" lines describe the command
// lines that follow them.
func examples(lines []string) []example {
	var (
		out    []example
		desc   string
		inside bool
	)
	for _, ln := range lines {
		s := strings.TrimSpace(ln)
		if strings.HasPrefix(s, "```") {
			if inside {
				break
			}
			inside = true
			continue
		}
		if !inside || s == "" {
			continue
		}
		if strings.HasPrefix(s, "#") {
			desc = strings.TrimSpace(strings.TrimLeft(s, "#"))
			continue
		}
		if desc == "" {
			desc = "Example"
		}
		out = append(out, example{Desc: desc, Cmd: s})
		desc = ""
	}
	return out
}

// TLDR renders the page in tldr-pages format.
func (p page) TLDR() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# spotctl-%s\n\n", p.Command)

	summary := p.Short
	if summary == "" {
		summary = "spotctl " + p.Command
	}
	fmt.Fprintf(&b, "> %s\n> More information: %s.\n\n", summary, project)

	exs := p.Examples
	if len(exs) == 0 {
		exs = []example{{Desc: "Show help for the command", Cmd: "spotctl " + p.Command + " --help"}}
	}
	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s:\n\n`%s`\n", ex.Desc, tldrCommand(ex.Cmd))
	}
	return b.String()
}

// tldrCommand collapses whitespace and rewrites <arg> as {{arg}}.
func tldrCommand(s string) string {
	return placeholderRe.ReplaceAllString(strings.Join(strings.Fields(s), " "), "{{$1}}")
}
