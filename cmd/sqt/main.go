// Command sqt builds a Sequitur grammar from an input file (or stdin) and
// prints its rule table. With --interactive it instead drives a REPL:
// each line typed is appended to the grammar one terminal at a time and the
// resulting rule table is printed after every line.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/chzyer/readline"
	"github.com/dekarrin/rosed"
	"github.com/spf13/pflag"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dekarrin/sequitur"
	"github.com/dekarrin/sequitur/internal/version"
)

const (
	ExitSuccess = iota
	ExitInputError
	ExitGrammarError
)

const consoleOutputWidth = 80

var (
	flagVersion     = pflag.BoolP("version", "v", false, "Print the version and exit")
	flagVerbose     = pflag.BoolP("verbose", "V", false, "Print debug tracing of rule creation and dissolution")
	flagRunes       = pflag.BoolP("runes", "r", false, "Decode input as UTF-8 text and use one rune per terminal, instead of one byte per terminal")
	flagInteractive = pflag.BoolP("interactive", "i", false, "Read lines from a REPL instead of a file")
)

func main() {
	returnCode := ExitSuccess
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n", r)
			returnCode = ExitGrammarError
		}
		os.Exit(returnCode)
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("sqt v%s\n", version.Current)
		return
	}

	logger := log.New(io.Discard, "", 0)
	if *flagVerbose {
		logger = log.New(os.Stderr, "sqt: ", 0)
	}

	if *flagInteractive {
		returnCode = runInteractive(logger, *flagVerbose)
		return
	}

	returnCode = runBatch(logger, *flagVerbose)
}

func runBatch(logger *log.Logger, verbose bool) int {
	args := pflag.Args()
	var r io.Reader = os.Stdin
	if len(args) >= 1 {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open %s: %v\n", args[0], err)
			return ExitInputError
		}
		defer f.Close()
		r = f
	}

	if *flagRunes {
		return runBatchRunes(r, logger, verbose)
	}
	return runBatchBytes(r, logger, verbose)
}

func runBatchBytes(r io.Reader, logger *log.Logger, verbose bool) int {
	seq := sequitur.New(func(b byte) string { return string(b) })
	seq.SetLogger(logger)

	buf := bufio.NewReader(r)
	for {
		b, err := buf.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return ExitInputError
		}
		if err := seq.Append(b); err != nil {
			fmt.Fprintf(os.Stderr, "grammar error: %v\n", err)
			return ExitGrammarError
		}
	}

	printByteRules(seq, verbose)
	return ExitSuccess
}

func runBatchRunes(r io.Reader, logger *log.Logger, verbose bool) int {
	seq := sequitur.New(func(ru rune) string { return string(ru) })
	seq.SetLogger(logger)

	dec := unicode.UTF8.NewDecoder()
	tr := transform.NewReader(r, dec)
	buf := bufio.NewReader(tr)
	for {
		ru, _, err := buf.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return ExitInputError
		}
		if err := seq.Append(ru); err != nil {
			fmt.Fprintf(os.Stderr, "grammar error: %v\n", err)
			return ExitGrammarError
		}
	}

	printRuneRules(seq, verbose)
	return ExitSuccess
}

func runInteractive(logger *log.Logger, verbose bool) int {
	rl, err := readline.NewEx(&readline.Config{Prompt: "sqt> "})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not start REPL: %v\n", err)
		return ExitInputError
	}
	defer rl.Close()

	seq := sequitur.New(func(ru rune) string { return string(ru) })
	seq.SetLogger(logger)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return ExitInputError
		}

		switch line {
		case ":quit":
			return ExitSuccess
		case ":walk":
			fmt.Println(string(seq.Walk()))
			continue
		case ":rules":
			printRuneRules(seq, verbose)
			continue
		}

		for _, ru := range line {
			if err := seq.Append(ru); err != nil {
				fmt.Fprintf(os.Stderr, "grammar error: %v\n", err)
				return ExitGrammarError
			}
		}
		if err := seq.Append('\n'); err != nil {
			fmt.Fprintf(os.Stderr, "grammar error: %v\n", err)
			return ExitGrammarError
		}
		printRuneRules(seq, verbose)
	}
}

func printByteRules(seq *sequitur.Sequitur[byte], verbose bool) {
	show := func(b byte) string { return fmt.Sprintf("%q", string(b)) }
	if verbose {
		printDebugTable(seq.DebugDump(), show)
		return
	}
	printRuleTable(seq.Rules(), show)
}

func printRuneRules(seq *sequitur.Sequitur[rune], verbose bool) {
	show := func(r rune) string { return fmt.Sprintf("%q", string(r)) }
	if verbose {
		printDebugTable(seq.DebugDump(), show)
		return
	}
	printRuleTable(seq.Rules(), show)
}

func printRuleTable[T comparable](rules []sequitur.RuleEntry[T], showTerminal func(T) string) {
	data := [][]string{{"Rule", "Refs", "Body"}}
	for _, rule := range rules {
		data = append(data, []string{
			fmt.Sprintf("R%d", rule.ID),
			fmt.Sprintf("%d", rule.RefCount),
			bodyToString(rule.Body, showTerminal),
		})
	}

	out := rosed.Edit("").
		InsertTableOpts(0, data, consoleOutputWidth, rosed.Options{TableHeaders: true}).
		String()
	fmt.Println(out)
}

// printDebugTable is printRuleTable's --verbose form: it adds a column
// naming which rule body holds each reference, the original's ref-symbol
// set reborn as rule ids (see SPEC_FULL.md section 4).
func printDebugTable[T comparable](rules []sequitur.RuleDebugEntry[T], showTerminal func(T) string) {
	data := [][]string{{"Rule", "Refs", "Referenced By", "Body"}}
	for _, rule := range rules {
		data = append(data, []string{
			fmt.Sprintf("R%d", rule.ID),
			fmt.Sprintf("%d", rule.RefCount),
			refOwnersString(rule.RefOwners),
			bodyToString(rule.Body, showTerminal),
		})
	}

	out := rosed.Edit("").
		InsertTableOpts(0, data, consoleOutputWidth, rosed.Options{TableHeaders: true}).
		String()
	fmt.Println(out)
}

func refOwnersString(owners []int) string {
	if len(owners) == 0 {
		return "-"
	}
	s := ""
	for i, id := range owners {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("R%d", id)
	}
	return s
}

func bodyToString[T comparable](body []sequitur.BodyItem[T], showTerminal func(T) string) string {
	s := ""
	for i, item := range body {
		if i > 0 {
			s += " "
		}
		if item.IsRuleRef {
			s += fmt.Sprintf("R%d", item.RuleID)
		} else {
			s += showTerminal(item.Terminal)
		}
	}
	return s
}
