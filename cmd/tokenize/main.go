package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/gomlx/tokenizers/engine"
)

func main() {
	var (
		tokenizerFile = flag.String("tokenizer", "", "Path to tokenizer.json")
		text          = flag.String("text", "", "Text to encode (default: stdin)")
		special       = flag.Bool("special", false, "Add special tokens")
		charOffsets   = flag.Bool("char-offsets", false, "Report offsets in characters instead of bytes")
		truncate      = flag.Uint("truncate", 0, "Truncate to N tokens (0 = off)")
		pad           = flag.Uint("pad", 0, "Pad to N tokens (0 = off)")
		verbose       = flag.Bool("v", false, "Log boundary events to stderr")
		interactive   = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *tokenizerFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: tokenize -tokenizer <tokenizer.json> [-text string] [-special] [-char-offsets]")
		fmt.Fprintln(os.Stderr, "                [-truncate N] [-pad N] [-v]")
		fmt.Fprintln(os.Stderr, "       tokenize -tokenizer <tokenizer.json> -i  (interactive mode)")
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger = l
		engine.SetLogger(l)
	}
	defer logger.Sync()

	cfg := config{
		tokenizer:   *tokenizerFile,
		special:     *special,
		charOffsets: *charOffsets,
		truncate:    *truncate,
		pad:         *pad,
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal on stdin")
			os.Exit(1)
		}
		if err := runInteractive(cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Stdout, os.Stdin, cfg, *text, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, stdin io.Reader, cfg config, text string, logger *zap.Logger) (err error) {
	s, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil {
			err = cerr
		}
	}()

	if text == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	fmt.Fprintf(w, "Tokenizer: %s (vocab %d)\n\n", cfg.tokenizer, s.vocabSize())
	rep, err := s.encode(text)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	fmt.Fprint(w, rep)
	return nil
}
