// Command cli plays gomoku against the engine in a terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"github.com/gomoku/backend/internal/bot"
	"github.com/gomoku/backend/internal/logger"
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func main() {
	profiles := flag.String("profiles", os.Getenv("ENGINE_PROFILES_FILE"), "YAML file with extra difficulty profiles")
	level := flag.String("log", "warn", "log level")
	flag.Parse()

	logger.Init(*level, true)

	registry := bot.NewRegistry()
	if *profiles != "" {
		var err error
		if registry, err = bot.LoadRegistryFile(*profiles); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mgomoku>\033[0m ",
		HistoryFile:     filepath.Join(os.TempDir(), "gomoku-cli.history"),
		EOFPrompt:       "quit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer l.Close()

	sh := newShell(l.Stdout(), registry)
	sh.println(`type "help" for commands`)
	for {
		line, err := l.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return
		}

		quit, err := sh.execute(strings.TrimSpace(line))
		if err != nil {
			log.Debug().Err(err).Str("line", line).Msg("command failed")
			sh.println("error: " + err.Error())
		}
		if quit {
			return
		}
	}
}
