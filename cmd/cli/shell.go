package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"lukechampine.com/frand"

	"github.com/gomoku/backend/internal/bot"
	"github.com/gomoku/backend/internal/game"
)

const usage = `commands:
  new [difficulty] [black|white|random]   start a game (default advanced, black)
  play <row> <col>                        place your stone (alias: p)
  hint                                    ask the engine for your move
  show                                    print the board
  profiles                                list difficulties
  stats                                   transposition table usage
  quit`

var errNoGame = errors.New(`no game, use "new"`)

type shell struct {
	out       io.Writer
	registry  *bot.Registry
	game      *game.Game
	engine    *bot.Engine
	humanSide int
}

func newShell(out io.Writer, registry *bot.Registry) *shell {
	return &shell{out: out, registry: registry}
}

func (s *shell) println(msg string) {
	io.WriteString(s.out, msg)
	io.WriteString(s.out, "\n")
}

// execute runs one command line and reports whether the shell should exit.
func (s *shell) execute(line string) (bool, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return false, err
	}
	if len(fields) == 0 {
		return false, nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		s.println(usage)
	case "new":
		return false, s.newGame(args)
	case "play", "p":
		return false, s.play(args)
	case "hint":
		return false, s.hint()
	case "show":
		if s.game == nil {
			return false, errNoGame
		}
		s.println(render(s.game))
	case "profiles":
		s.println(strings.Join(s.registry.Names(), " "))
	case "stats":
		if s.engine == nil {
			return false, errNoGame
		}
		st := s.engine.Stats()
		s.println(fmt.Sprintf("lookups=%d hits=%d stores=%d clears=%d size=%d", st.Lookups, st.Hits, st.Stores, st.Clears, st.Size))
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

func (s *shell) newGame(args []string) error {
	difficulty, color := bot.Advanced, "black"
	if len(args) > 0 {
		difficulty = args[0]
	}
	if len(args) > 1 {
		color = args[1]
	}
	prof, err := s.registry.Lookup(difficulty)
	if err != nil {
		return err
	}
	side, err := parseColor(color)
	if err != nil {
		return err
	}
	eng, err := bot.NewEngine(prof)
	if err != nil {
		return err
	}

	human := game.Player{ID: "you", Username: "you"}
	engine := game.Player{ID: "engine", Username: prof.ID, IsBot: true}
	black, white := human, engine
	if side == game.White {
		black, white = engine, human
	}
	s.game, s.engine, s.humanSide = game.NewGame(black, white, prof.ID), eng, side
	s.println(fmt.Sprintf("new %s game, you play %s", prof.ID, bot.Side(side)))

	if s.game.IsBotTurn() {
		if err := s.engineMove(); err != nil {
			return err
		}
	}
	s.println(render(s.game))
	return nil
}

func parseColor(color string) (int, error) {
	switch strings.ToLower(color) {
	case "black", "b":
		return game.Black, nil
	case "white", "w":
		return game.White, nil
	case "random":
		return game.Black + frand.Intn(2), nil
	}
	return 0, fmt.Errorf("unknown color %q", color)
}

func (s *shell) play(args []string) error {
	if s.game == nil {
		return errNoGame
	}
	if len(args) != 2 {
		return errors.New("usage: play <row> <col>")
	}
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad row %q", args[0])
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad col %q", args[1])
	}
	if s.game.IsActive && s.game.CurrentTurn != s.humanSide {
		return errors.New("not your turn")
	}
	if err := s.game.MakeMove(row, col); err != nil {
		return err
	}
	if s.game.IsBotTurn() {
		if err := s.engineMove(); err != nil {
			return err
		}
	}
	s.println(render(s.game))
	s.announce()
	return nil
}

func (s *shell) engineMove() error {
	dec, err := s.decide(bot.Side(s.game.CurrentTurn))
	if err != nil {
		return err
	}
	if err := s.game.MakeMove(dec.Move.Row, dec.Move.Col); err != nil {
		return err
	}
	line := fmt.Sprintf("engine plays %s (%s", dec.Move, dec.Stage)
	if dec.Stage == bot.StageSearch {
		line += fmt.Sprintf(", depth %d, %d nodes", dec.Depth, dec.Nodes)
	}
	s.println(line + ")")
	return nil
}

func (s *shell) decide(side bot.Side) (bot.Decision, error) {
	board, err := bot.BoardFromGrid(s.game.GetBoardForBot())
	if err != nil {
		return bot.Decision{}, err
	}
	return s.engine.Decide(board, side)
}

func (s *shell) hint() error {
	if s.game == nil {
		return errNoGame
	}
	if !s.game.IsActive {
		return game.ErrGameOver
	}
	dec, err := s.decide(bot.Side(s.humanSide))
	if err != nil {
		return err
	}
	s.println(fmt.Sprintf("try %s (%s)", dec.Move, dec.Stage))
	return nil
}

func (s *shell) announce() {
	switch s.game.Status() {
	case game.StatusCompleted:
		if s.game.Winner == s.humanSide {
			s.println("you win")
		} else {
			s.println("engine wins")
		}
	case game.StatusDraw:
		s.println("draw")
	}
}

// render draws the board with X for black, O for white and the last move
// in brackets.
func render(g *game.Game) string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < game.BoardSize; c++ {
		fmt.Fprintf(&sb, "%3d", c)
	}
	sb.WriteByte('\n')
	for r := 0; r < game.BoardSize; r++ {
		fmt.Fprintf(&sb, "%2d ", r)
		for c := 0; c < game.BoardSize; c++ {
			stone := "."
			switch g.Board.Grid[r][c] {
			case game.Black:
				stone = "X"
			case game.White:
				stone = "O"
			}
			if last := g.Board.LastMove; last != nil && last.Row == r && last.Col == c {
				fmt.Fprintf(&sb, "[%s]", stone)
			} else {
				fmt.Fprintf(&sb, " %s ", stone)
			}
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
