package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomoku/backend/internal/bot"
	"github.com/gomoku/backend/internal/game"
)

func newTestShell() (*shell, *bytes.Buffer) {
	var out bytes.Buffer
	return newShell(&out, bot.NewRegistry()), &out
}

func TestShellQuitAndHelp(t *testing.T) {
	sh, out := newTestShell()

	quit, err := sh.execute("help")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), "play <row> <col>")

	quit, err = sh.execute("")
	require.NoError(t, err)
	assert.False(t, quit)

	quit, err = sh.execute("quit")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestShellErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"unknown command", "jump", `unknown command "jump"`},
		{"unbalanced quote", `new "beginner`, "Unterminated"},
		{"play without game", "play 7 7", "no game"},
		{"hint without game", "hint", "no game"},
		{"show without game", "show", "no game"},
		{"stats without game", "stats", "no game"},
		{"unknown difficulty", "new grandmaster", "grandmaster"},
		{"unknown color", "new beginner green", `unknown color "green"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh, _ := newTestShell()
			_, err := sh.execute(tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestShellPlayAgainstEngine(t *testing.T) {
	sh, out := newTestShell()

	_, err := sh.execute("new beginner black")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "new beginner game, you play black")
	assert.Equal(t, game.Black, sh.humanSide)
	assert.Equal(t, 0, sh.game.Board.Stones)

	out.Reset()
	_, err = sh.execute("p 7 7")
	require.NoError(t, err)
	assert.Equal(t, 2, sh.game.Board.Stones)
	assert.Equal(t, game.Black, sh.game.CurrentTurn)
	assert.Contains(t, out.String(), "engine plays")
	assert.Contains(t, out.String(), " X ")

	_, err = sh.execute("play 7 7")
	assert.ErrorIs(t, err, game.ErrOccupied)

	_, err = sh.execute("play seven 7")
	assert.EqualError(t, err, `bad row "seven"`)

	_, err = sh.execute("play 7")
	assert.EqualError(t, err, "usage: play <row> <col>")

	out.Reset()
	_, err = sh.execute("hint")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "try ("))
}

func TestShellEngineOpensAsBlack(t *testing.T) {
	sh, out := newTestShell()

	_, err := sh.execute("new easy white")
	require.NoError(t, err)
	assert.Equal(t, game.White, sh.humanSide)
	assert.Equal(t, 1, sh.game.Board.Stones)
	assert.Equal(t, game.Black, sh.game.Board.Grid[7][7])
	assert.Contains(t, out.String(), "engine plays (7,7) (fallback)")
	assert.Contains(t, out.String(), "[X]")

	out.Reset()
	_, err = sh.execute("stats")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "lookups=")
}

func TestShellProfiles(t *testing.T) {
	sh, out := newTestShell()

	_, err := sh.execute("profiles")
	require.NoError(t, err)
	assert.Equal(t, "advanced beginner professional\n", out.String())
}

func TestShellAnnouncesWin(t *testing.T) {
	sh, out := newTestShell()
	_, err := sh.execute("new beginner black")
	require.NoError(t, err)

	// Four black stones on row 3 and scattered white replies, black to move.
	g := sh.game
	for c := 0; c < 4; c++ {
		g.Board.Grid[3][c] = game.Black
		g.Board.Grid[11][2*c] = game.White
	}
	g.Board.Stones = 8

	out.Reset()
	_, err = sh.execute("play 3 4")
	require.NoError(t, err)
	assert.False(t, g.IsActive)
	assert.Contains(t, out.String(), "you win")

	_, err = sh.execute("hint")
	assert.ErrorIs(t, err, game.ErrGameOver)
	_, err = sh.execute("play 0 0")
	assert.ErrorIs(t, err, game.ErrGameOver)
}

func TestParseColor(t *testing.T) {
	side, err := parseColor("W")
	require.NoError(t, err)
	assert.Equal(t, game.White, side)

	side, err = parseColor("random")
	require.NoError(t, err)
	assert.Contains(t, []int{game.Black, game.White}, side)
}

func TestRender(t *testing.T) {
	g := game.NewGame(game.Player{Username: "a"}, game.Player{Username: "b"}, bot.Beginner)
	require.NoError(t, g.MakeMove(0, 0))
	require.NoError(t, g.MakeMove(0, 1))

	lines := strings.Split(render(g), "\n")
	require.Len(t, lines, game.BoardSize+1)
	assert.True(t, strings.HasPrefix(lines[0], "     0  1  2"))
	assert.True(t, strings.HasPrefix(lines[1], " 0  X [O] . "))
}
