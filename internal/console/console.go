// Package console is the terminal front-end: a line-oriented menu and
// question loop over an orchestrator.
//
// It reads from any io.Reader and writes to any io.Writer, so the same
// loop runs against a TTY or a scripted transcript in tests.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gamezone/internal/game"
	"github.com/robalobadob/gamezone/internal/orchestrator"
)

// Console drives games from line input.
type Console struct {
	orch     *orchestrator.Orchestrator
	in       *bufio.Scanner
	out      io.Writer
	maxGames int // 0 = play until exit
}

// New creates a Console. After maxGames completed games the loop ends on its
// own; pass 0 to keep going until the player exits.
func New(o *orchestrator.Orchestrator, in io.Reader, out io.Writer, maxGames int) *Console {
	return &Console{orch: o, in: bufio.NewScanner(in), out: out, maxGames: maxGames}
}

// Run shows the menu and plays games until the player exits, input ends,
// ctx is cancelled or the game cap is reached. It returns the number of
// completed games.
func (c *Console) Run(ctx context.Context) (int, error) {
	c.println("Welcome to the Multi-Game Challenge!")
	completed := 0
	for c.maxGames == 0 || completed < c.maxGames {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		c.println("")
		c.println("Choose a game:")
		c.println("  1. Number Game")
		c.println("  2. Word Game")
		c.println("  3. Exit")
		line, ok := c.read("Enter your choice (1/2/3): ")
		if !ok {
			return completed, c.in.Err()
		}
		if game.IsExit(line) {
			c.println("Exiting the game. Thanks for playing!")
			return completed, nil
		}
		step, err := c.orch.SelectGame(ctx, line)
		if errors.Is(err, game.ErrInvalidSelection) {
			c.println("Invalid choice. Try again.")
			continue
		}
		if err != nil {
			return completed, err
		}
		finished, err := c.play(ctx, step)
		if err != nil || !finished {
			return completed, err
		}
		completed++
		log.Debug().Int("completed", completed).Msg("game completed")
	}
	c.println("")
	c.println("Thank you for playing! See you next time!")
	return completed, nil
}

// play runs one session to its end. It reports false when input ran out
// before the session finished.
func (c *Console) play(ctx context.Context, step game.StepResult) (bool, error) {
	handle := step.SessionID
	defer func() { _ = c.orch.Reset(ctx, handle) }()

	switch step.Game {
	case game.KindNumber:
		r := c.orch.NumberRange()
		c.printf("Welcome to the Number Game!\nThink of a number between %d and %d.\n", r.Low, r.High)
	case game.KindWord:
		c.printf("Welcome to the Word Game!\nThink of one of these words:\n%s\n",
			strings.Join(c.orch.Catalog().Words(), ", "))
	}

	for !step.Terminal() {
		line, ok := c.read(step.Proposal.Question + " (yes/no): ")
		if !ok {
			return false, c.in.Err()
		}
		a, err := game.ParseAnswer(line)
		if err != nil {
			c.println("Please answer yes or no.")
			continue
		}
		if step, err = c.orch.SubmitAnswer(ctx, handle, a); err != nil {
			return false, err
		}
	}
	c.println(outcomeMessage(step))
	return true, nil
}

func outcomeMessage(step game.StepResult) string {
	switch {
	case step.Status == game.StatusExhausted:
		return "I couldn't guess your word."
	case step.Game == game.KindNumber:
		return fmt.Sprintf("I guessed it! Your number is %s! (%d questions)", step.Value, step.Attempts)
	default:
		return fmt.Sprintf("I guessed it! Your word is '%s'! (%d questions)", step.Value, step.Attempts)
	}
}

func (c *Console) read(prompt string) (string, bool) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) println(s string) { fmt.Fprintln(c.out, s) }

func (c *Console) printf(format string, args ...any) { fmt.Fprintf(c.out, format, args...) }
