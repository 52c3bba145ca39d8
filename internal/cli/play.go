package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/domain"
	"knowledge-quiz/internal/logger"
	"knowledge-quiz/internal/trivia"
)

const maxAttempts = 3

// NewPlayCmd plays a quiz in the terminal against the configured store.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			// Logs go to stderr so they do not interleave with the game.
			log := logger.NewWithWriter(cfg.Log, zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())))
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			players, closeStore, err := openPlayerStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			session := app.NewQuizSession(newTriviaClient(cfg, log), players, log)
			defer session.Wait()
			return runPlay(ctx, session, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

var errQuit = errors.New("quit")

func runPlay(ctx context.Context, session *app.QuizSession, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	err := playLoop(ctx, session, reader, out)
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
		fmt.Fprintln(out, "\nBye!")
		return nil
	}
	return err
}

func playLoop(ctx context.Context, session *app.QuizSession, reader *bufio.Reader, out io.Writer) error {
	for session.State().Phase == app.PhasePlayerSetup {
		name, err := prompt(reader, out, "Enter your name (blank for anonymous): ")
		if err != nil {
			return err
		}
		if err := session.SetupPlayer(ctx, name); err != nil {
			fmt.Fprintf(out, "%s\n", session.State().Error)
		}
	}
	fmt.Fprintf(out, "Welcome, %s!\n", session.State().Player.Name)

	for {
		settings, err := promptSettings(ctx, session, reader, out)
		if err != nil {
			return err
		}
		session.UpdateSettings(settings)
		if err := session.StartQuiz(ctx, domain.QuizSettings{}); err != nil {
			fmt.Fprintf(out, "\n%s\n", session.State().Error)
			continue
		}

		if err := playQuestions(ctx, session, reader, out); err != nil {
			return err
		}
		state := session.State()
		if state.Phase != app.PhaseQuizComplete {
			fmt.Fprintln(out, "\nQuiz cancelled.")
			continue
		}

		session.Wait()
		fmt.Fprintf(out, "\nFinal score: %d/%d\n", state.Score, len(state.Questions))
		if rank, ok, err := session.PlayerRank(ctx); err == nil && ok {
			fmt.Fprintf(out, "Your rank: #%d\n", rank)
		}

		again, err := prompt(reader, out, "Play again? [y/N] ")
		if err != nil {
			return err
		}
		if !strings.EqualFold(again, "y") {
			return errQuit
		}
		session.ResetQuiz()
	}
}

func promptSettings(ctx context.Context, session *app.QuizSession, reader *bufio.Reader, out io.Writer) (domain.QuizSettings, error) {
	for {
		fmt.Fprintln(out)
		category, err := prompt(reader, out, "Category id (blank for any, 'c' to list, 'l' for leaderboard, 'q' to quit): ")
		if err != nil {
			return domain.QuizSettings{}, err
		}
		switch strings.ToLower(category) {
		case "q":
			return domain.QuizSettings{}, errQuit
		case "c":
			for _, c := range trivia.Categories() {
				fmt.Fprintf(out, "%6s  %s\n", c.ID, c.Name)
			}
			continue
		case "l":
			showLeaderboard(ctx, session, out)
			continue
		}

		difficulty, err := prompt(reader, out, "Difficulty (easy/medium/hard, blank for any): ")
		if err != nil {
			return domain.QuizSettings{}, err
		}
		return domain.QuizSettings{Category: category, Difficulty: strings.ToLower(difficulty)}.Normalized(), nil
	}
}

func showLeaderboard(ctx context.Context, session *app.QuizSession, out io.Writer) {
	if err := session.GoToLeaderboard(); err != nil {
		return
	}
	defer func() { _ = session.GoToQuizSettings() }()

	players, err := session.Leaderboard(ctx, 10)
	if err != nil {
		fmt.Fprintln(out, "Failed to fetch leaderboard")
		return
	}
	fmt.Fprintln(out, "\nLeaderboard")
	for i, p := range players {
		fmt.Fprintf(out, "%2d. %-24s %4d / %d\n", i+1, p.Name, p.Score, p.TotalAnswers)
	}
}

func playQuestions(ctx context.Context, session *app.QuizSession, reader *bufio.Reader, out io.Writer) error {
	for session.State().Phase == app.PhaseQuizActive {
		state := session.State()
		question, ok := state.CurrentQuestion()
		if !ok {
			return nil
		}
		printQuestion(out, state.CurrentQuestionIndex+1, len(state.Questions), question)

		choice, ok, err := getAnswer(reader, out, question.Options)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		switch {
		case choice == "cancel":
			return session.CancelQuiz()
		case !ok:
			fmt.Fprintf(out, "Skipping. Correct answer was %s\n", question.CorrectAnswer)
		default:
			if err := session.AnswerQuestion(choice); err != nil {
				return err
			}
			if choice == question.CorrectAnswer {
				fmt.Fprintln(out, "Correct!")
			} else {
				fmt.Fprintf(out, "Wrong. Correct answer was %s\n", question.CorrectAnswer)
			}
		}
		if err := session.NextQuestion(ctx); err != nil {
			return err
		}
	}
	return nil
}

func printQuestion(out io.Writer, number, total int, question domain.ProcessedQuestion) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d/%d [%s, %s]: %s\n\n", number, total, question.Category, question.Difficulty, question.Question)
	for i, option := range question.Options {
		fmt.Fprintf(out, "%c. %s\n", 'A'+i, option)
	}
	fmt.Fprintln(out)
}

// getAnswer returns the chosen option text. ok is false when the player gave
// up after maxAttempts invalid inputs; "cancel" is returned for 'x'.
func getAnswer(reader *bufio.Reader, out io.Writer, options []string) (string, bool, error) {
	maxLetter := byte('A' + len(options) - 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		answer, err := prompt(reader, out, fmt.Sprintf("Your answer (A-%c, x to cancel): ", maxLetter))
		if err != nil {
			return "", false, err
		}
		answer = strings.ToUpper(answer)
		if answer == "X" {
			return "cancel", true, nil
		}
		if len(answer) == 1 && answer[0] >= 'A' && answer[0] <= maxLetter {
			return options[answer[0]-'A'], true, nil
		}
		if attempt < maxAttempts {
			fmt.Fprintf(out, "Invalid input. Please enter a letter A-%c.\n", maxLetter)
		}
	}
	return "", false, nil
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
