// quizrunner 在终端中完成一次测验作答：登录、开始作答、逐题作答、提交后查看并回看结果。
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"studysync_backend/pkg/api"
	"studysync_backend/pkg/apiclient"
	"studysync_backend/pkg/attempt"

	"go.uber.org/zap"
)

const help = `commands:
  <text>     answer the current question (a number picks an option)
  :n / :p    next / previous question
  :g N       go to question N
  :f         flag or unflag the current question
  :s         submit
  :q         quit without submitting`

const reviewHelp = `:r to review answers (:n / :p / :g N to move), :q to quit`

func main() {
	baseURL := flag.String("api", "http://localhost:8080/api", "API base URL")
	email := flag.String("email", os.Getenv("STUDYSYNC_EMAIL"), "login email")
	password := flag.String("password", os.Getenv("STUDYSYNC_PASSWORD"), "login password")
	quizID := flag.String("quiz", "", "quiz id; lists quizzes when empty")
	verbose := flag.Bool("v", false, "log HTTP requests")
	flag.Parse()

	zl := zap.NewNop()
	if *verbose {
		var err error
		if zl, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("logger: %v", err)
		}
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(*baseURL, apiclient.WithLogger(zl))
	if _, err := client.Login(ctx, api.Credentials{Email: *email, Password: *password}); err != nil {
		log.Fatalf("login: %v", err)
	}

	if *quizID == "" {
		if err := listQuizzes(ctx, client, os.Stdout); err != nil {
			log.Fatalf("list quizzes: %v", err)
		}
		return
	}

	if err := run(ctx, client, *quizID, zl, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func listQuizzes(ctx context.Context, client *apiclient.Client, w io.Writer) error {
	list, err := client.ListQuizzes(ctx, 1, 50)
	if err != nil {
		return err
	}
	if len(list.Quizzes) == 0 {
		fmt.Fprintln(w, "no quizzes yet")
		return nil
	}
	for _, q := range list.Quizzes {
		fmt.Fprintf(w, "%s  %-40s %2d questions  %s\n", q.ID, q.Title, q.QuestionCount, q.Difficulty)
	}
	return nil
}

func run(ctx context.Context, backend attempt.Backend, quizID string, zl *zap.Logger, in io.Reader, w io.Writer) error {
	session := attempt.NewSession(backend, quizID, attempt.WithLogger(zl))
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start attempt: %w", err)
	}
	quiz := session.Quiz()
	fmt.Fprintf(w, "%s (%d questions, %s)\n%s\n\n", quiz.Title, len(quiz.Questions), formatSeconds(session.Remaining()), help)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	status := time.NewTicker(500 * time.Millisecond)
	defer status.Stop()

	finished := false
	finish := func() {
		finished = true
		printResult(w, session)
		fmt.Fprintf(w, "\n%s\n> ", reviewHelp)
	}

	render(w, session)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-status.C:
			// 倒计时到期时会话自行提交
			if !finished && session.State() == attempt.StateCompleted {
				fmt.Fprintln(w, "\ntime is up, attempt submitted")
				finish()
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if finished {
				done, err := handleReview(session, line)
				if err != nil {
					fmt.Fprintf(w, "error: %v\n> ", err)
					continue
				}
				if done {
					return nil
				}
				renderReview(w, session)
				continue
			}
			done, err := handle(ctx, session, line)
			if err != nil {
				fmt.Fprintf(w, "error: %v\n", err)
			}
			if done {
				return nil
			}
			if session.State() == attempt.StateCompleted {
				finish()
				continue
			}
			render(w, session)
		}
	}
}

func handle(ctx context.Context, s *attempt.Session, line string) (bool, error) {
	switch {
	case line == ":q":
		return true, nil
	case line == ":n":
		s.Next()
	case line == ":p":
		s.Prev()
	case strings.HasPrefix(line, ":g"):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":g")))
		if err != nil {
			return false, fmt.Errorf("usage: :g N")
		}
		s.GoTo(n - 1)
	case line == ":f":
		q, ok := s.CurrentQuestion()
		if !ok {
			return false, nil
		}
		_, err := s.ToggleFlag(q.ID)
		return false, err
	case line == ":s":
		if _, err := s.Submit(ctx); err != nil {
			var apiErr *apiclient.APIError
			if errors.As(err, &apiErr) {
				return false, fmt.Errorf("submission failed: %s", apiErr.Message)
			}
			return false, err
		}
	case line == "":
	default:
		q, ok := s.CurrentQuestion()
		if !ok {
			return false, nil
		}
		if err := s.Answer(q.ID, resolveOption(q, line)); err != nil {
			return false, err
		}
		s.Next()
	}
	return false, nil
}

// resolveOption 选择题允许输入选项序号
func resolveOption(q api.Question, input string) string {
	if len(q.Options) == 0 {
		return input
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1]
	}
	return input
}

func render(w io.Writer, s *attempt.Session) {
	q, ok := s.CurrentQuestion()
	if !ok {
		fmt.Fprintln(w, "this quiz has no questions, :s to submit")
		return
	}
	quiz := s.Quiz()
	marker := ""
	if s.IsFlagged(q.ID) {
		marker = " [flagged]"
	}
	fmt.Fprintf(w, "\n[%d/%d] %s remaining, %.0f%% answered%s\n%s\n",
		s.CurrentIndex()+1, len(quiz.Questions), formatSeconds(s.Remaining()), s.Progress(), marker, q.Question)
	for i, opt := range q.Options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, opt)
	}
	if a, ok := s.AnswerFor(q.ID); ok {
		fmt.Fprintf(w, "  current answer: %s\n", a)
	}
	fmt.Fprint(w, "> ")
}

// handleReview 处理提交后的命令，只允许回看
func handleReview(s *attempt.Session, line string) (bool, error) {
	switch {
	case line == ":q":
		return true, nil
	case line == ":r":
		return false, s.Review()
	case s.State() != attempt.StateReviewing:
		return false, fmt.Errorf("attempt is over, %s", reviewHelp)
	case line == ":n":
		s.Next()
	case line == ":p":
		s.Prev()
	case strings.HasPrefix(line, ":g"):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":g")))
		if err != nil {
			return false, fmt.Errorf("usage: :g N")
		}
		s.GoTo(n - 1)
	case line == "":
	default:
		return false, fmt.Errorf("answers are read-only in review")
	}
	return false, nil
}

func renderReview(w io.Writer, s *attempt.Session) {
	q, ok := s.CurrentQuestion()
	if !ok {
		fmt.Fprint(w, "nothing to review\n> ")
		return
	}
	fmt.Fprintf(w, "\n[%d/%d] %s\n", s.CurrentIndex()+1, len(s.Quiz().Questions), q.Question)
	for i, opt := range q.Options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, opt)
	}
	res, ok := s.ResultFor(q.ID)
	switch {
	case !ok:
		fmt.Fprintln(w, "  not graded")
	case res.IsCorrect:
		fmt.Fprintf(w, "  %s correct: %q\n", resultMark(res), res.UserAnswer)
	case res.NeedsReview:
		fmt.Fprintf(w, "  %s needs manual review: %q\n", resultMark(res), res.UserAnswer)
	default:
		fmt.Fprintf(w, "  %s your answer: %q, correct: %q\n", resultMark(res), res.UserAnswer, res.CorrectAnswer)
	}
	if ok && res.Explanation != "" {
		fmt.Fprintf(w, "  %s\n", res.Explanation)
	}
	fmt.Fprint(w, "> ")
}

func resultMark(res api.AnswerResult) string {
	switch {
	case res.IsCorrect:
		return "✓"
	case res.NeedsReview:
		return "?"
	}
	return "x"
}

func printResult(w io.Writer, s *attempt.Session) {
	r := s.Result()
	if r == nil {
		return
	}
	verdict := "not passed"
	if r.Passed {
		verdict = "passed"
	}
	fmt.Fprintf(w, "\nscore %d%% (%s), %d/%d correct, time %s\n",
		r.Score, verdict, r.Summary.Correct, r.Summary.Total, formatSeconds(s.TimeSpent()))
	for i, q := range s.Quiz().Questions {
		res, ok := s.ResultFor(q.ID)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s %d. %s\n", resultMark(res), i+1, q.Question)
		if !res.IsCorrect && res.CorrectAnswer != "" {
			fmt.Fprintf(w, "    your answer: %q, correct: %q\n", res.UserAnswer, res.CorrectAnswer)
		}
	}
}

func formatSeconds(sec int) string {
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
