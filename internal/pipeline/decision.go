package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// DecisionSource decides what to do with one classified, drafted lead.
// The unattended gate and the interactive reviewer both implement it, so
// the driver runs the same loop in both modes.
type DecisionSource interface {
	Decide(ctx context.Context, lead model.Lead, cls model.Classification, draft string) (model.Decision, error)
}

// GateDecision is the unattended source: every lead is approved (the draft
// is always saved) and SendNow comes from the dispatch gate.
type GateDecision struct {
	AutoSend  bool
	Threshold model.Category
}

func (g *GateDecision) Decide(ctx context.Context, lead model.Lead, cls model.Classification, draft string) (model.Decision, error) {
	return model.Decision{
		Action:  model.ActionApprove,
		Content: draft,
		SendNow: ShouldSend(cls.Category, g.Threshold, g.AutoSend),
	}, nil
}

// StdinDecision is the interactive source: it prints the classification and
// draft, then prompts until it gets a valid action.
type StdinDecision struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdinDecision builds an interactive decision source reading from in
// and writing prompts to out.
func NewStdinDecision(in io.Reader, out io.Writer) *StdinDecision {
	return &StdinDecision{in: bufio.NewReader(in), out: out}
}

func (s *StdinDecision) Decide(ctx context.Context, lead model.Lead, cls model.Classification, draft string) (model.Decision, error) {
	s.printReview(lead, cls, draft)

	for {
		if err := ctx.Err(); err != nil {
			return model.Decision{}, err
		}

		answer, err := s.prompt("Action? [A]pprove / [S]end Email / [E]dit / [R]eject / [Skip]: ")
		if err != nil {
			return model.Decision{}, err
		}

		switch strings.ToUpper(answer) {
		case "A":
			return model.Decision{Action: model.ActionApprove, Content: draft}, nil

		case "S":
			return model.Decision{Action: model.ActionApprove, Content: draft, SendNow: true}, nil

		case "E":
			edited, err := s.readEdited()
			if err != nil {
				return model.Decision{}, err
			}
			sendChoice, err := s.prompt("Send this edited email? [Y/N]: ")
			if err != nil {
				return model.Decision{}, err
			}
			return model.Decision{
				Action:  model.ActionApprove,
				Content: edited,
				SendNow: strings.EqualFold(sendChoice, "Y"),
			}, nil

		case "R":
			reason, err := s.prompt("Rejection reason (optional): ")
			if err != nil {
				return model.Decision{}, err
			}
			return model.Decision{Action: model.ActionReject, Content: reason}, nil

		case "SKIP":
			return model.Decision{Action: model.ActionSkip}, nil

		default:
			fmt.Fprintln(s.out, "Invalid option. Choose A/S/E/R/Skip")
		}
	}
}

func (s *StdinDecision) printReview(lead model.Lead, cls model.Classification, draft string) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(s.out, "\n%s\nCLASSIFICATION RESULTS — %s (%s)\n%s\n", rule, lead.Name, lead.Email, rule)
	fmt.Fprintf(s.out, "Category:    %s\n", cls.Category)
	fmt.Fprintf(s.out, "Intent:      %s\n", cls.Intent)
	fmt.Fprintf(s.out, "Urgency:     %s\n", cls.Urgency)
	fmt.Fprintf(s.out, "Next Action: %s\n", cls.NextAction)
	fmt.Fprintf(s.out, "\nReasoning: %s\n", cls.Reasoning)
	fmt.Fprintf(s.out, "\n%s\nDRAFT EMAIL\n%s\n%s\n%s\n\n", rule, rule, draft, rule)
}

func (s *StdinDecision) prompt(msg string) (string, error) {
	fmt.Fprint(s.out, msg)
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", eris.Wrap(err, "review: read input")
	}
	return strings.TrimSpace(line), nil
}

// readEdited collects replacement email lines until a line containing only
// END.
func (s *StdinDecision) readEdited() (string, error) {
	fmt.Fprintln(s.out, "\nPaste edited email (type 'END' on a new line):")
	var lines []string
	for {
		line, err := s.in.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "END" {
			break
		}
		if err != nil {
			if err == io.EOF {
				return "", eris.New("review: edit ended without END marker")
			}
			return "", eris.Wrap(err, "review: read edited email")
		}
		lines = append(lines, trimmed)
	}
	return strings.Join(lines, "\n"), nil
}
