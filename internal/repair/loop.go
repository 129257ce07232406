// Package repair drives the generate-execute-repair conversation with the
// language model. One Run call owns one transcript: the system prompt and
// question are seeded exactly once, and every failed execution feeds a
// corrective message back into the same conversation instead of starting
// over.
package repair

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/queryloom/queryloom/internal/executor"
	"github.com/queryloom/queryloom/internal/llm"
	"github.com/queryloom/queryloom/internal/observability"
	"github.com/queryloom/queryloom/internal/pricing"
	"github.com/queryloom/queryloom/internal/prompt"
)

const DefaultMaxRetries = 3

// Terminal states of one Run. An exhausted error budget yields no table;
// an exhausted empty budget yields the last empty table, which is a valid
// answer.
const (
	StateSuccess   = "success"
	StateEmpty     = "empty"
	StateExhausted = "exhausted"
)

// Request is one translation job: the user's question plus the retrieved
// schema texts and the deployment context paragraph for the system prompt.
type Request struct {
	Question string
	Context  string
	Schemas  []string
}

// Attempt records one generate-execute round.
type Attempt struct {
	SQL  string
	Cost float64
	Err  string
	Rows int

	PromptTokens     int
	CompletionTokens int
}

// Result is the terminal outcome of a Run. TotalCost accumulates across all
// attempts, including failed ones; the spend happened either way.
type Result struct {
	State      string
	SQL        string
	Table      executor.Table
	Attempts   []Attempt
	TotalCost  float64
	Transcript llm.Transcript
	LastError  string
}

type Loop struct {
	client     llm.Client
	exec       executor.Executor
	maxRetries int
	logger     *slog.Logger
}

// New builds a repair loop. maxRetries bounds repair rounds after the first
// attempt, so the model is called at most maxRetries+1 times per Run.
func New(client llm.Client, exec executor.Executor, maxRetries int, logger *slog.Logger) *Loop {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{client: client, exec: exec, maxRetries: maxRetries, logger: logger}
}

// Run executes the repair loop to a terminal state. A non-nil error means
// the completion backend itself failed and no terminal state was reached;
// execution errors and empty results are handled inside the loop and never
// surface as Go errors.
func (l *Loop) Run(ctx context.Context, req Request) (Result, error) {
	transcript := llm.NewTranscript(prompt.System(req.Schemas, req.Context), req.Question)
	result := Result{Attempts: make([]Attempt, 0, l.maxRetries+1)}

	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		gen, err := l.client.Complete(ctx, transcript)
		if err != nil {
			result.Transcript = transcript
			return result, fmt.Errorf("completion attempt %d: %w", attempt, err)
		}

		cost := pricing.Estimate(gen.Model, gen.PromptTokens, gen.CompletionTokens)
		if _, known := pricing.Resolve(gen.Model); !known {
			l.logger.Warn("no pricing for model, recording zero cost", slog.String("model", gen.Model))
		}
		observability.ObserveCompletion(gen.PromptTokens, gen.CompletionTokens, cost)
		result.TotalCost += cost

		sqlText := llm.ExtractSQL(gen.Text)
		transcript = transcript.Append(llm.RoleAssistant, gen.Text)

		record := Attempt{
			SQL:              sqlText,
			Cost:             cost,
			PromptTokens:     gen.PromptTokens,
			CompletionTokens: gen.CompletionTokens,
		}

		table, execErr := l.exec.Execute(ctx, sqlText)
		if execErr != nil {
			record.Err = execErr.Error()
			result.Attempts = append(result.Attempts, record)
			l.logger.Warn("generated sql failed",
				slog.Int("attempt", attempt),
				slog.String("error", execErr.Error()),
			)
			if attempt == l.maxRetries {
				return l.finish(result, transcript, Result{
					State:     StateExhausted,
					SQL:       sqlText,
					LastError: execErr.Error(),
				})
			}
			transcript = transcript.Append(llm.RoleUser, prompt.ErrorCorrective(execErr.Error(), req.Question))
			continue
		}

		record.Rows = len(table.Rows)
		result.Attempts = append(result.Attempts, record)

		if table.Empty() {
			l.logger.Info("generated sql returned no rows", slog.Int("attempt", attempt))
			if attempt == l.maxRetries {
				return l.finish(result, transcript, Result{
					State: StateEmpty,
					SQL:   sqlText,
					Table: table,
				})
			}
			transcript = transcript.Append(llm.RoleUser, prompt.EmptyCorrective(req.Question, req.Schemas))
			continue
		}

		l.logger.Info("generated sql succeeded",
			slog.Int("attempt", attempt),
			slog.Int("rows", len(table.Rows)),
		)
		return l.finish(result, transcript, Result{
			State: StateSuccess,
			SQL:   sqlText,
			Table: table,
		})
	}

	// maxRetries is non-negative, so the loop body always reaches a
	// terminal state before falling through.
	result.Transcript = transcript
	return result, fmt.Errorf("repair loop ended without a terminal state")
}

func (l *Loop) finish(acc Result, transcript llm.Transcript, terminal Result) (Result, error) {
	terminal.Attempts = acc.Attempts
	terminal.TotalCost = acc.TotalCost
	terminal.Transcript = transcript
	observability.ObserveQuery(terminal.State, len(terminal.Attempts))
	return terminal, nil
}
