package repair

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/queryloom/queryloom/internal/executor"
	"github.com/queryloom/queryloom/internal/llm"
)

type scriptedClient struct {
	generations []llm.Generation
	err         error
	calls       int
	transcripts []llm.Transcript
}

func (c *scriptedClient) Complete(_ context.Context, transcript llm.Transcript) (llm.Generation, error) {
	c.transcripts = append(c.transcripts, transcript)
	c.calls++
	if c.err != nil {
		return llm.Generation{}, c.err
	}
	if c.calls > len(c.generations) {
		return llm.Generation{}, fmt.Errorf("unexpected completion call %d", c.calls)
	}
	return c.generations[c.calls-1], nil
}

type execOutcome struct {
	table executor.Table
	err   error
}

type scriptedExecutor struct {
	outcomes []execOutcome
	calls    int
	sql      []string
}

func (e *scriptedExecutor) Execute(_ context.Context, sqlText string) (executor.Table, error) {
	e.sql = append(e.sql, sqlText)
	e.calls++
	if e.calls > len(e.outcomes) {
		return executor.Table{}, fmt.Errorf("unexpected execute call %d", e.calls)
	}
	out := e.outcomes[e.calls-1]
	return out.table, out.err
}

func gen(text string) llm.Generation {
	return llm.Generation{Text: text, Model: "gpt-4-0125-preview", PromptTokens: 100, CompletionTokens: 20}
}

func rowsTable(n int) executor.Table {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{"p1"}
	}
	return executor.Table{Columns: []string{"Id"}, Rows: rows}
}

func testRequest() Request {
	return Request{
		Question: "how many patients have asthma",
		Context:  "synthetic hospital records",
		Schemas:  []string{"CREATE TABLE conditions (Id TEXT, DESCRIPTION TEXT);"},
	}
}

func TestRunSucceedsOnFirstAttempt(t *testing.T) {
	client := &scriptedClient{generations: []llm.Generation{gen("SELECT COUNT(*) FROM conditions;")}}
	exec := &scriptedExecutor{outcomes: []execOutcome{{table: rowsTable(1)}}}

	result, err := New(client, exec, 3, slog.New(slog.DiscardHandler)).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.State != StateSuccess {
		t.Fatalf("State = %q, want %q", result.State, StateSuccess)
	}
	if client.calls != 1 {
		t.Fatalf("completion calls = %d, want 1", client.calls)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(result.Attempts))
	}
	// seed pair plus the final assistant reply, no correctives
	if result.Transcript.Len() != 3 {
		t.Fatalf("transcript length = %d, want 3", result.Transcript.Len())
	}
	if result.SQL != "SELECT COUNT(*) FROM conditions;" {
		t.Fatalf("SQL = %q", result.SQL)
	}
}

func TestRunRepairsAfterExecutionError(t *testing.T) {
	client := &scriptedClient{generations: []llm.Generation{
		gen("SELECT AGE FROM conditions;"),
		gen("SELECT COUNT(*) FROM conditions;"),
	}}
	exec := &scriptedExecutor{outcomes: []execOutcome{
		{err: errors.New("no such column: AGE")},
		{table: rowsTable(2)},
	}}

	result, err := New(client, exec, 3, slog.New(slog.DiscardHandler)).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.State != StateSuccess {
		t.Fatalf("State = %q, want %q", result.State, StateSuccess)
	}
	if client.calls != 2 {
		t.Fatalf("completion calls = %d, want 2", client.calls)
	}
	if result.Attempts[0].Err != "no such column: AGE" {
		t.Fatalf("Attempts[0].Err = %q", result.Attempts[0].Err)
	}

	// The second call must see the corrective message carrying the
	// database's literal error text.
	second := client.transcripts[1].Messages()
	last := second[len(second)-1]
	if last.Role != llm.RoleUser {
		t.Fatalf("last message role = %q, want user", last.Role)
	}
	if !strings.Contains(last.Content, "no such column: AGE") {
		t.Fatalf("corrective message lost the error text:\n%s", last.Content)
	}
	// seed pair plus two assistant replies and one corrective
	if result.Transcript.Len() != 5 {
		t.Fatalf("transcript length = %d, want 5", result.Transcript.Len())
	}
}

func TestRunErrorExhaustionYieldsNoTable(t *testing.T) {
	maxRetries := 2
	client := &scriptedClient{generations: []llm.Generation{
		gen("SELECT AGE FROM conditions;"),
		gen("SELECT AGE FROM conditions;"),
		gen("SELECT AGE FROM conditions;"),
	}}
	exec := &scriptedExecutor{outcomes: []execOutcome{
		{err: errors.New("no such column: AGE")},
		{err: errors.New("no such column: AGE")},
		{err: errors.New("no such column: AGE")},
	}}

	result, err := New(client, exec, maxRetries, slog.New(slog.DiscardHandler)).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.State != StateExhausted {
		t.Fatalf("State = %q, want %q", result.State, StateExhausted)
	}
	if client.calls != maxRetries+1 {
		t.Fatalf("completion calls = %d, want %d", client.calls, maxRetries+1)
	}
	if result.Table.Columns != nil || result.Table.Rows != nil {
		t.Fatalf("exhausted result carries a table: %#v", result.Table)
	}
	if result.LastError != "no such column: AGE" {
		t.Fatalf("LastError = %q", result.LastError)
	}
}

func TestRunEmptyExhaustionAcceptsEmptyTable(t *testing.T) {
	maxRetries := 1
	client := &scriptedClient{generations: []llm.Generation{
		gen("SELECT * FROM conditions WHERE 1=0;"),
		gen("SELECT * FROM conditions WHERE 1=0;"),
	}}
	empty := executor.Table{Columns: []string{"Id"}, Rows: [][]any{}}
	exec := &scriptedExecutor{outcomes: []execOutcome{{table: empty}, {table: empty}}}

	result, err := New(client, exec, maxRetries, slog.New(slog.DiscardHandler)).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.State != StateEmpty {
		t.Fatalf("State = %q, want %q", result.State, StateEmpty)
	}
	if client.calls != maxRetries+1 {
		t.Fatalf("completion calls = %d, want %d", client.calls, maxRetries+1)
	}
	if result.Table.Rows == nil || len(result.Table.Rows) != 0 {
		t.Fatalf("empty result table = %#v, want zero-row table", result.Table)
	}

	// The repair round restates the question rather than an error.
	second := client.transcripts[1].Messages()
	last := second[len(second)-1]
	if !strings.Contains(last.Content, "returned no results") {
		t.Fatalf("corrective message is not the empty-result prompt:\n%s", last.Content)
	}
}

func TestRunAccumulatesCostAcrossAttempts(t *testing.T) {
	client := &scriptedClient{generations: []llm.Generation{
		gen("SELECT AGE FROM conditions;"),
		gen("SELECT COUNT(*) FROM conditions;"),
	}}
	exec := &scriptedExecutor{outcomes: []execOutcome{
		{err: errors.New("no such column: AGE")},
		{table: rowsTable(1)},
	}}

	result, err := New(client, exec, 3, slog.New(slog.DiscardHandler)).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// gpt-4-0125-preview: 100 prompt tokens at $10/M plus 20 completion
	// tokens at $30/M per attempt.
	perAttempt := 100*10.0/1e6 + 20*30.0/1e6
	want := 2 * perAttempt
	if diff := result.TotalCost - want; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("TotalCost = %v, want %v", result.TotalCost, want)
	}
	if result.Attempts[0].Cost != perAttempt {
		t.Fatalf("Attempts[0].Cost = %v, want %v", result.Attempts[0].Cost, perAttempt)
	}
}

func TestRunAbortsWhenCompletionFails(t *testing.T) {
	client := &scriptedClient{err: errors.New("backend unavailable")}
	exec := &scriptedExecutor{}

	_, err := New(client, exec, 3, slog.New(slog.DiscardHandler)).Run(context.Background(), testRequest())
	if err == nil {
		t.Fatal("Run() expected error when the completion backend fails")
	}
	if !strings.Contains(err.Error(), "backend unavailable") {
		t.Fatalf("error = %v", err)
	}
	if exec.calls != 0 {
		t.Fatalf("executor ran %d times after a failed completion", exec.calls)
	}
}

func TestRunStripsMarkdownFenceBeforeExecution(t *testing.T) {
	client := &scriptedClient{generations: []llm.Generation{
		gen("```sql\nSELECT COUNT(*) FROM conditions;\n```"),
	}}
	exec := &scriptedExecutor{outcomes: []execOutcome{{table: rowsTable(1)}}}

	result, err := New(client, exec, 3, slog.New(slog.DiscardHandler)).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if exec.sql[0] != "SELECT COUNT(*) FROM conditions;" {
		t.Fatalf("executed sql = %q, fence not stripped", exec.sql[0])
	}
	if result.SQL != "SELECT COUNT(*) FROM conditions;" {
		t.Fatalf("Result.SQL = %q", result.SQL)
	}
}
