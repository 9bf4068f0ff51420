package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/stresslens/internal/llm"
	"github.com/abhisek/stresslens/internal/store"
	"github.com/abhisek/stresslens/internal/ui/theme"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the audit log of model calls",
}

// withEvents opens the audit database for the duration of fn.
func withEvents(cmd *cobra.Command, fn func(store.EventRepo) error) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	return fn(s.EventRepo())
}

// eventJSON is the --json shape of a recorded call.
type eventJSON struct {
	ID           int       `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Purpose      string    `json:"purpose"`
	RequestID    string    `json:"request_id,omitempty"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	LatencyMs    int64     `json:"latency_ms"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	Request      string    `json:"request,omitempty"`
	Response     string    `json:"response,omitempty"`
}

func toEventJSON(e store.LLMEvent, bodies bool) eventJSON {
	out := eventJSON{
		ID:           e.ID,
		Timestamp:    e.Timestamp,
		Provider:     e.Provider,
		Model:        e.Model,
		Purpose:      e.Purpose,
		RequestID:    e.RequestID,
		InputTokens:  e.InputTokens,
		OutputTokens: e.OutputTokens,
		LatencyMs:    e.LatencyMs,
		Success:      e.Success,
		Error:        e.ErrorMessage,
	}
	if bodies {
		out.Request = e.RequestBody
		out.Response = e.ResponseBody
	}
	return out
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.QueryOpts{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Purpose, _ = cmd.Flags().GetString("purpose")
		opts.Failed, _ = cmd.Flags().GetBool("failed")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			opts.From = time.Now().Add(-since)
		}

		return withEvents(cmd, func(repo store.EventRepo) error {
			events, err := repo.QueryLLMEvents(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			if wantJSON(cmd) {
				out := make([]eventJSON, 0, len(events))
				for _, e := range events {
					out = append(out, toEventJSON(e, false))
				}
				return printJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(w, "No model calls recorded.")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				status := "ok"
				if !e.Success {
					status = "failed"
				}
				rows = append(rows, []string{
					strconv.Itoa(e.ID),
					e.Timestamp.Local().Format(timeLayout),
					e.Purpose,
					e.Model,
					fmt.Sprintf("%d/%d", e.InputTokens, e.OutputTokens),
					strconv.FormatInt(e.LatencyMs, 10),
					status,
				})
			}
			fmt.Fprintln(w, theme.Table(
				[]string{"ID", "Time", "Purpose", "Model", "Tokens in/out", "Ms", "Status"}, rows))
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply captured for one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		return withEvents(cmd, func(repo store.EventRepo) error {
			e, err := repo.GetLLMEvent(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("no model call with id %d", id)
			}
			if wantJSON(cmd) {
				return printJSON(cmd, toEventJSON(*e, true))
			}

			w := cmd.OutOrStdout()
			field := func(label, value string) {
				fmt.Fprintln(w, theme.Label.Render(label)+value)
			}
			field("Time", e.Timestamp.Local().Format(timeLayout))
			field("Provider", e.Provider)
			field("Model", e.Model)
			field("Purpose", e.Purpose)
			if e.RequestID != "" {
				field("Request ID", e.RequestID)
			}
			field("Tokens", fmt.Sprintf("%d in, %d out", e.InputTokens, e.OutputTokens))
			field("Latency", (time.Duration(e.LatencyMs) * time.Millisecond).String())
			if e.Success {
				field("Status", "ok")
			} else {
				field("Status", theme.Warning.Render("failed: "+e.ErrorMessage))
			}

			for _, section := range []struct{ heading, body string }{
				{"Prompt", e.RequestBody},
				{"Reply", e.ResponseBody},
			} {
				body := section.body
				if body == "" {
					body = theme.Hint.Render("(not captured)")
				}
				fmt.Fprintln(w)
				fmt.Fprintln(w, theme.Title.Render(section.heading))
				fmt.Fprintln(w, strings.TrimRight(body, "\n"))
			}
			return nil
		})
	},
}

// usageJSON is the --json shape of llm stats.
type usageJSON struct {
	Purposes []store.PurposeUsage `json:"purposes"`
	Models   []modelCostJSON      `json:"models"`
	TotalUSD float64              `json:"total_usd"`
	Unpriced []string             `json:"unpriced,omitempty"`
}

type modelCostJSON struct {
	store.ModelUsage
	CostUSD *float64 `json:"cost_usd"`
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEvents(cmd, func(repo store.EventRepo) error {
			ctx := cmd.Context()
			purposes, err := repo.LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			models, err := repo.LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}

			usage := usageJSON{Purposes: purposes}
			for _, m := range models {
				row := modelCostJSON{ModelUsage: m}
				if price := llm.LookupCost(m.Model); price != nil {
					c := price.Cost(m.InputTokens, m.OutputTokens)
					row.CostUSD = &c
					usage.TotalUSD += c
				} else {
					usage.Unpriced = append(usage.Unpriced, m.Model)
				}
				usage.Models = append(usage.Models, row)
			}
			if wantJSON(cmd) {
				return printJSON(cmd, usage)
			}

			w := cmd.OutOrStdout()
			if len(purposes) == 0 {
				fmt.Fprintln(w, "No model calls recorded.")
				return nil
			}
			printPurposeUsage(cmd, purposes)
			printModelCost(cmd, usage)
			return nil
		})
	},
}

func printPurposeUsage(cmd *cobra.Command, purposes []store.PurposeUsage) {
	var total store.PurposeUsage
	rows := make([][]string, 0, len(purposes)+1)
	for _, p := range purposes {
		rows = append(rows, []string{
			p.Purpose,
			strconv.Itoa(p.Calls),
			strconv.Itoa(p.Failures),
			strconv.Itoa(p.InputTokens),
			strconv.Itoa(p.OutputTokens),
			strconv.FormatInt(p.AvgLatencyMs, 10),
		})
		total.Calls += p.Calls
		total.Failures += p.Failures
		total.InputTokens += p.InputTokens
		total.OutputTokens += p.OutputTokens
	}
	rows = append(rows, []string{"total",
		strconv.Itoa(total.Calls),
		strconv.Itoa(total.Failures),
		strconv.Itoa(total.InputTokens),
		strconv.Itoa(total.OutputTokens),
		"",
	})

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, theme.Title.Render("By purpose"))
	fmt.Fprintln(w, theme.Table(
		[]string{"Purpose", "Calls", "Failed", "Input", "Output", "Avg ms"}, rows))
}

func printModelCost(cmd *cobra.Command, usage usageJSON) {
	if len(usage.Models) == 0 {
		return
	}
	rows := make([][]string, 0, len(usage.Models)+1)
	for _, m := range usage.Models {
		cost := "?"
		if m.CostUSD != nil {
			cost = formatCost(*m.CostUSD)
		}
		rows = append(rows, []string{
			m.Model,
			strconv.Itoa(m.Calls),
			strconv.Itoa(m.InputTokens),
			strconv.Itoa(m.OutputTokens),
			cost,
		})
	}
	label := "total"
	if len(usage.Unpriced) > 0 {
		label = "total (partial)"
	}
	rows = append(rows, []string{label, "", "", "", formatCost(usage.TotalUSD)})

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Title.Render("Estimated cost (USD)"))
	fmt.Fprintln(w, theme.Table([]string{"Model", "Calls", "Input", "Output", "Cost"}, rows))
	if len(usage.Unpriced) > 0 {
		fmt.Fprintln(w, theme.Hint.Render("No pricing for "+strings.Join(usage.Unpriced, ", ")))
	}
}

var llmPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit rows older than a cutoff",
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")
		if !cmd.Flags().Changed("older-than") {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			age = cfg.Store.Retention
		}
		if age <= 0 {
			return fmt.Errorf("--older-than must be positive (or set store.retention)")
		}

		return withEvents(cmd, func(repo store.EventRepo) error {
			cutoff := time.Now().Add(-age)
			n, err := repo.PruneLLMEvents(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d model calls recorded before %s.\n",
				n, cutoff.Local().Format(timeLayout))
			return nil
		})
	},
}

// formatCost keeps sub-cent amounts visible.
func formatCost(usd float64) string {
	if usd > 0 && usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Maximum number of calls to show (0 for all)")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose (e.g. insight.chat)")
	llmListCmd.Flags().Duration("since", 0, "Only show calls newer than this (e.g. 24h)")
	llmListCmd.Flags().Bool("failed", false, "Only show failed calls")
	llmPruneCmd.Flags().Duration("older-than", 0, "Age cutoff (default: store.retention from config)")
	for _, c := range []*cobra.Command{llmListCmd, llmViewCmd, llmStatsCmd} {
		c.Flags().Bool("json", false, "Print JSON instead of formatted output")
	}

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd, llmPruneCmd)
}
