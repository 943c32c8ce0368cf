package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Quick add a task from a short phrase",
	Long: `Quickly add a task from free text.

Markers are removed from the title:
  !           important
  !!          important and urgent
  #important  important
  #urgent     urgent
  today, tomorrow, next week, [by|next] monday..sunday, YYYY-MM-DD
              deadline at the end of that day

A deadline decides urgency on its own: less than 72 hours away is urgent.

Examples:
  quadra add "Buy groceries"
  quadra add "Renew passport by friday !"
  quadra add "Answer the auditor !!"
  quadra add "Book dentist #urgent"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		parsed := ParseQuickAdd(strings.Join(args, " "), time.Now())

		created, err := app.CreateTaskHandler.Handle(cmd.Context(), commands.CreateTaskCommand{
			Title:       parsed.Title,
			IsImportant: parsed.Important,
			IsUrgent:    parsed.Urgent,
			DeadlineAt:  parsed.Deadline,
		})
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Task created!")
		PrintTaskLine(out, *created)
		return nil
	},
}

// QuickAdd is a task parsed from a short phrase.
type QuickAdd struct {
	Title     string
	Important bool
	Urgent    *bool
	Deadline  *time.Time
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseQuickAdd pulls importance, urgency and deadline markers out of input.
// The first date marker wins; later ones stay in the title.
func ParseQuickAdd(input string, now time.Time) QuickAdd {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var (
		result QuickAdd
		day    *time.Time
		kept   []string
	)
	setDay := func(d time.Time) bool {
		if day != nil {
			return false
		}
		day = &d
		return true
	}

	tokens := strings.Fields(input)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		lower := strings.ToLower(tok)
		next := ""
		if i+1 < len(tokens) {
			next = strings.ToLower(tokens[i+1])
		}

		switch {
		case tok == "!":
			result.Important = true
			continue
		case tok == "!!":
			result.Important = true
			result.setUrgent()
			continue
		case lower == "#important":
			result.Important = true
			continue
		case lower == "#urgent":
			result.setUrgent()
			continue
		case lower == "today":
			if setDay(today) {
				continue
			}
		case lower == "tomorrow":
			if setDay(today.AddDate(0, 0, 1)) {
				continue
			}
		case lower == "next" && next == "week":
			if setDay(today.AddDate(0, 0, 7)) {
				i++
				continue
			}
		case (lower == "by" || lower == "next" || lower == "on") && isWeekday(next):
			if setDay(nextWeekday(today, weekdays[next])) {
				i++
				continue
			}
		case isWeekday(lower):
			if setDay(nextWeekday(today, weekdays[lower])) {
				continue
			}
		default:
			if d, err := time.ParseInLocation("2006-01-02", tok, now.Location()); err == nil && setDay(d) {
				continue
			}
		}
		kept = append(kept, tok)
	}

	if day != nil {
		endOfDay := day.Add(24*time.Hour - time.Second)
		result.Deadline = &endOfDay
	}
	result.Title = trimFillers(kept)
	return result
}

func (q *QuickAdd) setUrgent() {
	urgent := true
	q.Urgent = &urgent
}

func isWeekday(s string) bool {
	_, ok := weekdays[s]
	return ok
}

// nextWeekday returns the next date after from that falls on target.
func nextWeekday(from time.Time, target time.Weekday) time.Time {
	days := int(target) - int(from.Weekday())
	if days <= 0 {
		days += 7
	}
	return from.AddDate(0, 0, days)
}

// trimFillers drops connecting words left dangling at either end.
func trimFillers(words []string) string {
	isFiller := func(w string) bool {
		switch strings.ToLower(w) {
		case "by", "on", "due", "for", "at":
			return true
		}
		return false
	}
	for len(words) > 0 && isFiller(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	for len(words) > 0 && isFiller(words[0]) {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

func init() {
	rootCmd.AddCommand(addCmd)
}
