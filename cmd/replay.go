package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/inkwell-ai/inkwell/pkg/config"
	"github.com/inkwell-ai/inkwell/pkg/conversation"
	"github.com/inkwell-ai/inkwell/pkg/trace"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <session-id>",
	Short: "Load a session and print its active path and render state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session id %q", args[0])
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		record, err := store.LoadSession(context.Background(), id)
		if err != nil {
			return err
		}

		session, state := conversation.Bootstrap(
			record.Messages, record.CurrentCode, config.Get().Agents.DefaultKind)

		path := conversation.Resolve(session.Pool, session.Selected)
		fmt.Printf("session %d: %s (%d versions, %d turns on active path)\n\n",
			record.Info.ID, record.Info.Title, len(session.Pool), len(path))

		for _, m := range path {
			siblings := session.SiblingsAt(m.Turn)
			version := ""
			if len(siblings) > 1 {
				version = fmt.Sprintf(" [version %d of %d]", siblingIndex(siblings, m.ID)+1, len(siblings))
			}
			fmt.Printf("%2d %-10s%s %s\n", m.Turn, m.Role+":", version, firstLine(m.Content))

			for _, pair := range trace.PairAgentResults(m.Steps) {
				marker := "-"
				if pair.ResultIndex >= 0 {
					marker = "+"
				}
				fmt.Printf("     %s agent %s (%d bytes)\n", marker, pair.Agent, len(pair.Result))
			}
		}

		fmt.Printf("\nrender state: kind=%s active=%d code=%d bytes\n",
			state.Kind, state.ActiveID, len(state.Code))
		return nil
	},
}

func siblingIndex(siblings []*conversation.Message, id int64) int {
	for i, s := range siblings {
		if s.ID == id {
			return i
		}
	}
	return len(siblings) - 1
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
