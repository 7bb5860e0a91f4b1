package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/talentmatch/messaging-service/internal/messenger"
	"github.com/talentmatch/messaging-service/internal/model"
)

const sendWait = 30 * time.Second

var (
	markReadFlag    bool
	applicationFlag bool
)

func init() {
	historyCmd.Flags().BoolVar(&markReadFlag, "mark-read", true, "mark the conversation read after printing it")
	sendCmd.Flags().BoolVar(&applicationFlag, "application", false, "send as an application cover letter")

	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sendCmd)
}

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List conversations, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openOneShot(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		conversations, err := b.session.LoadConversations(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWITH\tUNREAD\tUPDATED\tLAST MESSAGE")
		for _, c := range conversations {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				c.ID, c.Companion.DisplayName(), c.UnreadCount, c.UpdatedAt.Local().Format(time.DateTime), c.LastMessage)
		}
		return w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <conversation-id>",
	Short: "Print the messages of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openOneShot(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		messages, err := b.session.LoadHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		me := b.session.Identity()
		for _, m := range messages {
			author := m.SenderID
			if author == me {
				author = "you"
			}
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format(time.DateTime), author, m.Content)
		}

		if markReadFlag && messages.UnreadFor(me) > 0 {
			if _, err := b.session.MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <user-id> <text>",
	Short: "Send a message to a user",
	Long:  "Sends a message, creating the conversation when there is none yet, and waits until it is stored.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		receiverID, content := args[0], strings.Join(args[1:], " ")

		results := newResultObserver()
		b, err := openOneShot(cmd.Context(), messenger.WithObserver(results))
		if err != nil {
			return err
		}
		defer b.Close()

		ctx := cmd.Context()
		if err := b.session.Start(ctx); err != nil {
			return err
		}

		var msg model.Message
		if applicationFlag {
			msg, err = b.session.Contact(ctx, receiverID, content)
		} else {
			msg, err = b.session.Send(ctx, "", receiverID, content)
		}
		if err != nil {
			return err
		}
		if msg.ClientID == "" {
			return errors.New("nothing to send")
		}

		select {
		case r := <-results.done:
			if r.err != nil {
				return fmt.Errorf("message not sent: %w", r.err)
			}
			fmt.Printf("sent %s to conversation %s\n", r.message.ID, r.message.ConversationID)
			for _, e := range r.effects {
				if e.Err != nil {
					fmt.Fprintf(os.Stderr, "%s failed: %v\n", e.Effect.Name, e.Err)
				}
			}
			return nil
		case <-time.After(sendWait):
			return errors.New("timed out waiting for the message to be stored")
		case <-ctx.Done():
			return ctx.Err()
		}
	},
}

func openOneShot(ctx context.Context, opts ...messenger.Option) (*backend, error) {
	p, err := loadProfile()
	if err != nil {
		return nil, err
	}
	return openBackend(ctx, p, cliLogger{verbose: verboseFlag}, opts...)
}

type sendResult struct {
	message model.Message
	effects []messenger.SideEffectResult
	err     error
}

// resultObserver reports the outcome of the first send of the session.
type resultObserver struct {
	done chan sendResult
}

func newResultObserver() *resultObserver {
	return &resultObserver{done: make(chan sendResult, 1)}
}

func (o *resultObserver) ConversationsChanged(model.ConversationPreviewList) {}
func (o *resultObserver) MessagesChanged(string, model.MessageList)         {}

func (o *resultObserver) SendFailed(message model.Message, err error) {
	o.report(sendResult{message: message, err: err})
}

func (o *resultObserver) SideEffectsDone(message model.Message, results []messenger.SideEffectResult) {
	o.report(sendResult{message: message, effects: results})
}

func (o *resultObserver) report(r sendResult) {
	select {
	case o.done <- r:
	default:
	}
}
