package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"legal-rag-be/pkg/events"
	pktNats "legal-rag-be/pkg/nats"

	"github.com/spf13/cobra"
)

var eventsDurable string

var eventsCmd = &cobra.Command{
	Use:   "events [subject]",
	Short: "Tail domain events from NATS",
	Long: `Prints document.ingested, document.deleted, session.deleted and
answer.generated events as they are published. subject defaults to "events.>".
Requires NATS_URL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsDurable, "durable", "", "durable consumer name; empty tails new events only")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	if cfg.App.NatsURL == "" {
		return errors.New("NATS_URL is not set")
	}
	subject := "events.>"
	if len(args) > 0 {
		subject = args[0]
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	headColor.Fprintf(out, "Tailing %s\n", subject)
	return sub.Subscribe(ctx, subject, eventsDurable, func(ctx context.Context, event events.Event) error {
		printEvent(out, event)
		return nil
	})
}

func printEvent(w io.Writer, event events.Event) {
	payload := event.Payload()
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k != "occurred_at" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = fmt.Sprintf("%s=%v", k, payload[k])
	}

	c := okColor
	switch event.EventType() {
	case events.TypeDocumentDeleted, events.TypeSessionDeleted:
		c = warnColor
	case events.TypeAnswerGenerated:
		c = headColor
	}
	fmt.Fprintf(w, "%s ", event.Timestamp().Local().Format(time.TimeOnly))
	c.Fprintf(w, "%-18s", event.EventType())
	fmt.Fprintf(w, " %s\n", strings.Join(fields, " "))
}
