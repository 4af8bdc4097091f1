package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tokengate-xyz/go-tokengate/config"
)

func events(args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	since := fs.Uint64("since", 0, "First sequence number to print")
	kind := fs.String("kind", "", "Only print records of this kind")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: tokengate events [options]

Dump the change-record journal selected by TOKENGATE_JOURNAL, one JSON line
per record.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JournalBackend == config.JournalMemory {
		return fmt.Errorf("the memory journal has nothing to dump; set TOKENGATE_JOURNAL")
	}

	journal, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer journal.Close()

	records, err := journal.Read(context.Background(), *since)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if *kind != "" && string(rec.Kind) != *kind {
			continue
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", rec.Seq, rec.At.Format("2006-01-02T15:04:05Z07:00"), rec.Kind, rec.Payload)
	}
	return nil
}
