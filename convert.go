package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ruuvari-collector/internal/config"
	"ruuvari-collector/internal/event/application/dispatch"
	event "ruuvari-collector/internal/event/domain"
)

type convertedEvent struct {
	Source  string `json:"source"`
	Adapter string `json:"adapter"`
	event.Event
}

func newConvertCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "convert [file...]",
		Short: "Convert saved payloads to events printed as JSON lines",
		Long: `Reads each file (or stdin when none is given, or for "-"), converts it
with the configured adapter order and prints one JSON object per event.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			dispatcher, err := dispatch.NewDefault(cfg.Dispatch.Order, loc)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"-"}
			}
			return convertAll(dispatcher, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func convertAll(d *dispatch.Dispatcher, sources []string, stdin io.Reader, stdout, stderr io.Writer) error {
	enc := json.NewEncoder(stdout)
	failed := 0
	for _, source := range sources {
		raw, err := readSource(source, stdin)
		if err == nil {
			err = convertOne(d, source, raw, enc)
		}
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %s: %v\n", source, event.KindOf(err), err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("convert: %d of %d payloads failed", failed, len(sources))
	}
	return nil
}

func convertOne(d *dispatch.Dispatcher, source string, raw []byte, enc *json.Encoder) error {
	res, err := d.Dispatch(raw)
	if err != nil {
		return err
	}
	for _, evt := range res.Events {
		if err := enc.Encode(convertedEvent{Source: source, Adapter: res.Adapter, Event: evt}); err != nil {
			return err
		}
	}
	return nil
}

func readSource(source string, stdin io.Reader) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(source)
}
