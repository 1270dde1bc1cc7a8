/*
Copyright 2024 The Tributary Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tributary-io/tributary/pkg/engine"
	"github.com/tributary-io/tributary/pkg/event"
	"github.com/tributary-io/tributary/pkg/query"
	"github.com/tributary-io/tributary/pkg/shared/logging"
	"github.com/tributary-io/tributary/pkg/sink"
	"github.com/tributary-io/tributary/pkg/source"
)

// NewRunCommand runs a query spec against newline-delimited JSON records read
// from stdin and writes closed-window results to stdout as JSON.
func NewRunCommand() *cobra.Command {
	var (
		specFile  string
		streamID  string
		timeField string
		fields    []string
	)

	command := &cobra.Command{
		Use:   "run",
		Short: "Run a query over newline-delimited JSON events from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.NewLogger().Named("run")
			ctx, stop := signal.NotifyContext(logging.WithLogger(context.Background(), log), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			spec, err := query.Load(specFile)
			if err != nil {
				return err
			}
			schema, err := schemaFromFlags(fields, timeField)
			if err != nil {
				return err
			}

			src := source.NewLineSource(ctx, streamID, os.Stdin, event.NewDecoder(streamID, schema), spec.BufferSize)
			sk := sink.NewJSONSink("stdout", os.Stdout)

			pl, err := engine.NewPipeline(ctx, spec, []source.Sourcer{src}, sk)
			if err != nil {
				return err
			}
			defer func() { _ = pl.Close() }()

			log.Infow("Running query", "query", spec.ID, "spec", specFile)
			if err := pl.Run(ctx); err != nil {
				return fmt.Errorf("query %s failed: %w", spec.ID, err)
			}
			log.Infow("Query finished", "state", pl.State().String())
			return nil
		},
	}
	command.Flags().StringVar(&specFile, "spec", "", "Path to the query spec file (YAML or JSON)")
	command.Flags().StringVar(&streamID, "stream", "stdin", "Stream id of the input")
	command.Flags().StringVar(&timeField, "time-field", "time", "Name of the event-time field")
	command.Flags().StringSliceVar(&fields, "field", nil, "Schema field as name:type (string,int,float,bool,timestamp); repeatable")
	_ = command.MarkFlagRequired("spec")
	_ = command.MarkFlagRequired("field")
	return command
}

func schemaFromFlags(fields []string, timeField string) (*event.Schema, error) {
	parsed := make([]event.Field, 0, len(fields))
	for _, f := range fields {
		name, typ, ok := splitFieldFlag(f)
		if !ok {
			return nil, fmt.Errorf("invalid field flag %q, want name:type", f)
		}
		ft, err := fieldType(typ)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, event.Field{Name: name, Type: ft})
	}
	return event.NewSchema(parsed, timeField)
}

func splitFieldFlag(f string) (string, string, bool) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == ':' {
			return f[:i], f[i+1:], i > 0 && i < len(f)-1
		}
	}
	return "", "", false
}

func fieldType(t string) (event.FieldType, error) {
	switch t {
	case "string":
		return event.String, nil
	case "int":
		return event.Int, nil
	case "float":
		return event.Float, nil
	case "bool":
		return event.Bool, nil
	case "timestamp":
		return event.Timestamp, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", t)
	}
}
