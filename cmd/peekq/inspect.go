package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"peekq/internal/config"
	"peekq/internal/inspection"
	"peekq/pkg/models"
)

type inspectOptions struct {
	file        string
	contentType string
	base64Input bool
	inspector   config.InspectorConfig
}

func inspectCmd() *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Classify and decode one payload from a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if opts.file != "" && opts.file != "-" {
				f, err := os.Open(opts.file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", opts.file, err)
				}
				defer f.Close()
				in = f
			}
			return runInspect(cmd.Context(), in, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Payload file, stdin when empty")
	cmd.Flags().StringVar(&opts.contentType, "content-type", "", "Declared content type")
	cmd.Flags().BoolVar(&opts.base64Input, "base64", false, "Input is base64 encoded")
	cmd.Flags().BoolVar(&opts.inspector.Base64Preview, "base64-preview", false, "Include a base64 preview for binary payloads")

	return cmd
}

func runInspect(ctx context.Context, in io.Reader, out io.Writer, opts inspectOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	if opts.base64Input {
		decoded, err := base64.StdEncoding.DecodeString(string(trimNewline(body)))
		if err != nil {
			return fmt.Errorf("invalid base64 payload: %w", err)
		}
		body = decoded
	}

	source := opts.file
	if source == "" {
		source = "stdin"
	}

	report := inspection.NewService(opts.inspector).Inspect(ctx, models.Delivery{
		Body:        body,
		Headers:     map[string]string{models.HeaderMessageID: uuid.NewString()},
		ContentType: opts.contentType,
		Source:      source,
		ReceivedAt:  time.Now(),
	})

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
