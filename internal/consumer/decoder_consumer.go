package consumer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// StdinCommand makes the consumer read the decoder output from its input reader.
const StdinCommand = "-"

// Longer lines are skipped.
const maxLineSize = 1024 * 1024

// LineHandler receives every decoder line, newline stripped.
type LineHandler func(ctx context.Context, line string)

// DecoderConsumer runs the FLEX decoder pipeline and feeds its output to a handler.
type DecoderConsumer struct {
	command string
	input   io.Reader
	handler LineHandler
	logger  *zap.Logger
	maxLine int
}

// NewDecoderConsumer creates a consumer. With command "-" lines are read from
// input (os.Stdin when nil); otherwise command is run through sh -c.
func NewDecoderConsumer(command string, input io.Reader, handler LineHandler, logger *zap.Logger) *DecoderConsumer {
	if input == nil {
		input = os.Stdin
	}
	return &DecoderConsumer{
		command: command,
		input:   input,
		handler: handler,
		logger:  logger,
		maxLine: maxLineSize,
	}
}

// Start blocks until the stream ends or ctx is cancelled.
func (c *DecoderConsumer) Start(ctx context.Context) error {
	if c.command == StdinCommand {
		c.logger.Info("Reading decoder output from stdin")
		return c.scan(ctx, c.input)
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", c.command)
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open decoder output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start decoder: %w", err)
	}
	c.logger.Info("Decoder started", zap.String("command", c.command), zap.Int("pid", cmd.Process.Pid))

	// children of sh may keep the pipe open after sh is killed
	stop := context.AfterFunc(ctx, func() { stdout.Close() })
	defer stop()

	scanErr := c.scan(ctx, stdout)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil
	}
	if scanErr != nil {
		return scanErr
	}
	if waitErr != nil {
		return fmt.Errorf("decoder exited: %w", waitErr)
	}
	c.logger.Info("Decoder output ended")
	return nil
}

func (c *DecoderConsumer) scan(ctx context.Context, r io.Reader) error {
	// invalid UTF-8 becomes U+FFFD
	reader := bufio.NewReaderSize(transform.NewReader(r, unicode.UTF8.NewDecoder()), 64*1024)

	var line []byte
	tooLong := false
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to read decoder output: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		if !tooLong {
			if len(line)+len(chunk) > c.maxLine {
				tooLong = true
			} else {
				line = append(line, chunk...)
			}
		}
		if isPrefix {
			continue
		}

		if tooLong {
			c.logger.Warn("Skipping over-long decoder line", zap.Int("max_bytes", c.maxLine))
		} else {
			c.handler(ctx, string(line))
		}
		line = line[:0]
		tooLong = false
	}
}

// CheckRequirements verifies that every program in the decoder pipeline is on PATH.
func CheckRequirements(command string) error {
	if command == StdinCommand {
		return nil
	}

	var missing []string
	for _, stage := range strings.Split(command, "|") {
		fields := strings.Fields(stage)
		if len(fields) == 0 {
			continue
		}
		if _, err := exec.LookPath(fields[0]); err != nil {
			missing = append(missing, fields[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("decoder programs not found on PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}
