package consumer

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) handle(_ context.Context, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func TestDecoderConsumer_Stdin(t *testing.T) {
	rec := &lineRecorder{}
	input := strings.NewReader("FLEX|first\nFLEX|bad \xff byte\n")

	c := NewDecoderConsumer(StdinCommand, input, rec.handle, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))

	require.Len(t, rec.lines, 2)
	assert.Equal(t, "FLEX|first", rec.lines[0])
	assert.Equal(t, "FLEX|bad � byte", rec.lines[1])
}

func TestDecoderConsumer_SkipsOverLongLines(t *testing.T) {
	rec := &lineRecorder{}
	input := strings.NewReader("short\n" + strings.Repeat("x", 100) + "\nafter\nno newline at end")

	c := NewDecoderConsumer(StdinCommand, input, rec.handle, zap.NewNop())
	c.maxLine = 16
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, []string{"short", "after", "no newline at end"}, rec.lines)
}

func TestDecoderConsumer_CommandKeepsReadingAfterOverLongLine(t *testing.T) {
	rec := &lineRecorder{}

	c := NewDecoderConsumer("head -c 70000 /dev/zero | tr '\\0' x; printf '\\nFLEX|next\\n'", nil, rec.handle, zap.NewNop())
	c.maxLine = 1024
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, []string{"FLEX|next"}, rec.lines)
}

func TestDecoderConsumer_Command(t *testing.T) {
	rec := &lineRecorder{}

	c := NewDecoderConsumer("printf 'one\\ntwo\\n'", nil, rec.handle, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, []string{"one", "two"}, rec.lines)
}

func TestDecoderConsumer_CommandFails(t *testing.T) {
	rec := &lineRecorder{}

	c := NewDecoderConsumer("exit 3", nil, rec.handle, zap.NewNop())
	err := c.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoder exited")
}

func TestCheckRequirements(t *testing.T) {
	assert.NoError(t, CheckRequirements(StdinCommand))
	assert.NoError(t, CheckRequirements("sh -c true | cat"))

	err := CheckRequirements("sh | p2000-no-such-decoder -a FLEX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p2000-no-such-decoder")
	assert.NotContains(t, err.Error(), "sh,")
}
