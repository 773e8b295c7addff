package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/fractal/internal/client"
)

func TestMarkdownTable(t *testing.T) {
	md := markdownTable("Things", []string{"Id", "Name"}, [][]string{
		{"1", "a|b"},
		{"2", "multi\nline"},
	})

	assert.Equal(t, "## Things\n\n"+
		"| Id | Name |\n"+
		"| --- | --- |\n"+
		"| 1 | a\\|b |\n"+
		"| 2 | multi line |\n", md)

	empty := markdownTable("", []string{"Id"}, nil)
	assert.Contains(t, empty, "_No entries_")
	assert.NotContains(t, empty, "##")
}

func TestPrinter_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, &globalFlags{}, "auto", "UTC")

	require.NoError(t, p.Object(map[string]int{"id": 1}))
	assert.Equal(t, "{\n  \"id\": 1\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, p.Markdown("# Title\n"))
	assert.Equal(t, "# Title\n", buf.String(), "markdown is not rendered off a terminal")

	assert.Equal(t, "2024-03-01 12:30:00 UTC", p.Time(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)))
	assert.Equal(t, "-", p.Time(time.Time{}))

	buf.Reset()
	p.json = true
	require.NoError(t, p.Table("T", []string{"Id"}, [][]string{{"1"}}, []int{1}))
	assert.Equal(t, "[\n  1\n]\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{45 * time.Second, "45 seconds"},
		{time.Minute + 30*time.Second, "1 minute"},
		{2*time.Hour + 5*time.Minute, "2 hours and 5 minutes"},
		{-time.Hour, "1 hour"},
		{49*time.Hour + 3*time.Minute, "2 days, 1 hour and 3 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.d))
		})
	}
}

func TestFormatError(t *testing.T) {
	pathErr := &fs.PathError{Op: "open", Path: "/ro/session", Err: fs.ErrPermission}

	tests := []struct {
		name string
		err  error
		want string
		code int
	}{
		{
			name: "exit error",
			err:  &ExitError{Code: 3, Message: "Nothing to update"},
			want: "Nothing to update",
			code: 3,
		},
		{
			name: "bad credentials",
			err:  &client.AuthenticationError{StatusCode: 400, Body: `{"detail":"LOGIN_BAD_CREDENTIALS"}`, Detail: "LOGIN_BAD_CREDENTIALS"},
			want: "Authentication failed (status 400): LOGIN_BAD_CREDENTIALS\nCheck the username and password (-u/-p, FRACTAL_USER/FRACTAL_PASSWORD).",
			code: 1,
		},
		{
			name: "cache unwritable",
			err:  fmt.Errorf("%w: %w", client.ErrCacheUnwritable, pathErr),
			want: "Logged in, but the token could not be saved: token cache is not writable: open /ro/session: permission denied\n" +
				"Check the permissions of the cache path or set FRACTAL_CACHE_PATH.",
			code: 1,
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: "Error: boom",
			code: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatError(tt.err))
			assert.Equal(t, tt.code, ExitCode(tt.err))
		})
	}

	unreachable := FormatError(fmt.Errorf("%w: %w", client.ErrServerUnreachable, errors.New("connection refused")))
	assert.Contains(t, unreachable, "could not reach server: connection refused")
	assert.Contains(t, unreachable, "FRACTAL_SERVER")
}
