package ui

import (
	"fmt"
	"io"
	"os"
)

// Output handles styled terminal output.
type Output struct {
	noColor bool
	stdout  io.Writer
	stderr  io.Writer
}

// NewOutput creates an Output on the process's stdout and stderr.
func NewOutput() *Output {
	return NewOutputTo(os.Stdout, os.Stderr)
}

// NewOutputTo creates an Output on the given writers.
func NewOutputTo(stdout, stderr io.Writer) *Output {
	return &Output{stdout: stdout, stderr: stderr}
}

// SetNoColor disables colored output.
func (o *Output) SetNoColor(v bool) {
	o.noColor = v
}

// Stdout is the writer for plain payloads such as prompts or JSON.
func (o *Output) Stdout() io.Writer {
	return o.stdout
}

// Success prints a success message with a green checkmark.
func (o *Output) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if o.noColor {
		fmt.Fprintf(o.stdout, "OK %s\n", msg)
	} else {
		fmt.Fprintf(o.stdout, "\033[32m✓\033[0m %s\n", msg)
	}
}

// Error prints an error message with a red X.
func (o *Output) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if o.noColor {
		fmt.Fprintf(o.stderr, "FAIL %s\n", msg)
	} else {
		fmt.Fprintf(o.stderr, "\033[31m✗\033[0m %s\n", msg)
	}
}

// Warning prints a warning message with a yellow exclamation.
func (o *Output) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if o.noColor {
		fmt.Fprintf(o.stderr, "WARN %s\n", msg)
	} else {
		fmt.Fprintf(o.stderr, "\033[33m!\033[0m %s\n", msg)
	}
}

// Info prints an informational message.
func (o *Output) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if o.noColor {
		fmt.Fprintf(o.stdout, "INFO %s\n", msg)
	} else {
		fmt.Fprintf(o.stdout, "\033[34mi\033[0m %s\n", msg)
	}
}

// Println prints a line to stdout.
func (o *Output) Println(format string, args ...any) {
	fmt.Fprintf(o.stdout, format+"\n", args...)
}

// Dim prints a de-emphasized line, such as a hint.
func (o *Output) Dim(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if o.noColor {
		fmt.Fprintln(o.stdout, msg)
	} else {
		fmt.Fprintf(o.stdout, "\033[2m%s\033[0m\n", msg)
	}
}

// Hint prints a de-emphasized line to stderr, next to the error it explains.
func (o *Output) Hint(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if o.noColor {
		fmt.Fprintf(o.stderr, "  %s\n", msg)
	} else {
		fmt.Fprintf(o.stderr, "\033[2m  %s\033[0m\n", msg)
	}
}

// Accent returns s highlighted in cyan, or unchanged without color.
func (o *Output) Accent(s string) string {
	if o.noColor {
		return s
	}
	return "\033[36m" + s + "\033[0m"
}
