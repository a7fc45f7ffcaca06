// Package logger prints tagged, coloured status lines to the console.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	tagColor     = color.New(color.FgHiBlack)
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	brandColor   = color.New(color.FgHiMagenta, color.Bold)

	mu  sync.Mutex
	out io.Writer // nil means os.Stdout at call time
)

// SetOutput redirects all log lines. The TUI points this at a file so log
// lines do not tear the screen. Passing nil restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func writer() io.Writer {
	if out == nil {
		return os.Stdout
	}
	return out
}

func line(c *color.Color, level, tag, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(writer(), "%s %s %s %s\n",
		tagColor.Sprint(time.Now().Format("15:04:05")),
		c.Sprintf("%-4s", level),
		tagColor.Sprintf("[%s]", tag),
		msg,
	)
}

func Info(tag, msg string)    { line(infoColor, "INFO", tag, msg) }
func Success(tag, msg string) { line(successColor, "OK", tag, msg) }
func Warn(tag, msg string)    { line(warnColor, "WARN", tag, msg) }
func Error(tag, msg string)   { line(errorColor, "ERR", tag, msg) }

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	mu.Lock()
	defer mu.Unlock()
	w := writer()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s\n", brandColor.Sprint("eve-chainmap"), tagColor.Sprint(version))
	fmt.Fprintf(w, "  %s\n\n", tagColor.Sprint("wormhole chain mapper"))
}

// Section prints a heading line.
func Section(title string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(writer(), "\n%s %s\n", brandColor.Sprint("::"), title)
}

// Stats prints an aligned key/value line.
func Stats(key string, value interface{}) {
	mu.Lock()
	defer mu.Unlock()
	pad := 18 - len(key)
	if pad < 1 {
		pad = 1
	}
	fmt.Fprintf(writer(), "   %s%s%v\n", tagColor.Sprint(key), strings.Repeat(" ", pad), value)
}

// Server announces the listen address.
func Server(addr string) {
	line(successColor, "OK", "HTTP", fmt.Sprintf("Listening on http://%s", addr))
}
