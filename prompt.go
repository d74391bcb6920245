package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"entropack/pkg/core"
)

// newPrompt returns a PasswordPrompt that reads one line per request from in.
// Requests from parallel jobs are serialised.  End of input gives up.
func newPrompt(in io.Reader, out io.Writer) core.PasswordPrompt {
	if in == nil {
		return nil
	}
	var mu sync.Mutex
	sc := bufio.NewScanner(in)
	return func(path string, attempt int) (string, bool) {
		mu.Lock()
		defer mu.Unlock()

		if attempt > 1 {
			fmt.Fprintf(out, "Wrong password for %s (attempt %d). Password: ", path, attempt)
		} else {
			fmt.Fprintf(out, "Password for %s: ", path)
		}
		if !sc.Scan() {
			fmt.Fprintln(out)
			return "", false
		}
		password := strings.TrimRight(sc.Text(), "\r")
		if password == "" {
			return "", false
		}
		return password, true
	}
}
