package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"time"

	"entropack/pkg/archive"
	"entropack/pkg/baseline"
	"entropack/pkg/core"
	"entropack/pkg/opctl"
	"entropack/pkg/progress"
)

const progName = "entropack"

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitCancelled = 130
)

func main() {
	startLogging(os.Getenv("ENTROPACK_DEBUG") != "")

	gate := opctl.NewGate()
	var coord opctl.Coordinator
	stop := watchSignals(&coord, gate)
	defer stop()

	var code int
	task := coord.Start(context.Background(), func(ctx context.Context) error {
		code = run(ctx, os.Args[1:], gate, os.Stdin, os.Stdout, os.Stderr)
		return nil
	})
	task.Wait()
	stop()
	os.Exit(code)
}

// watchSignals cancels the running command on interrupt and toggles gate on
// the platform's pause signal, if it has one.
func watchSignals(coord *opctl.Coordinator, gate *opctl.Gate) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, append([]os.Signal{os.Interrupt}, pauseSignals...)...)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				if sig == os.Interrupt {
					log.Info("interrupt received, cancelling")
					coord.Cancel()
					gate.Resume()
					continue
				}
				if gate.Paused() {
					log.Info("resuming")
					gate.Resume()
				} else {
					log.Info("pausing")
					gate.Pause()
				}
			}
		}
	}()
	var once bool
	return func() {
		if once {
			return
		}
		once = true
		signal.Stop(sigs)
		close(done)
	}
}

// printUsage prints the command-line usage information
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s compress [-algo huffman|shannon-fano] [-password P] [-o archive] [-parallel] file...\n", progName)
	fmt.Fprintf(w, "  %s decompress [-password P] [-o dir] [-parallel] archive...\n", progName)
	fmt.Fprintf(w, "  %s compress-folder [-algo huffman|shannon-fano] [-password P] [-o dir] [-parallel] folder...\n", progName)
	fmt.Fprintf(w, "  %s decompress-folder [-password P] [-o dir] [-parallel] archive_dir...\n", progName)
	fmt.Fprintf(w, "  %s compare file...\n", progName)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The password may also be given in ENTROPACK_PASSWORD.")
	fmt.Fprintln(w, "Set ENTROPACK_DEBUG for debug logging.")
}

// command holds the parsed flags shared by every operation.
type command struct {
	name     string
	algo     string
	password string
	output   string
	parallel bool
	args     []string

	gate   *opctl.Gate
	prompt core.PasswordPrompt
	stdout io.Writer
	stderr io.Writer
}

func parseCommand(args []string, stderr io.Writer) (*command, error) {
	if len(args) < 1 {
		return nil, errors.New("missing operation")
	}
	cmd := &command{name: args[0], stderr: stderr}

	fs := flag.NewFlagSet(progName+" "+cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cmd.algo, "algo", "huffman", "coding algorithm: huffman or shannon-fano")
	fs.StringVar(&cmd.password, "password", os.Getenv("ENTROPACK_PASSWORD"), "encryption password")
	fs.StringVar(&cmd.output, "o", "", "output archive, archive folder or extraction folder")
	fs.BoolVar(&cmd.parallel, "parallel", false, "run one independent operation per input")
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	cmd.args = fs.Args()
	if len(cmd.args) == 0 {
		return nil, fmt.Errorf("%s: no inputs given", cmd.name)
	}
	if cmd.parallel && cmd.output != "" && len(cmd.args) > 1 {
		return nil, fmt.Errorf("%s: -o cannot be combined with -parallel and several inputs", cmd.name)
	}
	return cmd, nil
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, gate *opctl.Gate, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}
	cmd, err := parseCommand(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		printUsage(stderr)
		return exitUsage
	}
	cmd.gate, cmd.stdout = gate, stdout
	cmd.prompt = newPrompt(stdin, stderr)
	log.Debugf("%s on %d input(s), %d CPU cores", cmd.name, len(cmd.args), runtime.NumCPU())

	var handler func(context.Context, *command) error
	switch cmd.name {
	case "compress":
		handler = handleCompress
	case "decompress":
		handler = handleDecompress
	case "compress-folder":
		handler = handleCompressFolder
	case "decompress-folder":
		handler = handleDecompressFolder
	case "compare":
		handler = handleCompare
	default:
		fmt.Fprintln(stderr, "Invalid operation:", cmd.name)
		printUsage(stderr)
		return exitUsage
	}

	err = handler(ctx, cmd)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, core.ErrCancelled):
		fmt.Fprintln(stdout, warnStyle.Render("operation cancelled"))
		return exitCancelled
	default:
		fmt.Fprintln(stderr, errorStyle.Render("Error: "+err.Error()))
		return exitFailure
	}
}

func (c *command) options(alg archive.Algorithm, tracker *progress.Tracker) core.Options {
	return core.Options{
		Algorithm: alg,
		Password:  c.password,
		Output:    c.output,
		Gate:      c.gate,
		Progress:  tracker,
		Prompt:    c.prompt,
	}
}

func (c *command) tracker(label string) *progress.Tracker {
	t := progress.New(c.stderr, label, time.Second)
	t.Start(0)
	return t
}

// eachInput runs fn for every input, concurrently with -parallel, and joins
// the failures.
func (c *command) eachInput(ctx context.Context, fn func(ctx context.Context, input string) error) error {
	if !c.parallel {
		var errs []error
		for _, in := range c.args {
			if err := fn(ctx, in); err != nil {
				if errors.Is(err, core.ErrCancelled) {
					return err
				}
				errs = append(errs, fmt.Errorf("%s: %w", in, err))
			}
		}
		return errors.Join(errs...)
	}

	jobs := make([]core.Job, len(c.args))
	for i, in := range c.args {
		in := in
		jobs[i] = core.Job{Name: in, Run: func(ctx context.Context) error { return fn(ctx, in) }}
	}
	var errs []error
	cancelled := false
	for i, err := range core.RunParallel(ctx, jobs) {
		if err == nil {
			continue
		}
		if errors.Is(err, core.ErrCancelled) {
			cancelled = true
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", c.args[i], err))
	}
	if cancelled && len(errs) == 0 {
		return core.ErrCancelled
	}
	return errors.Join(errs...)
}

// handleCompress packs all inputs into one archive, or each input into its
// own archive with -parallel.
func handleCompress(ctx context.Context, c *command) error {
	alg, err := archive.ParseAlgorithm(c.algo)
	if err != nil {
		return err
	}
	t := c.tracker("compress")
	defer t.Stop()

	if !c.parallel {
		res, err := core.Compress(ctx, c.args, c.options(alg, t))
		if err != nil {
			return err
		}
		t.Stop()
		printCompression(c.stdout, *res)
		return nil
	}

	results := make([]*core.CompressionResult, len(c.args))
	index := make(map[string]int, len(c.args))
	for i, in := range c.args {
		index[in] = i
	}
	err = c.eachInput(ctx, func(ctx context.Context, in string) error {
		res, err := core.Compress(ctx, []string{in}, c.options(alg, t))
		results[index[in]] = res
		return err
	})
	t.Stop()
	for _, res := range results {
		if res != nil {
			printCompression(c.stdout, *res)
		}
	}
	return err
}

func handleDecompress(ctx context.Context, c *command) error {
	t := c.tracker("decompress")
	defer t.Stop()

	return c.eachInput(ctx, func(ctx context.Context, in string) error {
		opts := c.options(0, t)
		written, err := core.Decompress(ctx, in, c.output, opts)
		for attempt := 1; attempt <= 3 && opts.Prompt != nil && isPasswordError(err); attempt++ {
			password, ok := opts.Prompt(in, attempt)
			if !ok {
				break
			}
			opts.Password = password
			written, err = core.Decompress(ctx, in, c.output, opts)
		}
		if err != nil {
			return err
		}
		printExtracted(c.stdout, in, written)
		return nil
	})
}

func isPasswordError(err error) bool {
	return errors.Is(err, core.ErrPasswordRequired) || errors.Is(err, core.ErrDecryption)
}

func handleCompressFolder(ctx context.Context, c *command) error {
	alg, err := archive.ParseAlgorithm(c.algo)
	if err != nil {
		return err
	}
	t := c.tracker("compress-folder")
	defer t.Stop()

	return c.eachInput(ctx, func(ctx context.Context, folder string) error {
		res, err := core.CompressFolder(ctx, folder, c.options(alg, t))
		if res != nil {
			printFolder(c.stdout, res)
		}
		return err
	})
}

func handleDecompressFolder(ctx context.Context, c *command) error {
	t := c.tracker("decompress-folder")
	defer t.Stop()

	return c.eachInput(ctx, func(ctx context.Context, dir string) error {
		res, err := core.DecompressFolder(ctx, dir, c.output, c.options(0, t))
		if res != nil {
			printFolderExtract(c.stdout, res)
		}
		return err
	})
}

func handleCompare(ctx context.Context, c *command) error {
	t := c.tracker("read")
	defer t.Stop()

	for _, in := range c.args {
		if err := opctl.Checkpoint(ctx, c.gate); err != nil {
			return err
		}
		data, err := readCounted(in, t)
		if err != nil {
			return err
		}
		ms, err := baseline.Measure(ctx, data)
		if err != nil {
			return err
		}
		printComparison(c.stdout, in, int64(len(data)), ms)
	}
	return nil
}

// readCounted reads path while feeding its size to t.
func readCounted(path string, t *progress.Tracker) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	defer f.Close()
	if info, err := f.Stat(); err == nil {
		t.Grow(info.Size())
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&progress.Writer{W: &buf, T: t}, f); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrIO, path, err)
	}
	return buf.Bytes(), nil
}
