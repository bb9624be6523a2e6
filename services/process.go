package services

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/mrnavastar/yagua/util"
	"golang.org/x/sync/errgroup"
)

// LineSink receives one line of process output, without the newline.
type LineSink func(line string)

// drain feeds r to sink line by line until EOF. Lines have no length cap.
// After a read error the rest of r is still consumed.
func drain(r io.Reader, sink LineSink) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if line != "" && sink != nil {
			sink(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			io.Copy(io.Discard, r)
			return err
		}
	}
}

// RunProcess starts argv in dir, feeds both output streams to their sinks
// concurrently and blocks until the process exits. A process that started
// but exited unsuccessfully yields a *util.GameExitError.
func RunProcess(argv []string, dir string, stdout LineSink, stderr LineSink) error {
	if len(argv) == 0 {
		return fmt.Errorf("%w: empty command", util.ErrLaunchSpawn)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrLaunchSpawn, err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrLaunchSpawn, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", util.ErrLaunchSpawn, argv[0], err)
	}

	var g errgroup.Group
	g.Go(func() error { return drain(outPipe, stdout) })
	g.Go(func() error { return drain(errPipe, stderr) })
	readErr := g.Wait()

	// Wait only after both pipes hit EOF, it closes them.
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &util.GameExitError{Code: exitErr.ExitCode(), Err: err}
		}
		return err
	}
	return readErr
}
