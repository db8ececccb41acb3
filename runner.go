package cntool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// VirtualFile is content handed to the external binary without touching the
// filesystem. Arguments reference it as file://<name>; the runner rewrites
// those to /dev/fd paths backed by pipes.
type VirtualFile struct {
	Name    string
	Content []byte
}

// Runner executes one cardano-cli invocation and returns its combined
// stdout/stderr. A non-nil error means a non-zero exit; the output is still
// returned so callers can surface the diagnostic.
type Runner interface {
	Run(ctx context.Context, args []string, files []VirtualFile) (out []byte, err error)
}

const DefaultCardanoBinaryPath = "/usr/local/bin/cardano-cli"

type ExecRunner struct {
	BinaryPath string
}

var _ Runner = &ExecRunner{}

func NewExecRunner(binaryPath string) *ExecRunner {
	if binaryPath == "" {
		binaryPath = DefaultCardanoBinaryPath
	}
	return &ExecRunner{BinaryPath: binaryPath}
}

func (r *ExecRunner) Run(ctx context.Context, args []string, files []VirtualFile) (out []byte, err error) {
	cmd := exec.CommandContext(ctx, r.BinaryPath)
	cmd.Env = os.Environ()

	fileMap := make(map[string]int)

	for i, vf := range files {
		pr, pw, err2 := os.Pipe()
		if err2 != nil {
			err = errors.Wrapf(err2, "failed to create pipe for %s", vf.Name)
			return
		}
		defer pr.Close()

		// ExtraFiles[i] becomes fd 3+i in the child.
		cmd.ExtraFiles = append(cmd.ExtraFiles, pr)
		fileMap[vf.Name] = 3 + i

		go func(w *os.File, content []byte) {
			defer w.Close()
			_, _ = io.Copy(w, bytes.NewReader(content))
		}(pw, vf.Content)
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "file://") {
			name := strings.TrimPrefix(arg, "file://")
			fd, ok := fileMap[name]
			if !ok {
				err = errors.Errorf("no virtual file registered for '%s'", name)
				return
			}
			arg = fmt.Sprintf("/dev/fd/%d", fd)
		}
		cmd.Args = append(cmd.Args, arg)
	}

	var buf syncBuffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	log.Debug().Msgf("cli exec: %s", cmd.String())

	if err = cmd.Start(); err != nil {
		err = errors.Wrap(err, "failed to start command")
		return
	}

	err = cmd.Wait()
	out = buf.Bytes()
	if err != nil {
		err = errors.Wrapf(err, "command failed: %s", strings.TrimSpace(string(out)))
	}

	return
}

type syncBuffer struct {
	buffer bytes.Buffer
	mutex  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.Bytes()
}
