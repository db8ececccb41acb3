package cntool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerVirtualFiles(t *testing.T) {
	runner := NewExecRunner("/bin/cat")

	out, err := runner.Run(context.Background(), []string{"file://payload"}, []VirtualFile{
		{Name: "payload", Content: []byte("piped through, never on disk")},
	})
	require.Nil(t, err)
	assert.Equal(t, "piped through, never on disk", string(out))
}

func TestExecRunnerUnknownVirtualFile(t *testing.T) {
	runner := NewExecRunner("/bin/cat")

	_, err := runner.Run(context.Background(), []string{"file://missing"}, nil)
	assert.Error(t, err)
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	runner := NewExecRunner("/bin/cat")

	out, err := runner.Run(context.Background(), []string{"/no/such/path"}, nil)
	assert.Error(t, err)
	assert.Contains(t, string(out), "No such file")
}
