package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipesh/pipesh/core/proc/proctest"
)

func TestEnv(t *testing.T) {
	cmd := proctest.Command(Env, "env")
	cmd.Env = []string{"B=2", "A=1"}

	out, err := cmd.Output()

	assert.Nil(t, err)
	assert.Equal(t, 0, cmd.ExitStatus)
	assert.Equal(t, "A=1\nB=2\n", string(out), "output is sorted")
}
