package config

import (
	"encoding/binary"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(c *Config, args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	c.MustViperize(cmd)
	cmd.SetArgs(args)
	return cmd
}

func TestDefaults(t *testing.T) {
	c := New()
	require.NoError(t, newCommand(c).Execute())
	require.NoError(t, c.Init())

	assert.Equal(t, "/proc", c.ProcRoot)
	assert.Equal(t, "mem", c.MemorySource)
	assert.Equal(t, "little", c.ByteOrder)
	assert.False(t, c.WritableOnly)
	assert.Equal(t, 50, c.ListLimit)
	assert.Equal(t, binary.LittleEndian, c.Order())
}

func TestFlags(t *testing.T) {
	c := New()
	require.NoError(t, newCommand(c, "--proc-root", "/tmp/proc", "--memory-source", "vm_readv", "--byte-order", "big", "--writable-only", "--list-limit", "5").Execute())
	require.NoError(t, c.Init())

	assert.Equal(t, "/tmp/proc", c.ProcRoot)
	assert.Equal(t, "vm_readv", c.MemorySource)
	assert.True(t, c.WritableOnly)
	assert.Equal(t, 5, c.ListLimit)
	assert.Equal(t, binary.BigEndian, c.Order())
}

func TestEnv(t *testing.T) {
	t.Setenv("VALSCAN_BYTE_ORDER", "big")
	t.Setenv("VALSCAN_WRITABLE_ONLY", "true")

	c := New()
	require.NoError(t, newCommand(c).Execute())
	require.NoError(t, c.Init())

	assert.Equal(t, binary.BigEndian, c.Order())
	assert.True(t, c.WritableOnly)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "memory source", args: []string{"--memory-source", "ptrace"}},
		{name: "byte order", args: []string{"--byte-order", "middle"}},
		{name: "list limit", args: []string{"--list-limit", "-1"}},
		{name: "proc root", args: []string{"--proc-root", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			require.NoError(t, newCommand(c, tt.args...).Execute())
			assert.Error(t, c.Init())
		})
	}
}
