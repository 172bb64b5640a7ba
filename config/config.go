// Package config holds the settings shared by the valscan commands. Values
// come from command line flags and VALSCAN_* environment variables.
package config

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	procRoot     = "proc-root"
	memorySource = "memory-source"
	byteOrder    = "byte-order"
	writableOnly = "writable-only"
	listLimit    = "list-limit"
)

// Config is the resolved configuration
type Config struct {
	// ProcRoot is the procfs mount point
	ProcRoot string
	// MemorySource is "mem" or "vm_readv"
	MemorySource string
	// ByteOrder is "little" or "big"
	ByteOrder string
	// WritableOnly skips read-only regions
	WritableOnly bool
	// ListLimit caps how many candidates the list command prints
	ListLimit int

	viper *viper.Viper
	flags *pflag.FlagSet
}

// New builds a configuration store bound to the environment.
func New() *Config {
	v := viper.New()
	v.SetEnvPrefix("valscan")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	c := &Config{
		viper: v,
		flags: new(pflag.FlagSet),
	}
	c.addFlags()
	return c
}

func (c *Config) addFlags() {
	c.flags.String(procRoot, "/proc", "Mount point of the proc filesystem")
	c.flags.String(memorySource, "mem", "How target memory is read: mem or vm_readv")
	c.flags.String(byteOrder, "little", "Byte order of scanned words: little or big")
	c.flags.Bool(writableOnly, false, "Only scan regions that are readable and writable")
	c.flags.Int(listLimit, 50, "Maximum number of candidates the list command prints")
}

// MustViperize adds the flag set to the Cobra command and binds them within Viper.
func (c *Config) MustViperize(cmd *cobra.Command) {
	cmd.PersistentFlags().AddFlagSet(c.flags)
	if err := c.viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// Init populates the struct from Viper and validates it.
func (c *Config) Init() error {
	c.ProcRoot = c.viper.GetString(procRoot)
	c.MemorySource = c.viper.GetString(memorySource)
	c.ByteOrder = c.viper.GetString(byteOrder)
	c.WritableOnly = c.viper.GetBool(writableOnly)
	c.ListLimit = c.viper.GetInt(listLimit)
	return c.Validate()
}

// Validate checks the values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch c.MemorySource {
	case "mem", "vm_readv":
	default:
		return fmt.Errorf("%s: unknown memory source %q", memorySource, c.MemorySource)
	}
	if _, err := parseByteOrder(c.ByteOrder); err != nil {
		return err
	}
	if c.ListLimit < 0 {
		return fmt.Errorf("%s: must not be negative", listLimit)
	}
	if c.ProcRoot == "" {
		return fmt.Errorf("%s: must not be empty", procRoot)
	}
	return nil
}

// Order returns the decoding byte order. Init must have succeeded.
func (c *Config) Order() binary.ByteOrder {
	order, err := parseByteOrder(c.ByteOrder)
	if err != nil {
		return binary.LittleEndian
	}
	return order
}

func parseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%s: unknown byte order %q", byteOrder, s)
}
