package process

import "valscan/process/memory_map"

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress = memory_map.Address

// WordSize is the width in bytes of the values the scanner reads
const WordSize = 4
