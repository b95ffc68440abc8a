// Package loader reads a program image: ASCII text, one 8-hex-digit
// instruction word per line, loaded sequentially to address 0 of both
// SRAMs up to their capacity or EOF.
package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sp6sim/memory"
)

// Load reads the program image at path and injects it into both srami
// and sramd starting at address 0. Blank lines are skipped; an image with
// more words than the SRAM can hold is an error rather than a silent
// truncation.
func Load(path string, srami, sramd *memory.SRAM) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening program image %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	addr := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if addr >= memory.WordCount {
			return addr, fmt.Errorf("program image %s exceeds %d words", path, memory.WordCount)
		}

		word, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return addr, fmt.Errorf("program image %s, word %d: %w", path, addr+1, err)
		}

		srami.Inject(uint16(addr), uint32(word))
		sramd.Inject(uint16(addr), uint32(word))
		addr++
	}
	if err := scanner.Err(); err != nil {
		return addr, fmt.Errorf("reading program image %s: %w", path, err)
	}

	return addr, nil
}
