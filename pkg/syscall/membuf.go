package syscall

import (
	"fmt"

	"github.com/Weheineman/nachOS/pkg/machine"
)

// readByte reads one byte from the user address space, retrying once
// after the TLB-miss fault handler has had a chance to service the page.
func readByte(emu machine.Emulator, addr uint32) (byte, bool) {
	v, ok := emu.ReadMem(addr, 1)
	if !ok {
		v, ok = emu.ReadMem(addr, 1)
	}
	return byte(v), ok
}

func writeByte(emu machine.Emulator, addr uint32, b byte) bool {
	if emu.WriteMem(addr, 1, uint64(b)) {
		return true
	}
	return emu.WriteMem(addr, 1, uint64(b))
}

// readCString copies a null-terminated user string byte-at-a-time,
// rejecting a null pointer and enforcing maxLen (the configured bound
// on a path component).
func readCString(emu machine.Emulator, addr uint32, maxLen int) (string, error) {
	if addr == 0 {
		return "", fmt.Errorf("syscall: null pointer")
	}
	buf := make([]byte, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		b, ok := readByte(emu, addr+uint32(i))
		if !ok {
			return "", fmt.Errorf("syscall: unmapped user address %#x", addr+uint32(i))
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
	return "", fmt.Errorf("syscall: string exceeds %d bytes", maxLen)
}

// readUserBuf copies n bytes from the user address space into a fresh
// kernel buffer.
func readUserBuf(emu machine.Emulator, addr uint32, n int) ([]byte, error) {
	if addr == 0 {
		return nil, fmt.Errorf("syscall: null pointer")
	}
	buf := make([]byte, n)
	for i := range buf {
		b, ok := readByte(emu, addr+uint32(i))
		if !ok {
			return nil, fmt.Errorf("syscall: unmapped user address %#x", addr+uint32(i))
		}
		buf[i] = b
	}
	return buf, nil
}

// writeUserBuf copies buf into the user address space at addr.
func writeUserBuf(emu machine.Emulator, addr uint32, buf []byte) error {
	if addr == 0 {
		return fmt.Errorf("syscall: null pointer")
	}
	for i, b := range buf {
		if !writeByte(emu, addr+uint32(i), b) {
			return fmt.Errorf("syscall: unmapped user address %#x", addr+uint32(i))
		}
	}
	return nil
}
