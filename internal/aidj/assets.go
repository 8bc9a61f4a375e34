/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package aidj

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

const mockSampleRate = 22050

// mockAssetSeconds maps each placeholder file to its rendered length.
var mockAssetSeconds = map[string]int{
	"vo-short.wav":  3,
	"vo-medium.wav": 5,
	"vo-long.wav":   7,
}

// EnsureMockAssets renders the placeholder VO files under <mediaRoot>/vo so
// the mock generation path is playable on installs without API keys.
// Existing files are left alone.
func EnsureMockAssets(mediaRoot string) error {
	dir := filepath.Join(mediaRoot, "vo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create vo directory: %w", err)
	}
	for name, seconds := range mockAssetSeconds {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := writeSilenceWAV(path, seconds); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
	}
	return nil
}

// writeSilenceWAV writes a mono 16-bit PCM WAV of silence.
func writeSilenceWAV(path string, seconds int) error {
	dataLen := seconds * mockSampleRate * 2
	buf := make([]byte, 44+dataLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], mockSampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], mockSampleRate*2)
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	return os.WriteFile(path, buf, 0o644)
}
