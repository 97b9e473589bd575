package loudness

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SavePCMDataToWAV saves the given PCM data as a WAV file at the specified filePath.
func SavePCMDataToWAV(filePath string, pcmData []byte, sampleRate, bitDepth, numChannels int) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	outFile, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close() //nolint:errcheck

	enc := wav.NewEncoder(outFile, sampleRate, bitDepth, numChannels, 1)

	intSamples := byteSliceToInts(pcmData)

	if err := enc.Write(&audio.IntBuffer{
		Data:   intSamples,
		Format: &audio.Format{SampleRate: sampleRate, NumChannels: numChannels},
	}); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}

	// Close finalizes the WAV header
	return enc.Close()
}

// byteSliceToInts converts a byte slice to a slice of integers, treating
// each pair of bytes as one 16-bit little-endian sample.
func byteSliceToInts(pcmData []byte) []int {
	samples := make([]int, 0, len(pcmData)/2)
	buf := bytes.NewBuffer(pcmData)

	for {
		var sample int16
		if err := binary.Read(buf, binary.LittleEndian, &sample); err != nil {
			break // end of buffer
		}
		samples = append(samples, int(sample))
	}

	return samples
}
