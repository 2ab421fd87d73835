package pcm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	wavHeaderSize   = 44
	wavFmtChunkSize = 16
	wavFormatPCM    = 1
)

// WAV returns the payload as a complete RIFF/WAVE file.
func WAV(p Payload) ([]byte, error) {
	raw, err := p.Bytes()
	if err != nil {
		return nil, err
	}

	blockAlign := Channels * BitDepth / 8
	byteRate := SampleRate * blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(raw)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(wavHeaderSize-8+len(raw)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(wavFmtChunkSize))
	_ = binary.Write(buf, binary.LittleEndian, uint16(wavFormatPCM))
	_ = binary.Write(buf, binary.LittleEndian, uint16(Channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(BitDepth))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(raw)))
	buf.Write(raw)

	return buf.Bytes(), nil
}

// WriteWAV writes the payload to w as a RIFF/WAVE file.
func WriteWAV(w io.Writer, p Payload) error {
	data, err := WAV(p)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("unable to write wav data: %w", err)
	}
	return nil
}
