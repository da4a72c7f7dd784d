package voice

import "encoding/binary"

// Placeholder synthesis parameters: 16kHz mono 16-bit PCM, 60ms per word.
// A real TTS backend would replace renderWav wholesale; the cache and
// lease discipline above it stay the same.
const (
	sampleRate     = 16000
	samplesPerWord = sampleRate * 60 / 1000
)

// renderWav emits a valid RIFF/WAVE container with silence sized to the
// text, so downstream players and the cache exercise real files.
func renderWav(text string) []byte {
	words := 1
	for _, r := range text {
		if r == ' ' {
			words++
		}
	}
	dataLen := words * samplesPerWord * 2

	buf := make([]byte, 44+dataLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], sampleRate*2) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], 2)            // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)           // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	return buf
}
