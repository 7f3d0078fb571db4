package stream

import "encoding/binary"

// SamplesFromPCM converts little-endian signed 16-bit mono bytes to float32
// samples normalized to [-1, 1). A trailing odd byte is ignored.
func SamplesFromPCM(data []byte) []float32 {
	n := len(data) / BytesPerSample
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
		samples[i] = float32(v) / 32768
	}
	return samples
}
