package nn

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// Binary layout, little endian:
//
//	magic "MLP" | version u8 | layer count u32
//	per layer: in u32 | out u32 | activation u8 | weights in*out f64 (row-major) | biases out f64
const codecVersion = 1

var (
	codecMagic = [3]byte{'M', 'L', 'P'}

	ErrCorrupt = errors.New("corrupt network encoding")
)

// maxCodecDim bounds decoded dimensions. Allocation is further bounded by the
// payload left in the input, checked before every layer is read.
const maxCodecDim = 1 << 16

// minLayerBytes is the encoding of a 1x1 layer
const minLayerBytes = 4 + 4 + 1 + 8 + 8

// MarshalBinary encodes the network with full float64 precision
func (m *MLP) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(codecMagic[:])
	buf.WriteByte(codecVersion)
	write := func(v any) {
		// bytes.Buffer writes never fail
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	write(uint32(len(m.Layers)))
	for _, l := range m.Layers {
		in, out := l.Dims()
		write(uint32(in))
		write(uint32(out))
		write(uint8(l.Activation))
		for r := 0; r < in; r++ {
			write(l.Weights.RawRowView(r))
		}
		for i := 0; i < out; i++ {
			write(l.Biases.AtVec(i))
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces m with the decoded network
func (m *MLP) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}

// Decode reconstructs a network produced by MarshalBinary
func Decode(data []byte) (*MLP, error) {
	r := bytes.NewReader(data)
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if !bytes.Equal(header[:3], codecMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, header[:3])
	}
	if header[3] != codecVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, header[3])
	}

	read := func(v any) error {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return nil
	}

	var count uint32
	if err := read(&count); err != nil {
		return nil, err
	}
	if count == 0 || count > maxCodecDim || uint64(count)*minLayerBytes > uint64(r.Len()) {
		return nil, fmt.Errorf("%w: layer count %d", ErrCorrupt, count)
	}

	layers := make([]*Layer, count)
	for i := range layers {
		var in, out uint32
		var act uint8
		if err := read(&in); err != nil {
			return nil, err
		}
		if err := read(&out); err != nil {
			return nil, err
		}
		if err := read(&act); err != nil {
			return nil, err
		}
		if in == 0 || out == 0 || in > maxCodecDim || out > maxCodecDim {
			return nil, fmt.Errorf("%w: layer %d is %dx%d", ErrCorrupt, i, in, out)
		}
		if params := uint64(in)*uint64(out) + uint64(out); params > uint64(r.Len())/8 {
			return nil, fmt.Errorf("%w: layer %d needs %d values, %d bytes left", ErrCorrupt, i, params, r.Len())
		}
		weights := make([]float64, int(in)*int(out))
		if err := read(weights); err != nil {
			return nil, err
		}
		biases := make([]float64, out)
		if err := read(biases); err != nil {
			return nil, err
		}
		l, err := NewLayer(mat.NewDense(int(in), int(out), weights), mat.NewVecDense(int(out), biases), Activation(act))
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers[i] = l
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.Len())
	}
	return New(layers...)
}
