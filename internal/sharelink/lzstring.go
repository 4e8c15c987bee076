package sharelink

import (
	"errors"
	"strings"
	"unicode/utf16"
)

// uriAlphabet is the 6-bit alphabet of lz-string's URI component encoding.
// Every character is valid unescaped in a query value except '+', which
// DecompressFromEncodedURIComponent accepts back as a space.
const uriAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+-$"

// maxDecompressedUnits caps the output of a single decompression so a
// crafted payload cannot expand without bound.
const maxDecompressedUnits = 4 << 20

// ErrMalformed is returned for share payloads that cannot be decoded.
var ErrMalformed = errors.New("malformed share payload")

var uriIndex = func() [256]int {
	var idx [256]int
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(uriAlphabet); i++ {
		idx[uriAlphabet[i]] = i
	}
	return idx
}()

type bitWriter struct {
	out         strings.Builder
	val         int
	pos         int
	bitsPerChar int
}

// write emits the n low bits of value, least significant first.
func (b *bitWriter) write(value, n int) {
	for i := 0; i < n; i++ {
		b.val = b.val<<1 | value&1
		if b.pos == b.bitsPerChar-1 {
			b.pos = 0
			b.out.WriteByte(uriAlphabet[b.val])
			b.val = 0
		} else {
			b.pos++
		}
		value >>= 1
	}
}

func (b *bitWriter) flush() {
	for {
		b.val <<= 1
		if b.pos == b.bitsPerChar-1 {
			b.out.WriteByte(uriAlphabet[b.val])
			return
		}
		b.pos++
	}
}

// unitKey encodes UTF-16 code units as a map key, two bytes per unit.
func unitKey(units ...uint16) string {
	var sb strings.Builder
	sb.Grow(len(units) * 2)
	for _, u := range units {
		sb.WriteByte(byte(u >> 8))
		sb.WriteByte(byte(u))
	}
	return sb.String()
}

func firstUnit(key string) uint16 {
	return uint16(key[0])<<8 | uint16(key[1])
}

// CompressToEncodedURIComponent compresses s with the lz-string algorithm
// and encodes the result in the URI-safe alphabet. The output is identical
// to lz-string's compressToEncodedURIComponent for the same input, so links
// built here open in a browser and vice versa.
func CompressToEncodedURIComponent(s string) string {
	units := utf16.Encode([]rune(s))

	dictionary := map[string]int{}
	toCreate := map[string]bool{}
	enlargeIn := 2
	dictSize := 3
	numBits := 2
	w := ""
	out := &bitWriter{bitsPerChar: 6}

	grow := func() {
		enlargeIn--
		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}

	emit := func(w string) {
		if toCreate[w] {
			c := int(firstUnit(w))
			if c < 256 {
				out.write(0, numBits)
				out.write(c, 8)
			} else {
				out.write(1, numBits)
				out.write(c, 16)
			}
			grow()
			delete(toCreate, w)
		} else {
			out.write(dictionary[w], numBits)
		}
		grow()
	}

	for _, u := range units {
		c := unitKey(u)
		if _, ok := dictionary[c]; !ok {
			dictionary[c] = dictSize
			dictSize++
			toCreate[c] = true
		}
		wc := w + c
		if _, ok := dictionary[wc]; ok {
			w = wc
			continue
		}
		emit(w)
		dictionary[wc] = dictSize
		dictSize++
		w = c
	}
	if w != "" {
		emit(w)
	}

	// end of stream
	out.write(2, numBits)
	out.flush()
	return out.out.String()
}

type bitReader struct {
	input string
	val   int
	pos   int
	index int
	err   error
}

func (r *bitReader) value(i int) int {
	if i >= len(r.input) {
		return 0
	}
	v := uriIndex[r.input[i]]
	if v < 0 {
		r.err = ErrMalformed
		return 0
	}
	return v
}

func (r *bitReader) read(n int) int {
	bits := 0
	for power := 1; power != 1<<n; power <<= 1 {
		resb := r.val & r.pos
		r.pos >>= 1
		if r.pos == 0 {
			r.pos = 32
			r.val = r.value(r.index)
			r.index++
		}
		if resb > 0 {
			bits |= power
		}
	}
	return bits
}

// DecompressFromEncodedURIComponent reverses CompressToEncodedURIComponent.
// Spaces are read as '+' since form decoding turns '+' into a space.
// Truncated or corrupted input returns ErrMalformed.
func DecompressFromEncodedURIComponent(s string) (string, error) {
	if s == "" {
		return "", ErrMalformed
	}
	s = strings.ReplaceAll(s, " ", "+")

	r := &bitReader{input: s, pos: 32, index: 1}
	r.val = r.value(0)

	dictionary := [][]uint16{{0}, {1}, {2}}
	enlargeIn := 4
	numBits := 3

	var c []uint16
	switch r.read(2) {
	case 0:
		c = []uint16{uint16(r.read(8))}
	case 1:
		c = []uint16{uint16(r.read(16))}
	case 2:
		return "", r.err
	default:
		return "", ErrMalformed
	}
	if r.err != nil {
		return "", r.err
	}
	dictionary = append(dictionary, c)
	w := c
	result := append([]uint16(nil), c...)

	for {
		if r.index > len(s) || r.err != nil {
			return "", ErrMalformed
		}
		code := r.read(numBits)
		switch code {
		case 0, 1:
			width := 8
			if code == 1 {
				width = 16
			}
			dictionary = append(dictionary, []uint16{uint16(r.read(width))})
			code = len(dictionary) - 1
			enlargeIn--
		case 2:
			if r.err != nil {
				return "", r.err
			}
			return string(utf16.Decode(result)), nil
		}
		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}

		var entry []uint16
		switch {
		case code > 2 && code < len(dictionary):
			entry = dictionary[code]
		case code == len(dictionary):
			entry = append(append([]uint16(nil), w...), w[0])
		default:
			return "", ErrMalformed
		}
		result = append(result, entry...)
		if len(result) > maxDecompressedUnits {
			return "", ErrMalformed
		}

		dictionary = append(dictionary, append(append([]uint16(nil), w...), entry[0]))
		enlargeIn--
		w = entry
		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}
}
