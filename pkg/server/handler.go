package server

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mcstructs/mcstructs/pkg/metrics"
	"github.com/mcstructs/mcstructs/pkg/varint"
)

// Value kinds accepted by the codec endpoints.
const (
	KindVarInt  = "varint"
	KindVarLong = "varlong"
)

// maxDecodeBody bounds the hex body of /v1/decode.
const maxDecodeBody = 1 << 10

// EncodeResponse is returned by GET /v1/encode.
type EncodeResponse struct {
	Kind   string `json:"kind"`
	Value  int64  `json:"value"`
	Hex    string `json:"hex"`
	Bytes  []int  `json:"bytes"`
	Length int    `json:"length"`
}

// DecodeResponse is returned by POST /v1/decode.
type DecodeResponse struct {
	Kind     string `json:"kind"`
	Value    int64  `json:"value"`
	Length   int    `json:"length"`
	Trailing int    `json:"trailing"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		writeError(w, err)
		return
	}

	raw := r.URL.Query().Get("value")
	bits := 32
	if kind == KindVarLong {
		bits = 64
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, bits)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %q", ErrBadValue, raw))
		return
	}

	var b []byte
	if kind == KindVarLong {
		b = varint.AppendVarLong(nil, v)
	} else {
		b = varint.AppendVarInt(nil, int32(v))
	}
	s.collector.ValueCoded("encode", kind)

	ints := make([]int, len(b))
	for i, c := range b {
		ints[i] = int(c)
	}
	writeJSON(w, http.StatusOK, EncodeResponse{
		Kind:   kind,
		Value:  v,
		Hex:    hex.EncodeToString(b),
		Bytes:  ints,
		Length: len(b),
	})
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDecodeBody))
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := parseHex(string(body))
	if err != nil {
		writeError(w, err)
		return
	}

	var v int64
	var n int
	if kind == KindVarLong {
		v, n, err = varint.DecodeVarLong(b)
	} else {
		var v32 int32
		v32, n, err = varint.DecodeVarInt(b)
		v = int64(v32)
	}
	if err != nil {
		s.collector.CodecError(metrics.DirectionIn, err)
		s.logger.Debug("decode rejected", "kind", kind, "error", err)
		writeError(w, err)
		return
	}
	s.collector.ValueCoded("decode", kind)

	writeJSON(w, http.StatusOK, DecodeResponse{
		Kind:     kind,
		Value:    v,
		Length:   n,
		Trailing: len(b) - n,
	})
}

// parseKind reads the kind query parameter, defaulting to varint.
func parseKind(r *http.Request) (string, error) {
	switch kind := strings.ToLower(r.URL.Query().Get("kind")); kind {
	case "", KindVarInt:
		return KindVarInt, nil
	case KindVarLong:
		return KindVarLong, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// parseHex decodes hex digits, ignoring whitespace, an optional 0x prefix
// and colon or dash separators.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':', '-':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, ErrEmptyInput
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadHex, err)
	}
	return b, nil
}
